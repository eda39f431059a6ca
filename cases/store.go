package cases

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows a case listing. Zero values mean no constraint.
type Filter struct {
	AgentID uuid.UUID
	Status  Status
	Limit   int
}

// Store defines the interface for case persistence operations.
type Store interface {
	// Create opens a new case.
	Create(ctx context.Context, c *Case) error

	// GetByID retrieves a case by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)

	// Close marks an open case closed, stamping the close time.
	Close(ctx context.Context, id uuid.UUID) (*Case, error)

	// List retrieves cases matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*Case, error)
}
