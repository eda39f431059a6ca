package artifact

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for artifact persistence operations.
type Store interface {
	// Create records a new artifact.
	Create(ctx context.Context, a *Artifact) error

	// GetByID retrieves an artifact by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Artifact, error)

	// ListByCase retrieves all artifacts for a case in collection order.
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Artifact, error)
}
