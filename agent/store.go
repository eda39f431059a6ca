package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAgentNotFound is returned when an agent is not found.
var ErrAgentNotFound = errors.New("agent not found")

// Store defines the interface for agent persistence operations.
type Store interface {
	// Create creates a new agent in the store.
	Create(ctx context.Context, agent *Agent) error

	// GetByID retrieves an agent by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)

	// Update updates an agent with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// Delete removes an agent.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all agents ordered by priority ascending, creation
	// order breaking ties.
	List(ctx context.Context) ([]*Agent, error)
}

// UpdateSetter is a function that updates an agent field.
type UpdateSetter func(*Agent) error
