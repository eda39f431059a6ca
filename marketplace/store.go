package marketplace

import "context"

// Store defines the interface for marketplace catalog persistence.
type Store interface {
	// GetByID retrieves a marketplace agent by its ID.
	GetByID(ctx context.Context, id string) (*Agent, error)

	// List retrieves all marketplace agents ordered by name.
	List(ctx context.Context) ([]*Agent, error)

	// Upsert creates or replaces a marketplace agent.
	Upsert(ctx context.Context, agent *Agent) error
}
