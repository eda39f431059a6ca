package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devadoot/devadoot/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed agent store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new agent in the database.
func (s *MySQLStore) Create(ctx context.Context, agent *Agent) error {
	if err := agent.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(agent).Error; err != nil {
		s.logger.Error(ctx, "failed to create agent", map[string]interface{}{
			"error": err.Error(),
			"name":  agent.Name,
		})
		return err
	}

	s.logger.Info(ctx, "agent created", map[string]interface{}{
		"agent_id": agent.ID.String(),
		"name":     agent.Name,
	})

	return nil
}

// GetByID retrieves an agent by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&agent).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		s.logger.Error(ctx, "failed to get agent by ID", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": id.String(),
		})
		return nil, err
	}

	return &agent, nil
}

// Update updates an agent with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(agent); err != nil {
			return err
		}
	}

	if err := agent.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(agent).Error; err != nil {
		s.logger.Error(ctx, "failed to update agent", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": id.String(),
		})
		return err
	}

	s.logger.Info(ctx, "agent updated", map[string]interface{}{
		"agent_id": id.String(),
	})

	return nil
}

// Delete removes an agent.
func (s *MySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Agent{})

	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete agent", map[string]interface{}{
			"error":    result.Error.Error(),
			"agent_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAgentNotFound
	}

	s.logger.Info(ctx, "agent deleted", map[string]interface{}{
		"agent_id": id.String(),
	})

	return nil
}

// List retrieves all agents ordered by priority ascending. Creation time
// breaks ties so discovery order is stable.
func (s *MySQLStore) List(ctx context.Context) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).
		Order("priority ASC, created_at ASC").
		Find(&agents).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list agents", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return agents, nil
}
