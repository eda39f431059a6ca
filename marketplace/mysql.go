package marketplace

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devadoot/devadoot/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed marketplace store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// GetByID retrieves a marketplace agent by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&agent).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		s.logger.Error(ctx, "failed to get marketplace agent", map[string]interface{}{
			"error":          err.Error(),
			"marketplace_id": id,
		})
		return nil, err
	}

	return &agent, nil
}

// List retrieves all marketplace agents ordered by name.
func (s *MySQLStore) List(ctx context.Context) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&agents).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list marketplace agents", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return agents, nil
}

// Upsert creates or replaces a marketplace agent.
func (s *MySQLStore) Upsert(ctx context.Context, agent *Agent) error {
	if err := agent.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(agent).Error

	if err != nil {
		s.logger.Error(ctx, "failed to upsert marketplace agent", map[string]interface{}{
			"error":          err.Error(),
			"marketplace_id": agent.ID,
		})
		return err
	}

	return nil
}
