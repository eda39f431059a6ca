package cases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devadoot/devadoot/logger"
)

// defaultListLimit caps unbounded listings.
const defaultListLimit = 100

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed case store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create opens a new case.
func (s *MySQLStore) Create(ctx context.Context, c *Case) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		s.logger.Error(ctx, "failed to create case", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": c.AgentID.String(),
		})
		return err
	}

	s.logger.Info(ctx, "case opened", map[string]interface{}{
		"case_id":  c.ID.String(),
		"agent_id": c.AgentID.String(),
		"site":     c.Site,
	})

	return nil
}

// GetByID retrieves a case by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	var c Case
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		s.logger.Error(ctx, "failed to get case by ID", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id.String(),
		})
		return nil, err
	}

	return &c, nil
}

// Close marks an open case closed. Closing an already closed case is an
// error so callers can tell a double close from a successful one.
func (s *MySQLStore) Close(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status == StatusClosed {
		return nil, ErrCaseClosed
	}

	now := time.Now()
	c.Status = StatusClosed
	c.ClosedAt = &now

	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		s.logger.Error(ctx, "failed to close case", map[string]interface{}{
			"error":   err.Error(),
			"case_id": id.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "case closed", map[string]interface{}{
		"case_id": id.String(),
	})

	return c, nil
}

// List retrieves cases matching the filter ordered by creation time
// descending.
func (s *MySQLStore) List(ctx context.Context, filter Filter) ([]*Case, error) {
	query := s.db.WithContext(ctx).Model(&Case{})

	if filter.AgentID != uuid.Nil {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var results []*Case
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list cases", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return results, nil
}
