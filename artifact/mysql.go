package artifact

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

// NewMySQLStore creates a new MySQL-backed artifact store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create records a new artifact.
func (s *MySQLStore) Create(ctx context.Context, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		s.logger.Error(ctx, "failed to create artifact", map[string]interface{}{
			"error":   err.Error(),
			"case_id": a.CaseID.String(),
			"kind":    string(a.Kind),
		})
		return err
	}

	s.logger.Info(ctx, "artifact recorded", map[string]interface{}{
		"artifact_id": a.ID.String(),
		"case_id":     a.CaseID.String(),
		"kind":        string(a.Kind),
		"size_bytes":  a.SizeBytes,
	})

	return nil
}

// GetByID retrieves an artifact by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	var a Artifact
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		s.logger.Error(ctx, "failed to get artifact by ID", map[string]interface{}{
			"error":       err.Error(),
			"artifact_id": id.String(),
		})
		return nil, err
	}

	return &a, nil
}

// ListByCase retrieves all artifacts for a case ordered by creation time.
func (s *MySQLStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Artifact, error) {
	var artifacts []*Artifact
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&artifacts).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list artifacts", map[string]interface{}{
			"error":   err.Error(),
			"case_id": caseID.String(),
		})
		return nil, err
	}

	return artifacts, nil
}
