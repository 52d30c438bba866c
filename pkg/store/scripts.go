package store

import (
	"context"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// CreateScript registers door-script metadata. Names are unique.
func (s *GORMStore) CreateScript(ctx context.Context, script *models.Script) error {
	if script.Name == "" {
		return models.NewValidationError("name", "is required")
	}
	if script.Path == "" {
		return models.NewValidationError("path", "is required")
	}
	return create(s.db, ctx, script, models.NewValidationError("name", "already exists"))
}

// ListScripts returns registered scripts by name.
func (s *GORMStore) ListScripts(ctx context.Context, activeOnly bool) ([]*models.Script, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var scripts []*models.Script
	if err := q.Find(&scripts).Error; err != nil {
		return nil, err
	}
	return scripts, nil
}

// GetScript retrieves script metadata by id.
func (s *GORMStore) GetScript(ctx context.Context, id int64) (*models.Script, error) {
	return getByField[models.Script](s.db, ctx, "id", id, models.ErrScriptNotFound)
}
