package store

import (
	"context"

	"gorm.io/gorm"
)

// Generic GORM helpers. These reduce repetitive CRUD boilerplate across the
// store implementation files. They are unexported and operate on the raw
// *gorm.DB so transactions can reuse them. Each handles context
// propagation, not-found conversion and unique constraint detection.

// getByField retrieves a single record of type T matching field=value,
// converting gorm.ErrRecordNotFound to the provided domain error.
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// create inserts the entity, converting unique constraint violations to
// dupErr. The database assigns the auto-increment id.
func create[T any](db *gorm.DB, ctx context.Context, entity *T, dupErr error) error {
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueConstraintError(err) {
			return dupErr
		}
		return err
	}
	return nil
}

// deleteByField deletes records of type T matching field=value, returning
// notFoundErr when no rows were affected.
func deleteByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) error {
	var zero T
	result := db.WithContext(ctx).Where(field+" = ?", value).Delete(&zero)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr
	}
	return nil
}

// listPage counts the rows matching the condition, then fetches one page
// in the given order. Count and Find run as separate sessions so neither
// chain leaks statement state into the other.
func listPage[T any](db *gorm.DB, ctx context.Context, page Page, order string, cond string, args ...any) ([]*T, int64, error) {
	var zero T
	var total int64
	countQ := db.WithContext(ctx).Model(&zero)
	if cond != "" {
		countQ = countQ.Where(cond, args...)
	}
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.WithContext(ctx)
	if cond != "" {
		q = q.Where(cond, args...)
	}
	if order != "" {
		q = q.Order(order)
	}

	var results []*T
	if err := q.Limit(page.limit()).Offset(page.Offset).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
