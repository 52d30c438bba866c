package store

import (
	"context"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// CreateBoard inserts a new board.
func (s *GORMStore) CreateBoard(ctx context.Context, board *models.Board) error {
	if err := board.Validate(); err != nil {
		return err
	}
	return create(s.db, ctx, board, models.ErrDuplicateBoard)
}

// GetBoard retrieves a board by id.
func (s *GORMStore) GetBoard(ctx context.Context, id int64) (*models.Board, error) {
	return getByField[models.Board](s.db, ctx, "id", id, models.ErrBoardNotFound)
}

// ListBoards returns boards in sort order. Inactive boards are included
// only when requested (SysOp views).
func (s *GORMStore) ListBoards(ctx context.Context, includeInactive bool) ([]*models.Board, error) {
	q := s.db.WithContext(ctx).Order("sort_order ASC, id ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var boards []*models.Board
	if err := q.Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// UpdateBoard applies the set fields of the update to the board.
func (s *GORMStore) UpdateBoard(ctx context.Context, id int64, update models.BoardUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	fields := map[string]any{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.MinReadRole != nil {
		fields["min_read_role"] = *update.MinReadRole
	}
	if update.MinWriteRole != nil {
		fields["min_write_role"] = *update.MinWriteRole
	}
	if update.IsActive != nil {
		fields["is_active"] = *update.IsActive
	}
	if update.SortOrder != nil {
		fields["sort_order"] = *update.SortOrder
	}

	result := s.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return models.ErrDuplicateBoard
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrBoardNotFound
	}
	return nil
}
