package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// MarkReadUpTo raises the user's read position in a board to postID. The
// position is a high-water mark: calls with a lower id than the stored
// one leave it unchanged, also under concurrent markers.
func (s *GORMStore) MarkReadUpTo(ctx context.Context, userID, boardID, postID int64) error {
	now := time.Now()

	// Guarded update first: only rows strictly below postID move, which
	// keeps the mark monotonic without driver-specific upsert SQL.
	result := s.db.WithContext(ctx).Model(&models.ReadPosition{}).
		Where("user_id = ? AND board_id = ? AND last_read_post_id < ?", userID, boardID, postID).
		Updates(map[string]any{"last_read_post_id": postID, "last_read_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// No row moved: either the stored mark is already at or above postID,
	// or no row exists yet.
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ReadPosition{}).
		Where("user_id = ? AND board_id = ?", userID, boardID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	pos := models.ReadPosition{
		UserID:         userID,
		BoardID:        boardID,
		LastReadPostID: postID,
		LastReadAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&pos).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost an insert race; the other writer's row is in place.
			return s.MarkReadUpTo(ctx, userID, boardID, postID)
		}
		return err
	}
	return nil
}

// MarkAllRead sets the position to the board's maximum post id.
func (s *GORMStore) MarkAllRead(ctx context.Context, userID, boardID int64) error {
	var maxID int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("board_id = ?", boardID).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error
	if err != nil {
		return err
	}
	if maxID == 0 {
		return nil
	}
	return s.MarkReadUpTo(ctx, userID, boardID, maxID)
}

// UnreadCount counts posts in the board above the user's read position; a
// missing position means every post is unread.
func (s *GORMStore) UnreadCount(ctx context.Context, userID, boardID int64) (int64, error) {
	var pos models.ReadPosition
	lastRead := int64(0)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND board_id = ?", userID, boardID).
		First(&pos).Error
	switch {
	case err == nil:
		lastRead = pos.LastReadPostID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// nothing read yet
	default:
		return 0, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Post{}).
		Where("board_id = ? AND id > ?", boardID, lastRead).
		Count(&count).Error
	return count, err
}
