package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// CreateFeed subscribes a new feed. URLs are unique.
func (s *GORMStore) CreateFeed(ctx context.Context, feed *models.RSSFeed) error {
	if feed.Title == "" {
		return models.NewValidationError("title", "is required")
	}
	if feed.URL == "" {
		return models.NewValidationError("url", "is required")
	}
	return create(s.db, ctx, feed, models.ErrDuplicateFeed)
}

// ListFeeds returns the subscribed feeds, oldest subscription first.
func (s *GORMStore) ListFeeds(ctx context.Context, activeOnly bool) ([]*models.RSSFeed, error) {
	q := s.db.WithContext(ctx).Order("id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var feeds []*models.RSSFeed
	if err := q.Find(&feeds).Error; err != nil {
		return nil, err
	}
	return feeds, nil
}

// SetFeedActive toggles fetching for a feed.
func (s *GORMStore) SetFeedActive(ctx context.Context, id int64, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.RSSFeed{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFeedNotFound
	}
	return nil
}

// UpsertItems stores fetched items for a feed, skipping links already
// present, and stamps the feed's last fetch time. Returns how many new
// items were inserted.
func (s *GORMStore) UpsertItems(ctx context.Context, feedID int64, items []*models.RSSItem) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var feed models.RSSFeed
		if err := tx.First(&feed, "id = ?", feedID).Error; err != nil {
			return convertNotFoundError(err, models.ErrFeedNotFound)
		}

		for _, item := range items {
			item.FeedID = feedID
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "feed_id"}, {Name: "link"}},
				DoNothing: true,
			}).Create(item)
			if result.Error != nil {
				return result.Error
			}
			inserted += int(result.RowsAffected)
		}

		now := time.Now()
		return tx.Model(&models.RSSFeed{}).
			Where("id = ?", feedID).
			Update("last_fetched_at", &now).Error
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListItems returns one page of a feed's items, newest publication
// first.
func (s *GORMStore) ListItems(ctx context.Context, feedID int64, page Page) ([]*models.RSSItem, int64, error) {
	return listPage[models.RSSItem](s.db, ctx, page, "published_at DESC, id DESC", "feed_id = ?", feedID)
}

// MarkItemRead raises the user's read position in a feed to itemID. Like
// the board mark, the position only moves forward; a lower id than the
// stored one leaves it unchanged.
func (s *GORMStore) MarkItemRead(ctx context.Context, userID, feedID, itemID int64) error {
	now := time.Now()

	result := s.db.WithContext(ctx).Model(&models.RSSReadPosition{}).
		Where("user_id = ? AND feed_id = ? AND last_read_item_id < ?", userID, feedID, itemID).
		Updates(map[string]any{"last_read_item_id": itemID, "last_read_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.RSSReadPosition{}).
		Where("user_id = ? AND feed_id = ?", userID, feedID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	pos := models.RSSReadPosition{
		UserID:         userID,
		FeedID:         feedID,
		LastReadItemID: itemID,
		LastReadAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&pos).Error; err != nil {
		if isUniqueConstraintError(err) {
			return s.MarkItemRead(ctx, userID, feedID, itemID)
		}
		return err
	}
	return nil
}

// UnreadItemCount counts feed items above the user's read position; a
// missing position means every item is unread.
func (s *GORMStore) UnreadItemCount(ctx context.Context, userID, feedID int64) (int64, error) {
	var pos models.RSSReadPosition
	lastRead := int64(0)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND feed_id = ?", userID, feedID).
		First(&pos).Error
	switch {
	case err == nil:
		lastRead = pos.LastReadItemID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// nothing read yet
	default:
		return 0, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.RSSItem{}).
		Where("feed_id = ? AND id > ?", feedID, lastRead).
		Count(&count).Error
	return count, err
}
