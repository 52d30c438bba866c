package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// CreateThread opens a new thread with its first post. Thread row and
// post row are created in one transaction so post_count stays exact.
func (s *GORMStore) CreateThread(ctx context.Context, boardID, authorID int64, title, body string) (*models.Thread, error) {
	if title == "" {
		return nil, models.NewValidationError("title", "must not be empty")
	}
	if body == "" {
		return nil, models.NewValidationError("body", "must not be empty")
	}

	thread := &models.Thread{
		BoardID:   boardID,
		Title:     title,
		AuthorID:  authorID,
		PostCount: 1,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Where("id = ?", boardID).First(&board).Error; err != nil {
			return convertNotFoundError(err, models.ErrBoardNotFound)
		}

		if err := tx.Create(thread).Error; err != nil {
			return err
		}

		post := &models.Post{
			BoardID:  boardID,
			ThreadID: &thread.ID,
			AuthorID: authorID,
			Body:     body,
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, err
	}

	return thread, nil
}

// GetThread retrieves a thread by id.
func (s *GORMStore) GetThread(ctx context.Context, id int64) (*models.Thread, error) {
	return getByField[models.Thread](s.db, ctx, "id", id, models.ErrThreadNotFound)
}

// ListThreads returns one page of a board's threads, most recently
// updated first.
func (s *GORMStore) ListThreads(ctx context.Context, boardID int64, page Page) ([]*models.Thread, int64, error) {
	return listPage[models.Thread](s.db, ctx, page, "updated_at DESC, id DESC", "board_id = ?", boardID)
}

// ReplyToThread appends a post to a thread and bumps post_count in the
// same transaction.
func (s *GORMStore) ReplyToThread(ctx context.Context, threadID, authorID int64, body string) (*models.Post, error) {
	if body == "" {
		return nil, models.NewValidationError("body", "must not be empty")
	}

	var post *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Where("id = ?", threadID).First(&thread).Error; err != nil {
			return convertNotFoundError(err, models.ErrThreadNotFound)
		}

		post = &models.Post{
			BoardID:  thread.BoardID,
			ThreadID: &thread.ID,
			AuthorID: authorID,
			Body:     body,
		}
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		return tx.Model(&thread).Update("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// DeleteThread removes a thread and cascades to all of its posts.
func (s *GORMStore) DeleteThread(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Where("id = ?", id).First(&thread).Error; err != nil {
			return convertNotFoundError(err, models.ErrThreadNotFound)
		}

		if err := tx.Where("thread_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}

		return tx.Delete(&thread).Error
	})
}

// CreateFlatPost inserts an independent titled post on a flat board.
func (s *GORMStore) CreateFlatPost(ctx context.Context, boardID, authorID int64, title, body string) (*models.Post, error) {
	post := &models.Post{
		BoardID:  boardID,
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Where("id = ?", boardID).First(&board).Error; err != nil {
			return convertNotFoundError(err, models.ErrBoardNotFound)
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost retrieves a post by id.
func (s *GORMStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	return getByField[models.Post](s.db, ctx, "id", id, models.ErrPostNotFound)
}

// ListThreadPosts returns one page of a thread's posts in creation order.
func (s *GORMStore) ListThreadPosts(ctx context.Context, threadID int64, page Page) ([]*models.Post, int64, error) {
	return listPage[models.Post](s.db, ctx, page, "id ASC", "thread_id = ?", threadID)
}

// ListBoardPosts returns one page of a flat board's posts, newest first.
func (s *GORMStore) ListBoardPosts(ctx context.Context, boardID int64, page Page) ([]*models.Post, int64, error) {
	return listPage[models.Post](s.db, ctx, page, "id DESC", "board_id = ? AND thread_id IS NULL", boardID)
}

// DeletePost removes a post. For thread posts the thread's post_count is
// decremented in the same transaction.
func (s *GORMStore) DeletePost(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			return convertNotFoundError(err, models.ErrPostNotFound)
		}

		if err := tx.Delete(&post).Error; err != nil {
			return err
		}

		if post.ThreadID != nil {
			return tx.Model(&models.Thread{}).Where("id = ?", *post.ThreadID).
				Update("post_count", gorm.Expr("post_count - 1")).Error
		}
		return nil
	})
}
