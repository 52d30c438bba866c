package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/hobbsbbs/hobbs/internal/telemetry"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// SendMail stores a private message.
func (s *GORMStore) SendMail(ctx context.Context, senderID, recipientID int64, subject, body string) (*models.Mail, error) {
	if subject == "" {
		return nil, models.NewValidationError("subject", "must not be empty")
	}
	if body == "" {
		return nil, models.NewValidationError("body", "must not be empty")
	}

	mail := &models.Mail{
		SenderID:    senderID,
		RecipientID: recipientID,
		Subject:     subject,
		Body:        body,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipient models.User
		if err := tx.Where("id = ?", recipientID).First(&recipient).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}
		return tx.Create(mail).Error
	})
	if err != nil {
		return nil, err
	}

	return mail, nil
}

// GetMail retrieves a message by id.
func (s *GORMStore) GetMail(ctx context.Context, id int64) (*models.Mail, error) {
	return getByField[models.Mail](s.db, ctx, "id", id, models.ErrMailNotFound)
}

// ListInbox returns one page of received, not recipient-deleted mail,
// newest first.
func (s *GORMStore) ListInbox(ctx context.Context, userID int64, page Page) ([]*models.Mail, int64, error) {
	return listPage[models.Mail](s.db, ctx, page, "id DESC",
		"recipient_id = ? AND deleted_by_recipient = ?", userID, false)
}

// ListSent returns one page of sent, not sender-deleted mail, newest first.
func (s *GORMStore) ListSent(ctx context.Context, userID int64, page Page) ([]*models.Mail, int64, error) {
	return listPage[models.Mail](s.db, ctx, page, "id DESC",
		"sender_id = ? AND deleted_by_sender = ?", userID, false)
}

// CountUnreadMail counts unread, visible inbox messages.
func (s *GORMStore) CountUnreadMail(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Mail{}).
		Where("recipient_id = ? AND is_read = ? AND deleted_by_recipient = ?", userID, false, false).
		Count(&count).Error
	return count, err
}

// MarkMailRead flags a message as read.
func (s *GORMStore) MarkMailRead(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Model(&models.Mail{}).Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMailNotFound
	}
	return nil
}

// DeleteMail flags the message deleted for the given side. When both
// sides have deleted, the row is purged in the same transaction.
func (s *GORMStore) DeleteMail(ctx context.Context, id, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mail models.Mail
		if err := tx.Where("id = ?", id).First(&mail).Error; err != nil {
			return convertNotFoundError(err, models.ErrMailNotFound)
		}

		switch userID {
		case mail.SenderID:
			mail.DeletedBySender = true
		case mail.RecipientID:
			mail.DeletedByRecipient = true
		default:
			return models.ErrPermissionDenied
		}

		if mail.Purgeable() {
			return tx.Delete(&mail).Error
		}

		return tx.Model(&mail).Updates(map[string]any{
			"deleted_by_sender":    mail.DeletedBySender,
			"deleted_by_recipient": mail.DeletedByRecipient,
		}).Error
	})
}

// PurgeMail physically deletes all rows flagged by both sides. It returns
// the number of purged messages; the sweeper calls this periodically.
func (s *GORMStore) PurgeMail(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "PurgeMail")
	defer span.End()

	result := s.db.WithContext(ctx).
		Where("deleted_by_sender = ? AND deleted_by_recipient = ?", true, true).
		Delete(&models.Mail{})
	return result.RowsAffected, result.Error
}
