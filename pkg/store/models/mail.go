package models

import "time"

// Mail is a private message between two users. Deletion is logical per
// side; rows are physically purged once both sides have deleted.
type Mail struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID           int64     `gorm:"index;not null" json:"sender_id"`
	RecipientID        int64     `gorm:"index;not null" json:"recipient_id"`
	Subject            string    `gorm:"not null;size:128" json:"subject"`
	Body               string    `gorm:"not null" json:"body"`
	IsRead             bool      `gorm:"default:false" json:"is_read"`
	DeletedBySender    bool      `gorm:"default:false" json:"deleted_by_sender"`
	DeletedByRecipient bool      `gorm:"default:false" json:"deleted_by_recipient"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Mail.
func (Mail) TableName() string {
	return "mail"
}

// Purgeable reports whether both sides have deleted the message.
func (m *Mail) Purgeable() bool {
	return m.DeletedBySender && m.DeletedByRecipient
}

// VisibleTo reports whether the message still shows for the given user.
func (m *Mail) VisibleTo(userID int64) bool {
	switch userID {
	case m.SenderID:
		return !m.DeletedBySender
	case m.RecipientID:
		return !m.DeletedByRecipient
	default:
		return false
	}
}
