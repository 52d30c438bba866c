package models

import "time"

// ReadPosition is the per-user high-water mark of the largest post id
// considered read within a board. Unread counts compare post ids against
// LastReadPostID; a missing row means nothing has been read.
type ReadPosition struct {
	UserID         int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	BoardID        int64     `gorm:"primaryKey;autoIncrement:false" json:"board_id"`
	LastReadPostID int64     `gorm:"not null;default:0" json:"last_read_post_id"`
	LastReadAt     time.Time `json:"last_read_at"`
}

// TableName returns the table name for ReadPosition.
func (ReadPosition) TableName() string {
	return "read_positions"
}
