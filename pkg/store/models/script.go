package models

import "time"

// Script is metadata for a door script. Execution is delegated to an
// external engine; the core only lists and gates by role.
type Script struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:64" json:"name"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	Path        string    `gorm:"not null;size:512" json:"path"`
	MinRole     Role      `gorm:"not null;default:1" json:"min_role"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Script.
func (Script) TableName() string {
	return "scripts"
}

// RunnableBy reports whether the role may run this script.
func (s *Script) RunnableBy(r Role) bool {
	return s.IsActive && r.AtLeast(s.MinRole)
}
