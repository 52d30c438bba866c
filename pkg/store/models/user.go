package models

import (
	"fmt"
	"time"
)

// User is a registered account. Plaintext passwords are never stored; the
// store hashes with bcrypt before insert.
type User struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username            string     `gorm:"uniqueIndex;not null;size:32" json:"username"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	Nickname            string     `gorm:"not null;size:64" json:"nickname"`
	Email               string     `gorm:"size:255" json:"email,omitempty"`
	Role                Role       `gorm:"not null;default:1" json:"role"`
	Profile             string     `json:"profile,omitempty"`
	TerminalProfileName string     `gorm:"size:64" json:"terminal_profile_name,omitempty"`
	Encoding            string     `gorm:"size:16;default:utf-8" json:"encoding"`
	Language            string     `gorm:"size:8;default:en" json:"language"`
	AutoPaging          bool       `gorm:"default:true" json:"auto_paging"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// DisplayName returns the nickname, or username when no nickname is set.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Validate checks the user for storable values.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// UserUpdate carries optional field changes for a user. Nil fields are
// left untouched; the store builds the UPDATE from the set fields only.
type UserUpdate struct {
	Nickname            *string
	Email               *string
	Profile             *string
	TerminalProfileName *string
	Encoding            *string
	Language            *string
	AutoPaging          *bool
	IsActive            *bool
}

// IsEmpty reports whether no field is set.
func (u UserUpdate) IsEmpty() bool {
	return u.Nickname == nil && u.Email == nil && u.Profile == nil &&
		u.TerminalProfileName == nil && u.Encoding == nil &&
		u.Language == nil && u.AutoPaging == nil && u.IsActive == nil
}
