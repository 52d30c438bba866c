package models

import (
	"fmt"
	"time"
)

// BoardType distinguishes threaded boards from flat ones.
type BoardType string

const (
	// BoardTypeThread groups posts into titled threads.
	BoardTypeThread BoardType = "thread"
	// BoardTypeFlat holds independent posts, each with its own title.
	BoardTypeFlat BoardType = "flat"
)

// IsValid checks if the board type is defined.
func (t BoardType) IsValid() bool {
	return t == BoardTypeThread || t == BoardTypeFlat
}

// Board is a message area. Inactive boards are invisible to everyone
// below SysOp.
type Board struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null;size:64" json:"name"`
	Description  string    `gorm:"size:255" json:"description,omitempty"`
	BoardType    BoardType `gorm:"not null;size:16;default:thread" json:"board_type"`
	MinReadRole  Role      `gorm:"not null;default:0" json:"min_read_role"`
	MinWriteRole Role      `gorm:"not null;default:1" json:"min_write_role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	SortOrder    int       `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Board.
func (Board) TableName() string {
	return "boards"
}

// CanRead reports whether the role may read this board.
func (b *Board) CanRead(r Role) bool {
	return r.AtLeast(b.MinReadRole)
}

// CanWrite reports whether the role may write to this board.
func (b *Board) CanWrite(r Role) bool {
	return r.AtLeast(b.MinWriteRole)
}

// VisibleTo reports whether the board should appear in listings for the
// role. Inactive boards only show for SysOps.
func (b *Board) VisibleTo(r Role) bool {
	if !b.IsActive && r < RoleSysOp {
		return false
	}
	return b.CanRead(r)
}

// Validate checks the board for storable values.
func (b *Board) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("board name is required")
	}
	if !b.BoardType.IsValid() {
		return fmt.Errorf("invalid board type %q", b.BoardType)
	}
	if !b.MinReadRole.IsValid() || !b.MinWriteRole.IsValid() {
		return fmt.Errorf("invalid board role bounds")
	}
	return nil
}

// BoardUpdate carries optional field changes for a board.
type BoardUpdate struct {
	Name         *string
	Description  *string
	MinReadRole  *Role
	MinWriteRole *Role
	IsActive     *bool
	SortOrder    *int
}

// IsEmpty reports whether no field is set.
func (u BoardUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.MinReadRole == nil &&
		u.MinWriteRole == nil && u.IsActive == nil && u.SortOrder == nil
}

// ApplyUpdate copies the set fields of the update onto the board.
func (b *Board) ApplyUpdate(u BoardUpdate) {
	if u.Name != nil {
		b.Name = *u.Name
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	if u.MinReadRole != nil {
		b.MinReadRole = *u.MinReadRole
	}
	if u.MinWriteRole != nil {
		b.MinWriteRole = *u.MinWriteRole
	}
	if u.IsActive != nil {
		b.IsActive = *u.IsActive
	}
	if u.SortOrder != nil {
		b.SortOrder = *u.SortOrder
	}
}
