package models

import (
	"fmt"
	"time"
)

// Thread groups posts inside a thread-type board. PostCount tracks the
// number of non-deleted posts and is maintained transactionally with
// post creation and deletion.
type Thread struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BoardID   int64     `gorm:"index;not null" json:"board_id"`
	Title     string    `gorm:"not null;size:128" json:"title"`
	AuthorID  int64     `gorm:"index;not null" json:"author_id"`
	PostCount int       `gorm:"not null;default:0" json:"post_count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Thread.
func (Thread) TableName() string {
	return "threads"
}

// Post is a message. Thread-posts carry ThreadID and no title; flat-posts
// carry a title and no ThreadID.
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BoardID   int64     `gorm:"index;not null" json:"board_id"`
	ThreadID  *int64    `gorm:"index" json:"thread_id,omitempty"`
	AuthorID  int64     `gorm:"index;not null" json:"author_id"`
	Title     string    `gorm:"size:128" json:"title,omitempty"`
	Body      string    `gorm:"not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Post.
func (Post) TableName() string {
	return "posts"
}

// IsThreadPost reports whether the post belongs to a thread.
func (p *Post) IsThreadPost() bool {
	return p.ThreadID != nil
}

// Validate enforces the thread-post / flat-post shape.
func (p *Post) Validate() error {
	if p.Body == "" {
		return fmt.Errorf("post body is required")
	}
	if p.ThreadID != nil && p.Title != "" {
		return fmt.Errorf("thread posts must not carry a title")
	}
	if p.ThreadID == nil && p.Title == "" {
		return fmt.Errorf("flat posts require a title")
	}
	return nil
}

// CanDelete reports whether the user may delete the post: the author, or
// any role at or above SubOp.
func (p *Post) CanDelete(userID int64, role Role) bool {
	return p.AuthorID == userID || role.AtLeast(RoleSubOp)
}

// CanDelete mirrors post deletion rights for whole threads.
func (t *Thread) CanDelete(userID int64, role Role) bool {
	return t.AuthorID == userID || role.AtLeast(RoleSubOp)
}

// PostUpdate carries optional field changes for a post.
type PostUpdate struct {
	Title *string
	Body  *string
}

// IsEmpty reports whether no field is set.
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Body == nil
}
