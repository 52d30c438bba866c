// Package store persists HOBBS state behind the Store interface. The GORM
// implementation speaks SQLite (default) and PostgreSQL from the same
// codebase; tests run against in-memory SQLite.
package store

import (
	"context"
	"time"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// Page bounds a list query. Zero Limit means the store default of 10.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) limit() int {
	if p.Limit <= 0 {
		return 10
	}
	return p.Limit
}

// Store is the repository bundle consumed by screen handlers, the session
// worker and the host CLI. Every method is safe for concurrent use; each
// call acquires its own connection from the pool.
type Store interface {
	// Users
	RegisterUser(ctx context.Context, username, password, nickname string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, page Page) ([]*models.User, int64, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateUser(ctx context.Context, id int64, update models.UserUpdate) error
	UpdatePassword(ctx context.Context, id int64, password string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	ChangeRole(ctx context.Context, targetID int64, newRole models.Role) error
	SetUserActive(ctx context.Context, targetID int64, active bool) error

	// Boards
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id int64) (*models.Board, error)
	ListBoards(ctx context.Context, includeInactive bool) ([]*models.Board, error)
	UpdateBoard(ctx context.Context, id int64, update models.BoardUpdate) error

	// Threads and posts
	CreateThread(ctx context.Context, boardID, authorID int64, title, body string) (*models.Thread, error)
	GetThread(ctx context.Context, id int64) (*models.Thread, error)
	ListThreads(ctx context.Context, boardID int64, page Page) ([]*models.Thread, int64, error)
	ReplyToThread(ctx context.Context, threadID, authorID int64, body string) (*models.Post, error)
	DeleteThread(ctx context.Context, id int64) error
	CreateFlatPost(ctx context.Context, boardID, authorID int64, title, body string) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListThreadPosts(ctx context.Context, threadID int64, page Page) ([]*models.Post, int64, error)
	ListBoardPosts(ctx context.Context, boardID int64, page Page) ([]*models.Post, int64, error)
	DeletePost(ctx context.Context, id int64) error

	// Read positions
	MarkReadUpTo(ctx context.Context, userID, boardID, postID int64) error
	MarkAllRead(ctx context.Context, userID, boardID int64) error
	UnreadCount(ctx context.Context, userID, boardID int64) (int64, error)

	// Mail
	SendMail(ctx context.Context, senderID, recipientID int64, subject, body string) (*models.Mail, error)
	GetMail(ctx context.Context, id int64) (*models.Mail, error)
	ListInbox(ctx context.Context, userID int64, page Page) ([]*models.Mail, int64, error)
	ListSent(ctx context.Context, userID int64, page Page) ([]*models.Mail, int64, error)
	CountUnreadMail(ctx context.Context, userID int64) (int64, error)
	MarkMailRead(ctx context.Context, id int64) error
	DeleteMail(ctx context.Context, id, userID int64) error
	PurgeMail(ctx context.Context) (int64, error)

	// Folders and files
	CreateFolder(ctx context.Context, folder *models.Folder) error
	GetFolder(ctx context.Context, id int64) (*models.Folder, error)
	ListFolders(ctx context.Context, parentID *int64) ([]*models.Folder, error)
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id int64) (*models.File, error)
	ListFiles(ctx context.Context, folderID int64, page Page) ([]*models.File, int64, error)
	IncrementDownloadCount(ctx context.Context, id int64) error

	// RSS
	CreateFeed(ctx context.Context, feed *models.RSSFeed) error
	ListFeeds(ctx context.Context, activeOnly bool) ([]*models.RSSFeed, error)
	SetFeedActive(ctx context.Context, id int64, active bool) error
	UpsertItems(ctx context.Context, feedID int64, items []*models.RSSItem) (int, error)
	ListItems(ctx context.Context, feedID int64, page Page) ([]*models.RSSItem, int64, error)
	MarkItemRead(ctx context.Context, userID, feedID, itemID int64) error
	UnreadItemCount(ctx context.Context, userID, feedID int64) (int64, error)

	// Scripts
	CreateScript(ctx context.Context, script *models.Script) error
	ListScripts(ctx context.Context, activeOnly bool) ([]*models.Script, error)
	GetScript(ctx context.Context, id int64) (*models.Script, error)

	// Close releases the underlying pool.
	Close() error
}
