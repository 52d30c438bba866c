package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// createTestStore returns a store backed by in-memory SQLite.
func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := New(&Config{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func registerTestUser(t *testing.T, s *GORMStore, username string) *models.User {
	t.Helper()
	u, err := s.RegisterUser(context.Background(), username, "password123", "")
	if err != nil {
		t.Fatalf("RegisterUser(%s): %v", username, err)
	}
	return u
}

func createTestBoard(t *testing.T, s *GORMStore, name string, boardType models.BoardType) *models.Board {
	t.Helper()
	b := &models.Board{Name: name, BoardType: boardType, IsActive: true}
	if err := s.CreateBoard(context.Background(), b); err != nil {
		t.Fatalf("CreateBoard(%s): %v", name, err)
	}
	return b
}

func TestFirstUserBecomesSysOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	alice := registerTestUser(t, s, "alice")
	if alice.Role != models.RoleSysOp {
		t.Errorf("first user role = %v, want sysop", alice.Role)
	}

	bob := registerTestUser(t, s, "bob")
	if bob.Role != models.RoleMember {
		t.Errorf("second user role = %v, want member", bob.Role)
	}

	if _, err := s.RegisterUser(ctx, "alice", "password123", ""); !errors.Is(err, models.ErrDuplicateUser) {
		t.Errorf("duplicate username error = %v", err)
	}
	if _, err := s.RegisterUser(ctx, "short", "abc", ""); !models.IsValidation(err) {
		t.Errorf("short password error = %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")

	got, err := s.Authenticate(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != alice.ID {
		t.Errorf("authenticated id = %d, want %d", got.ID, alice.ID)
	}

	if _, err := s.Authenticate(ctx, "alice", "wrong-password"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	// Unknown users look identical to wrong passwords.
	if _, err := s.Authenticate(ctx, "nobody", "password123"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v", err)
	}

	bob := registerTestUser(t, s, "bob")
	if err := s.SetUserActive(ctx, bob.ID, false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if _, err := s.Authenticate(ctx, "bob", "password123"); !errors.Is(err, models.ErrUserInactive) {
		t.Errorf("inactive user error = %v", err)
	}
}

func TestThreadCreateAndReplyKeepPostCount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")
	board := createTestBoard(t, s, "general", models.BoardTypeThread)

	thread, err := s.CreateThread(ctx, board.ID, alice.ID, "hello", "first post")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.PostCount != 1 {
		t.Errorf("post_count after create = %d, want 1", thread.PostCount)
	}

	if _, err := s.ReplyToThread(ctx, thread.ID, alice.ID, "second post"); err != nil {
		t.Fatalf("ReplyToThread: %v", err)
	}

	got, err := s.GetThread(ctx, thread.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if got.PostCount != 2 {
		t.Errorf("post_count after reply = %d, want 2", got.PostCount)
	}

	posts, total, err := s.ListThreadPosts(ctx, thread.ID, Page{})
	if err != nil {
		t.Fatalf("ListThreadPosts: %v", err)
	}
	if total != 2 || len(posts) != 2 {
		t.Fatalf("posts = %d/%d, want 2/2", len(posts), total)
	}
	if posts[0].Body != "first post" || posts[1].Body != "second post" {
		t.Errorf("posts out of order: %q, %q", posts[0].Body, posts[1].Body)
	}

	// Deleting a reply decrements the counter.
	if err := s.DeletePost(ctx, posts[1].ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	got, _ = s.GetThread(ctx, thread.ID)
	if got.PostCount != 1 {
		t.Errorf("post_count after delete = %d, want 1", got.PostCount)
	}

	if _, err := s.CreateThread(ctx, 9999, alice.ID, "t", "b"); !errors.Is(err, models.ErrBoardNotFound) {
		t.Errorf("missing board error = %v", err)
	}
}

func TestDeleteThreadCascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")
	board := createTestBoard(t, s, "general", models.BoardTypeThread)

	thread, _ := s.CreateThread(ctx, board.ID, alice.ID, "doomed", "body")
	_, _ = s.ReplyToThread(ctx, thread.ID, alice.ID, "reply")

	if err := s.DeleteThread(ctx, thread.ID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	if _, err := s.GetThread(ctx, thread.ID); !errors.Is(err, models.ErrThreadNotFound) {
		t.Errorf("thread still present: %v", err)
	}
	_, total, err := s.ListThreadPosts(ctx, thread.ID, Page{})
	if err != nil {
		t.Fatalf("ListThreadPosts: %v", err)
	}
	if total != 0 {
		t.Errorf("%d posts survived the cascade", total)
	}
}

func TestUnreadCountAfterMark(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")
	board := createTestBoard(t, s, "general", models.BoardTypeThread)

	thread, _ := s.CreateThread(ctx, board.ID, alice.ID, "t", "p1")
	p2, _ := s.ReplyToThread(ctx, thread.ID, alice.ID, "p2")
	_, _ = s.ReplyToThread(ctx, thread.ID, alice.ID, "p3")

	count, err := s.UnreadCount(ctx, alice.ID, board.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("unread before mark = %d, want 3", count)
	}

	if err := s.MarkReadUpTo(ctx, alice.ID, board.ID, p2.ID); err != nil {
		t.Fatalf("MarkReadUpTo: %v", err)
	}
	count, _ = s.UnreadCount(ctx, alice.ID, board.ID)
	if count != 1 {
		t.Errorf("unread after mark = %d, want 1", count)
	}

	// The mark is a high-water mark; marking lower does nothing.
	if err := s.MarkReadUpTo(ctx, alice.ID, board.ID, p2.ID-1); err != nil {
		t.Fatalf("MarkReadUpTo lower: %v", err)
	}
	count, _ = s.UnreadCount(ctx, alice.ID, board.ID)
	if count != 1 {
		t.Errorf("unread after lower mark = %d, want 1", count)
	}

	if err := s.MarkAllRead(ctx, alice.ID, board.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	count, _ = s.UnreadCount(ctx, alice.ID, board.ID)
	if count != 0 {
		t.Errorf("unread after mark-all = %d, want 0", count)
	}
}

func TestLastSysOpProtected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice") // sysop
	bob := registerTestUser(t, s, "bob")

	if err := s.ChangeRole(ctx, alice.ID, models.RoleMember); !errors.Is(err, models.ErrLastSysOp) {
		t.Errorf("demoting last sysop: %v", err)
	}
	if err := s.SetUserActive(ctx, alice.ID, false); !errors.Is(err, models.ErrLastSysOp) {
		t.Errorf("disabling last sysop: %v", err)
	}

	// With a second sysop, demotion is allowed.
	if err := s.ChangeRole(ctx, bob.ID, models.RoleSysOp); err != nil {
		t.Fatalf("promote bob: %v", err)
	}
	if err := s.ChangeRole(ctx, alice.ID, models.RoleMember); err != nil {
		t.Errorf("demote with backup sysop: %v", err)
	}
}

func TestMailLifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")
	bob := registerTestUser(t, s, "bob")

	mail, err := s.SendMail(ctx, alice.ID, bob.ID, "hi", "hello bob")
	if err != nil {
		t.Fatalf("SendMail: %v", err)
	}

	count, _ := s.CountUnreadMail(ctx, bob.ID)
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}

	if err := s.MarkMailRead(ctx, mail.ID); err != nil {
		t.Fatalf("MarkMailRead: %v", err)
	}
	count, _ = s.CountUnreadMail(ctx, bob.ID)
	if count != 0 {
		t.Errorf("unread after read = %d, want 0", count)
	}

	// One-sided deletion keeps the row for the other side.
	if err := s.DeleteMail(ctx, mail.ID, bob.ID); err != nil {
		t.Fatalf("DeleteMail recipient: %v", err)
	}
	_, inboxTotal, _ := s.ListInbox(ctx, bob.ID, Page{})
	if inboxTotal != 0 {
		t.Errorf("inbox after delete = %d, want 0", inboxTotal)
	}
	_, sentTotal, _ := s.ListSent(ctx, alice.ID, Page{})
	if sentTotal != 1 {
		t.Errorf("sent after recipient delete = %d, want 1", sentTotal)
	}

	// Second side deletes; the row is purged.
	if err := s.DeleteMail(ctx, mail.ID, alice.ID); err != nil {
		t.Fatalf("DeleteMail sender: %v", err)
	}
	if _, err := s.GetMail(ctx, mail.ID); !errors.Is(err, models.ErrMailNotFound) {
		t.Errorf("mail survived both deletions: %v", err)
	}

	// Strangers may not delete.
	mail2, _ := s.SendMail(ctx, alice.ID, bob.ID, "again", "body")
	carol := registerTestUser(t, s, "carol")
	if err := s.DeleteMail(ctx, mail2.ID, carol.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("stranger delete error = %v", err)
	}
}

func TestPurgeMail(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")
	bob := registerTestUser(t, s, "bob")

	// Flag both sides directly, bypassing the immediate purge in DeleteMail.
	mail, _ := s.SendMail(ctx, alice.ID, bob.ID, "s", "b")
	err := s.db.Model(&models.Mail{}).Where("id = ?", mail.ID).Updates(map[string]any{
		"deleted_by_sender":    true,
		"deleted_by_recipient": true,
	}).Error
	if err != nil {
		t.Fatalf("flagging mail: %v", err)
	}
	keep, _ := s.SendMail(ctx, alice.ID, bob.ID, "keep", "b")

	purged, err := s.PurgeMail(ctx)
	if err != nil {
		t.Fatalf("PurgeMail: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, err := s.GetMail(ctx, keep.ID); err != nil {
		t.Errorf("unflagged mail purged: %v", err)
	}
}

func TestFoldersAndFiles(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")

	root := &models.Folder{Name: "uploads"}
	if err := s.CreateFolder(ctx, root); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	// Build a chain up to the depth limit.
	parent := root.ID
	for i := 1; i < models.MaxFolderDepth; i++ {
		child := &models.Folder{Name: "nested", ParentID: &parent}
		if err := s.CreateFolder(ctx, child); err != nil {
			t.Fatalf("CreateFolder depth %d: %v", i, err)
		}
		parent = child.ID
	}
	over := &models.Folder{Name: "too-deep", ParentID: &parent}
	if err := s.CreateFolder(ctx, over); !errors.Is(err, models.ErrFolderTooDeep) {
		t.Errorf("depth limit error = %v", err)
	}

	roots, err := s.ListFolders(ctx, nil)
	if err != nil {
		t.Fatalf("ListFolders: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Errorf("root folders = %+v", roots)
	}

	file := &models.File{
		FolderID:   root.ID,
		Filename:   "readme.txt",
		BlobKey:    "blob-1",
		Size:       12,
		UploaderID: alice.ID,
	}
	if err := s.CreateFile(ctx, file); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := s.IncrementDownloadCount(ctx, file.ID); err != nil {
		t.Fatalf("IncrementDownloadCount: %v", err)
	}
	got, _ := s.GetFile(ctx, file.ID)
	if got.DownloadCount != 1 {
		t.Errorf("download_count = %d, want 1", got.DownloadCount)
	}

	files, total, err := s.ListFiles(ctx, root.ID, Page{})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if total != 1 || len(files) != 1 {
		t.Errorf("files = %d/%d", len(files), total)
	}

	orphan := &models.File{FolderID: 9999, Filename: "x", BlobKey: "blob-2", UploaderID: alice.ID}
	if err := s.CreateFile(ctx, orphan); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("missing folder error = %v", err)
	}
}

func TestRSSFeedsAndItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	feed := &models.RSSFeed{Title: "News", URL: "https://example.com/rss", IsActive: true}
	if err := s.CreateFeed(ctx, feed); err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	dup := &models.RSSFeed{Title: "Same", URL: "https://example.com/rss"}
	if err := s.CreateFeed(ctx, dup); !errors.Is(err, models.ErrDuplicateFeed) {
		t.Errorf("duplicate URL error = %v", err)
	}

	items := []*models.RSSItem{
		{Title: "one", Link: "https://example.com/1"},
		{Title: "two", Link: "https://example.com/2"},
	}
	inserted, err := s.UpsertItems(ctx, feed.ID, items)
	if err != nil {
		t.Fatalf("UpsertItems: %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	// Re-fetch with one known and one new link.
	again := []*models.RSSItem{
		{Title: "one", Link: "https://example.com/1"},
		{Title: "three", Link: "https://example.com/3"},
	}
	inserted, err = s.UpsertItems(ctx, feed.ID, again)
	if err != nil {
		t.Fatalf("UpsertItems again: %v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted on refetch = %d, want 1", inserted)
	}

	_, total, err := s.ListItems(ctx, feed.ID, Page{})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if total != 3 {
		t.Errorf("items = %d, want 3", total)
	}

	feeds, _ := s.ListFeeds(ctx, true)
	if len(feeds) != 1 || feeds[0].LastFetchedAt == nil {
		t.Errorf("feed fetch stamp missing: %+v", feeds)
	}

	if err := s.SetFeedActive(ctx, feed.ID, false); err != nil {
		t.Fatalf("SetFeedActive: %v", err)
	}
	feeds, _ = s.ListFeeds(ctx, true)
	if len(feeds) != 0 {
		t.Errorf("inactive feed still listed")
	}
}

func TestRSSReadPositions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	alice := registerTestUser(t, s, "alice")

	feed := &models.RSSFeed{Title: "News", URL: "https://example.com/rss", IsActive: true}
	if err := s.CreateFeed(ctx, feed); err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	items := []*models.RSSItem{
		{Title: "one", Link: "https://example.com/1"},
		{Title: "two", Link: "https://example.com/2"},
		{Title: "three", Link: "https://example.com/3"},
	}
	if _, err := s.UpsertItems(ctx, feed.ID, items); err != nil {
		t.Fatalf("UpsertItems: %v", err)
	}

	unread, err := s.UnreadItemCount(ctx, alice.ID, feed.ID)
	if err != nil {
		t.Fatalf("UnreadItemCount: %v", err)
	}
	if unread != 3 {
		t.Errorf("unread with no position = %d, want 3", unread)
	}

	all, _, err := s.ListItems(ctx, feed.ID, Page{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListItems = %d items, err %v; want 3", len(all), err)
	}
	ids := []int64{all[0].ID, all[1].ID, all[2].ID}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := s.MarkItemRead(ctx, alice.ID, feed.ID, ids[1]); err != nil {
		t.Fatalf("MarkItemRead: %v", err)
	}
	unread, _ = s.UnreadItemCount(ctx, alice.ID, feed.ID)
	if unread != 1 {
		t.Errorf("unread after reading second item = %d, want 1", unread)
	}

	// The position is a high-water mark; reading an older item again must
	// not move it backwards.
	if err := s.MarkItemRead(ctx, alice.ID, feed.ID, ids[0]); err != nil {
		t.Fatalf("MarkItemRead older: %v", err)
	}
	unread, _ = s.UnreadItemCount(ctx, alice.ID, feed.ID)
	if unread != 1 {
		t.Errorf("unread after re-reading older item = %d, want 1", unread)
	}

	if err := s.MarkItemRead(ctx, alice.ID, feed.ID, ids[2]); err != nil {
		t.Fatalf("MarkItemRead newest: %v", err)
	}
	unread, _ = s.UnreadItemCount(ctx, alice.ID, feed.ID)
	if unread != 0 {
		t.Errorf("unread after reading everything = %d, want 0", unread)
	}

	// Positions are per user.
	bob := registerTestUser(t, s, "bob")
	unread, _ = s.UnreadItemCount(ctx, bob.ID, feed.ID)
	if unread != 3 {
		t.Errorf("unread for a fresh user = %d, want 3", unread)
	}
}

func TestScripts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	script := &models.Script{Name: "guess", Path: "/opt/hobbs/doors/guess", MinRole: models.RoleMember}
	if err := s.CreateScript(ctx, script); err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	got, err := s.GetScript(ctx, script.ID)
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if !got.RunnableBy(models.RoleMember) {
		t.Error("member should run an active member script")
	}
	if got.RunnableBy(models.RoleGuest) {
		t.Error("guest must not run a member script")
	}

	scripts, err := s.ListScripts(ctx, true)
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	if len(scripts) != 1 {
		t.Errorf("scripts = %d", len(scripts))
	}
}
