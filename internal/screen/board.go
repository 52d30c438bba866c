package screen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runBoards is the board-area entry: the list of visible boards with
// unread counts, then per-board thread or flat-post views.
func (n *Navigator) runBoards(sc *Context) (Result, error) {
	for {
		boards, err := n.deps.Store.ListBoards(sc.ctx, sc.Sess.Role() == models.RoleSysOp)
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		visible := boards[:0]
		for _, b := range boards {
			if b.VisibleTo(sc.Sess.Role()) {
				visible = append(visible, b)
			}
		}

		if err := sc.SendLine(sc.T("board.listtitle")); err != nil {
			return 0, err
		}
		if len(visible) == 0 {
			if err := sc.SendLine(sc.T("common.empty")); err != nil {
				return 0, err
			}
			return ResultBack, nil
		}
		for i, b := range visible {
			row := fmt.Sprintf("  %2d. %-20s %s", i+1, b.Name, b.Description)
			if sc.Sess.Authenticated() {
				if unread, err := n.deps.Store.UnreadCount(sc.ctx, sc.Sess.UserID(), b.ID); err == nil && unread > 0 {
					row += "  [" + sc.T("board.unread", unread) + "]"
				}
			}
			if err := sc.SendLine(row); err != nil {
				return 0, err
			}
		}

		line, err := sc.Prompt("common.listprompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		action, idx, _ := parseListChoice(line)
		switch action {
		case listBack:
			return ResultBack, nil
		case listPick:
			if idx > len(visible) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			board := visible[idx-1]
			var res Result
			if board.BoardType == models.BoardTypeFlat {
				res, err = n.runFlatBoard(sc, board)
			} else {
				res, err = n.runThreadBoard(sc, board)
			}
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		}
	}
}

// runThreadBoard pages through the threads of one board.
func (n *Navigator) runThreadBoard(sc *Context, board *models.Board) (Result, error) {
	offset := 0
	for {
		size := sc.pageSize()
		threads, total, err := n.deps.Store.ListThreads(sc.ctx, board.ID, store.Page{Limit: size, Offset: offset})
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("board.threadstitle", board.Name)); err != nil {
			return 0, err
		}
		if err := sc.SendLine(sc.T("common.page", offset/size+1, pageCount(total, size))); err != nil {
			return 0, err
		}
		if len(threads) == 0 {
			if err := sc.SendLine(sc.T("common.empty")); err != nil {
				return 0, err
			}
		}
		for i, t := range threads {
			author := n.authorName(sc, t.AuthorID)
			row := fmt.Sprintf("  %2d. %-40s %s  %s  %s",
				i+1, t.Title, sc.T("board.by", author), sc.T("board.posts", t.PostCount), sc.when(t.UpdatedAt))
			if err := sc.SendLine(row); err != nil {
				return 0, err
			}
		}
		if sc.Sess.Authenticated() {
			if err := sc.SendLine(sc.T("board.markallread")); err != nil {
				return 0, err
			}
		}

		line, err := sc.Prompt("board.threadprompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		action, idx, other := parseListChoice(line)
		switch action {
		case listBack:
			return ResultBack, nil
		case listNext:
			if offset+size < int(total) {
				offset += size
			}
		case listPrev:
			offset = max(0, offset-size)
		case listPick:
			if idx > len(threads) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			res, err := n.runThreadView(sc, board, threads[idx-1])
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		case listOther:
			switch other {
			case "c":
				if err := n.composeThread(sc, board); err != nil {
					if errors.Is(err, errCancelled) {
						continue
					}
					return 0, err
				}
			case "m":
				if sc.Sess.Authenticated() {
					if err := n.deps.Store.MarkAllRead(sc.ctx, sc.Sess.UserID(), board.ID); err == nil {
						if err := sc.SendLine(sc.T("board.markedread")); err != nil {
							return 0, err
						}
					}
				}
			}
		}
	}
}

// runThreadView pages through the posts of one thread, maintaining the
// reader's high-water mark as pages render.
func (n *Navigator) runThreadView(sc *Context, board *models.Board, thread *models.Thread) (Result, error) {
	offset := 0
	for {
		size := sc.pageSize()
		posts, total, err := n.deps.Store.ListThreadPosts(sc.ctx, thread.ID, store.Page{Limit: size, Offset: offset})
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("board.poststitle", thread.Title)); err != nil {
			return 0, err
		}
		if err := sc.SendLine(sc.T("common.page", offset/size+1, pageCount(total, size))); err != nil {
			return 0, err
		}
		var highest int64
		for _, p := range posts {
			header := fmt.Sprintf("--- %s  %s ---", sc.T("board.by", n.authorName(sc, p.AuthorID)), sc.when(p.CreatedAt))
			if err := sc.SendLine(header); err != nil {
				return 0, err
			}
			if err := sc.SendLine(p.Body); err != nil {
				return 0, err
			}
			if p.ID > highest {
				highest = p.ID
			}
		}
		n.markRead(sc, board.ID, highest)

		line, err := sc.Prompt("board.reply")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		switch choice(line) {
		case "q":
			return ResultBack, nil
		case "":
			if offset+size < int(total) {
				offset += size
			} else {
				return ResultBack, nil
			}
		case "r":
			if err := n.replyToThread(sc, board, thread); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
		case "d":
			if !thread.CanDelete(sc.Sess.UserID(), sc.Sess.Role()) {
				if err := sc.SendLine(sc.T("common.denied")); err != nil {
					return 0, err
				}
				continue
			}
			ok, err := sc.confirm()
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			if err := n.deps.Store.DeleteThread(sc.ctx, thread.ID); err != nil {
				if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
					return 0, err
				}
				continue
			}
			logger.Info("thread deleted",
				logger.SessionID(sc.Sess.ID),
				logger.UserID(sc.Sess.UserID()),
				"thread_id", thread.ID)
			if err := sc.SendLine(sc.T("board.deleted")); err != nil {
				return 0, err
			}
			return ResultBack, nil
		}
	}
}

// runFlatBoard pages through the independent posts of a flat board.
func (n *Navigator) runFlatBoard(sc *Context, board *models.Board) (Result, error) {
	offset := 0
	for {
		size := sc.pageSize()
		posts, total, err := n.deps.Store.ListBoardPosts(sc.ctx, board.ID, store.Page{Limit: size, Offset: offset})
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("board.poststitle", board.Name)); err != nil {
			return 0, err
		}
		if err := sc.SendLine(sc.T("common.page", offset/size+1, pageCount(total, size))); err != nil {
			return 0, err
		}
		if len(posts) == 0 {
			if err := sc.SendLine(sc.T("common.empty")); err != nil {
				return 0, err
			}
		}
		var highest int64
		for i, p := range posts {
			row := fmt.Sprintf("  %2d. %-40s %s  %s",
				i+1, p.Title, sc.T("board.by", n.authorName(sc, p.AuthorID)), sc.when(p.CreatedAt))
			if err := sc.SendLine(row); err != nil {
				return 0, err
			}
			if p.ID > highest {
				highest = p.ID
			}
		}
		n.markRead(sc, board.ID, highest)

		line, err := sc.Prompt("board.threadprompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		action, idx, other := parseListChoice(line)
		switch action {
		case listBack:
			return ResultBack, nil
		case listNext:
			if offset+size < int(total) {
				offset += size
			}
		case listPrev:
			offset = max(0, offset-size)
		case listPick:
			if idx > len(posts) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			res, err := n.runFlatPostView(sc, board, posts[idx-1])
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		case listOther:
			if other == "c" {
				if err := n.composeFlatPost(sc, board); err != nil {
					if errors.Is(err, errCancelled) {
						continue
					}
					return 0, err
				}
			}
		}
	}
}

// runFlatPostView shows one flat post with delete for the author or
// staff.
func (n *Navigator) runFlatPostView(sc *Context, board *models.Board, post *models.Post) (Result, error) {
	for {
		if err := sc.SendLine(fmt.Sprintf("%s  %s  %s",
			post.Title, sc.T("board.by", n.authorName(sc, post.AuthorID)), sc.when(post.CreatedAt))); err != nil {
			return 0, err
		}
		if err := sc.SendLine(post.Body); err != nil {
			return 0, err
		}

		line, err := sc.Prompt("board.reply")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		switch choice(line) {
		case "q", "":
			return ResultBack, nil
		case "r":
			if err := n.composeFlatPost(sc, board); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
			return ResultBack, nil
		case "d":
			if !post.CanDelete(sc.Sess.UserID(), sc.Sess.Role()) {
				if err := sc.SendLine(sc.T("common.denied")); err != nil {
					return 0, err
				}
				continue
			}
			ok, err := sc.confirm()
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			if err := n.deps.Store.DeletePost(sc.ctx, post.ID); err != nil {
				if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
					return 0, err
				}
				continue
			}
			if err := sc.SendLine(sc.T("board.deleted")); err != nil {
				return 0, err
			}
			return ResultBack, nil
		}
	}
}

// composeThread creates a new thread after the write and rate gates.
func (n *Navigator) composeThread(sc *Context, board *models.Board) error {
	if err := n.checkWrite(sc, board); err != nil {
		return err
	}

	title, err := sc.Prompt("board.compose_title")
	if err != nil {
		return err
	}
	if title = trimmed(title); title == "" {
		return errCancelled
	}
	body, err := sc.readMultiLine()
	if err != nil {
		return err
	}

	if _, err := n.deps.Store.CreateThread(sc.ctx, board.ID, sc.Sess.UserID(), title, body); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	n.deps.PostGate.Record(sc.Sess.UserID())
	n.deps.Metrics.RecordPost()
	return sc.SendLine(sc.T("board.created"))
}

// replyToThread appends a post to an existing thread.
func (n *Navigator) replyToThread(sc *Context, board *models.Board, thread *models.Thread) error {
	if err := n.checkWrite(sc, board); err != nil {
		return err
	}

	body, err := sc.readMultiLine()
	if err != nil {
		return err
	}
	if _, err := n.deps.Store.ReplyToThread(sc.ctx, thread.ID, sc.Sess.UserID(), body); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	thread.PostCount++
	n.deps.PostGate.Record(sc.Sess.UserID())
	n.deps.Metrics.RecordPost()
	return sc.SendLine(sc.T("board.created"))
}

// composeFlatPost creates a titled post on a flat board.
func (n *Navigator) composeFlatPost(sc *Context, board *models.Board) error {
	if err := n.checkWrite(sc, board); err != nil {
		return err
	}

	title, err := sc.Prompt("board.compose_posttitle")
	if err != nil {
		return err
	}
	if title = trimmed(title); title == "" {
		return errCancelled
	}
	body, err := sc.readMultiLine()
	if err != nil {
		return err
	}

	if _, err := n.deps.Store.CreateFlatPost(sc.ctx, board.ID, sc.Sess.UserID(), title, body); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	n.deps.PostGate.Record(sc.Sess.UserID())
	n.deps.Metrics.RecordPost()
	return sc.SendLine(sc.T("board.created"))
}

// checkWrite enforces authentication, the board write role and the post
// rate gate. A localized message plus errCancelled aborts the compose.
func (n *Navigator) checkWrite(sc *Context, board *models.Board) error {
	if !sc.Sess.Authenticated() {
		if err := sc.SendLine(sc.T("menu.loginrequired")); err != nil {
			return err
		}
		return errCancelled
	}
	if !board.CanWrite(sc.Sess.Role()) {
		if err := sc.SendLine(sc.T("common.denied")); err != nil {
			return err
		}
		return errCancelled
	}
	if dec := n.deps.PostGate.Check(sc.Sess.UserID()); !dec.Allowed {
		if err := sc.SendLine(sc.T("common.ratelimited", int(dec.RetryAfter.Seconds()))); err != nil {
			return err
		}
		return errCancelled
	}
	return nil
}

// markRead advances the reader's high-water mark to the highest post id
// just displayed. Guests keep no read positions.
func (n *Navigator) markRead(sc *Context, boardID, highestPostID int64) {
	if !sc.Sess.Authenticated() || highestPostID == 0 {
		return
	}
	if err := n.deps.Store.MarkReadUpTo(sc.ctx, sc.Sess.UserID(), boardID, highestPostID); err != nil {
		logger.Warn("failed to advance read position",
			logger.UserID(sc.Sess.UserID()), logger.Err(err))
	}
}

// authorName resolves a user id to a display name, falling back to a
// placeholder for vanished accounts.
func (n *Navigator) authorName(sc *Context, userID int64) string {
	u, err := n.deps.Store.GetUserByID(sc.ctx, userID)
	if err != nil {
		return "?"
	}
	return u.DisplayName()
}

func pageCount(total int64, size int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
