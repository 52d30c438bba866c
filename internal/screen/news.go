package screen

import (
	"errors"
	"fmt"

	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runNews lists the subscribed feeds and their persisted items. Fetching
// happens outside the session; this area is read-only for everyone.
func (n *Navigator) runNews(sc *Context) (Result, error) {
	for {
		feeds, err := n.deps.Store.ListFeeds(sc.ctx, true)
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("news.feedstitle")); err != nil {
			return 0, err
		}
		if len(feeds) == 0 {
			if err := sc.SendLine(sc.T("news.nofeeds")); err != nil {
				return 0, err
			}
			return ResultBack, nil
		}
		for i, f := range feeds {
			row := fmt.Sprintf("  %2d. %s", i+1, f.Title)
			if sc.Sess.Authenticated() {
				if unread, err := n.deps.Store.UnreadItemCount(sc.ctx, sc.Sess.UserID(), f.ID); err == nil && unread > 0 {
					row += "  [" + sc.T("news.unread", unread) + "]"
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
			if idx > len(feeds) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			res, err := n.runFeedItems(sc, feeds[idx-1])
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		}
	}
}

// runFeedItems pages through one feed's stored items.
func (n *Navigator) runFeedItems(sc *Context, feed *models.RSSFeed) (Result, error) {
	offset := 0
	for {
		size := sc.pageSize()
		items, total, err := n.deps.Store.ListItems(sc.ctx, feed.ID, store.Page{Limit: size, Offset: offset})
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("news.itemstitle", feed.Title)); err != nil {
			return 0, err
		}
		if err := sc.SendLine(sc.T("common.page", offset/size+1, pageCount(total, size))); err != nil {
			return 0, err
		}
		if len(items) == 0 {
			if err := sc.SendLine(sc.T("common.empty")); err != nil {
				return 0, err
			}
		}
		for i, item := range items {
			row := fmt.Sprintf("  %2d. %-48s %s", i+1, item.Title, sc.when(item.PublishedAt))
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
		case listNext:
			if offset+size < int(total) {
				offset += size
			}
		case listPrev:
			offset = max(0, offset-size)
		case listPick:
			if idx > len(items) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			if err := n.showFeedItem(sc, items[idx-1]); err != nil {
				return 0, err
			}
		}
	}
}

func (n *Navigator) showFeedItem(sc *Context, item *models.RSSItem) error {
	if err := sc.SendLine(item.Title); err != nil {
		return err
	}
	if sc.Sess.Authenticated() {
		// Best effort; a failed mark never blocks reading.
		_ = n.deps.Store.MarkItemRead(sc.ctx, sc.Sess.UserID(), item.FeedID, item.ID)
	}
	if err := sc.SendLine(sc.T("news.published", sc.when(item.PublishedAt))); err != nil {
		return err
	}
	if item.Description != "" {
		if err := sc.SendLine(item.Description); err != nil {
			return err
		}
	}
	return sc.SendLine(item.Link)
}
