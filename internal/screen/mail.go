package screen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runMail is the private-mail area: inbox, sent folder and compose. The
// navigator only routes authenticated users here.
func (n *Navigator) runMail(sc *Context) (Result, error) {
	for {
		if err := sc.SendLine(sc.T("mail.title")); err != nil {
			return 0, err
		}

		line, err := sc.Prompt("mail.prompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		switch choice(line) {
		case "q", "":
			return ResultBack, nil
		case "i":
			res, err := n.runMailbox(sc, true)
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		case "s":
			res, err := n.runMailbox(sc, false)
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		case "c":
			if err := n.composeMail(sc, "", ""); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
		}
	}
}

// runMailbox pages through the inbox or the sent folder.
func (n *Navigator) runMailbox(sc *Context, inbox bool) (Result, error) {
	offset := 0
	for {
		size := sc.pageSize()
		var (
			msgs  []*models.Mail
			total int64
			err   error
		)
		if inbox {
			msgs, total, err = n.deps.Store.ListInbox(sc.ctx, sc.Sess.UserID(), store.Page{Limit: size, Offset: offset})
		} else {
			msgs, total, err = n.deps.Store.ListSent(sc.ctx, sc.Sess.UserID(), store.Page{Limit: size, Offset: offset})
		}
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		title := "mail.senttitle"
		if inbox {
			title = "mail.inboxtitle"
		}
		if err := sc.SendLine(sc.T(title)); err != nil {
			return 0, err
		}
		if err := sc.SendLine(sc.T("common.page", offset/size+1, pageCount(total, size))); err != nil {
			return 0, err
		}
		if len(msgs) == 0 {
			if err := sc.SendLine(sc.T("common.empty")); err != nil {
				return 0, err
			}
		}
		for i, m := range msgs {
			mark := " "
			if inbox && !m.IsRead {
				mark = sc.T("mail.unreadmark")
			}
			other := m.SenderID
			if !inbox {
				other = m.RecipientID
			}
			row := fmt.Sprintf("  %2d.%s %-16s %-32s %s",
				i+1, mark, n.authorName(sc, other), m.Subject, sc.when(m.CreatedAt))
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
			if idx > len(msgs) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			res, err := n.runMailRead(sc, msgs[idx-1], inbox)
			if err != nil {
				return 0, err
			}
			if res != ResultBack {
				return res, nil
			}
		}
	}
}

// runMailRead shows one message and offers reply and per-side deletion.
func (n *Navigator) runMailRead(sc *Context, m *models.Mail, inbox bool) (Result, error) {
	sender := n.authorName(sc, m.SenderID)
	recipient := n.authorName(sc, m.RecipientID)

	if err := sc.SendLine(sc.T("mail.from", sender)); err != nil {
		return 0, err
	}
	if err := sc.SendLine(sc.T("mail.to", recipient)); err != nil {
		return 0, err
	}
	if err := sc.SendLine(sc.T("mail.subject", m.Subject)); err != nil {
		return 0, err
	}
	if err := sc.SendLine(sc.T("mail.date", sc.when(m.CreatedAt))); err != nil {
		return 0, err
	}
	if err := sc.SendLine(""); err != nil {
		return 0, err
	}
	if err := sc.SendLine(m.Body); err != nil {
		return 0, err
	}

	if inbox && !m.IsRead {
		if err := n.deps.Store.MarkMailRead(sc.ctx, m.ID); err == nil {
			m.IsRead = true
		}
	}

	for {
		line, err := sc.Prompt("mail.readprompt")
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
			// Resolve the counterpart account: display names are not
			// usernames, so the compose lookup needs the real login.
			otherID := m.SenderID
			if !inbox {
				otherID = m.RecipientID
			}
			other, err := n.deps.Store.GetUserByID(sc.ctx, otherID)
			if err != nil {
				if err := sc.SendLine(sc.T("mail.nouser")); err != nil {
					return 0, err
				}
				continue
			}
			subject := m.Subject
			if !strings.HasPrefix(subject, "Re: ") {
				subject = "Re: " + subject
			}
			if err := n.composeMail(sc, other.Username, subject); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
			return ResultBack, nil
		case "d":
			if err := n.deps.Store.DeleteMail(sc.ctx, m.ID, sc.Sess.UserID()); err != nil {
				if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
					return 0, err
				}
				continue
			}
			if err := sc.SendLine(sc.T("mail.deleted")); err != nil {
				return 0, err
			}
			return ResultBack, nil
		}
	}
}

// composeMail sends a message. Preset recipient and subject come from
// the reply path; empty values prompt.
func (n *Navigator) composeMail(sc *Context, toUsername, subject string) error {
	if dec := n.deps.MailGate.Check(sc.Sess.UserID()); !dec.Allowed {
		logger.WarnCtx(sc.ctx, "mail send rate limited",
			"retry_after_s", int(dec.RetryAfter.Seconds()))
		if err := sc.SendLine(sc.T("common.ratelimited", int(dec.RetryAfter.Seconds()))); err != nil {
			return err
		}
		return errCancelled
	}

	if toUsername == "" {
		line, err := sc.Prompt("mail.toprompt")
		if err != nil {
			return err
		}
		if toUsername = trimmed(line); toUsername == "" {
			return errCancelled
		}
	}

	recipient, err := n.deps.Store.GetUser(sc.ctx, toUsername)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			if err := sc.SendLine(sc.T("mail.nouser")); err != nil {
				return err
			}
			return errCancelled
		}
		return sc.SendLine(sc.T("common.opfailed"))
	}

	if subject == "" {
		line, err := sc.Prompt("mail.subjectprompt")
		if err != nil {
			return err
		}
		if subject = trimmed(line); subject == "" {
			return errCancelled
		}
	}

	body, err := sc.readMultiLine()
	if err != nil {
		return err
	}

	if _, err := n.deps.Store.SendMail(sc.ctx, sc.Sess.UserID(), recipient.ID, subject, body); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	n.deps.MailGate.Record(sc.Sess.UserID())
	n.deps.Metrics.RecordMail()
	logger.InfoCtx(sc.ctx, "mail sent", "recipient_id", recipient.ID)
	return sc.SendLine(sc.T("mail.sent"))
}
