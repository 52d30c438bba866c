package screen

import (
	"errors"

	"github.com/hobbsbbs/hobbs/internal/render"
	"github.com/hobbsbbs/hobbs/internal/session"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runMainMenu shows the status bar and dispatches to the areas. Areas
// marked login-required bounce guests with a localized message.
func (n *Navigator) runMainMenu(sc *Context) error {
	var unread int64
	if sc.Sess.Authenticated() {
		var err error
		unread, err = n.deps.Store.CountUnreadMail(sc.ctx, sc.Sess.UserID())
		if err != nil {
			unread = 0
		}
	}

	bar, err := n.deps.Renderer.Render("mainmenu", render.BannerData{
		Name:       n.deps.Config.BBS.Name,
		Username:   sc.Sess.Username(),
		UnreadMail: unread,
	})
	if err != nil {
		return err
	}
	if err := sc.Send(bar); err != nil {
		return err
	}
	if unread > 0 {
		if err := sc.SendLine(sc.T("menu.unreadmail", unread)); err != nil {
			return err
		}
	}

	for {
		line, err := sc.Prompt("menu.prompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				continue
			}
			return err
		}

		switch choice(line) {
		case "b":
			sc.Sess.State = session.StateBoard
			return nil
		case "c":
			sc.Sess.State = session.StateChat
			return nil
		case "m":
			if !sc.Sess.Authenticated() {
				if err := sc.SendLine(sc.T("menu.loginrequired")); err != nil {
					return err
				}
				continue
			}
			sc.Sess.State = session.StateMail
			return nil
		case "f":
			sc.Sess.State = session.StateFiles
			return nil
		case "n":
			sc.Sess.State = session.StateNews
			return nil
		case "p":
			if !sc.Sess.Authenticated() {
				if err := sc.SendLine(sc.T("menu.loginrequired")); err != nil {
					return err
				}
				continue
			}
			sc.Sess.State = session.StateProfile
			return nil
		case "s":
			sc.Sess.State = session.StateScript
			return nil
		case "a":
			if !sc.Sess.Authenticated() {
				if err := sc.SendLine(sc.T("menu.loginrequired")); err != nil {
					return err
				}
				continue
			}
			if err := models.RequireAdmin(sc.Sess.User); err != nil {
				if err := sc.SendLine(sc.T("common.denied")); err != nil {
					return err
				}
				continue
			}
			sc.Sess.State = session.StateAdmin
			return nil
		case "h":
			if err := sc.SendLine(sc.T("help.text")); err != nil {
				return err
			}
		case "x":
			n.logout(sc)
			return nil
		case "q":
			sc.Sess.State = session.StateClosing
			return nil
		default:
			if err := sc.SendLine(sc.T("menu.invalid")); err != nil {
				return err
			}
		}
	}
}
