package screen

import (
	"errors"

	"github.com/hobbsbbs/hobbs/internal/encoding"
	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/render"
	"github.com/hobbsbbs/hobbs/internal/session"
)

// runWelcome shows the banner and routes to login, registration, guest
// entry or quit. Digits 1-4 alias the letters.
func (n *Navigator) runWelcome(sc *Context) error {
	banner, err := n.deps.Renderer.Render("welcome", render.BannerData{
		Name:           n.deps.Config.BBS.Name,
		Description:    n.deps.Config.BBS.Description,
		SysOpName:      n.deps.Config.BBS.SysOpName,
		Version:        n.deps.Version,
		ActiveSessions: n.deps.Registry.Count(),
	})
	if err != nil {
		return err
	}
	if err := sc.Send(banner); err != nil {
		return err
	}

	for {
		line, err := sc.Prompt("welcome.prompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				continue
			}
			return err
		}

		switch choice(line) {
		case "l", "1":
			sc.Sess.State = session.StateLogin
			return nil
		case "r", "2":
			if err := n.runLanguageSelect(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return err
			}
			sc.Sess.State = session.StateRegistration
			return nil
		case "g", "3":
			if err := n.runLanguageSelect(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return err
			}
			sc.Sess.IsGuest = true
			sc.Sess.State = session.StateMainMenu
			logger.Info("guest session started",
				logger.SessionID(sc.Sess.ID),
				logger.Peer(sc.Sess.PeerAddr))
			return nil
		case "q", "4":
			sc.Sess.State = session.StateClosing
			return nil
		default:
			if err := sc.SendLine(sc.T("welcome.invalid")); err != nil {
				return err
			}
		}
	}
}

// runLanguageSelect offers the three language/charset combinations and
// reconfigures the wire immediately. Only the register and guest paths
// pass through here; logins carry stored preferences.
func (n *Navigator) runLanguageSelect(sc *Context) error {
	if err := sc.SendLine(sc.T("lang.title")); err != nil {
		return err
	}
	if err := sc.SendLine("  1. " + sc.T("lang.english")); err != nil {
		return err
	}
	if err := sc.SendLine("  2. " + sc.T("lang.japanese_sjis")); err != nil {
		return err
	}
	if err := sc.SendLine("  3. " + sc.T("lang.japanese_utf8")); err != nil {
		return err
	}

	for {
		line, err := sc.Prompt("lang.prompt")
		if err != nil {
			return err
		}

		switch choice(line) {
		case "1":
			sc.applyLanguage("en", encoding.UTF8)
			return nil
		case "2":
			sc.applyLanguage("ja", encoding.ShiftJIS)
			return nil
		case "3":
			sc.applyLanguage("ja", encoding.UTF8)
			return nil
		default:
			if err := sc.SendLine(sc.T("lang.invalid")); err != nil {
				return err
			}
		}
	}
}
