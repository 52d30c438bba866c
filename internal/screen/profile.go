package screen

import (
	"errors"
	"fmt"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/terminal"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runProfile edits the authenticated user's own record. Changes apply to
// the live session immediately after they persist.
func (n *Navigator) runProfile(sc *Context) (Result, error) {
	for {
		u := sc.Sess.User
		if err := sc.SendLine(sc.T("profile.title")); err != nil {
			return 0, err
		}
		if err := sc.SendLine(fmt.Sprintf("  %s (%s)  %s", u.DisplayName(), u.Username, u.Role)); err != nil {
			return 0, err
		}
		if u.Email != "" {
			if err := sc.SendLine("  " + u.Email); err != nil {
				return 0, err
			}
		}
		if u.Profile != "" {
			if err := sc.SendLine(u.Profile); err != nil {
				return 0, err
			}
		}

		line, err := sc.Prompt("profile.prompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		switch choice(line) {
		case "q", "":
			return ResultBack, nil
		case "n":
			if err := n.editNickname(sc); err != nil && !errors.Is(err, errCancelled) {
				return 0, err
			}
		case "e":
			if err := n.editEmail(sc); err != nil && !errors.Is(err, errCancelled) {
				return 0, err
			}
		case "t":
			if err := n.editProfileText(sc); err != nil && !errors.Is(err, errCancelled) {
				return 0, err
			}
		case "p":
			if err := n.changePassword(sc); err != nil && !errors.Is(err, errCancelled) {
				return 0, err
			}
		case "l":
			if err := n.changeLanguage(sc); err != nil && !errors.Is(err, errCancelled) {
				return 0, err
			}
		case "d":
			if err := n.changeTerminalProfile(sc); err != nil && !errors.Is(err, errCancelled) {
				return 0, err
			}
		}
	}
}

func (n *Navigator) editNickname(sc *Context) error {
	line, err := sc.Prompt("profile.nickname")
	if err != nil {
		return err
	}
	nickname := trimmed(line)
	if nickname == "" {
		return errCancelled
	}
	if err := n.deps.Store.UpdateUser(sc.ctx, sc.Sess.UserID(), models.UserUpdate{Nickname: &nickname}); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	sc.Sess.User.Nickname = nickname
	return sc.SendLine(sc.T("profile.saved"))
}

func (n *Navigator) editEmail(sc *Context) error {
	line, err := sc.Prompt("profile.email")
	if err != nil {
		return err
	}
	email := trimmed(line)
	if err := n.deps.Store.UpdateUser(sc.ctx, sc.Sess.UserID(), models.UserUpdate{Email: &email}); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	sc.Sess.User.Email = email
	return sc.SendLine(sc.T("profile.saved"))
}

func (n *Navigator) editProfileText(sc *Context) error {
	if err := sc.SendLine(sc.T("profile.text")); err != nil {
		return err
	}
	text, err := sc.readMultiLine()
	if err != nil {
		return err
	}
	if err := n.deps.Store.UpdateUser(sc.ctx, sc.Sess.UserID(), models.UserUpdate{Profile: &text}); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	sc.Sess.User.Profile = text
	return sc.SendLine(sc.T("profile.saved"))
}

func (n *Navigator) changePassword(sc *Context) error {
	password, err := n.readNewPassword(sc, "profile.password", "profile.passwordconfirm")
	if err != nil {
		return err
	}
	if err := n.deps.Store.UpdatePassword(sc.ctx, sc.Sess.UserID(), password); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	logger.Info("password changed",
		logger.SessionID(sc.Sess.ID), logger.UserID(sc.Sess.UserID()))
	return sc.SendLine(sc.T("profile.saved"))
}

// changeLanguage reuses the welcome-path selector and persists the
// resulting language/charset pair on the user record.
func (n *Navigator) changeLanguage(sc *Context) error {
	if err := n.runLanguageSelect(sc); err != nil {
		return err
	}
	lang := sc.Sess.Language
	enc := string(sc.Sess.Encoding)
	if err := n.deps.Store.UpdateUser(sc.ctx, sc.Sess.UserID(), models.UserUpdate{
		Language: &lang,
		Encoding: &enc,
	}); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	sc.Sess.User.Language = lang
	sc.Sess.User.Encoding = enc
	return sc.SendLine(sc.T("profile.saved"))
}

func (n *Navigator) changeTerminalProfile(sc *Context) error {
	if err := sc.SendLine(sc.T("profile.displaytitle")); err != nil {
		return err
	}
	names := terminal.Names()
	for i, name := range names {
		if err := sc.SendLine(fmt.Sprintf("  %d. %s", i+1, name)); err != nil {
			return err
		}
	}
	if err := sc.SendLine(sc.T("profile.current", sc.Sess.Terminal.Name)); err != nil {
		return err
	}

	line, err := sc.Prompt("common.listprompt")
	if err != nil {
		return err
	}
	action, idx, _ := parseListChoice(line)
	if action != listPick || idx > len(names) {
		return errCancelled
	}

	name := names[idx-1]
	if err := n.deps.Store.UpdateUser(sc.ctx, sc.Sess.UserID(), models.UserUpdate{
		TerminalProfileName: &name,
	}); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	sc.Sess.User.TerminalProfileName = name
	sc.Sess.ApplyUser(sc.Sess.User)
	sc.applyUserPreferences()
	return sc.SendLine(sc.T("profile.saved"))
}
