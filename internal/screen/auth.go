package screen

import (
	"errors"
	"strings"
	"time"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/session"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runLogin reads credentials and authenticates. The throttler is
// consulted before the password read so locked peers cost no store
// lookup; failures return to the welcome screen.
func (n *Navigator) runLogin(sc *Context) error {
	username, err := sc.Prompt("login.username")
	if err != nil {
		if errors.Is(err, errCancelled) {
			sc.Sess.State = session.StateWelcome
			return nil
		}
		return err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		sc.Sess.State = session.StateWelcome
		return nil
	}

	if dec := n.deps.Login.Check(sc.Sess.PeerIP); !dec.Allowed {
		n.deps.Metrics.RecordLogin("locked")
		logger.Warn("login attempt from locked peer",
			logger.SessionID(sc.Sess.ID),
			logger.Peer(sc.Sess.PeerAddr))
		if err := sc.SendLine(sc.T("login.locked", int(dec.RetryAfter.Seconds()))); err != nil {
			return err
		}
		sc.Sess.State = session.StateWelcome
		return nil
	}

	password, err := sc.PromptMasked("login.password")
	if err != nil {
		if errors.Is(err, errCancelled) {
			sc.Sess.State = session.StateWelcome
			return nil
		}
		return err
	}

	user, err := n.deps.Store.Authenticate(sc.ctx, username, password)
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		n.deps.Login.RecordFailure(sc.Sess.PeerIP)
		n.deps.Metrics.RecordLogin("failure")
		logger.Info("login failed",
			logger.SessionID(sc.Sess.ID),
			logger.Peer(sc.Sess.PeerAddr),
			logger.Username(username))
		if err := sc.SendLine(sc.T("login.invalid")); err != nil {
			return err
		}
		sc.Sess.State = session.StateWelcome
		return nil
	case errors.Is(err, models.ErrUserInactive):
		n.deps.Metrics.RecordLogin("failure")
		if err := sc.SendLine(sc.T("login.inactive")); err != nil {
			return err
		}
		sc.Sess.State = session.StateWelcome
		return nil
	case err != nil:
		if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
			return err
		}
		sc.Sess.State = session.StateWelcome
		return nil
	}

	n.deps.Login.Clear(sc.Sess.PeerIP)
	previousLogin := user.LastLogin

	sc.Sess.ApplyUser(user)
	sc.applyUserPreferences()

	if err := n.deps.Store.UpdateLastLogin(sc.ctx, user.ID, time.Now()); err != nil {
		logger.Warn("failed to stamp last login",
			logger.UserID(user.ID), logger.Err(err))
	}

	n.deps.Metrics.RecordLogin("success")
	logger.Info("user logged in",
		logger.SessionID(sc.Sess.ID),
		logger.UserID(user.ID),
		logger.Username(user.Username))

	if err := sc.SendLine(sc.T("login.success", user.DisplayName())); err != nil {
		return err
	}
	if previousLogin != nil {
		if err := sc.SendLine(sc.T("login.lastlogin", sc.when(*previousLogin))); err != nil {
			return err
		}
	} else {
		if err := sc.SendLine(sc.T("login.firstlogin")); err != nil {
			return err
		}
	}

	sc.Sess.State = session.StateMainMenu
	return nil
}

// runRegistration creates an account. The first registered user becomes
// SysOp inside the store transaction; everyone else is a Member.
func (n *Navigator) runRegistration(sc *Context) error {
	res, err := n.registrationFlow(sc)
	if errors.Is(err, errCancelled) {
		sc.Sess.State = session.StateWelcome
		return nil
	}
	if err != nil {
		return err
	}
	sc.Sess.State = res
	return nil
}

func (n *Navigator) registrationFlow(sc *Context) (session.State, error) {
	if err := sc.SendLine(sc.T("register.banner")); err != nil {
		return 0, err
	}

	for {
		username, err := sc.Prompt("register.username")
		if err != nil {
			return 0, err
		}
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}

		password, err := n.readNewPassword(sc, "register.password", "register.confirm")
		if err != nil {
			return 0, err
		}

		nickname, err := sc.Prompt("register.nickname")
		if err != nil {
			return 0, err
		}
		nickname = strings.TrimSpace(nickname)

		user, err := n.deps.Store.RegisterUser(sc.ctx, username, password, nickname)
		switch {
		case errors.Is(err, models.ErrDuplicateUser):
			if err := sc.SendLine(sc.T("register.taken")); err != nil {
				return 0, err
			}
			continue
		case models.IsValidation(err):
			if err := sc.SendLine(sc.T("register.tooshort", store.MinPasswordLength)); err != nil {
				return 0, err
			}
			continue
		case err != nil:
			if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
				return 0, err
			}
			return session.StateWelcome, nil
		}

		// Persist the language and charset picked on the way in so the
		// next login restores them.
		lang := sc.Sess.Language
		enc := string(sc.Sess.Encoding)
		if err := n.deps.Store.UpdateUser(sc.ctx, user.ID, models.UserUpdate{
			Language: &lang,
			Encoding: &enc,
		}); err != nil {
			logger.Warn("failed to store registration preferences",
				logger.UserID(user.ID), logger.Err(err))
		} else {
			user.Language = lang
			user.Encoding = enc
		}

		sc.Sess.ApplyUser(user)
		sc.applyUserPreferences()

		n.deps.Metrics.RecordRegistration()
		logger.Info("user registered",
			logger.SessionID(sc.Sess.ID),
			logger.UserID(user.ID),
			logger.Username(user.Username))

		if err := sc.SendLine(sc.T("register.success", user.DisplayName())); err != nil {
			return 0, err
		}
		return session.StateMainMenu, nil
	}
}

// readNewPassword reads a password twice with masked echo, re-prompting
// on mismatch or a too-short first entry.
func (n *Navigator) readNewPassword(sc *Context, promptKey, confirmKey string) (string, error) {
	for {
		password, err := sc.PromptMasked(promptKey)
		if err != nil {
			return "", err
		}
		if len(password) < store.MinPasswordLength {
			if err := sc.SendLine(sc.T("register.tooshort", store.MinPasswordLength)); err != nil {
				return "", err
			}
			continue
		}

		confirm, err := sc.PromptMasked(confirmKey)
		if err != nil {
			return "", err
		}
		if confirm != password {
			if err := sc.SendLine(sc.T("register.mismatch")); err != nil {
				return "", err
			}
			continue
		}
		return password, nil
	}
}
