// Package screen implements the navigator state machine and the screen
// handlers behind it. One Navigator is shared by all sessions; all
// per-connection state travels in the Context the worker builds.
package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hobbsbbs/hobbs/internal/chat"
	"github.com/hobbsbbs/hobbs/internal/encoding"
	"github.com/hobbsbbs/hobbs/internal/i18n"
	"github.com/hobbsbbs/hobbs/internal/linebuf"
	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/metrics"
	"github.com/hobbsbbs/hobbs/internal/render"
	"github.com/hobbsbbs/hobbs/internal/session"
	"github.com/hobbsbbs/hobbs/internal/telnet"
	"github.com/hobbsbbs/hobbs/internal/terminal"
	"github.com/hobbsbbs/hobbs/internal/throttle"
	"github.com/hobbsbbs/hobbs/pkg/blob"
	"github.com/hobbsbbs/hobbs/pkg/config"
	"github.com/hobbsbbs/hobbs/pkg/script"
	"github.com/hobbsbbs/hobbs/pkg/store"
)

// errCancelled marks a prompt aborted with Ctrl-C. Handlers treat it as
// "user changed their mind", never as a transport failure.
var errCancelled = errors.New("input cancelled")

// errDisconnected unwinds a worker whose session has been flagged by an
// admin. Only Navigator.Run consumes it; handlers pass it through.
var errDisconnected = errors.New("session flagged for disconnect")

// Result is what a sub-screen reports back to the navigator loop.
type Result int

const (
	// ResultBack returns to the main menu.
	ResultBack Result = iota
	// ResultLogout clears the user and returns to the welcome screen.
	ResultLogout
	// ResultQuit ends the session.
	ResultQuit
)

// Deps bundles the process-wide collaborators. Constructed once by the
// host and shared by every session.
type Deps struct {
	Store    store.Store
	Blobs    blob.Store
	Config   *config.Config
	Renderer *render.Renderer
	Registry *session.Registry
	Chat     *chat.Manager
	MailGate *throttle.RateLimiter
	PostGate *throttle.RateLimiter
	Login    *throttle.LoginThrottler
	Engine   script.Engine
	Metrics  *metrics.Metrics
	Version  string
}

// Navigator drives a session through the screen state machine.
type Navigator struct {
	deps Deps
	loc  *time.Location
}

// NewNavigator builds a navigator. A nil script engine falls back to the
// disabled engine.
func NewNavigator(deps Deps) *Navigator {
	if deps.Engine == nil {
		deps.Engine = script.DisabledEngine{}
	}
	return &Navigator{
		deps: deps,
		loc:  deps.Config.Server.Location(),
	}
}

// Context is the per-connection view handlers operate on. It is owned by
// one worker goroutine.
type Context struct {
	nav  *Navigator
	ctx  context.Context
	Conn *telnet.Conn
	Buf  *linebuf.Buffer
	Sess *session.Session
	Cat  *i18n.Catalog
}

// NewContext prepares the per-connection state for a freshly wrapped
// transport.
func (n *Navigator) NewContext(ctx context.Context, conn *telnet.Conn, sess *session.Session) *Context {
	lang := n.deps.Config.Locale.Language
	sess.Language = lang
	return &Context{
		nav:  n,
		ctx:  ctx,
		Conn: conn,
		Buf:  linebuf.New(conn.Encoding(), 0),
		Sess: sess,
		Cat:  i18n.LoadOrDefault(lang),
	}
}

// T localizes a catalog key for the session language.
func (c *Context) T(key string, args ...any) string {
	return c.Cat.T(key, args...)
}

// Send writes text without a trailing newline (prompts).
func (c *Context) Send(s string) error {
	if err := c.Conn.WriteText(s); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	c.nav.deps.Metrics.AddBytesWritten(len(s))
	return nil
}

// SendLine writes one full output line.
func (c *Context) SendLine(s string) error {
	return c.Send(s + "\n")
}

// readDeadline picks the per-read deadline for the session's auth tier.
func (c *Context) readDeadline() time.Time {
	cfg := c.nav.deps.Config.Server
	switch {
	case c.Sess.Authenticated():
		return time.Now().Add(cfg.IdleTimeout())
	case c.Sess.IsGuest:
		return time.Now().Add(cfg.GuestTimeout())
	default:
		return time.Now().Add(cfg.ReadTimeout())
	}
}

// ReadLine assembles one input line through the line buffer, echoing as
// it goes. It returns errCancelled on Ctrl-C and io.EOF on Ctrl-D at an
// empty line; deadline expiry and transport errors are fatal.
func (c *Context) ReadLine(mode linebuf.EchoMode) (string, error) {
	// Checked on entry and again after every completed line so a flagged
	// session never gets another screen served, however deep the handler.
	if c.disconnectRequested() {
		return "", errDisconnected
	}

	c.Buf.SetEcho(mode, 0)
	c.Buf.Reset()

	if err := c.Conn.SetReadDeadline(c.readDeadline()); err != nil {
		return "", fmt.Errorf("set deadline failed: %w", err)
	}

	for {
		b, err := c.Conn.ReadByte()
		if err != nil {
			if isTimeout(err) {
				c.nav.deps.Metrics.RecordReadTimeout()
				if c.disconnectRequested() {
					return "", errDisconnected
				}
			}
			return "", fmt.Errorf("read failed: %w", err)
		}
		c.nav.deps.Metrics.AddBytesRead(1)

		result, line, echo := c.Buf.Feed(b)
		if len(echo) > 0 {
			if err := c.Conn.WriteRaw(echo); err != nil {
				return "", fmt.Errorf("echo failed: %w", err)
			}
		}

		switch result {
		case linebuf.Line:
			c.Sess.Touch()
			if c.disconnectRequested() {
				return "", errDisconnected
			}
			return line, nil
		case linebuf.Cancel:
			c.Sess.Touch()
			return "", errCancelled
		case linebuf.Eof:
			return "", io.EOF
		}
	}
}

// disconnectRequested reports whether an admin flagged this session.
func (c *Context) disconnectRequested() bool {
	return c.nav.deps.Registry.ShouldDisconnect(c.Sess.ID)
}

// Prompt localizes key, emits it and reads the reply.
func (c *Context) Prompt(key string, args ...any) (string, error) {
	if err := c.Send(c.T(key, args...)); err != nil {
		return "", err
	}
	return c.ReadLine(linebuf.EchoNormal)
}

// PromptMasked is Prompt with password echo.
func (c *Context) PromptMasked(key string, args ...any) (string, error) {
	if err := c.Send(c.T(key, args...)); err != nil {
		return "", err
	}
	return c.ReadLine(linebuf.EchoPassword)
}

// choice lowercases and trims a menu reply.
func choice(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

// readMultiLine collects lines until a single "." line. An empty body
// means the user cancelled.
func (c *Context) readMultiLine() (string, error) {
	if err := c.SendLine(c.T("common.multiline")); err != nil {
		return "", err
	}
	var lines []string
	for {
		line, err := c.ReadLine(linebuf.EchoNormal)
		if err != nil {
			if errors.Is(err, errCancelled) {
				return "", errCancelled
			}
			return "", err
		}
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	body := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	if strings.TrimSpace(body) == "" {
		return "", errCancelled
	}
	return body, nil
}

// confirm asks a yes/no question, defaulting to no.
func (c *Context) confirm() (bool, error) {
	line, err := c.Prompt("common.confirm")
	if err != nil {
		if errors.Is(err, errCancelled) {
			return false, nil
		}
		return false, err
	}
	return choice(line) == "y", nil
}

// pageSize returns the list rows for this session, honoring a NAWS
// window when the client reported one.
func (c *Context) pageSize() int {
	_, h := c.Conn.WindowSize()
	return terminal.PageSize(h)
}

// when renders a timestamp in the configured display timezone.
func (c *Context) when(t time.Time) string {
	return t.In(c.nav.loc).Format("2006-01-02 15:04")
}

// applyLanguage switches the session language, wire encoding, catalog
// and line buffer together.
func (c *Context) applyLanguage(lang string, enc encoding.Encoding) {
	c.Sess.Language = lang
	c.Sess.Encoding = enc
	c.Conn.SetEncoding(enc)
	c.Buf.SetEncoding(enc)
	c.Cat = i18n.LoadOrDefault(lang)
}

// applyUserPreferences re-applies the stored preferences of the bound
// user to the wire and the catalog.
func (c *Context) applyUserPreferences() {
	c.Conn.SetEncoding(c.Sess.Encoding)
	c.Conn.SetOutputMode(c.Sess.OutputMode)
	c.Buf.SetEncoding(c.Sess.Encoding)
	c.Cat = i18n.LoadOrDefault(c.Sess.Language)
}

// Run drives the session until quit, disconnect or a fatal I/O error.
// The caller owns transport close and registry unregistration.
func (n *Navigator) Run(ctx context.Context, conn *telnet.Conn, sess *session.Session) error {
	sc := n.NewContext(ctx, conn, sess)
	base := logger.FromContext(ctx)

	for {
		if base != nil {
			lc := base.WithState(sess.State.String())
			if sess.Authenticated() {
				lc = lc.WithUser(sess.UserID(), sess.Username())
			}
			sc.ctx = logger.WithContext(ctx, lc)
		}
		if n.deps.Registry.ShouldDisconnect(sess.ID) {
			n.deps.Metrics.RecordForceDisconnect()
			_ = sc.SendLine(sc.T("common.goodbye"))
			return nil
		}
		n.deps.Registry.Update(sess)

		var err error
		switch sess.State {
		case session.StateWelcome:
			err = n.runWelcome(sc)
		case session.StateLogin:
			err = n.runLogin(sc)
		case session.StateRegistration:
			err = n.runRegistration(sc)
		case session.StateMainMenu:
			err = n.runMainMenu(sc)
		case session.StateBoard:
			err = n.runSub(sc, n.runBoards)
		case session.StateChat:
			err = n.runSub(sc, n.runChat)
		case session.StateMail:
			err = n.runSub(sc, n.runMail)
		case session.StateFiles:
			err = n.runSub(sc, n.runFiles)
		case session.StateNews:
			err = n.runSub(sc, n.runNews)
		case session.StateProfile:
			err = n.runSub(sc, n.runProfile)
		case session.StateScript:
			err = n.runSub(sc, n.runScripts)
		case session.StateAdmin:
			err = n.runSub(sc, n.runAdmin)
		case session.StateClosing:
			_ = sc.SendLine(sc.T("common.goodbye"))
			return nil
		default:
			return fmt.Errorf("unknown session state %d", sess.State)
		}
		if err != nil {
			if errors.Is(err, errDisconnected) {
				n.deps.Metrics.RecordForceDisconnect()
				_ = sc.SendLine(sc.T("common.goodbye"))
				return nil
			}
			return err
		}
	}
}

// runSub executes a sub-screen handler and folds its result back into
// the session state.
func (n *Navigator) runSub(sc *Context, handler func(*Context) (Result, error)) error {
	res, err := handler(sc)
	if err != nil {
		if errors.Is(err, errCancelled) {
			sc.Sess.State = session.StateMainMenu
			return nil
		}
		return err
	}

	switch res {
	case ResultLogout:
		n.logout(sc)
	case ResultQuit:
		sc.Sess.State = session.StateClosing
	default:
		sc.Sess.State = session.StateMainMenu
	}
	return nil
}

// logout drops authentication and returns to the welcome screen. Safe to
// repeat; a second logout is a no-op state-wise.
func (n *Navigator) logout(sc *Context) {
	if sc.Sess.Authenticated() {
		logger.Info("user logged out",
			logger.SessionID(sc.Sess.ID),
			logger.Username(sc.Sess.Username()))
	}
	sc.Sess.ClearUser()
	sc.Sess.State = session.StateWelcome
}

// listAction classifies a reply to a list prompt.
type listAction int

const (
	listBack listAction = iota
	listNext
	listPrev
	listPick
	listOther
)

// parseListChoice interprets N/P/Q, a 1-based number, or anything else
// (returned lowercased for handler-specific letters).
func parseListChoice(line string) (listAction, int, string) {
	ch := choice(line)
	switch ch {
	case "q", "":
		return listBack, 0, ch
	case "n":
		return listNext, 0, ch
	case "p":
		return listPrev, 0, ch
	}
	if idx, err := strconv.Atoi(ch); err == nil && idx > 0 {
		return listPick, idx, ch
	}
	return listOther, 0, ch
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
