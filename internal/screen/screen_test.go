package screen

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hobbsbbs/hobbs/internal/chat"
	"github.com/hobbsbbs/hobbs/internal/metrics"
	"github.com/hobbsbbs/hobbs/internal/render"
	"github.com/hobbsbbs/hobbs/internal/session"
	"github.com/hobbsbbs/hobbs/internal/telnet"
	"github.com/hobbsbbs/hobbs/internal/throttle"
	"github.com/hobbsbbs/hobbs/pkg/blob"
	"github.com/hobbsbbs/hobbs/pkg/config"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// testHarness wires a navigator over one side of a net.Pipe and lets the
// test play the caller on the other side.
type testHarness struct {
	t      *testing.T
	nav    *Navigator
	store  store.Store
	sess   *session.Session
	client net.Conn

	mu   sync.Mutex
	out  strings.Builder
	done chan error
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	st, err := store.New(&store.Config{
		Driver: store.DriverSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}

	cfg := config.GetDefaultConfig()
	nav := NewNavigator(Deps{
		Store:    st,
		Blobs:    blob.NewMemory(),
		Config:   cfg,
		Renderer: renderer,
		Registry: session.NewRegistry(),
		Chat:     chat.NewManager(),
		MailGate: throttle.NewRateLimiter(5, time.Minute),
		PostGate: throttle.NewRateLimiter(10, 30*time.Second),
		Login:    throttle.NewLoginThrottler(5, 15*time.Minute, 15*time.Minute),
		Metrics:  metrics.New(),
		Version:  "test",
	})

	client, server := net.Pipe()
	sess := session.New("198.51.100.7:40000")
	nav.deps.Registry.Register(sess)

	h := &testHarness{
		t:      t,
		nav:    nav,
		store:  st,
		sess:   sess,
		client: client,
		done:   make(chan error, 1),
	}

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := client.Read(buf)
			if n > 0 {
				h.mu.Lock()
				h.out.Write(buf[:n])
				h.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		conn := telnet.Wrap(server)
		err := nav.Run(context.Background(), conn, sess)
		nav.deps.Registry.Unregister(sess.ID)
		_ = server.Close()
		h.done <- err
	}()

	t.Cleanup(func() { _ = client.Close() })
	return h
}

// transcript returns everything the server has written so far.
func (h *testHarness) transcript() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out.String()
}

// expect waits until the transcript contains want.
func (h *testHarness) expect(want string) {
	h.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(h.transcript(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for %q in transcript:\n%s", want, h.transcript())
}

// sendLine types one input line.
func (h *testHarness) sendLine(line string) {
	h.t.Helper()
	if _, err := h.client.Write([]byte(line + "\r\n")); err != nil {
		h.t.Fatalf("client write failed: %v", err)
	}
}

// wait blocks until the worker exits.
func (h *testHarness) wait() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(3 * time.Second):
		h.t.Fatalf("worker did not exit; transcript:\n%s", h.transcript())
		return nil
	}
}

func TestQuitFromWelcome(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("q")
	h.expect("Goodbye")
	if err := h.wait(); err != nil {
		t.Fatalf("worker returned %v, want nil", err)
	}
}

func TestWelcomeDigitAliasesAndInvalidChoice(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("z")
	h.expect("Please choose L, R, G or Q.")
	h.sendLine("4")
	h.expect("Goodbye")
	if err := h.wait(); err != nil {
		t.Fatalf("worker returned %v, want nil", err)
	}
}

func TestGuestEntersMainMenu(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("g")
	h.expect("Select language")
	h.sendLine("1")
	h.expect("[B]oards")
	if !h.sess.IsGuest {
		t.Error("session should be marked guest")
	}
	h.sendLine("q")
	h.expect("Goodbye")
	_ = h.wait()
}

func TestGuestCannotOpenMail(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("g")
	h.expect("Select language")
	h.sendLine("1")
	h.expect("[B]oards")
	h.sendLine("m")
	h.expect("You need to log in")
	h.sendLine("q")
	_ = h.wait()
}

func TestFirstRegistrationBecomesSysOp(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("r")
	h.expect("Select language")
	h.sendLine("1")
	h.expect("not encrypted")
	h.sendLine("alice")
	h.expect("Password")
	h.sendLine("password8")
	h.expect("Repeat password")
	h.sendLine("password8")
	h.expect("Nickname")
	h.sendLine("Alice")
	h.expect("Account created")
	h.expect("[B]oards")
	h.sendLine("q")
	_ = h.wait()

	u, err := h.store.GetUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("registered user missing: %v", err)
	}
	if u.Role.String() != "sysop" {
		t.Errorf("first user role = %s, want sysop", u.Role)
	}
}

func TestShortPasswordReprompts(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("r")
	h.expect("Select language")
	h.sendLine("1")
	h.expect("Desired username")
	h.sendLine("bob")
	h.expect("Password")
	h.sendLine("short")
	h.expect("at least 8 characters")
	h.sendLine("password8")
	h.expect("Repeat password")
	h.sendLine("password8")
	h.expect("Nickname")
	h.sendLine("")
	h.expect("Account created")
	h.sendLine("q")
	_ = h.wait()
}

func TestLoginSuccessAndFailure(t *testing.T) {
	h := newHarness(t)
	if _, err := h.store.RegisterUser(context.Background(), "carol", "password8", "Carol"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h.expect("[L]ogin")
	h.sendLine("l")
	h.expect("Username")
	h.sendLine("carol")
	h.expect("Password")
	h.sendLine("wrong-password")
	h.expect("Invalid username or password")

	// Back at welcome after the failure.
	h.expect("[L]ogin")
	h.sendLine("l")
	h.sendLine("carol")
	h.sendLine("password8")
	h.expect("Welcome back, Carol")
	h.expect("This is your first login")
	h.expect("[B]oards")
	if !h.sess.Authenticated() {
		t.Error("session should be authenticated")
	}
	h.sendLine("q")
	_ = h.wait()
}

func TestLoginLockoutSkipsPasswordPrompt(t *testing.T) {
	h := newHarness(t)
	for range 5 {
		h.nav.deps.Login.RecordFailure(h.sess.PeerIP)
	}

	h.expect("[L]ogin")
	h.sendLine("l")
	h.expect("Username")
	h.sendLine("carol")
	h.expect("Too many failed attempts")
	if strings.Contains(h.transcript(), "Password:") {
		t.Error("locked peer should not reach the password prompt")
	}
	h.sendLine("q")
	_ = h.wait()
}

func TestLogoutReturnsToWelcome(t *testing.T) {
	h := newHarness(t)
	if _, err := h.store.RegisterUser(context.Background(), "dave", "password8", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h.expect("[L]ogin")
	h.sendLine("l")
	h.sendLine("dave")
	h.sendLine("password8")
	h.expect("[B]oards")
	h.sendLine("x")
	h.expect("Callers online")
	if h.sess.Authenticated() {
		t.Error("session should be unauthenticated after logout")
	}
	h.sendLine("q")
	_ = h.wait()
}

func TestForceDisconnectEndsSession(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")

	if !h.nav.deps.Registry.ForceDisconnect(h.sess.ID) {
		t.Fatal("force disconnect should find the session")
	}
	// The flag is honored at the next navigator iteration.
	h.sendLine("l")
	h.expect("Goodbye")
	if err := h.wait(); err != nil {
		t.Fatalf("worker returned %v, want nil", err)
	}
	if h.nav.deps.Registry.Count() != 0 {
		t.Error("session should be unregistered after disconnect")
	}
}

func TestHelpStaysInMainMenu(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("g")
	h.sendLine("1")
	h.expect("[B]oards")
	h.sendLine("h")
	h.expect("single letters choose menu entries")
	h.sendLine("q")
	_ = h.wait()
}

func TestBoardComposeAndRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.store.RegisterUser(ctx, "erin", "password8", "Erin"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	board := &models.Board{
		Name:         "general",
		Description:  "general talk",
		BoardType:    models.BoardTypeThread,
		MinWriteRole: models.RoleMember,
		IsActive:     true,
	}
	if err := h.store.CreateBoard(ctx, board); err != nil {
		t.Fatalf("seed board: %v", err)
	}

	h.expect("[L]ogin")
	h.sendLine("l")
	h.sendLine("erin")
	h.sendLine("password8")
	h.expect("[B]oards")
	h.sendLine("b")
	h.expect("MESSAGE BOARDS")
	h.sendLine("1")
	h.expect("Threads in general")
	h.sendLine("c")
	h.expect("Thread title")
	h.sendLine("hello world")
	h.expect("Finish with a single")
	h.sendLine("first post body")
	h.sendLine(".")
	h.expect("Posted.")

	// The new thread shows in the list; open it.
	h.sendLine("1")
	h.expect("first post body")
	h.sendLine("q")
	h.expect("Threads in general")
	h.sendLine("q")
	h.expect("MESSAGE BOARDS")
	h.sendLine("q")
	h.expect("[B]oards")
	h.sendLine("q")
	_ = h.wait()

	threads, total, err := h.store.ListThreads(ctx, board.ID, store.Page{})
	if err != nil || total != 1 {
		t.Fatalf("ListThreads = %d threads, err %v; want 1", total, err)
	}
	if threads[0].PostCount != 1 {
		t.Errorf("post count = %d, want 1", threads[0].PostCount)
	}
}

func TestMailReplyReachesSender(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	carol, err := h.store.RegisterUser(ctx, "carol", "password8", "Caz")
	if err != nil {
		t.Fatalf("seed carol: %v", err)
	}
	bob, err := h.store.RegisterUser(ctx, "bob", "password8", "")
	if err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	if _, err := h.store.SendMail(ctx, carol.ID, bob.ID, "greetings", "hi bob"); err != nil {
		t.Fatalf("seed mail: %v", err)
	}

	h.expect("[L]ogin")
	h.sendLine("l")
	h.sendLine("bob")
	h.sendLine("password8")
	h.expect("[B]oards")
	h.sendLine("m")
	h.expect("MAIL")
	h.sendLine("i")
	h.expect("INBOX")
	h.sendLine("1")
	// The list shows the sender's nickname; the reply must still route
	// by account, not by what is displayed.
	h.expect("From: Caz")
	h.sendLine("r")
	h.expect("Finish with a single")
	h.sendLine("hello back")
	h.sendLine(".")
	h.expect("Mail sent.")
	h.sendLine("q")
	h.expect("[I]nbox")
	h.sendLine("q")
	h.sendLine("q")
	_ = h.wait()

	msgs, total, err := h.store.ListInbox(ctx, carol.ID, store.Page{})
	if err != nil || total != 1 {
		t.Fatalf("ListInbox = %d messages, err %v; want 1", total, err)
	}
	if msgs[0].Subject != "Re: greetings" {
		t.Errorf("reply subject = %q, want %q", msgs[0].Subject, "Re: greetings")
	}
	if msgs[0].SenderID != bob.ID {
		t.Errorf("reply sender = %d, want %d", msgs[0].SenderID, bob.ID)
	}
}

func TestForceDisconnectInsideSubScreen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.store.RegisterUser(ctx, "frank", "password8", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h.expect("[L]ogin")
	h.sendLine("l")
	h.sendLine("frank")
	h.sendLine("password8")
	h.expect("[B]oards")
	h.sendLine("m")
	h.expect("MAIL")

	// Flag while the worker sits in the mail menu's own prompt loop, deep
	// below the navigator dispatch.
	if !h.nav.deps.Registry.ForceDisconnect(h.sess.ID) {
		t.Fatal("force disconnect should find the session")
	}
	h.sendLine("i")
	h.expect("Goodbye")
	if err := h.wait(); err != nil {
		t.Fatalf("worker returned %v, want nil", err)
	}
	if strings.Contains(h.transcript(), "INBOX") {
		t.Error("flagged session was served another screen")
	}
	if h.nav.deps.Registry.Count() != 0 {
		t.Error("session should be unregistered after disconnect")
	}
}

func TestAdminBoardCreateAndEditRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// First registration through the screen becomes SysOp.
	h.expect("[L]ogin")
	h.sendLine("r")
	h.sendLine("1")
	h.expect("Desired username")
	h.sendLine("grace")
	h.sendLine("password8")
	h.expect("Repeat password")
	h.sendLine("password8")
	h.expect("Nickname")
	h.sendLine("")
	h.expect("[B]oards")

	h.sendLine("a")
	h.expect("ADMIN")
	h.sendLine("b")
	h.expect("BOARD ADMIN")
	h.sendLine("c")
	h.expect("Board name")
	h.sendLine("retro")
	h.expect("Description")
	h.sendLine("all things retro")
	h.expect("Type (thread/flat)")
	h.sendLine("")
	h.expect("Minimum read role")
	h.sendLine("")
	h.expect("Minimum write role")
	h.sendLine("subop")
	h.expect("Board created.")

	// Open the board editor and lower the write gate.
	h.sendLine("1")
	h.expect("read>=guest write>=subop")
	h.sendLine("w")
	h.expect("New role")
	h.sendLine("member")
	h.expect("Board updated.")
	h.sendLine("q")
	h.expect("BOARD ADMIN")
	h.sendLine("q")
	h.sendLine("q")
	h.sendLine("q")
	_ = h.wait()

	boards, err := h.store.ListBoards(ctx, true)
	if err != nil || len(boards) != 1 {
		t.Fatalf("ListBoards = %d boards, err %v; want 1", len(boards), err)
	}
	if boards[0].MinReadRole != models.RoleGuest {
		t.Errorf("read role = %s, want guest", boards[0].MinReadRole)
	}
	if boards[0].MinWriteRole != models.RoleMember {
		t.Errorf("write role = %s, want member", boards[0].MinWriteRole)
	}
}

func TestChatJoinSayLeave(t *testing.T) {
	h := newHarness(t)
	h.expect("[L]ogin")
	h.sendLine("g")
	h.sendLine("1")
	h.expect("[B]oards")
	h.sendLine("c")
	h.expect("Room name")
	h.sendLine("")
	h.expect("Commands: /who")
	h.sendLine("/who")
	h.expect("In the room: guest-")
	h.sendLine("hello room")
	h.expect("<guest-")
	h.sendLine("/leave")
	h.expect("[B]oards")
	h.sendLine("q")
	_ = h.wait()
}
