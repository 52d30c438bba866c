package session

import (
	"sync"
	"testing"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

func TestRegisterUpdateUnregister(t *testing.T) {
	r := NewRegistry()
	s := New("10.0.0.5:41234")

	r.Register(s)
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}

	s.State = StateMainMenu
	s.ApplyUser(&models.User{ID: 7, Username: "alice", Role: models.RoleMember})
	r.Update(s)

	snaps := r.Enumerate()
	if len(snaps) != 1 {
		t.Fatalf("enumerate returned %d entries", len(snaps))
	}
	if snaps[0].Username != "alice" || snaps[0].State != StateMainMenu {
		t.Errorf("snapshot = %+v", snaps[0])
	}
	if snaps[0].PeerAddr != "10.0.0.5:41234" {
		t.Errorf("peer = %q", snaps[0].PeerAddr)
	}

	r.Unregister(s.ID)
	if r.Count() != 0 {
		t.Errorf("count after unregister = %d", r.Count())
	}
	// Unregistering twice is harmless.
	r.Unregister(s.ID)
}

func TestForceDisconnect(t *testing.T) {
	r := NewRegistry()
	s := New("127.0.0.1:5000")
	r.Register(s)

	if r.ShouldDisconnect(s.ID) {
		t.Error("fresh session flagged for disconnect")
	}
	if !r.ForceDisconnect(s.ID) {
		t.Error("ForceDisconnect returned false for live session")
	}
	if !r.ShouldDisconnect(s.ID) {
		t.Error("flag not visible after ForceDisconnect")
	}

	// The flag survives a worker snapshot refresh.
	r.Update(s)
	if !r.ShouldDisconnect(s.ID) {
		t.Error("flag lost after Update")
	}

	if r.ForceDisconnect("no-such-id") {
		t.Error("ForceDisconnect returned true for unknown id")
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := New("127.0.0.1:0")
			r.Register(s)
			for j := 0; j < 100; j++ {
				s.Touch()
				r.Update(s)
				r.ShouldDisconnect(s.ID)
			}
			r.Unregister(s.ID)
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Enumerate()
				r.Count()
			}
		}()
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("count = %d after all workers exited", r.Count())
	}
}

func TestSessionRoleAndGuest(t *testing.T) {
	s := New("127.0.0.1:1")
	if s.Role() != models.RoleGuest {
		t.Errorf("unauthenticated role = %v", s.Role())
	}
	if s.Authenticated() {
		t.Error("fresh session reports authenticated")
	}

	s.ApplyUser(&models.User{ID: 1, Username: "u", Role: models.RoleSubOp, Encoding: "utf-8", Language: "ja"})
	if s.Role() != models.RoleSubOp || !s.Authenticated() {
		t.Error("ApplyUser did not bind the user")
	}
	if s.Language != "ja" {
		t.Errorf("language = %q, want ja", s.Language)
	}

	s.ClearUser()
	if s.Authenticated() || s.Role() != models.RoleGuest {
		t.Error("ClearUser did not drop authentication")
	}
	// Logout twice behaves like logout once.
	s.ClearUser()
	if s.Authenticated() {
		t.Error("second ClearUser changed state")
	}
}
