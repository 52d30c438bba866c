package metrics

import "testing"

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.SessionStarted()
	m.SessionEnded()
	m.RecordLogin("success")
	m.RecordRegistration()
	m.RecordPost()
	m.RecordMail()
	m.RecordChatMessage()
	m.AddBytesRead(10)
	m.AddBytesWritten(10)
	m.RecordReadTimeout()
	m.RecordForceDisconnect()
}

func TestNewBeforeInitReturnsNil(t *testing.T) {
	if IsEnabled() {
		t.Skip("registry already initialised by another test")
	}
	if New() != nil {
		t.Fatal("New returned instruments without a registry")
	}
}

func TestInitAndGather(t *testing.T) {
	Init()
	Init() // idempotent
	if !IsEnabled() {
		t.Fatal("IsEnabled false after Init")
	}

	m := New()
	if m == nil {
		t.Fatal("New returned nil after Init")
	}
	m.SessionStarted()
	m.RecordLogin("failure")
	m.AddBytesRead(128)

	families, err := Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, want := range []string{
		"hobbs_sessions_active",
		"hobbs_logins_total",
		"hobbs_telnet_bytes_read_total",
	} {
		if !found[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}
}
