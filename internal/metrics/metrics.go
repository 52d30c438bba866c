// Package metrics holds the process-wide Prometheus registry and the
// board instruments. Init is called once from server start when
// metrics.enabled; everything degrades to a no-op otherwise via the
// nil receiver pattern.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// Init creates the process registry with the standard Go and process
// collectors. Calling it twice is a no-op.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if registry != nil {
		return
	}
	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IsEnabled reports whether Init has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// Registry returns the process registry, nil before Init.
func Registry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Metrics carries the instruments for the session runtime. All methods
// handle a nil receiver so callers never branch on metrics being
// enabled.
type Metrics struct {
	SessionsActive   prometheus.Gauge
	SessionsTotal    prometheus.Counter
	LoginsTotal      *prometheus.CounterVec
	Registrations    prometheus.Counter
	PostsCreated     prometheus.Counter
	MailSent         prometheus.Counter
	ChatMessages     prometheus.Counter
	BytesRead        prometheus.Counter
	BytesWritten     prometheus.Counter
	ReadTimeouts     prometheus.Counter
	ForceDisconnects prometheus.Counter
}

// New creates and registers the instruments. Returns nil when the
// registry has not been initialised, which makes every method a no-op.
func New() *Metrics {
	mu.RLock()
	reg := registry
	mu.RUnlock()
	if reg == nil {
		return nil
	}

	return &Metrics{
		SessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "hobbs_sessions_active",
			Help: "Currently connected sessions",
		}),
		SessionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_sessions_total",
			Help: "Total sessions accepted since start",
		}),
		LoginsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "hobbs_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}), // "success", "failure", "locked"
		Registrations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_registrations_total",
			Help: "Accounts created through the registration screen",
		}),
		PostsCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_posts_created_total",
			Help: "Posts and threads created",
		}),
		MailSent: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_mail_sent_total",
			Help: "Private mail messages sent",
		}),
		ChatMessages: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_chat_messages_total",
			Help: "Chat messages broadcast to rooms",
		}),
		BytesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_telnet_bytes_read_total",
			Help: "Bytes read from telnet peers after command stripping",
		}),
		BytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_telnet_bytes_written_total",
			Help: "Bytes written to telnet peers",
		}),
		ReadTimeouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_read_timeouts_total",
			Help: "Sessions closed by inactivity timeout",
		}),
		ForceDisconnects: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hobbs_force_disconnects_total",
			Help: "Sessions closed by admin force-disconnect",
		}),
	}
}

// SessionStarted records an accepted session.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// SessionEnded records a session leaving.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// RecordLogin counts a login attempt. Outcome is "success", "failure"
// or "locked".
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordRegistration counts a completed registration.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// RecordPost counts a created post or thread.
func (m *Metrics) RecordPost() {
	if m == nil {
		return
	}
	m.PostsCreated.Inc()
}

// RecordMail counts a sent mail message.
func (m *Metrics) RecordMail() {
	if m == nil {
		return
	}
	m.MailSent.Inc()
}

// RecordChatMessage counts a broadcast chat message.
func (m *Metrics) RecordChatMessage() {
	if m == nil {
		return
	}
	m.ChatMessages.Inc()
}

// AddBytesRead accumulates inbound payload bytes.
func (m *Metrics) AddBytesRead(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesRead.Add(float64(n))
}

// AddBytesWritten accumulates outbound bytes.
func (m *Metrics) AddBytesWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesWritten.Add(float64(n))
}

// RecordReadTimeout counts an inactivity disconnect.
func (m *Metrics) RecordReadTimeout() {
	if m == nil {
		return
	}
	m.ReadTimeouts.Inc()
}

// RecordForceDisconnect counts an admin-initiated disconnect.
func (m *Metrics) RecordForceDisconnect() {
	if m == nil {
		return
	}
	m.ForceDisconnects.Inc()
}
