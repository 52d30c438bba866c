package server

import (
	"context"
	"time"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/pkg/store"
)

// DefaultSweepInterval is how often the mail sweeper runs.
const DefaultSweepInterval = 10 * time.Minute

// MailSweeper periodically purges mail both participants deleted. Soft
// deletes only hide rows; the sweeper reclaims them.
type MailSweeper struct {
	store    store.Store
	interval time.Duration
}

// NewMailSweeper builds a sweeper. A non-positive interval falls back
// to DefaultSweepInterval.
func NewMailSweeper(st store.Store, interval time.Duration) *MailSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &MailSweeper{store: st, interval: interval}
}

// Run sweeps until ctx is cancelled. It always returns nil so an
// errgroup does not tear the process down over a failed sweep.
func (s *MailSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *MailSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	purged, err := s.store.PurgeMail(sweepCtx)
	if err != nil {
		logger.Warn("mail purge sweep failed", logger.Err(err))
		return
	}
	if purged > 0 {
		logger.Info("mail purge sweep", "purged", purged)
	}
}
