// Package sweeper periodically removes expired cart lines.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

type Cleaner interface {
	CleanExpired(ctx context.Context) (int, error)
}

type Sweeper struct {
	cleaner  Cleaner
	interval time.Duration
	logger   *slog.Logger
}

func New(cleaner Cleaner, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{cleaner: cleaner, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.cleaner.CleanExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("sweeper: clean expired cart items", "err", err)
		}
		return
	}
	if n > 0 {
		s.logger.Info("sweeper: removed expired cart items", "removed", n)
	}
}
