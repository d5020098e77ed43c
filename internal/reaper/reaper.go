// Package reaper expires live kernel sessions that have sat idle too long.
package reaper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Expirer drops every session whose last activity is before cutoff and
// returns the ids it dropped.
type Expirer interface {
	ExpireIdle(cutoff time.Time) []string
}

// Config holds reaper configuration.
type Config struct {
	Interval time.Duration
	IdleTTL  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: time.Minute, IdleTTL: 30 * time.Minute}
}

// Loop periodically expires idle sessions.
type Loop struct {
	target Expirer
	config Config
	logger *slog.Logger
	now    func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewLoop creates a new reaper loop.
func NewLoop(target Expirer, cfg Config, logger *slog.Logger) *Loop {
	return &Loop{
		target: target,
		config: cfg,
		logger: logger.With("component", "reaper"),
		now:    time.Now,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the loop. Blocks until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	defer close(l.doneCh)
	l.logger.Info("reaper started", "interval", l.config.Interval, "idle_ttl", l.config.IdleTTL)
	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("reaper stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("reaper stopping (stop called)")
			return nil
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Stop shuts the loop down and waits for Start to return. Start must have
// been called.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.doneCh
}

// Tick runs a single expiry pass and returns the number of sessions dropped.
func (l *Loop) Tick() int {
	cutoff := l.now().Add(-l.config.IdleTTL)
	expired := l.target.ExpireIdle(cutoff)
	for _, id := range expired {
		l.logger.Info("session expired", "id", id)
	}
	if len(expired) > 0 {
		l.logger.Debug("reaper tick", "expired", len(expired), "cutoff", cutoff)
	}
	return len(expired)
}
