// Package logging wraps logrus with the per-key rate limiter the
// reconciliation core needs for its rate-limited log paths: decode
// failures, flow-mod errors reported by the switch, and bad group/meter
// spec parses must not be allowed to flood the log when a switch is
// misbehaving.
package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface the reconciliation core depends on.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	// RateLimited logs at Warn level at most once per Interval for a
	// given key, discarding the rest silently.
	RateLimited(key string, format string, args ...interface{})
}

// Config controls the rate limiter.
type Config struct {
	// Interval is the minimum time between two RateLimited log lines
	// sharing the same key. Zero disables rate limiting.
	Interval time.Duration
}

type logger struct {
	entry *logrus.Entry
	cfg   Config

	mu   sync.Mutex
	seen map[string]time.Time
}

// New wraps l with the given rate-limiter configuration.
func New(l *logrus.Logger, cfg Config) Logger {
	return &logger{entry: logrus.NewEntry(l), cfg: cfg, seen: make(map[string]time.Time)}
}

func (g *logger) Debugf(format string, args ...interface{}) { g.entry.Debugf(format, args...) }
func (g *logger) Infof(format string, args ...interface{})  { g.entry.Infof(format, args...) }
func (g *logger) Warnf(format string, args ...interface{})  { g.entry.Warnf(format, args...) }

func (g *logger) RateLimited(key, format string, args ...interface{}) {
	if g.cfg.Interval > 0 {
		g.mu.Lock()
		last, ok := g.seen[key]
		now := time.Now()
		if ok && now.Sub(last) < g.cfg.Interval {
			g.mu.Unlock()
			return
		}
		g.seen[key] = now
		g.mu.Unlock()
	}

	g.entry.WithField("rate_key", key).Warnf(format, args...)
}
