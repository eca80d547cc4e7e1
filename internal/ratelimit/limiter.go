// Package ratelimit implements sliding-window request limiting with
// per-session and global scopes.
package ratelimit

import (
	"context"
	"time"

	"github.com/frameiq/agent-server/internal/agent/model"
)

// GlobalKey is the shared window all sessions count against.
const GlobalKey = "global"

// WindowStore tracks timestamped hits per key inside a sliding window.
type WindowStore interface {
	// Count returns how many hits for key fall inside the window ending now,
	// along with the timestamp of the oldest such hit (zero when none).
	Count(ctx context.Context, key string, window time.Duration) (int, time.Time, error)

	// Record adds a hit for key at the current time.
	Record(ctx context.Context, key string, window time.Duration) error
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	// Scope that rejected the request, "session" or "global". Empty when
	// allowed.
	Scope string
	// Wait until the oldest counted hit leaves the window.
	Wait time.Duration
}

type Limiter struct {
	store      WindowStore
	sessionMax int
	globalMax  int
	window     time.Duration
	now        func() time.Time
}

func NewLimiter(store WindowStore, cfg model.RateLimitConfig) *Limiter {
	return &Limiter{
		store:      store,
		sessionMax: cfg.SessionMax,
		globalMax:  cfg.GlobalMax,
		window:     time.Duration(cfg.WindowSecs) * time.Second,
		now:        time.Now,
	}
}

// Allow checks the global window first, then the session window, and records
// the hit in both only when admitted.
func (l *Limiter) Allow(ctx context.Context, sessionID string) (Decision, error) {
	globalCount, globalOldest, err := l.store.Count(ctx, GlobalKey, l.window)
	if err != nil {
		return Decision{}, err
	}
	if globalCount >= l.globalMax {
		return Decision{Scope: "global", Wait: l.waitFor(globalOldest)}, nil
	}

	sessionCount, sessionOldest, err := l.store.Count(ctx, sessionID, l.window)
	if err != nil {
		return Decision{}, err
	}
	if sessionCount >= l.sessionMax {
		return Decision{Scope: "session", Wait: l.waitFor(sessionOldest)}, nil
	}

	if err := l.store.Record(ctx, GlobalKey, l.window); err != nil {
		return Decision{}, err
	}
	if err := l.store.Record(ctx, sessionID, l.window); err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: true}, nil
}

func (l *Limiter) waitFor(oldest time.Time) time.Duration {
	if oldest.IsZero() {
		return l.window
	}
	wait := oldest.Add(l.window).Sub(l.now())
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}
