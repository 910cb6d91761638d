package auth

import (
	"context"
	"sync"
	"time"

	"github.com/grocerly/authserver/config"
)

// Tracker follows failed login attempts per identifier and locks an
// identifier out after repeated failures. Identifiers are the raw
// strings callers present at login, whether or not they resolve to a
// real account.
type Tracker interface {
	// RecordFailure notes a failed attempt for the identifier.
	RecordFailure(ctx context.Context, identifier string) error

	// IsLocked reports whether the identifier is currently locked out
	// and, if so, how long until the lock expires.
	IsLocked(ctx context.Context, identifier string) (bool, time.Duration, error)

	// Reset forgets all state for the identifier.
	Reset(ctx context.Context, identifier string) error
}

type lockoutRecord struct {
	attempts    int
	lastAttempt time.Time
	lockedUntil time.Time
}

// MemoryTracker keeps lockout state in a mutex-guarded map. Suitable for
// a single process; expired locks are treated as absent on read rather
// than purged, so memory grows with the number of distinct identifiers
// attempted.
type MemoryTracker struct {
	mu      sync.Mutex
	records map[string]*lockoutRecord

	threshold int
	window    time.Duration
	duration  time.Duration

	now func() time.Time
}

// NewMemoryTracker constructs an in-process tracker from config.
func NewMemoryTracker(cfg config.LockoutConfig) *MemoryTracker {
	return &MemoryTracker{
		records:   make(map[string]*lockoutRecord),
		threshold: cfg.Threshold,
		window:    cfg.AttemptWindow,
		duration:  cfg.Duration,
		now:       time.Now,
	}
}

// RecordFailure increments the attempt counter inside a sliding window:
// a failure older than the window resets the counter to 1, otherwise it
// accumulates. Reaching the threshold sets the lock expiry; further
// failures while locked do not extend it.
func (t *MemoryTracker) RecordFailure(_ context.Context, identifier string) error {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[identifier]
	if !ok {
		t.records[identifier] = &lockoutRecord{attempts: 1, lastAttempt: now}
		return nil
	}

	if now.Sub(rec.lastAttempt) > t.window {
		rec.attempts = 1
	} else {
		rec.attempts++
	}
	rec.lastAttempt = now

	if rec.attempts >= t.threshold && !rec.lockedUntil.After(now) {
		rec.lockedUntil = now.Add(t.duration)
	}
	return nil
}

// IsLocked reports an active lock. A lock is active iff its expiry is
// set and in the future; an expired lock reads as absent.
func (t *MemoryTracker) IsLocked(_ context.Context, identifier string) (bool, time.Duration, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[identifier]
	if !ok || !rec.lockedUntil.After(now) {
		return false, 0, nil
	}
	return true, rec.lockedUntil.Sub(now), nil
}

// Reset removes the identifier's record entirely.
func (t *MemoryTracker) Reset(_ context.Context, identifier string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, identifier)
	return nil
}
