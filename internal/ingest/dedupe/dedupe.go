// Package dedupe filters CloudTrail redeliveries. CloudTrail guarantees
// at-least-once delivery, so the same event can arrive in several log files.
package dedupe

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"trailview/pkg/cloudtrail"
)

// Key identifies an event for deduplication: its eventID when present and
// well-typed, otherwise a BLAKE2b-256 fingerprint of its raw document.
func Key(ev cloudtrail.Event, raw json.RawMessage) string {
	if id, ok, err := ev.EventID(); ok && err == nil {
		return "event:" + id.String()
	}
	sum := blake2b.Sum256(raw)
	return "fp:" + hex.EncodeToString(sum[:])
}

// MemoryDeduper remembers keys in process memory with a TTL.
type MemoryDeduper struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	ttl   time.Duration
	clock func() time.Time
}

// MemoryOption configures a MemoryDeduper.
type MemoryOption func(*MemoryDeduper)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) MemoryOption {
	return func(d *MemoryDeduper) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// NewMemoryDeduper constructs an in-memory deduper.
func NewMemoryDeduper(ttl time.Duration, opts ...MemoryOption) *MemoryDeduper {
	d := &MemoryDeduper{
		seen:  make(map[string]time.Time),
		ttl:   ttl,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Seen records key and reports whether it was already recorded within the TTL.
func (d *MemoryDeduper) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	if expiresAt, ok := d.seen[key]; ok && now.Before(expiresAt) {
		return true, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return false, nil
}

// Sweep drops expired keys and returns how many were removed.
func (d *MemoryDeduper) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	removed := 0
	for key, expiresAt := range d.seen {
		if !now.Before(expiresAt) {
			delete(d.seen, key)
			removed++
		}
	}
	return removed
}

// Forget removes key so a later redelivery is processed again.
func (d *MemoryDeduper) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}
