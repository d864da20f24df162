package dedupe

import (
	"context"
	"log/slog"

	"trailview/pkg/platform/circuit"
)

// Store is the contract shared by every deduper.
type Store interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Resilient asks the primary store and falls back to a local store once the
// breaker opens. While open, duplicates that only the primary remembers can
// slip through; the sink's idempotent insert absorbs them.
type Resilient struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewResilient wraps primary with fallback behind breaker.
func NewResilient(primary, fallback Store, breaker *circuit.Breaker, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resilient{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (r *Resilient) Seen(ctx context.Context, key string) (bool, error) {
	seen, err := r.primary.Seen(ctx, key)
	if err != nil {
		useFallback, change := r.breaker.RecordFailure()
		if change.Opened {
			r.logger.Warn("dedupe circuit opened, using fallback", "breaker", r.breaker.Name(), "error", err)
		}
		if useFallback {
			return r.fallback.Seen(ctx, key)
		}
		return false, err
	}

	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.Info("dedupe circuit closed", "breaker", r.breaker.Name())
	}
	// Keep the fallback warm so a later outage still catches recent repeats.
	_, _ = r.fallback.Seen(ctx, key)
	return seen, nil
}

func (r *Resilient) Forget(ctx context.Context, key string) error {
	_ = r.fallback.Forget(ctx, key)
	if err := r.primary.Forget(ctx, key); err != nil {
		if r.breaker.IsOpen() {
			return nil
		}
		return err
	}
	return nil
}
