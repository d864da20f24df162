package dedupe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailview/pkg/platform/circuit"
)

type flakyStore struct {
	*MemoryDeduper
	down bool
}

var errDown = errors.New("connection refused")

func (f *flakyStore) Seen(ctx context.Context, key string) (bool, error) {
	if f.down {
		return false, errDown
	}
	return f.MemoryDeduper.Seen(ctx, key)
}

func (f *flakyStore) Forget(ctx context.Context, key string) error {
	if f.down {
		return errDown
	}
	return f.MemoryDeduper.Forget(ctx, key)
}

func TestResilient(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	primary := &flakyStore{MemoryDeduper: NewMemoryDeduper(time.Hour)}
	fallback := NewMemoryDeduper(time.Hour)
	breaker := circuit.New("dedupe", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	r := NewResilient(primary, fallback, breaker, logger)

	seen, err := r.Seen(ctx, "event:a")
	require.NoError(t, err)
	assert.False(t, seen)

	primary.down = true

	t.Run("failures below threshold surface", func(t *testing.T) {
		_, err := r.Seen(ctx, "event:b")
		assert.ErrorIs(t, err, errDown)
	})

	t.Run("open circuit answers from the fallback", func(t *testing.T) {
		seen, err := r.Seen(ctx, "event:a")
		require.NoError(t, err)
		assert.True(t, seen, "fallback was kept warm while primary was healthy")
		assert.True(t, breaker.IsOpen())

		require.NoError(t, r.Forget(ctx, "event:a"))
	})

	t.Run("recovered primary closes the circuit", func(t *testing.T) {
		primary.down = false
		seen, err := r.Seen(ctx, "event:c")
		require.NoError(t, err)
		assert.False(t, seen)
		assert.False(t, breaker.IsOpen())
	})
}
