package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailview/internal/sink"
	"trailview/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, store.Deliver(ctx, sink.Summary{
			EventID:   ids[i],
			EventTime: base.Add(time.Duration(i) * time.Minute),
			EventName: "e",
		}))
	}

	t.Run("redelivery keeps the first copy", func(t *testing.T) {
		require.NoError(t, store.Deliver(ctx, sink.Summary{EventID: ids[0], EventName: "changed"}))
		got, err := store.Get(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "e", got.EventName)
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("recent is newest first and limited", func(t *testing.T) {
		got, err := store.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, ids[2], got[0].EventID)
		assert.Equal(t, ids[1], got[1].EventID)
	})

	t.Run("clear", func(t *testing.T) {
		store.Clear()
		got, err := store.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
