//go:build integration

package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"trailview/internal/platform/kafka/admin"
	"trailview/pkg/testutil/containers"
)

func TestConsumerDeliversAndCommits(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "cloudtrail.raw.test"

	producer, err := kgo.NewClient(kgo.SeedBrokers(kc.Brokers...))
	require.NoError(t, err)
	defer producer.Close()

	require.NoError(t, admin.EnsureTopic(ctx, producer, topic, 1, 1))
	// Second call must tolerate the existing topic.
	require.NoError(t, admin.EnsureTopic(ctx, producer, topic, 1, 1))

	for _, v := range []string{"one", "two", "three"} {
		res := producer.ProduceSync(ctx, &kgo.Record{Topic: topic, Value: []byte(v)})
		require.NoError(t, res.FirstErr())
	}

	c, err := New(kc.Brokers, "trailview-test", topic,
		WithClientOptions(kgo.ConsumeResetOffset(kgo.NewOffset().AtStart())))
	require.NoError(t, err)
	defer c.Close()

	var mu sync.Mutex
	var got []string
	stop := errors.New("done")
	err = c.Run(ctx, HandlerFunc(func(_ context.Context, msg *Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(msg.Value))
		if len(got) == 3 {
			return stop
		}
		return nil
	}))
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}
