package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(nil, "group", "topic")
	assert.ErrorContains(t, err, "kafka brokers are required")
}

func TestNewDoesNotDial(t *testing.T) {
	c, err := New([]string{"127.0.0.1:1"}, "group", "topic")
	require.NoError(t, err)
	assert.NotNil(t, c.Client())
	c.Close()
}

func TestHandlerFunc(t *testing.T) {
	var got string
	h := HandlerFunc(func(_ context.Context, msg *Message) error {
		got = string(msg.Value)
		return nil
	})
	require.NoError(t, h.Handle(context.Background(), &Message{Value: []byte("payload")}))
	assert.Equal(t, "payload", got)
}
