//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// KafkaContainer wraps a Redpanda broker speaking the Kafka protocol.
type KafkaContainer struct {
	Container testcontainers.Container
	Brokers   []string
}

// NewKafkaContainer starts a Redpanda container that is terminated with the test.
func NewKafkaContainer(t *testing.T) *KafkaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.1.2",
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka seed broker: %v", err)
	}

	return &KafkaContainer{
		Container: container,
		Brokers:   []string{broker},
	}
}
