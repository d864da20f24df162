package config

import (
	"os"
	"strconv"
	"time"

	pstrings "trailview/pkg/platform/strings"
)

// Server captures process level configuration for the ingest service.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogLevel      string
	Workers       int
	DedupeTTL     time.Duration
	Kafka         KafkaConfig
	Redis         RedisConfig
	Postgres      PostgresConfig
}

// KafkaConfig points the consumer at the topic carrying raw CloudTrail documents.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Partitions    int32
	Replicas      int16
}

// RedisConfig backs event deduplication. An empty URL falls back to in-memory dedupe.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig backs the event sink. An empty DSN falls back to the in-memory sink.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          envOr("TRAILVIEW_ADDR", ":8080"),
		JWTSigningKey: jwtSigningKey,
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Workers:       envInt("INGEST_WORKERS", 8),
		DedupeTTL:     envDuration("DEDUPE_TTL", 24*time.Hour),
		Kafka: KafkaConfig{
			Brokers:       pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:         envOr("KAFKA_TOPIC", "cloudtrail.raw"),
			ConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "trailview-ingest"),
			Partitions:    int32(envInt("KAFKA_TOPIC_PARTITIONS", 3)),
			Replicas:      int16(envInt("KAFKA_TOPIC_REPLICAS", 1)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DB_MAX_IDLE_CONNS", 5),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
