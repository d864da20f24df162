package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"trailview/internal/ingest"
	"trailview/internal/ingest/dedupe"
	"trailview/internal/ingest/parser"
	"trailview/internal/platform/config"
	"trailview/internal/platform/httpserver"
	"trailview/internal/platform/kafka/admin"
	"trailview/internal/platform/kafka/consumer"
	"trailview/internal/platform/logger"
	"trailview/internal/platform/metrics"
	"trailview/internal/platform/middleware"
	"trailview/internal/platform/postgres"
	"trailview/internal/platform/redis"
	"trailview/internal/query"
	"trailview/internal/sink/memory"
	pgsink "trailview/internal/sink/postgres"
	"trailview/pkg/platform/circuit"
)

type eventStore interface {
	ingest.Sink
	query.Reader
}

// main wires high-level dependencies and keeps the process lifecycle small.
// Log files named as arguments are ingested once before the consumer starts.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("trailview stopped", "error", err)
		os.Exit(1)
	}
	log.Info("trailview stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger, files []string) error {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	deduper, local, closeDedupe, err := openDeduper(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDedupe()

	pipeline, err := ingest.New(deduper, store,
		ingest.WithLogger(log),
		ingest.WithMetrics(m),
		ingest.WithWorkers(cfg.Workers),
	)
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := ingestFile(ctx, pipeline, path, log); err != nil {
			return err
		}
	}

	var c *consumer.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		c, err = consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.Topic, consumer.WithLogger(log))
		if err != nil {
			return err
		}
		defer c.Close()
		if err := admin.EnsureTopic(ctx, c.Client(), cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.Replicas); err != nil {
			return err
		}
	} else {
		log.Warn("KAFKA_BROKERS not set; only command-line files are ingested")
	}

	signer := middleware.NewHS256(cfg.JWTSigningKey, "trailview")
	router := query.NewRouter(query.New(store, log), signer, reg, log)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweep(gctx, local, time.Minute, log) })
	g.Go(func() error {
		log.Info("starting query API", "addr", cfg.Addr)
		return httpserver.Serve(gctx, srv, 10*time.Second)
	})
	if c != nil {
		g.Go(func() error {
			log.Info("consuming CloudTrail documents", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.ConsumerGroup)
			return pipeline.Run(gctx, c)
		})
	}

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (eventStore, func(), error) {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set; using in-memory sink")
		return memory.NewInMemoryStore(), func() {}, nil
	}
	store := pgsink.New(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

// openDeduper returns the deduper for the pipeline and the local store that
// must be swept periodically.
func openDeduper(ctx context.Context, cfg config.Server, log *slog.Logger) (ingest.Deduper, *dedupe.MemoryDeduper, func(), error) {
	local := dedupe.NewMemoryDeduper(cfg.DedupeTTL)
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set; deduplicating in process memory")
		return local, local, func() {}, nil
	}
	d := dedupe.NewResilient(
		dedupe.NewRedisDeduper(client, cfg.DedupeTTL),
		local,
		circuit.New("redis-dedupe"),
		log,
	)
	return d, local, func() { _ = client.Close() }, nil
}

func sweep(ctx context.Context, d *dedupe.MemoryDeduper, every time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := d.Sweep(); n > 0 {
				log.Debug("expired dedupe keys swept", "count", n)
			}
		}
	}
}

func ingestFile(ctx context.Context, p *ingest.Pipeline, path string, log *slog.Logger) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := p.Process(ctx, payload)
	if errors.Is(err, parser.ErrMalformed) {
		log.Error("skipping malformed log file", "path", path, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	log.Info("log file ingested",
		"path", path,
		"events", res.Events,
		"delivered", res.Delivered,
		"duplicates", res.Duplicates,
		"rejected", res.Rejected,
	)
	return nil
}
