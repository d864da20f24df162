// Package ingest turns raw CloudTrail documents into delivered event summaries.
package ingest

//go:generate mockgen -source=pipeline.go -destination=mocks/mocks.go -package=mocks Deduper,Sink,Source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trailview/internal/ingest/dedupe"
	"trailview/internal/ingest/parser"
	"trailview/internal/platform/kafka/consumer"
	"trailview/internal/platform/metrics"
	"trailview/internal/sink"
	"trailview/pkg/record"
)

const releaseTimeout = 5 * time.Second

// Deduper reports whether an event key was already processed.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Sink receives each accepted event exactly once per dedupe window.
type Sink interface {
	Deliver(ctx context.Context, summary sink.Summary) error
}

// Result counts what happened to the events of one document.
type Result struct {
	Events     int
	Delivered  int
	Duplicates int
	Rejected   int
}

// Pipeline parses documents and fans their events out to a bounded worker pool.
type Pipeline struct {
	parser  *parser.Parser
	dedupe  Deduper
	sink    Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	workers int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. The parser shares it.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithWorkers bounds how many events of one document are processed at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New constructs a Pipeline.
func New(d Deduper, s Sink, opts ...Option) (*Pipeline, error) {
	if d == nil {
		return nil, errors.New("deduper is required")
	}
	if s == nil {
		return nil, errors.New("sink is required")
	}
	p := &Pipeline{
		dedupe:  d,
		sink:    s,
		logger:  slog.Default(),
		tracer:  otel.Tracer("trailview/internal/ingest"),
		workers: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	}
	p.parser = parser.New(parser.WithLogger(p.logger))
	return p, nil
}

// Process handles one raw document. A malformed document returns an error
// wrapping parser.ErrMalformed; undecodable records inside a log file are
// counted as Rejected and the rest of the file is processed. A sink or dedupe
// failure returns that error after the remaining events have been attempted.
func (p *Pipeline) Process(ctx context.Context, payload []byte) (Result, error) {
	p.metrics.DocumentsReceived.Inc()

	entries, bad, err := p.parser.Parse(payload)
	if err != nil {
		p.metrics.DocumentsRejected.Inc()
		return Result{}, err
	}
	for _, r := range bad {
		p.metrics.RecordsRejected.Inc()
		p.logger.Error("rejecting undecodable record", "index", r.Index, "error", r.Err)
	}

	var delivered, duplicates, rejected atomic.Int64
	rejected.Add(int64(len(bad)))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, entry := range entries {
		g.Go(func() error {
			o, err := p.processEntry(ctx, entry)
			switch o {
			case outcomeDelivered:
				delivered.Add(1)
			case outcomeDuplicate:
				duplicates.Add(1)
			case outcomeRejected:
				rejected.Add(1)
			}
			return err
		})
	}
	err = g.Wait()

	return Result{
		Events:     len(entries) + len(bad),
		Delivered:  int(delivered.Load()),
		Duplicates: int(duplicates.Load()),
		Rejected:   int(rejected.Load()),
	}, err
}

// Handle adapts Process to the Kafka consumer. Malformed documents are logged
// and committed so they cannot block the partition.
func (p *Pipeline) Handle(ctx context.Context, msg *consumer.Message) error {
	res, err := p.Process(ctx, msg.Value)
	if errors.Is(err, parser.ErrMalformed) {
		p.logger.Error("dropping malformed document",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if err != nil {
		return err
	}
	p.logger.Debug("document processed",
		"offset", msg.Offset,
		"events", res.Events,
		"delivered", res.Delivered,
		"duplicates", res.Duplicates,
		"rejected", res.Rejected,
	)
	return nil
}

// release drops key from the deduper. It survives cancellation of ctx, which
// is often what made the delivery fail.
func (p *Pipeline) release(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	return p.dedupe.Forget(ctx, key)
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeDelivered
	outcomeDuplicate
	outcomeRejected
)

func (p *Pipeline) processEntry(ctx context.Context, entry parser.Entry) (outcome, error) {
	start := time.Now()
	defer func() { p.metrics.ProcessDuration.Observe(time.Since(start).Seconds()) }()

	key := dedupe.Key(entry.Event, entry.Raw)
	ctx, span := p.tracer.Start(ctx, "ingest.event", trace.WithAttributes(attribute.String("event.key", key)))
	defer span.End()

	summary, err := sink.Summarize(entry.Event, entry.Raw)
	if err != nil {
		if record.IsTypeMismatch(err) {
			p.metrics.TypeMismatches.Inc()
		}
		p.logger.Error("rejecting event with mistyped fields", "key", key, "error", err)
		span.SetStatus(codes.Error, "type mismatch")
		return outcomeRejected, nil
	}
	span.SetAttributes(attribute.String("event.name", summary.EventName))

	seen, err := p.dedupe.Seen(ctx, key)
	if err != nil {
		span.RecordError(err)
		return outcomeFailed, fmt.Errorf("dedupe %s: %w", key, err)
	}
	if seen {
		p.metrics.EventsDuplicate.Inc()
		return outcomeDuplicate, nil
	}

	if err := p.sink.Deliver(ctx, summary); err != nil {
		p.metrics.SinkFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "sink failure")
		if ferr := p.release(ctx, key); ferr != nil {
			p.logger.Warn("failed to release dedupe key", "key", key, "error", ferr)
		}
		return outcomeFailed, fmt.Errorf("deliver %s: %w", key, err)
	}
	p.metrics.EventsProcessed.Inc()
	for _, f := range summary.UnknownFields {
		p.metrics.IncUnknownField(f)
	}
	return outcomeDelivered, nil
}

// Source delivers messages to a handler until its context ends.
type Source interface {
	Run(ctx context.Context, handler consumer.Handler) error
}

// Run feeds every message from src through Handle.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	return src.Run(ctx, p)
}
