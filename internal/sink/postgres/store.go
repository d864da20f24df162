package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trailview/internal/sink"
	"trailview/pkg/platform/sentinel"
	"trailview/pkg/platform/tx"
)

const schema = `
	CREATE TABLE IF NOT EXISTS cloudtrail_events (
		event_id         UUID PRIMARY KEY,
		event_time       TIMESTAMPTZ NOT NULL,
		event_name       TEXT NOT NULL,
		event_source     TEXT NOT NULL,
		aws_region       TEXT NOT NULL,
		source_ip        TEXT NOT NULL,
		user_agent       TEXT NOT NULL,
		error_code       TEXT NOT NULL,
		read_only        BOOLEAN NOT NULL,
		account_id       TEXT NOT NULL,
		actor_type       TEXT NOT NULL,
		actor_arn        TEXT NOT NULL,
		actor_user_name  TEXT NOT NULL,
		actor_account_id TEXT NOT NULL,
		resource_arns    TEXT[] NOT NULL,
		unknown_fields   TEXT[] NOT NULL,
		raw              JSONB,
		ingested_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS cloudtrail_events_time_idx ON cloudtrail_events (event_time DESC);
`

const selectColumns = `
	event_id, event_time, event_name, event_source, aws_region, source_ip,
	user_agent, error_code, read_only, account_id, actor_type, actor_arn,
	actor_user_name, actor_account_id, resource_arns, unknown_fields, raw
`

// Store persists event summaries in the cloudtrail_events table.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL event sink.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// exec joins the caller's transaction when ctx carries one.
func (s *Store) exec(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Migrate creates the events table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		_, err := s.exec(ctx).ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate cloudtrail_events: %w", err)
	}
	return nil
}

// Deliver inserts a summary. Idempotent via ON CONFLICT DO NOTHING. When ctx
// carries a transaction from tx.WithTx the insert joins it.
func (s *Store) Deliver(ctx context.Context, summary sink.Summary) error {
	query := `
		INSERT INTO cloudtrail_events (
			event_id, event_time, event_name, event_source, aws_region, source_ip,
			user_agent, error_code, read_only, account_id, actor_type, actor_arn,
			actor_user_name, actor_account_id, resource_arns, unknown_fields, raw
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (event_id) DO NOTHING
	`

	var raw any
	if len(summary.Raw) > 0 {
		raw = []byte(summary.Raw)
	}

	_, err := s.exec(ctx).ExecContext(ctx, query,
		summary.EventID,
		summary.EventTime,
		summary.EventName,
		summary.EventSource,
		summary.AWSRegion,
		summary.SourceIP,
		summary.UserAgent,
		summary.ErrorCode,
		summary.ReadOnly,
		summary.AccountID,
		summary.ActorType,
		summary.ActorARN,
		summary.ActorUserName,
		summary.ActorAccountID,
		pq.Array(nonNil(summary.ResourceARNs)),
		pq.Array(nonNil(summary.UnknownFields)),
		raw,
	)
	if err != nil {
		return fmt.Errorf("insert cloudtrail event: %w", err)
	}
	return nil
}

// Get returns the summary for eventID.
func (s *Store) Get(ctx context.Context, eventID uuid.UUID) (sink.Summary, error) {
	query := `SELECT ` + selectColumns + ` FROM cloudtrail_events WHERE event_id = $1`

	summary, err := scanSummary(s.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sink.Summary{}, sentinel.ErrNotFound
		}
		return sink.Summary{}, fmt.Errorf("get cloudtrail event: %w", err)
	}
	return summary, nil
}

// ListRecent returns the N most recent events by event time.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]sink.Summary, error) {
	query := `SELECT ` + selectColumns + `
		FROM cloudtrail_events
		ORDER BY event_time DESC, event_id
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query cloudtrail events: %w", err)
	}
	defer rows.Close()

	var out []sink.Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cloudtrail event: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cloudtrail events: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (sink.Summary, error) {
	var (
		summary sink.Summary
		raw     []byte
	)
	err := row.Scan(
		&summary.EventID,
		&summary.EventTime,
		&summary.EventName,
		&summary.EventSource,
		&summary.AWSRegion,
		&summary.SourceIP,
		&summary.UserAgent,
		&summary.ErrorCode,
		&summary.ReadOnly,
		&summary.AccountID,
		&summary.ActorType,
		&summary.ActorARN,
		&summary.ActorUserName,
		&summary.ActorAccountID,
		pq.Array(&summary.ResourceARNs),
		pq.Array(&summary.UnknownFields),
		&raw,
	)
	if err != nil {
		return sink.Summary{}, err
	}
	summary.EventTime = summary.EventTime.UTC()
	summary.Raw = raw
	return summary, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
