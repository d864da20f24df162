//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trailview/internal/sink"
	"trailview/pkg/platform/sentinel"
	"trailview/pkg/platform/tx"
	"trailview/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), "TRUNCATE cloudtrail_events")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) summary(name string, at time.Time) sink.Summary {
	return sink.Summary{
		EventID:       uuid.New(),
		EventTime:     at,
		EventName:     name,
		EventSource:   "s3.amazonaws.com",
		AWSRegion:     "us-east-1",
		ReadOnly:      true,
		ActorType:     "IAMUser",
		ActorUserName: "alice",
		ResourceARNs:  []string{"arn:aws:s3:::example", "arn:aws:s3:::example/key"},
		Raw:           json.RawMessage(`{"eventName":"` + name + `"}`),
	}
}

func (s *PostgresStoreSuite) TestDeliverAndGet() {
	ctx := context.Background()
	want := s.summary("GetObject", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC))

	s.Require().NoError(s.store.Deliver(ctx, want))

	got, err := s.store.Get(ctx, want.EventID)
	s.Require().NoError(err)
	s.Equal(want.EventName, got.EventName)
	s.True(want.EventTime.Equal(got.EventTime))
	s.Equal(want.ResourceARNs, got.ResourceARNs)
	s.Empty(got.UnknownFields)
	s.JSONEq(string(want.Raw), string(got.Raw))
}

func (s *PostgresStoreSuite) TestDeliverIsIdempotent() {
	ctx := context.Background()
	first := s.summary("GetObject", time.Now().UTC())
	s.Require().NoError(s.store.Deliver(ctx, first))

	again := first
	again.EventName = "PutObject"
	s.Require().NoError(s.store.Deliver(ctx, again))

	got, err := s.store.Get(ctx, first.EventID)
	s.Require().NoError(err)
	s.Equal("GetObject", got.EventName)
}

func (s *PostgresStoreSuite) TestDeliverJoinsContextTransaction() {
	ctx := context.Background()
	summary := s.summary("GetObject", time.Now().UTC())
	rollback := errors.New("rollback")

	err := tx.Run(ctx, s.pg.DB, func(ctx context.Context) error {
		s.Require().NoError(s.store.Deliver(ctx, summary))
		return rollback
	})
	s.ErrorIs(err, rollback)

	_, err = s.store.Get(ctx, summary.EventID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	base := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"A", "B", "C"} {
		s.Require().NoError(s.store.Deliver(ctx, s.summary(name, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("C", recent[0].EventName)
	s.Equal("B", recent[1].EventName)
}
