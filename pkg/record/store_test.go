package record_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"trailview/pkg/record"
	"trailview/pkg/record/field"
)

type StoreSuite struct {
	suite.Suite
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestPutThenGet() {
	s.Run("last write wins", func() {
		b := record.NewBuilder()
		s.Require().NoError(b.Put(field.EventName, record.Text("first")))
		s.Require().NoError(b.Put(field.EventName, record.Text("second")))
		store := b.Seal()

		got, ok, err := record.GetText(store, field.EventName)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal("second", got)
		s.Equal(1, store.Len())
	})

	s.Run("unknown fields are stored and inert", func() {
		b := record.NewBuilder()
		s.Require().NoError(b.Put("newBetaField", record.Text("x")))
		store := b.Seal()

		s.True(store.Contains("newBetaField"))
		s.Equal([]field.Name{"newBetaField"}, field.EventFields.Unknown(store.Fields()))
	})

	s.Run("absent field reports not present", func() {
		store := record.NewBuilder().Seal()
		v, ok := store.Get(field.EventTime)
		s.False(ok)
		s.False(v.IsValid())
		s.False(store.Contains(field.EventTime))
	})

	s.Run("nil store behaves as empty", func() {
		var store *record.Store
		_, ok, err := record.GetText(store, field.EventName)
		s.NoError(err)
		s.False(ok)
		s.Zero(store.Len())
	})

	s.Run("invalid value is rejected", func() {
		err := record.NewBuilder().Put(field.EventName, record.Value{})
		s.ErrorIs(err, record.ErrUnsupportedValue)
	})
}

// TestSeal covers construct-then-seal: once sealed, nothing can
// change what readers observe.
func (s *StoreSuite) TestSeal() {
	s.Run("writes after seal are rejected", func() {
		b := record.NewBuilder()
		s.Require().NoError(b.Put(field.EventName, record.Text("ConsoleLogin")))
		store := b.Seal()

		err := b.Put(field.EventName, record.Text("Tampered"))
		s.ErrorIs(err, record.ErrSealed)

		got, _, _ := record.GetText(store, field.EventName)
		s.Equal("ConsoleLogin", got)
	})

	s.Run("sealing twice returns the same store", func() {
		b := record.NewBuilder()
		s.Same(b.Seal(), b.Seal())
	})
}

func (s *StoreSuite) TestTypeMismatch() {
	b := record.NewBuilder()
	s.Require().NoError(b.Put(field.EventTime, record.Text("2016-01-01T00:00:00Z")))
	store := b.Seal()

	_, ok, err := record.GetTimestamp(store, field.EventTime)
	s.True(ok)
	s.Require().Error(err)
	s.ErrorIs(err, record.ErrTypeMismatch)
	s.True(record.IsTypeMismatch(err))

	var mismatch *record.TypeMismatchError
	s.Require().ErrorAs(err, &mismatch)
	s.Equal(field.EventTime, mismatch.Field)
	s.Equal(record.KindTimestamp, mismatch.Want)
	s.Equal(record.KindText, mismatch.Got)
	s.Contains(err.Error(), "eventTime")
}

func TestRoundTripPerKind(t *testing.T) {
	at := time.Date(2016, 1, 1, 9, 0, 0, 0, time.FixedZone("x", 9*3600))
	id := uuid.New()
	nested := record.NewBuilder().Seal()

	b := record.NewBuilder()
	require.NoError(t, b.Put("t", record.Text("v")))
	require.NoError(t, b.Put("ts", record.Timestamp(at)))
	require.NoError(t, b.Put("id", record.UniqueID(id)))
	require.NoError(t, b.Put("f", record.Flag(true)))
	require.NoError(t, b.Put("n", record.Number(42.5)))
	require.NoError(t, b.Put("raw", record.Raw(json.RawMessage(`{"a":1}`))))
	require.NoError(t, b.Put("nested", record.Nested(nested)))
	store := b.Seal()

	text, _, err := record.GetText(store, "t")
	require.NoError(t, err)
	assert.Equal(t, "v", text)

	ts, _, err := record.GetTimestamp(store, "ts")
	require.NoError(t, err)
	assert.True(t, ts.Equal(at))
	assert.Equal(t, time.UTC, ts.Location())

	gotID, _, err := record.GetUniqueID(store, "id")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	flag, _, err := record.GetFlag(store, "f")
	require.NoError(t, err)
	assert.True(t, flag)

	num, _, err := record.GetNumber(store, "n")
	require.NoError(t, err)
	assert.InDelta(t, 42.5, num, 0)

	raw, _, err := record.GetRaw(store, "raw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	got, ok, err := record.GetNested(store, "nested", func(s *record.Store) *record.Store { return s })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, nested, got)
}

func TestSequenceIsDefensive(t *testing.T) {
	items := []*record.Store{record.NewBuilder().Seal(), record.NewBuilder().Seal()}
	v := record.Sequence(items)
	items[0] = nil

	got, err := v.AsSequence()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotNil(t, got[0])

	got[1] = nil
	again, err := v.AsSequence()
	require.NoError(t, err)
	assert.NotNil(t, again[1])
}

// TestConcurrentReads exercises many readers over one sealed store; run with -race.
func TestConcurrentReads(t *testing.T) {
	b := record.NewBuilder()
	require.NoError(t, b.Put(field.EventName, record.Text("GetObject")))
	store := b.Seal()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				v, _, err := record.GetText(store, field.EventName)
				assert.NoError(t, err)
				assert.Equal(t, "GetObject", v)
			}
		}()
	}
	wg.Wait()
}
