package trending

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fyrsmithlabs/quoted/internal/config"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/store"
)

func testSnapshotStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := OpenSnapshotStore(&config.TrendingConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing snapshot", func(t *testing.T) {
		s := testSnapshotStore(t)
		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, quote.ErrSnapshotMissing)
	})

	t.Run("save and load round-trip", func(t *testing.T) {
		s := testSnapshotStore(t)
		want := &Snapshot{
			Entries: []Entry{
				{QuoteID: "q1", Quote: "first", Likes: 5},
				{QuoteID: "q2", Quote: "second", Likes: 3},
			},
			GeneratedAt: time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want.Entries, got.Entries)
		assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	})

	t.Run("save overwrites", func(t *testing.T) {
		s := testSnapshotStore(t)
		require.NoError(t, s.Save(ctx, &Snapshot{Entries: []Entry{{QuoteID: "old"}}}))
		require.NoError(t, s.Save(ctx, &Snapshot{Entries: []Entry{{QuoteID: "new"}}}))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got.Entries, 1)
		assert.Equal(t, "new", got.Entries[0].QuoteID)
	})
}

func TestAggregatorRefresh(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&quote.Quote{},
		&quote.Interaction{},
		&quote.User{},
		&quote.AnonymousSession{},
	))
	quotes := store.NewQuoteStore(db)
	ledger := store.NewLedger(db)
	snaps := testSnapshotStore(t)

	add := func(text string) *quote.Quote {
		q := &quote.Quote{
			ID:        uuid.NewString(),
			Text:      text,
			Status:    quote.StatusPublished,
			Creator:   "anon-x",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, quotes.Create(ctx, q))
		return q
	}
	like := func(q *quote.Quote, actorID string) {
		actor := quote.AnonymousActor(actorID)
		require.NoError(t, ledger.EnsureActor(ctx, actor))
		require.NoError(t, ledger.SetReaction(ctx, q.ID, actor, 1))
	}

	first := add("first")
	second := add("second")
	third := add("third")
	fourth := add("fourth")

	for _, id := range []string{"anon-a", "anon-b", "anon-c"} {
		like(first, id)
	}
	like(second, "anon-a")
	like(second, "anon-b")
	like(third, "anon-a")
	like(fourth, "anon-b")

	cfg := &config.TrendingConfig{Window: 100, TopN: 3}
	agg := NewAggregator(quotes, ledger, snaps, cfg, logging.NewNop())

	snap, err := agg.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, first.ID, snap.Entries[0].QuoteID)
	assert.Equal(t, 3, snap.Entries[0].Likes)
	assert.Equal(t, second.ID, snap.Entries[1].QuoteID)
	assert.Equal(t, 2, snap.Entries[1].Likes)
	assert.Equal(t, "first", snap.Entries[0].Quote)

	// The refreshed snapshot is what readers get back.
	stored, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Entries, stored.Entries)
}
