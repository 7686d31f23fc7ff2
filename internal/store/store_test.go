package store

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

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func insertQuote(t *testing.T, s *QuoteStore, status quote.Status, createdAt time.Time) *quote.Quote {
	t.Helper()
	q := &quote.Quote{
		ID:        uuid.NewString(),
		Text:      "quote " + uuid.NewString(),
		Status:    status,
		Creator:   "anon-creator",
		CreatedAt: createdAt,
	}
	require.NoError(t, s.Create(context.Background(), q))
	return q
}

func TestQuoteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get round-trip", func(t *testing.T) {
		s := NewQuoteStore(testDB(t))
		q := insertQuote(t, s, quote.StatusDraft, time.Now().UTC())

		got, err := s.Get(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, q.Text, got.Text)
		assert.Equal(t, quote.StatusDraft, got.Status)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := NewQuoteStore(testDB(t))
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, quote.ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		s := NewQuoteStore(testDB(t))
		q := insertQuote(t, s, quote.StatusDraft, time.Now().UTC())

		require.NoError(t, s.UpdateStatus(ctx, q.ID, quote.StatusPublished))
		got, err := s.Get(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, quote.StatusPublished, got.Status)

		assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", quote.StatusPublished), quote.ErrNotFound)
	})

	t.Run("delete is idempotent and removes interactions", func(t *testing.T) {
		db := testDB(t)
		s := NewQuoteStore(db)
		l := NewLedger(db)
		q := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())

		actor := quote.AnonymousActor("anon-1")
		require.NoError(t, l.EnsureActor(ctx, actor))
		require.NoError(t, l.SetReaction(ctx, q.ID, actor, 1))

		require.NoError(t, s.Delete(ctx, q.ID))
		_, err := s.Get(ctx, q.ID)
		assert.ErrorIs(t, err, quote.ErrNotFound)

		likes, dislikes, err := l.Counts(ctx, q.ID)
		require.NoError(t, err)
		assert.Zero(t, likes)
		assert.Zero(t, dislikes)

		// Second delete is a no-op.
		assert.NoError(t, s.Delete(ctx, q.ID))
	})

	t.Run("list published newest first", func(t *testing.T) {
		s := NewQuoteStore(testDB(t))
		base := time.Now().UTC().Add(-time.Hour)
		old := insertQuote(t, s, quote.StatusPublished, base)
		insertQuote(t, s, quote.StatusDraft, base.Add(10*time.Minute))
		newer := insertQuote(t, s, quote.StatusPublished, base.Add(20*time.Minute))

		got, err := s.ListPublished(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, old.ID, got[1].ID)
	})

	t.Run("by ids preserves order and skips missing", func(t *testing.T) {
		s := NewQuoteStore(testDB(t))
		a := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
		b := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())

		got, err := s.ByIDsPreserveOrder(ctx, []string{b.ID, "missing", a.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[1].ID)
	})

	t.Run("top published by score", func(t *testing.T) {
		db := testDB(t)
		s := NewQuoteStore(db)
		l := NewLedger(db)

		low := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
		high := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())

		for i, actorID := range []string{"anon-a", "anon-b", "anon-c"} {
			actor := quote.AnonymousActor(actorID)
			require.NoError(t, l.EnsureActor(ctx, actor))
			require.NoError(t, l.SetReaction(ctx, high.ID, actor, 1))
			if i == 0 {
				require.NoError(t, l.SetReaction(ctx, low.ID, actor, -1))
			}
		}

		got, err := s.TopPublishedByScore(ctx, l, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, high.ID, got[0].ID)
		assert.Equal(t, 3, got[0].Score)
		assert.Equal(t, low.ID, got[1].ID)
		assert.Equal(t, -1, got[1].Score)
	})
}

func TestLedgerActors(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous sessions are provisioned on first use", func(t *testing.T) {
		l := NewLedger(testDB(t))
		actor := quote.AnonymousActor("anon-xyz")
		require.NoError(t, l.EnsureActor(ctx, actor))
		// Repeat is a no-op, not an error.
		require.NoError(t, l.EnsureActor(ctx, actor))
	})

	t.Run("provisioning tolerates an existing session row", func(t *testing.T) {
		db := testDB(t)
		require.NoError(t, db.Create(&quote.AnonymousSession{
			SessionID: "anon-racer",
			CreatedAt: time.Now().UTC(),
		}).Error)

		l := NewLedger(db)
		require.NoError(t, l.EnsureActor(ctx, quote.AnonymousActor("anon-racer")))

		var n int64
		require.NoError(t, db.Model(&quote.AnonymousSession{}).
			Where("session_id = ?", "anon-racer").Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})

	t.Run("unknown authenticated user is rejected", func(t *testing.T) {
		l := NewLedger(testDB(t))
		err := l.EnsureActor(ctx, quote.AuthenticatedActor("ghost"))
		assert.ErrorIs(t, err, quote.ErrActorNotFound)
	})

	t.Run("known authenticated user passes", func(t *testing.T) {
		db := testDB(t)
		require.NoError(t, db.Create(&quote.User{UserID: "alice", CreatedAt: time.Now().UTC()}).Error)
		l := NewLedger(db)
		assert.NoError(t, l.EnsureActor(ctx, quote.AuthenticatedActor("alice")))
	})

	t.Run("zero actor is invalid", func(t *testing.T) {
		l := NewLedger(testDB(t))
		err := l.EnsureActor(ctx, quote.Actor{})
		assert.True(t, quote.IsValidation(err))
	})
}

func TestLedgerReactions(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*QuoteStore, *Ledger, *quote.Quote, quote.Actor) {
		db := testDB(t)
		s := NewQuoteStore(db)
		l := NewLedger(db)
		q := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
		actor := quote.AnonymousActor("anon-1")
		require.NoError(t, l.EnsureActor(ctx, actor))
		return s, l, q, actor
	}

	t.Run("like and dislike are mutually exclusive", func(t *testing.T) {
		_, l, q, actor := setup(t)

		require.NoError(t, l.SetReaction(ctx, q.ID, actor, 1))
		require.NoError(t, l.SetReaction(ctx, q.ID, actor, -1))

		likes, dislikes, err := l.Counts(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, likes)
		assert.Equal(t, 1, dislikes)
	})

	t.Run("repeating a vote is idempotent", func(t *testing.T) {
		_, l, q, actor := setup(t)

		for i := 0; i < 3; i++ {
			require.NoError(t, l.SetReaction(ctx, q.ID, actor, 1))
		}
		likes, _, err := l.Counts(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, likes)
	})

	t.Run("zero clears any reaction", func(t *testing.T) {
		_, l, q, actor := setup(t)

		require.NoError(t, l.SetReaction(ctx, q.ID, actor, 1))
		require.NoError(t, l.SetReaction(ctx, q.ID, actor, 0))

		likes, dislikes, err := l.Counts(ctx, q.ID)
		require.NoError(t, err)
		assert.Zero(t, likes)
		assert.Zero(t, dislikes)
	})

	t.Run("rejects out of range votes", func(t *testing.T) {
		_, l, q, actor := setup(t)
		err := l.SetReaction(ctx, q.ID, actor, 2)
		assert.True(t, quote.IsValidation(err))
	})

	t.Run("detail views accumulate", func(t *testing.T) {
		db := testDB(t)
		s := NewQuoteStore(db)
		l := NewLedger(db)
		q := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
		actor := quote.AnonymousActor("anon-1")
		require.NoError(t, l.EnsureActor(ctx, actor))

		require.NoError(t, l.AddDetail(ctx, q.ID, actor))
		require.NoError(t, l.AddDetail(ctx, q.ID, actor))

		var n int64
		require.NoError(t, db.Model(&quote.Interaction{}).
			Where("quote_id = ? AND interaction_type = ?", q.ID, quote.InteractionDetail).
			Count(&n).Error)
		assert.EqualValues(t, 2, n)

		// Detail views never touch vote counts.
		likes, dislikes, err := l.Counts(ctx, q.ID)
		require.NoError(t, err)
		assert.Zero(t, likes)
		assert.Zero(t, dislikes)
	})

	t.Run("liked quotes most recent first", func(t *testing.T) {
		db := testDB(t)
		s := NewQuoteStore(db)
		l := NewLedger(db)
		actor := quote.AnonymousActor("anon-1")
		require.NoError(t, l.EnsureActor(ctx, actor))

		first := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
		second := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
		draft := insertQuote(t, s, quote.StatusDraft, time.Now().UTC())

		require.NoError(t, l.SetReaction(ctx, first.ID, actor, 1))
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, l.SetReaction(ctx, second.ID, actor, 1))
		require.NoError(t, l.SetReaction(ctx, draft.ID, actor, 1))

		got, err := l.LikedQuotes(ctx, actor)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID)
		assert.Equal(t, first.ID, got[1].ID)
	})
}

func TestRecentLikeCounts(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewQuoteStore(db)
	l := NewLedger(db)

	popular := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
	other := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())
	third := insertQuote(t, s, quote.StatusPublished, time.Now().UTC())

	for i, actorID := range []string{"anon-a", "anon-b", "anon-c"} {
		actor := quote.AnonymousActor(actorID)
		require.NoError(t, l.EnsureActor(ctx, actor))
		require.NoError(t, l.SetReaction(ctx, popular.ID, actor, 1))
		if i < 2 {
			require.NoError(t, l.SetReaction(ctx, other.ID, actor, 1))
		}
		if i == 0 {
			require.NoError(t, l.SetReaction(ctx, third.ID, actor, 1))
			// Dislikes never count towards trending.
			require.NoError(t, l.EnsureActor(ctx, quote.AnonymousActor("anon-d")))
			require.NoError(t, l.SetReaction(ctx, third.ID, quote.AnonymousActor("anon-d"), -1))
		}
	}

	t.Run("ranks by like count within window", func(t *testing.T) {
		got, err := l.RecentLikeCounts(ctx, 100, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, popular.ID, got[0].QuoteID)
		assert.Equal(t, 3, got[0].Likes)
		assert.Equal(t, other.ID, got[1].QuoteID)
		assert.Equal(t, 2, got[1].Likes)
	})

	t.Run("caps at topN", func(t *testing.T) {
		got, err := l.RecentLikeCounts(ctx, 100, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, popular.ID, got[0].QuoteID)
	})
}
