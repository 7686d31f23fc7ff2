package vote

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

	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/store"
)

func setup(t *testing.T) (*StateMachine, *quote.Quote) {
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

	quotes := store.NewQuoteStore(db)
	ledger := store.NewLedger(db)
	q := &quote.Quote{
		ID:        uuid.NewString(),
		Text:      "the obstacle is the way",
		Status:    quote.StatusPublished,
		Creator:   "anon-creator",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, quotes.Create(context.Background(), q))

	return NewStateMachine(quotes, ledger, logging.NewNop()), q
}

func TestSetVote(t *testing.T) {
	ctx := context.Background()
	actor := quote.AnonymousActor("anon-voter")

	t.Run("rejects out of range votes", func(t *testing.T) {
		m, q := setup(t)
		_, err := m.SetVote(ctx, q.ID, actor, 2)
		assert.True(t, quote.IsValidation(err))
		assert.EqualError(t, err, "vote must be -1, 0, or 1")
	})

	t.Run("rejects missing quote", func(t *testing.T) {
		m, _ := setup(t)
		_, err := m.SetVote(ctx, "missing", actor, 1)
		assert.ErrorIs(t, err, quote.ErrNotFound)
	})

	t.Run("like then dislike swings score by two", func(t *testing.T) {
		m, q := setup(t)

		res, err := m.SetVote(ctx, q.ID, actor, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Likes)
		assert.Equal(t, 0, res.Dislikes)
		assert.Equal(t, 1, res.Score)

		res, err = m.SetVote(ctx, q.ID, actor, -1)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Likes)
		assert.Equal(t, 1, res.Dislikes)
		assert.Equal(t, -1, res.Score)
	})

	t.Run("repeat vote is idempotent", func(t *testing.T) {
		m, q := setup(t)

		for i := 0; i < 3; i++ {
			res, err := m.SetVote(ctx, q.ID, actor, 1)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Likes)
			assert.Equal(t, 1, res.Score)
		}
	})

	t.Run("zero clears the reaction", func(t *testing.T) {
		m, q := setup(t)

		_, err := m.SetVote(ctx, q.ID, actor, 1)
		require.NoError(t, err)

		res, err := m.SetVote(ctx, q.ID, actor, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Likes)
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, 0, res.Vote)
	})

	t.Run("aggregates include other voters", func(t *testing.T) {
		m, q := setup(t)

		_, err := m.SetVote(ctx, q.ID, quote.AnonymousActor("anon-other"), 1)
		require.NoError(t, err)

		res, err := m.SetVote(ctx, q.ID, actor, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Likes)
		assert.Equal(t, 2, res.Score)
	})

	t.Run("unknown authenticated user cannot vote", func(t *testing.T) {
		m, q := setup(t)
		_, err := m.SetVote(ctx, q.ID, quote.AuthenticatedActor("ghost"), 1)
		assert.ErrorIs(t, err, quote.ErrActorNotFound)
	})
}
