package trending

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/config"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/store"
)

// Aggregator recomputes the leaderboard from the interaction ledger.
type Aggregator struct {
	quotes *store.QuoteStore
	ledger *store.Ledger
	snaps  *SnapshotStore
	cfg    *config.TrendingConfig
	logger *logging.Logger
}

// NewAggregator wires the aggregator to its stores.
func NewAggregator(quotes *store.QuoteStore, ledger *store.Ledger, snaps *SnapshotStore, cfg *config.TrendingConfig, logger *logging.Logger) *Aggregator {
	return &Aggregator{quotes: quotes, ledger: ledger, snaps: snaps, cfg: cfg, logger: logger}
}

// Refresh samples the latest likes system-wide, ranks quotes by like count
// within the sample, and stores the resulting snapshot. Quotes that were
// deleted since their likes were recorded are skipped.
func (a *Aggregator) Refresh(ctx context.Context) (*Snapshot, error) {
	ranked, err := a.ledger.RecentLikeCounts(ctx, a.cfg.Window, a.cfg.TopN)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(ranked))
	likes := make(map[string]int, len(ranked))
	for i, lc := range ranked {
		ids[i] = lc.QuoteID
		likes[lc.QuoteID] = lc.Likes
	}

	quotes, err := a.quotes.ByIDsPreserveOrder(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(quotes))
	for _, q := range quotes {
		entries = append(entries, Entry{
			QuoteID: q.ID,
			Quote:   q.Text,
			Author:  q.Author,
			Tags:    q.Tags,
			Likes:   likes[q.ID],
		})
	}

	snap := &Snapshot{Entries: entries, GeneratedAt: time.Now().UTC()}
	if err := a.snaps.Save(ctx, snap); err != nil {
		return nil, err
	}

	a.logger.Info(ctx, "trending snapshot refreshed",
		zap.Int("entries", len(entries)),
		zap.Int("window", a.cfg.Window),
	)
	return snap, nil
}
