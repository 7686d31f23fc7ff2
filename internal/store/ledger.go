package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

// Ledger is the append-and-replace record of actor interactions with quotes.
// Like and dislike are mutually exclusive per actor per quote; detail views
// accumulate without limit.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates an interaction ledger on top of an open database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// LikeCount pairs a quote id with the number of likes observed for it
// inside a sampling window.
type LikeCount struct {
	QuoteID string
	Likes   int
}

func actorColumn(a quote.Actor) string {
	if a.IsAnonymous() {
		return "session_id"
	}
	return "user_id"
}

func newInteraction(quoteID string, a quote.Actor, kind quote.InteractionType) *quote.Interaction {
	rec := &quote.Interaction{
		QuoteID:   quoteID,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if a.IsAnonymous() {
		rec.SessionID = a.ID()
	} else {
		rec.UserID = a.ID()
	}
	return rec
}

// EnsureActor guarantees the actor has a backing row. Anonymous sessions are
// provisioned on first use; authenticated users must already exist and a
// missing one yields quote.ErrActorNotFound.
func (l *Ledger) EnsureActor(ctx context.Context, a quote.Actor) error {
	if a.IsZero() {
		return quote.NewValidationError("actor is required")
	}
	db := l.db.WithContext(ctx)

	if a.IsAnonymous() {
		// Insert-if-absent in one statement so concurrent first requests for
		// the same session cannot trip the primary key.
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&quote.AnonymousSession{
			SessionID: a.ID(),
			CreatedAt: time.Now().UTC(),
		}).Error
	}

	var user quote.User
	err := db.First(&user, "user_id = ?", a.ID()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return quote.ErrActorNotFound
	}
	return err
}

// SetReaction replaces the actor's like/dislike state on a quote with the
// desired vote. A zero vote clears any prior reaction. The delete and
// insert run in one transaction so no intermediate state is observable.
func (l *Ledger) SetReaction(ctx context.Context, quoteID string, a quote.Actor, desired int) error {
	var kind quote.InteractionType
	switch desired {
	case 1:
		kind = quote.InteractionLike
	case -1:
		kind = quote.InteractionDislike
	case 0:
		kind = ""
	default:
		return quote.NewValidationError("vote must be -1, 0, or 1")
	}

	col := actorColumn(a)
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("quote_id = ? AND "+col+" = ? AND interaction_type IN ?",
			quoteID, a.ID(),
			[]quote.InteractionType{quote.InteractionLike, quote.InteractionDislike}).
			Delete(&quote.Interaction{}).Error
		if err != nil {
			return err
		}
		if kind == "" {
			return nil
		}
		return tx.Create(newInteraction(quoteID, a, kind)).Error
	})
}

// AddDetail appends a detail-view interaction. Repeat views append again.
func (l *Ledger) AddDetail(ctx context.Context, quoteID string, a quote.Actor) error {
	return l.db.WithContext(ctx).Create(newInteraction(quoteID, a, quote.InteractionDetail)).Error
}

// Counts returns the full like and dislike totals for a quote.
func (l *Ledger) Counts(ctx context.Context, quoteID string) (likes, dislikes int, err error) {
	type row struct {
		Type string `gorm:"column:interaction_type"`
		N    int64
	}
	var rows []row
	err = l.db.WithContext(ctx).
		Model(&quote.Interaction{}).
		Select("interaction_type, COUNT(*) AS n").
		Where("quote_id = ? AND interaction_type IN ?",
			quoteID, []quote.InteractionType{quote.InteractionLike, quote.InteractionDislike}).
		Group("interaction_type").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	for _, r := range rows {
		switch quote.InteractionType(r.Type) {
		case quote.InteractionLike:
			likes = int(r.N)
		case quote.InteractionDislike:
			dislikes = int(r.N)
		}
	}
	return likes, dislikes, nil
}

// EnrichScores attaches like/dislike counts and net score to each quote.
func (l *Ledger) EnrichScores(ctx context.Context, quotes []quote.Quote) ([]quote.Scored, error) {
	scored := make([]quote.Scored, len(quotes))
	likes := make(map[string]int, len(quotes))
	dislikes := make(map[string]int, len(quotes))

	ids := make([]string, len(quotes))
	for i, q := range quotes {
		ids[i] = q.ID
	}

	type row struct {
		QuoteID string `gorm:"column:quote_id"`
		Type    string `gorm:"column:interaction_type"`
		N       int64
	}
	for start := 0; start < len(ids); start += lookupChunkSize {
		end := start + lookupChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		var rows []row
		err := l.db.WithContext(ctx).
			Model(&quote.Interaction{}).
			Select("quote_id, interaction_type, COUNT(*) AS n").
			Where("quote_id IN ? AND interaction_type IN ?",
				ids[start:end], []quote.InteractionType{quote.InteractionLike, quote.InteractionDislike}).
			Group("quote_id").
			Group("interaction_type").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			switch quote.InteractionType(r.Type) {
			case quote.InteractionLike:
				likes[r.QuoteID] = int(r.N)
			case quote.InteractionDislike:
				dislikes[r.QuoteID] = int(r.N)
			}
		}
	}

	for i, q := range quotes {
		scored[i] = quote.Scored{
			Quote:    q,
			Likes:    likes[q.ID],
			Dislikes: dislikes[q.ID],
			Score:    likes[q.ID] - dislikes[q.ID],
		}
	}
	return scored, nil
}

// LikedQuotes returns the published quotes the actor currently likes, most
// recently liked first.
func (l *Ledger) LikedQuotes(ctx context.Context, a quote.Actor) ([]quote.Quote, error) {
	col := actorColumn(a)
	var quotes []quote.Quote
	err := l.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Joins("JOIN interactions ON interactions.quote_id = quotes.id").
		Where("interactions."+col+" = ? AND interactions.interaction_type = ?", a.ID(), quote.InteractionLike).
		Where("quotes.status = ?", quote.StatusPublished).
		Order("interactions.created_at DESC").
		Find(&quotes).Error
	return quotes, err
}

// RecentLikeCounts samples the latest window like interactions system-wide,
// groups them by quote, and returns the topN quote ids by like count within
// the sample, ordered descending. Ties keep the quote whose sampled like is
// most recent first.
func (l *Ledger) RecentLikeCounts(ctx context.Context, window, topN int) ([]LikeCount, error) {
	var recent []quote.Interaction
	err := l.db.WithContext(ctx).
		Where("interaction_type = ?", quote.InteractionLike).
		Order("created_at DESC").
		Limit(window).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, rec := range recent {
		if _, ok := counts[rec.QuoteID]; !ok {
			firstSeen[rec.QuoteID] = i
		}
		counts[rec.QuoteID]++
	}

	ranked := make([]LikeCount, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, LikeCount{QuoteID: id, Likes: n})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Likes != ranked[j].Likes {
			return ranked[i].Likes > ranked[j].Likes
		}
		return firstSeen[ranked[i].QuoteID] < firstSeen[ranked[j].QuoteID]
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}
