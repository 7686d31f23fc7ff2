package store

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

// lookupChunkSize caps the size of IN clauses when resolving quote id lists.
const lookupChunkSize = 200

// QuoteStore persists quotes through their draft and published lifecycle.
type QuoteStore struct {
	db *gorm.DB
}

// NewQuoteStore creates a quote store on top of an open database handle.
func NewQuoteStore(db *gorm.DB) *QuoteStore {
	return &QuoteStore{db: db}
}

// Create inserts a new quote row. The caller assigns the id and status.
func (s *QuoteStore) Create(ctx context.Context, q *quote.Quote) error {
	return s.db.WithContext(ctx).Create(q).Error
}

// Get returns a quote by id, or quote.ErrNotFound when no row exists.
func (s *QuoteStore) Get(ctx context.Context, id string) (*quote.Quote, error) {
	var q quote.Quote
	err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quote.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateStatus transitions a quote to the given status.
func (s *QuoteStore) UpdateStatus(ctx context.Context, id string, status quote.Status) error {
	res := s.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return quote.ErrNotFound
	}
	return nil
}

// Delete removes a quote and its interactions permanently. Deleting an
// already-deleted quote is a no-op.
func (s *QuoteStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&quote.Interaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&quote.Quote{}).Error
	})
}

// ListPublished returns all published quotes, newest first.
func (s *QuoteStore) ListPublished(ctx context.Context) ([]quote.Quote, error) {
	var quotes []quote.Quote
	err := s.db.WithContext(ctx).
		Where("status = ?", quote.StatusPublished).
		Order("created_at DESC").
		Find(&quotes).Error
	return quotes, err
}

// ListByCreator returns every quote submitted by the given actor, newest
// first, regardless of status.
func (s *QuoteStore) ListByCreator(ctx context.Context, creator string) ([]quote.Quote, error) {
	var quotes []quote.Quote
	err := s.db.WithContext(ctx).
		Where("creator = ?", creator).
		Order("created_at DESC").
		Find(&quotes).Error
	return quotes, err
}

// ByIDsPreserveOrder resolves quote ids to rows, keeping the input order.
// Ids without a backing row are skipped.
func (s *QuoteStore) ByIDsPreserveOrder(ctx context.Context, ids []string) ([]quote.Quote, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[string]quote.Quote, len(ids))
	for start := 0; start < len(ids); start += lookupChunkSize {
		end := start + lookupChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		var chunk []quote.Quote
		if err := s.db.WithContext(ctx).Where("id IN ?", ids[start:end]).Find(&chunk).Error; err != nil {
			return nil, err
		}
		for _, q := range chunk {
			byID[q.ID] = q
		}
	}

	ordered := make([]quote.Quote, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// TopPublishedByScore ranks published quotes by net score descending, ties
// broken by recency. Used to pick inspirations for generated quotes.
func (s *QuoteStore) TopPublishedByScore(ctx context.Context, ledger *Ledger, limit int) ([]quote.Scored, error) {
	published, err := s.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	scored, err := ledger.EnrichScores(ctx, published)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
