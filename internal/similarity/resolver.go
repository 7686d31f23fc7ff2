// Package similarity resolves related quotes through the vector index.
package similarity

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/config"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/store"
	"github.com/fyrsmithlabs/quoted/internal/vectorstore"
)

// Index is the read surface of the vector store the resolver depends on.
type Index interface {
	Query(ctx context.Context, vector []float32, namespace string, topK int) ([]vectorstore.Hit, error)
	Vectors(ctx context.Context, recordIDs []string) (map[string][]float32, error)
	Available(ctx context.Context) bool
}

// Embedder turns free text into a query vector.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Result is a related quote with its vote aggregates and the similarity
// score that surfaced it.
type Result struct {
	quote.Scored
	Similarity float32 `json:"similarity"`
}

// Resolver finds quotes related to a seed quote or a free-text query.
// Index trouble degrades to empty results rather than errors, so browsing
// keeps working when the index is down.
type Resolver struct {
	index    Index
	embedder Embedder
	quotes   *store.QuoteStore
	ledger   *store.Ledger
	cfg      *config.SimilarityConfig
	logger   *logging.Logger
}

// NewResolver wires the resolver to the index and the relational stores.
func NewResolver(index Index, embedder Embedder, quotes *store.QuoteStore, ledger *store.Ledger, cfg *config.SimilarityConfig, logger *logging.Logger) *Resolver {
	return &Resolver{
		index:    index,
		embedder: embedder,
		quotes:   quotes,
		ledger:   ledger,
		cfg:      cfg,
		logger:   logger,
	}
}

// SimilarToQuote returns quotes related to the seed, best match first. Both
// the content and categories embeddings of the seed are queried; a quote
// reached through both keeps its higher score. The seed itself is excluded.
func (r *Resolver) SimilarToQuote(ctx context.Context, seed *quote.Quote) ([]Result, error) {
	if !r.index.Available(ctx) {
		r.logger.Warn(ctx, "vector index unavailable, returning no similar quotes",
			zap.String("quote_id", seed.ID))
		return []Result{}, nil
	}

	stored, err := r.index.Vectors(ctx, []string{
		vectorstore.RecordID(vectorstore.NamespaceContent, seed.ID),
		vectorstore.RecordID(vectorstore.NamespaceCategories, seed.ID),
	})
	if err != nil {
		r.logger.Warn(ctx, "failed to load seed vectors", zap.Error(err),
			zap.String("quote_id", seed.ID))
		return []Result{}, nil
	}

	best := make(map[string]float32)
	order := make([]string, 0)

	merge := func(hits []vectorstore.Hit) {
		for _, hit := range hits {
			if hit.QuoteID == seed.ID {
				continue
			}
			if hit.Score <= r.cfg.Threshold {
				continue
			}
			if prev, ok := best[hit.QuoteID]; !ok {
				best[hit.QuoteID] = hit.Score
				order = append(order, hit.QuoteID)
			} else if hit.Score > prev {
				best[hit.QuoteID] = hit.Score
			}
		}
	}

	if vec, ok := stored[vectorstore.RecordID(vectorstore.NamespaceContent, seed.ID)]; ok {
		hits, err := r.index.Query(ctx, vec, vectorstore.NamespaceContent, r.cfg.ContentTopK)
		if err != nil {
			r.logger.Warn(ctx, "content similarity query failed", zap.Error(err))
		} else {
			merge(hits)
		}
	}
	if vec, ok := stored[vectorstore.RecordID(vectorstore.NamespaceCategories, seed.ID)]; ok {
		hits, err := r.index.Query(ctx, vec, vectorstore.NamespaceCategories, r.cfg.CategoriesTopK)
		if err != nil {
			r.logger.Warn(ctx, "categories similarity query failed", zap.Error(err))
		} else {
			merge(hits)
		}
	}

	return r.materialize(ctx, order, best)
}

// Search embeds the query once and returns matching quotes from the content
// namespace, best match first.
func (r *Resolver) Search(ctx context.Context, query string) ([]Result, error) {
	if !r.index.Available(ctx) {
		r.logger.Warn(ctx, "vector index unavailable, returning no search results")
		return []Result{}, nil
	}

	vec, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.index.Query(ctx, vec, vectorstore.NamespaceContent, r.cfg.ContentTopK)
	if err != nil {
		r.logger.Warn(ctx, "search query failed", zap.Error(err))
		return []Result{}, nil
	}

	best := make(map[string]float32)
	order := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= r.cfg.Threshold {
			continue
		}
		if _, ok := best[hit.QuoteID]; !ok {
			best[hit.QuoteID] = hit.Score
			order = append(order, hit.QuoteID)
		}
	}

	return r.materialize(ctx, order, best)
}

// materialize sorts candidate ids by score, caps the list, loads the backing
// quotes, and drops textual duplicates keeping the better-scored one.
func (r *Resolver) materialize(ctx context.Context, ids []string, scores map[string]float32) ([]Result, error) {
	sort.SliceStable(ids, func(i, j int) bool {
		return scores[ids[i]] > scores[ids[j]]
	})
	if len(ids) > r.cfg.MaxResults {
		ids = ids[:r.cfg.MaxResults]
	}

	quotes, err := r.quotes.ByIDsPreserveOrder(ctx, ids)
	if err != nil {
		return nil, err
	}

	published := quotes[:0]
	for _, q := range quotes {
		if q.Status == quote.StatusPublished {
			published = append(published, q)
		}
	}

	scored, err := r.ledger.EnrichScores(ctx, published)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(scored))
	results := make([]Result, 0, len(scored))
	for _, sq := range scored {
		key := quote.NormalizeForDedupe(sq.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, Result{
			Scored:     sq,
			Similarity: scores[sq.ID],
		})
	}
	return results, nil
}
