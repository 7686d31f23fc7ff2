package workflows

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/embeddings"
	"github.com/fyrsmithlabs/quoted/internal/genai"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/store"
	"github.com/fyrsmithlabs/quoted/internal/tags"
	"github.com/fyrsmithlabs/quoted/internal/trending"
	"github.com/fyrsmithlabs/quoted/internal/vectorstore"
)

// Activities holds the dependencies workflow activities execute against.
// One instance is registered on the worker; workflows reference methods on
// a nil *Activities for type-safe dispatch.
type Activities struct {
	Quotes     *store.QuoteStore
	Ledger     *store.Ledger
	Vocabulary *tags.Vocabulary
	GenAI      *genai.Client
	Embedder   *embeddings.Service
	Index      *vectorstore.Store
	Snapshots  *trending.SnapshotStore
	Aggregator *trending.Aggregator
	Temporal   client.Client
	Logger     *logging.Logger
}

// GetQuote loads a quote. A missing quote is a terminal failure.
func (a *Activities) GetQuote(ctx context.Context, quoteID string) (*quote.Quote, error) {
	q, err := a.Quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, asTerminal(err)
	}
	return q, nil
}

// ModerateQuote runs the text through content moderation and reports
// whether it was flagged.
func (a *Activities) ModerateQuote(ctx context.Context, text string) (bool, error) {
	return a.GenAI.Moderate(ctx, text)
}

// FlagQuote marks a quote as rejected by moderation.
func (a *Activities) FlagQuote(ctx context.Context, quoteID string) error {
	return asTerminal(a.Quotes.UpdateStatus(ctx, quoteID, quote.StatusFlagged))
}

// SummarizeQuote produces the stored summary for a quote.
func (a *Activities) SummarizeQuote(ctx context.Context, text string) (string, error) {
	return a.GenAI.Summarize(ctx, text)
}

// CategorizeQuote asks the model for a free-text category list describing
// the quote. The list feeds the categories embedding; it is independent of
// the quote's canonical tags.
func (a *Activities) CategorizeQuote(ctx context.Context, text string) (string, error) {
	return a.GenAI.Categorize(ctx, text)
}

// EmbedText returns the embedding vector for a text.
func (a *Activities) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return a.Embedder.EmbedOne(ctx, text)
}

// IndexQuote upserts the quote's records into the vector index. Index
// trouble is absorbed: publication proceeds unindexed and the records are
// picked up on the next re-index.
func (a *Activities) IndexQuote(ctx context.Context, records []vectorstore.Record) (bool, error) {
	if a.Index == nil {
		return false, nil
	}
	if err := a.Index.Upsert(ctx, records); err != nil {
		a.Logger.Warn(ctx, "indexing skipped", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// PublishQuote transitions a quote to published.
func (a *Activities) PublishQuote(ctx context.Context, quoteID string) error {
	return asTerminal(a.Quotes.UpdateStatus(ctx, quoteID, quote.StatusPublished))
}

// TopQuotes returns the highest-scored published quotes.
func (a *Activities) TopQuotes(ctx context.Context, limit int) ([]quote.Scored, error) {
	return a.Quotes.TopPublishedByScore(ctx, a.Ledger, limit)
}

// VocabularyNames returns the allowed tag names.
func (a *Activities) VocabularyNames(_ context.Context) ([]string, error) {
	return a.Vocabulary.Names(), nil
}

// GenerateInput carries the material for quote generation.
type GenerateInput struct {
	Inspirations []quote.Scored
	Allowed      []string
}

// Generated is a parsed model-written quote.
type Generated struct {
	Text string
	Tags []string
}

// GenerateQuote writes a new quote from the inspirations. An unparseable
// response is terminal; retrying the same prompt is handled by the workflow
// retry policy on transient API errors only.
func (a *Activities) GenerateQuote(ctx context.Context, in GenerateInput) (*Generated, error) {
	text, rawTags, err := a.GenAI.GenerateQuote(ctx, in.Inspirations, in.Allowed)
	if err != nil {
		return nil, err
	}
	normalized := a.Vocabulary.Normalize(rawTags)
	if text == "" {
		return nil, temporal.NewNonRetryableApplicationError("empty generated quote", ErrTypeBadGeneration, nil)
	}
	return &Generated{Text: text, Tags: normalized}, nil
}

// CreateDraftInput describes a quote to insert as a draft.
type CreateDraftInput struct {
	Text    string
	Author  string
	Tags    []string
	Creator string
}

// CreateDraft inserts a draft quote and returns its id.
func (a *Activities) CreateDraft(ctx context.Context, in CreateDraftInput) (string, error) {
	q := &quote.Quote{
		ID:        uuid.NewString(),
		Text:      in.Text,
		Author:    in.Author,
		Tags:      tags.Join(in.Tags),
		Status:    quote.StatusDraft,
		Creator:   in.Creator,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Quotes.Create(ctx, q); err != nil {
		return "", err
	}
	return q.ID, nil
}

// QuoteScore returns the current net score of a quote.
func (a *Activities) QuoteScore(ctx context.Context, quoteID string) (int, error) {
	likes, dislikes, err := a.Ledger.Counts(ctx, quoteID)
	if err != nil {
		return 0, err
	}
	return likes - dislikes, nil
}

// DeleteQuote removes a quote from the store and the vector index.
func (a *Activities) DeleteQuote(ctx context.Context, quoteID string) error {
	if err := a.Quotes.Delete(ctx, quoteID); err != nil {
		return err
	}
	if a.Index != nil {
		if err := a.Index.Delete(ctx, quoteID); err != nil {
			a.Logger.Warn(ctx, "failed to remove quote from index",
				zap.String("quote_id", quoteID), zap.Error(err))
		}
	}
	return nil
}

// LoadTrendingSnapshot reads the leaderboard. A missing snapshot is
// terminal: nothing trends until the aggregator has run.
func (a *Activities) LoadTrendingSnapshot(ctx context.Context) (*trending.Snapshot, error) {
	snap, err := a.Snapshots.Load(ctx)
	if err != nil {
		return nil, asTerminal(err)
	}
	return snap, nil
}

// RefreshTrending recomputes and stores the leaderboard snapshot.
func (a *Activities) RefreshTrending(ctx context.Context) (*trending.Snapshot, error) {
	return a.Aggregator.Refresh(ctx)
}

// WorkflowCompleted reports whether the workflow with the given id has
// finished successfully.
func (a *Activities) WorkflowCompleted(ctx context.Context, workflowID string) (bool, error) {
	resp, err := a.Temporal.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return false, err
	}
	info := resp.GetWorkflowExecutionInfo()
	if info == nil {
		return false, nil
	}
	return info.GetStatus() == enums.WORKFLOW_EXECUTION_STATUS_COMPLETED, nil
}
