// Package workflows provides the Temporal workflow definitions that drive
// quote publication, generation, and leaderboard maintenance.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/quoted/internal/embeddings"
	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/vectorstore"
)

// PublishConfig configures the publish workflow.
type PublishConfig struct {
	QuoteID string
}

// PublishResult reports how publication ended.
type PublishResult struct {
	QuoteID    string
	Published  bool
	Indexed    bool
	Summary    string
	Categories string
}

// PublishQuoteWorkflow runs a draft quote through enrichment and into the
// published state.
//
// The workflow:
//  1. Loads the draft
//  2. Moderates it; flagged quotes stop here
//  3. Summarizes the quote and embeds quote-plus-summary
//  4. Categorizes the quote and embeds the category text
//  5. Indexes both vectors
//  6. Marks the quote published
//
// Categorization is free text for the search index; the quote's canonical
// tags are untouched. Indexing is best-effort: an unreachable index leaves
// the quote published but unindexed rather than failing the run.
func PublishQuoteWorkflow(ctx workflow.Context, config PublishConfig) (*PublishResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting quote publication", "quote_id", config.QuoteID)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var a *Activities
	result := &PublishResult{QuoteID: config.QuoteID}

	// Step 1: Load the draft
	var q quote.Quote
	err := workflow.ExecuteActivity(ctx, a.GetQuote, config.QuoteID).Get(ctx, &q)
	if err != nil {
		return result, err
	}

	// Step 2: Moderate
	var flagged bool
	err = workflow.ExecuteActivity(ctx, a.ModerateQuote, q.Text).Get(ctx, &flagged)
	if err != nil {
		return result, err
	}
	if flagged {
		logger.Info("Quote flagged by moderation", "quote_id", q.ID)
		if err := workflow.ExecuteActivity(ctx, a.FlagQuote, q.ID).Get(ctx, nil); err != nil {
			return result, err
		}
		return result, temporal.NewNonRetryableApplicationError(
			"quote flagged by moderation", ErrTypeModerationFlagged, nil)
	}

	// Step 3: Summarize
	var summary string
	err = workflow.ExecuteActivity(ctx, a.SummarizeQuote, q.Text).Get(ctx, &summary)
	if err != nil {
		return result, err
	}
	result.Summary = summary

	// Step 4: Embed content
	var contentVector []float32
	err = workflow.ExecuteActivity(ctx, a.EmbedText, embeddings.ContentText(q.Text, summary)).Get(ctx, &contentVector)
	if err != nil {
		return result, err
	}

	// Step 5: Categorize
	var categories string
	err = workflow.ExecuteActivity(ctx, a.CategorizeQuote, q.Text).Get(ctx, &categories)
	if err != nil {
		return result, err
	}
	result.Categories = categories

	// Step 6: Embed categories
	var categoriesVector []float32
	err = workflow.ExecuteActivity(ctx, a.EmbedText, categories).Get(ctx, &categoriesVector)
	if err != nil {
		return result, err
	}

	records := []vectorstore.Record{
		{
			QuoteID:    q.ID,
			Namespace:  vectorstore.NamespaceContent,
			Text:       q.Text,
			Summary:    summary,
			Categories: categories,
			Vector:     contentVector,
		},
		{
			QuoteID:    q.ID,
			Namespace:  vectorstore.NamespaceCategories,
			Text:       q.Text,
			Summary:    summary,
			Categories: categories,
			Vector:     categoriesVector,
		},
	}

	// Step 7: Index (best-effort)
	var indexed bool
	err = workflow.ExecuteActivity(ctx, a.IndexQuote, records).Get(ctx, &indexed)
	if err != nil {
		logger.Warn("Indexing failed, publishing unindexed", "error", err)
	}
	result.Indexed = indexed

	// Step 8: Publish
	if err := workflow.ExecuteActivity(ctx, a.PublishQuote, q.ID).Get(ctx, nil); err != nil {
		return result, err
	}
	result.Published = true

	logger.Info("Quote published",
		"quote_id", q.ID,
		"indexed", result.Indexed,
		"categories", result.Categories)
	return result, nil
}
