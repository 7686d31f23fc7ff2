package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/trending"
)

// TrendingCreator marks quotes written from the trending leaderboard.
const TrendingCreator = "quotificator"

// publishVerifyDelay is how long the workflow waits before checking that
// the abandoned publish child finished.
const publishVerifyDelay = 30 * time.Second

// TrendingQuoteResult reports the generated quote and whether its
// publication was confirmed.
type TrendingQuoteResult struct {
	QuoteID          string
	Text             string
	Tags             []string
	PublishConfirmed bool
}

// TrendingQuoteWorkflow writes a new quote riffing on whatever is currently
// trending. An empty leaderboard fails the run terminally: there is nothing
// to riff on until likes arrive and the aggregator has run.
func TrendingQuoteWorkflow(ctx workflow.Context) (*TrendingQuoteResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting trending quote generation")

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var a *Activities
	result := &TrendingQuoteResult{}

	// Step 1: Load the leaderboard
	var snap trending.Snapshot
	err := workflow.ExecuteActivity(ctx, a.LoadTrendingSnapshot).Get(ctx, &snap)
	if err != nil {
		return result, err
	}
	if len(snap.Entries) == 0 {
		return result, temporal.NewNonRetryableApplicationError(
			"trending snapshot is empty", ErrTypeSnapshotMissing, nil)
	}

	inspirations := make([]quote.Scored, len(snap.Entries))
	for i, entry := range snap.Entries {
		inspirations[i] = quote.Scored{
			Quote: quote.Quote{
				ID:     entry.QuoteID,
				Text:   entry.Quote,
				Author: entry.Author,
				Tags:   entry.Tags,
			},
			Likes: entry.Likes,
			Score: entry.Likes,
		}
	}

	// Step 2: Generate
	var allowed []string
	err = workflow.ExecuteActivity(ctx, a.VocabularyNames).Get(ctx, &allowed)
	if err != nil {
		return result, err
	}

	var generated Generated
	err = workflow.ExecuteActivity(ctx, a.GenerateQuote, GenerateInput{
		Inspirations: inspirations,
		Allowed:      allowed,
	}).Get(ctx, &generated)
	if err != nil {
		return result, err
	}
	result.Text = generated.Text
	result.Tags = generated.Tags

	// Step 3: Insert as draft
	var quoteID string
	err = workflow.ExecuteActivity(ctx, a.CreateDraft, CreateDraftInput{
		Text:    generated.Text,
		Tags:    generated.Tags,
		Creator: TrendingCreator,
	}).Get(ctx, &quoteID)
	if err != nil {
		return result, err
	}
	result.QuoteID = quoteID

	// Step 4: Publish via an abandoned child workflow with a fixed id so
	// completion can be verified afterwards.
	childID := fmt.Sprintf("publish-%s", quoteID)
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        childID,
		ParentClosePolicy: enums.PARENT_CLOSE_POLICY_ABANDON,
	})
	child := workflow.ExecuteChildWorkflow(childCtx, PublishQuoteWorkflow, PublishConfig{QuoteID: quoteID})
	if err := child.GetChildWorkflowExecution().Get(childCtx, nil); err != nil {
		return result, err
	}

	// Step 5: Verify the publish finished
	if err := workflow.Sleep(ctx, publishVerifyDelay); err != nil {
		return result, err
	}
	var completed bool
	err = workflow.ExecuteActivity(ctx, a.WorkflowCompleted, childID).Get(ctx, &completed)
	if err != nil {
		return result, err
	}
	if !completed {
		return result, temporal.NewNonRetryableApplicationError(
			"publication did not complete", ErrTypePublishUnconfirmed, nil)
	}
	result.PublishConfirmed = true

	logger.Info("Trending quote generated",
		"quote_id", quoteID, "publish_confirmed", completed)
	return result, nil
}
