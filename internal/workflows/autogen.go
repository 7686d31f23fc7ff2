package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

// AutogenCreator marks quotes written by the generation workflow.
const AutogenCreator = "autogen"

// inspirationCount is how many top-scored quotes seed generation.
const inspirationCount = 10

// Evaluation delays per mode. Production gives the audience two days to
// vote before the generated quote is judged.
const (
	evalDelayProduction = 48 * time.Hour
	evalDelayDebug      = 10 * time.Minute
	evalDelayFast       = 5 * time.Second
)

// AutogenConfig configures one generation run.
type AutogenConfig struct {
	// Mode selects the evaluation delay: production, debug, or fast.
	Mode string

	// RetentionThreshold is the minimum net score a generated quote must
	// reach by evaluation time to survive.
	RetentionThreshold int
}

// AutogenResult reports what the run produced and whether it survived.
type AutogenResult struct {
	QuoteID  string
	Text     string
	Tags     []string
	Score    int
	Retained bool
}

// EvalDelay maps a mode name to its evaluation delay.
func EvalDelay(mode string) time.Duration {
	switch mode {
	case "fast":
		return evalDelayFast
	case "debug":
		return evalDelayDebug
	default:
		return evalDelayProduction
	}
}

// AutogenQuoteWorkflow generates a new quote from the community's favorites,
// publishes it, waits out the evaluation window, and deletes it if the
// audience disagrees.
//
// Publication runs as an abandoned child workflow: the parent only waits for
// the child to start, then sleeps through the evaluation window while the
// child completes on its own.
func AutogenQuoteWorkflow(ctx workflow.Context, config AutogenConfig) (*AutogenResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting quote generation", "mode", config.Mode)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var a *Activities
	result := &AutogenResult{}

	// Step 1: Collect inspirations and the allowed vocabulary
	var inspirations []quote.Scored
	err := workflow.ExecuteActivity(ctx, a.TopQuotes, inspirationCount).Get(ctx, &inspirations)
	if err != nil {
		return result, err
	}

	var allowed []string
	err = workflow.ExecuteActivity(ctx, a.VocabularyNames).Get(ctx, &allowed)
	if err != nil {
		return result, err
	}

	// Step 2: Generate
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
		Creator: AutogenCreator,
	}).Get(ctx, &quoteID)
	if err != nil {
		return result, err
	}
	result.QuoteID = quoteID

	// Step 4: Publish via an abandoned child workflow
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        fmt.Sprintf("publish-%s", quoteID),
		ParentClosePolicy: enums.PARENT_CLOSE_POLICY_ABANDON,
	})
	child := workflow.ExecuteChildWorkflow(childCtx, PublishQuoteWorkflow, PublishConfig{QuoteID: quoteID})
	if err := child.GetChildWorkflowExecution().Get(childCtx, nil); err != nil {
		return result, err
	}

	// Step 5: Wait out the evaluation window
	delay := EvalDelay(config.Mode)
	logger.Info("Generated quote published, waiting for evaluation",
		"quote_id", quoteID, "delay", delay)
	if err := workflow.Sleep(ctx, delay); err != nil {
		return result, err
	}

	// Step 6: Evaluate
	var score int
	err = workflow.ExecuteActivity(ctx, a.QuoteScore, quoteID).Get(ctx, &score)
	if err != nil {
		return result, err
	}
	result.Score = score

	if score < config.RetentionThreshold {
		logger.Info("Generated quote rejected by audience",
			"quote_id", quoteID, "score", score, "threshold", config.RetentionThreshold)
		if err := workflow.ExecuteActivity(ctx, a.DeleteQuote, quoteID).Get(ctx, nil); err != nil {
			return result, err
		}
		return result, nil
	}

	result.Retained = true
	logger.Info("Generated quote retained", "quote_id", quoteID, "score", score)
	return result, nil
}
