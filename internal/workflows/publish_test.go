package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/vectorstore"
)

func draftQuote(tags string) *quote.Quote {
	return &quote.Quote{
		ID:        "q-1",
		Text:      "The obstacle is the way.",
		Tags:      tags,
		Status:    quote.StatusDraft,
		Creator:   "anon-creator",
		CreatedAt: time.Now().UTC(),
	}
}

func TestPublishQuoteWorkflow(t *testing.T) {
	t.Run("flagged quote is never published or indexed", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(PublishQuoteWorkflow)

		var a *Activities
		env.OnActivity(a.GetQuote, mock.Anything, "q-1").Return(draftQuote("Wisdom"), nil)
		env.OnActivity(a.ModerateQuote, mock.Anything, mock.Anything).Return(true, nil)
		env.OnActivity(a.FlagQuote, mock.Anything, "q-1").Return(nil)

		env.ExecuteWorkflow(PublishQuoteWorkflow, PublishConfig{QuoteID: "q-1"})

		require.True(t, env.IsWorkflowCompleted())

		err := env.GetWorkflowError()
		require.Error(t, err)
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, ErrTypeModerationFlagged, appErr.Type())
		assert.True(t, appErr.NonRetryable())

		env.AssertNotCalled(t, "SummarizeQuote", mock.Anything, mock.Anything)
		env.AssertNotCalled(t, "IndexQuote", mock.Anything, mock.Anything)
		env.AssertNotCalled(t, "PublishQuote", mock.Anything, mock.Anything)
	})

	t.Run("publishes with content and category embeddings", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(PublishQuoteWorkflow)

		var a *Activities
		env.OnActivity(a.GetQuote, mock.Anything, "q-1").Return(draftQuote("Wisdom, Motivation"), nil)
		env.OnActivity(a.ModerateQuote, mock.Anything, mock.Anything).Return(false, nil)
		env.OnActivity(a.SummarizeQuote, mock.Anything, mock.Anything).Return("Hardship teaches.", nil)
		env.OnActivity(a.CategorizeQuote, mock.Anything, "The obstacle is the way.").
			Return("perseverance, adversity, stoic philosophy", nil)
		env.OnActivity(a.EmbedText, mock.Anything, "The obstacle is the way.\n\nSummary: Hardship teaches.").
			Return([]float32{0.1, 0.2}, nil)
		env.OnActivity(a.EmbedText, mock.Anything, "perseverance, adversity, stoic philosophy").
			Return([]float32{0.3, 0.4}, nil)
		env.OnActivity(a.IndexQuote, mock.Anything, mock.MatchedBy(func(records []vectorstore.Record) bool {
			return len(records) == 2 &&
				records[0].Namespace == vectorstore.NamespaceContent &&
				records[0].Vector[0] == float32(0.1) &&
				records[1].Namespace == vectorstore.NamespaceCategories &&
				records[1].Vector[0] == float32(0.3) &&
				records[1].Categories == "perseverance, adversity, stoic philosophy"
		})).Return(true, nil)
		env.OnActivity(a.PublishQuote, mock.Anything, "q-1").Return(nil)

		env.ExecuteWorkflow(PublishQuoteWorkflow, PublishConfig{QuoteID: "q-1"})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result PublishResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.True(t, result.Published)
		assert.True(t, result.Indexed)
		assert.Equal(t, "Hardship teaches.", result.Summary)
		assert.Equal(t, "perseverance, adversity, stoic philosophy", result.Categories)
	})

	t.Run("untagged quote still gets both embeddings", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(PublishQuoteWorkflow)

		var a *Activities
		env.OnActivity(a.GetQuote, mock.Anything, "q-1").Return(draftQuote(""), nil)
		env.OnActivity(a.ModerateQuote, mock.Anything, mock.Anything).Return(false, nil)
		env.OnActivity(a.SummarizeQuote, mock.Anything, mock.Anything).Return("A summary.", nil)
		env.OnActivity(a.CategorizeQuote, mock.Anything, "The obstacle is the way.").
			Return("resilience", nil)
		env.OnActivity(a.EmbedText, mock.Anything, mock.Anything).Return([]float32{0.3}, nil)
		env.OnActivity(a.IndexQuote, mock.Anything, mock.MatchedBy(func(records []vectorstore.Record) bool {
			return len(records) == 2 &&
				records[1].Namespace == vectorstore.NamespaceCategories
		})).Return(true, nil)
		env.OnActivity(a.PublishQuote, mock.Anything, "q-1").Return(nil)

		env.ExecuteWorkflow(PublishQuoteWorkflow, PublishConfig{QuoteID: "q-1"})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result PublishResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.True(t, result.Published)
		assert.Equal(t, "resilience", result.Categories)
	})

	t.Run("index trouble publishes unindexed", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(PublishQuoteWorkflow)

		var a *Activities
		env.OnActivity(a.GetQuote, mock.Anything, "q-1").Return(draftQuote("Wisdom"), nil)
		env.OnActivity(a.ModerateQuote, mock.Anything, mock.Anything).Return(false, nil)
		env.OnActivity(a.SummarizeQuote, mock.Anything, mock.Anything).Return("s", nil)
		env.OnActivity(a.CategorizeQuote, mock.Anything, mock.Anything).Return("grit", nil)
		env.OnActivity(a.EmbedText, mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
		env.OnActivity(a.IndexQuote, mock.Anything, mock.Anything).Return(false, nil)
		env.OnActivity(a.PublishQuote, mock.Anything, "q-1").Return(nil)

		env.ExecuteWorkflow(PublishQuoteWorkflow, PublishConfig{QuoteID: "q-1"})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result PublishResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.True(t, result.Published)
		assert.False(t, result.Indexed)
	})
}
