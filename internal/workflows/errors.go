package workflows

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

// Application error types carried on non-retryable failures. Retrying these
// cannot succeed: the precondition is gone, not the connection.
const (
	ErrTypeQuoteNotFound      = "QuoteNotFound"
	ErrTypeSnapshotMissing    = "SnapshotMissing"
	ErrTypeBadGeneration      = "BadGeneration"
	ErrTypeModerationFlagged  = "ModerationFlagged"
	ErrTypePublishUnconfirmed = "PublishUnconfirmed"
)

// asTerminal converts known precondition failures into non-retryable
// application errors so the worker does not burn retry attempts on them.
// Everything else passes through and stays retryable.
func asTerminal(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, quote.ErrNotFound):
		return temporal.NewNonRetryableApplicationError("quote not found", ErrTypeQuoteNotFound, err)
	case errors.Is(err, quote.ErrSnapshotMissing):
		return temporal.NewNonRetryableApplicationError("trending snapshot missing", ErrTypeSnapshotMissing, err)
	default:
		return err
	}
}
