// Package vote implements the per-actor reaction state machine on quotes.
package vote

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
	"github.com/fyrsmithlabs/quoted/internal/store"
)

// StateMachine applies absolute vote states. An actor is always in exactly
// one of three states per quote: liked, disliked, or neutral. Setting a
// state is idempotent and the request carries the desired state, not a
// delta.
type StateMachine struct {
	quotes *store.QuoteStore
	ledger *store.Ledger
	logger *logging.Logger
}

// NewStateMachine wires the state machine to its persistence backends.
func NewStateMachine(quotes *store.QuoteStore, ledger *store.Ledger, logger *logging.Logger) *StateMachine {
	return &StateMachine{quotes: quotes, ledger: ledger, logger: logger}
}

// SetVote moves the actor to the desired state on the quote and returns the
// recomputed full aggregates. Desired must be -1, 0, or 1.
func (m *StateMachine) SetVote(ctx context.Context, quoteID string, a quote.Actor, desired int) (*quote.VoteResult, error) {
	if desired < -1 || desired > 1 {
		return nil, quote.NewValidationError("vote must be -1, 0, or 1")
	}
	if quoteID == "" {
		return nil, quote.NewValidationError("quote id is required")
	}

	if _, err := m.quotes.Get(ctx, quoteID); err != nil {
		return nil, err
	}
	if err := m.ledger.EnsureActor(ctx, a); err != nil {
		return nil, err
	}
	if err := m.ledger.SetReaction(ctx, quoteID, a, desired); err != nil {
		return nil, err
	}

	// Recount from the ledger rather than adjusting incrementally, so the
	// returned aggregates reflect concurrent voters too.
	likes, dislikes, err := m.ledger.Counts(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	m.logger.Debug(ctx, "vote applied",
		zap.String("quote_id", quoteID),
		zap.String("actor", a.String()),
		zap.Int("vote", desired),
		zap.Int("likes", likes),
		zap.Int("dislikes", dislikes),
	)

	return &quote.VoteResult{
		QuoteID:  quoteID,
		Vote:     desired,
		Likes:    likes,
		Dislikes: dislikes,
		Score:    likes - dislikes,
	}, nil
}

// RecordDetail appends a detail-view interaction for the actor.
func (m *StateMachine) RecordDetail(ctx context.Context, quoteID string, a quote.Actor) error {
	if err := m.ledger.EnsureActor(ctx, a); err != nil {
		return err
	}
	return m.ledger.AddDetail(ctx, quoteID, a)
}
