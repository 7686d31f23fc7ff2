// Package quote defines the core domain types of the platform: quotes,
// actor identities, interaction records, and the derived score.
package quote

import (
	"time"
)

// Status is the lifecycle state of a quote.
//
// Valid transitions: draft -> published, draft -> flagged.
// Flagged is terminal; a flagged quote never publishes.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusFlagged   Status = "flagged"
)

// MaxTags is the maximum number of canonical tags a quote may carry.
const MaxTags = 3

// Quote is a user- or machine-submitted quote.
//
// Tags holds canonical tag names joined by ", " (see the tags package for
// normalization). An empty Tags value is only permitted for machine-created
// quotes; human submissions require at least one canonical tag.
type Quote struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Text      string    `gorm:"column:quote_text;not null" json:"text"`
	Author    string    `gorm:"type:text" json:"author,omitempty"`
	Tags      string    `gorm:"type:text" json:"tags,omitempty"`
	Status    Status    `gorm:"type:text;index:idx_quotes_status;default:draft" json:"status"`
	Creator   string    `gorm:"type:text;index:idx_quotes_creator" json:"creator"`
	CreatedAt time.Time `json:"created_at"`
}

// InteractionType classifies a ledger row.
type InteractionType string

const (
	InteractionLike    InteractionType = "like"
	InteractionDislike InteractionType = "dislike"
	InteractionDetail  InteractionType = "detail"
)

// Interaction is one row of the interaction ledger. Exactly one of UserID
// and SessionID is set, matching the actor that produced the row.
//
// Like/dislike rows are mutually exclusive per (quote, actor) and are never
// updated in place: state transitions delete then insert. Detail rows are
// append-only and unconstrained.
type Interaction struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	QuoteID   string          `gorm:"type:text;not null;index:idx_interactions_quote" json:"quote_id"`
	UserID    string          `gorm:"type:text;index:idx_interactions_user" json:"user_id,omitempty"`
	SessionID string          `gorm:"type:text;index:idx_interactions_session" json:"session_id,omitempty"`
	Type      InteractionType `gorm:"column:interaction_type;type:text;not null;index:idx_interactions_type" json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}

// User is an authenticated account. Accounts are provisioned out of band;
// ledger writes for unknown users fail non-retryably.
type User struct {
	UserID    string    `gorm:"type:text;primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AnonymousSession records the existence of an anonymous actor. Provisioned
// lazily (insert-if-absent) before the session's first ledger write.
type AnonymousSession struct {
	SessionID string    `gorm:"type:text;primaryKey" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Scored is a quote enriched with ledger-derived vote aggregates.
// Score is always Likes - Dislikes, recomputed from the ledger, never stored.
type Scored struct {
	Quote
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
	Score    int `json:"score"`
}

// VoteResult is the canonical response to a vote operation. All counts are
// recomputed from the ledger by full aggregation.
type VoteResult struct {
	QuoteID  string `json:"quoteId"`
	Vote     int    `json:"vote"`
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
	Score    int    `json:"score"`
}
