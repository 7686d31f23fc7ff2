// Package trending maintains the leaderboard snapshot of recently liked
// quotes. The snapshot is recomputed by a scheduled workflow and served
// verbatim to readers.
package trending

import "time"

// Entry is one leaderboard position.
type Entry struct {
	QuoteID string `json:"quoteId"`
	Quote   string `json:"quote"`
	Author  string `json:"author,omitempty"`
	Tags    string `json:"tags,omitempty"`
	Likes   int    `json:"likes"`
}

// Snapshot is the stored leaderboard: top quotes by like count within the
// sampling window, best first.
type Snapshot struct {
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generatedAt"`
}
