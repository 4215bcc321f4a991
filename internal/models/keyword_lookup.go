package models

import "time"

// Keyword lookup outcome constants
const (
	OutcomeMatched  = "matched"
	OutcomePopular  = "popular"
	OutcomeDegraded = "degraded"
)

// KeywordLookup represents a per-keyword hit count by outcome.
type KeywordLookup struct {
	Keyword    string
	Outcome    string
	Count      int64
	LastSeenAt time.Time
}
