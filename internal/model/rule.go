package model

import (
	"fmt"
	"strings"
	"time"
)

// MinPatternLength is the shortest pattern the matcher will consider.
// Anything shorter is treated as noise and never matches a transaction.
const MinPatternLength = 6

// Rule maps a description pattern to a business for automatic classification.
type Rule struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	Pattern    string    `json:"pattern"`
	BusinessID string    `json:"business_id"`
}

// NormalizedPattern returns the pattern lower-cased, as used for matching.
func (r *Rule) NormalizedPattern() string {
	return strings.ToLower(r.Pattern)
}

// Matchable reports whether the rule can ever match a transaction.
func (r *Rule) Matchable() bool {
	return len(r.NormalizedPattern()) >= MinPatternLength
}

// Validate checks that the rule is well-formed for persistence. A pattern
// shorter than MinPatternLength is stored but will never match; that is the
// caller's problem to surface, not a validation failure.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("rule pattern is required")
	}
	if r.BusinessID == "" {
		return fmt.Errorf("rule business ID is required")
	}
	return nil
}
