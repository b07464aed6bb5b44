// Package pattern implements deterministic rule-based transaction
// classification. Matching is pure string comparison over stored rule
// patterns; there is no statistical component.
package pattern

import (
	"sort"
	"strings"

	"github.com/ewhitmore/ledgible/internal/model"
)

// matchThreshold is the minimum fraction of positions beyond the pattern
// prefix that must agree with the description for a rule to match.
const matchThreshold = 0.8

// Matcher evaluates transactions against a fixed rule set.
type Matcher struct {
	rules []compiledRule
}

type compiledRule struct {
	rule    model.Rule
	pattern string // lower-cased
}

// NewMatcher creates a matcher over the given rules. Rules are ordered by
// pattern length descending so longer, more specific patterns win; ties keep
// their original order.
func NewMatcher(rules []model.Rule) *Matcher {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, compiledRule{
			rule:    r,
			pattern: r.NormalizedPattern(),
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return len(compiled[i].pattern) > len(compiled[j].pattern)
	})

	return &Matcher{rules: compiled}
}

// Classify assigns a business to every transaction whose description matches
// some rule. The first matching rule wins; transactions matching no rule are
// returned unchanged, including any business they already carry. The input
// slice is not mutated.
func (m *Matcher) Classify(transactions []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(transactions))
	copy(out, transactions)

	if len(m.rules) == 0 {
		return out
	}

	for i := range out {
		for _, cr := range m.rules {
			if Matches(cr.pattern, out[i].Description) {
				out[i].BusinessID = cr.rule.BusinessID
				out[i].AssignedRule = cr.rule.ID
				break
			}
		}
	}

	return out
}

// Classify is a convenience wrapper for one-shot classification.
func Classify(transactions []model.Transaction, rules []model.Rule) []model.Transaction {
	return NewMatcher(rules).Classify(transactions)
}

// Matches reports whether a lower-cased rule pattern matches a transaction
// description. The first six characters must agree exactly; beyond that, at
// least 80% of the remaining pattern positions must line up with the
// description. Description characters missing past the end count as
// mismatches. Patterns shorter than six characters never match.
func Matches(pattern, description string) bool {
	if len(pattern) < model.MinPatternLength {
		return false
	}

	desc := strings.ToLower(description)
	if len(desc) < model.MinPatternLength {
		return false
	}
	if desc[:model.MinPatternLength] != pattern[:model.MinPatternLength] {
		return false
	}
	if len(pattern) == model.MinPatternLength {
		return true
	}

	rest := pattern[model.MinPatternLength:]
	matched := 0
	for i := 0; i < len(rest); i++ {
		if j := model.MinPatternLength + i; j < len(desc) && desc[j] == rest[i] {
			matched++
		}
	}

	return float64(matched)/float64(len(rest)) >= matchThreshold
}
