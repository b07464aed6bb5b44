// Package infer proposes classification rules from manual business
// assignments. When the user corrects one transaction, it looks at recent
// corrections for the same business and extracts the shared piece of the
// descriptions as a candidate rule pattern.
package infer

import (
	"github.com/ewhitmore/ledgible/internal/model"
)

// HistorySize caps the rolling window of manual assignments considered
// when inferring rules.
const HistorySize = 5

// History is a most-recent-first buffer of manual assignment events.
// The zero value is an empty history. Record returns a new History rather
// than mutating, so callers own all state explicitly.
type History struct {
	events []model.AssignmentEvent
}

// Record prepends an event, dropping the oldest beyond HistorySize.
func (h History) Record(event model.AssignmentEvent) History {
	events := make([]model.AssignmentEvent, 0, HistorySize)
	events = append(events, event)
	for _, e := range h.events {
		if len(events) == HistorySize {
			break
		}
		events = append(events, e)
	}
	return History{events: events}
}

// Events returns the buffered events, most recent first.
func (h History) Events() []model.AssignmentEvent {
	out := make([]model.AssignmentEvent, len(h.events))
	copy(out, h.events)
	return out
}

// Len returns the number of buffered events.
func (h History) Len() int {
	return len(h.events)
}
