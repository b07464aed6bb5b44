package model

// AssignmentEvent records a single manual business assignment. A short rolling
// window of these drives rule inference; events are never persisted.
type AssignmentEvent struct {
	Description string
	BusinessID  string
}

// Proposal is a suggested rule plus the transactions it would reassign.
// Nothing is persisted until the caller commits; the user may deselect
// individual candidates first.
type Proposal struct {
	Pattern             string   `json:"pattern"`
	BusinessID          string   `json:"business_id"`
	SourceTransactionID string   `json:"source_transaction_id"`
	CandidateIDs        []string `json:"candidate_ids"`
}

// HasCandidates reports whether the proposal is worth surfacing to the user.
func (p *Proposal) HasCandidates() bool {
	return p != nil && len(p.CandidateIDs) > 0
}
