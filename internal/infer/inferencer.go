package infer

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ewhitmore/ledgible/internal/model"
)

// minInferredPattern is the shortest common prefix/suffix worth turning into
// a rule; anything shorter falls back to whole-description containment.
const minInferredPattern = 3

// Propose records a manual assignment and suggests a rule covering other
// transactions that likely belong to the same business.
//
// The returned proposal is advisory: nothing is persisted and no candidate is
// modified until the caller commits. The updated history must be carried
// forward by the caller for the next assignment.
func Propose(txn model.Transaction, businessID string, all []model.Transaction, history History) (model.Proposal, History) {
	updated := history.Record(model.AssignmentEvent{
		Description: txn.Description,
		BusinessID:  businessID,
	})

	proposal := model.Proposal{
		BusinessID:          businessID,
		SourceTransactionID: txn.ID,
	}

	pattern := ""
	if ref, ok := referenceEvent(updated, txn.Description, businessID); ok {
		start := CommonStart(txn.Description, ref.Description)
		end := CommonEnd(txn.Description, ref.Description)
		// Ties favor the shared start.
		if len(end) > len(start) {
			pattern = end
		} else {
			pattern = start
		}
	}

	if len(pattern) >= minInferredPattern {
		proposal.Pattern = pattern
		proposal.CandidateIDs = edgeCandidates(all, txn.ID, pattern)
	} else {
		// Broader but less precise: any unassigned transaction whose
		// description contains the corrected one in full.
		proposal.Pattern = txn.Description
		proposal.CandidateIDs = containsCandidates(all, txn.ID, txn.Description)
	}

	rankCandidates(proposal.CandidateIDs, all, txn.Description)

	return proposal, updated
}

// referenceEvent finds the most recent prior assignment to the same business
// with a different description. The first buffered event is the one just
// recorded and is skipped.
func referenceEvent(h History, description, businessID string) (model.AssignmentEvent, bool) {
	events := h.Events()
	for _, e := range events[1:] {
		if e.BusinessID == businessID && !strings.EqualFold(e.Description, description) {
			return e, true
		}
	}
	return model.AssignmentEvent{}, false
}

// edgeCandidates returns unassigned transactions whose description starts or
// ends with the pattern, case-insensitively.
func edgeCandidates(all []model.Transaction, excludeID, pattern string) []string {
	needle := strings.ToLower(pattern)
	var ids []string
	for _, t := range all {
		if t.ID == excludeID || t.Assigned() || t.Description == "" {
			continue
		}
		desc := strings.ToLower(t.Description)
		if strings.HasPrefix(desc, needle) || strings.HasSuffix(desc, needle) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// containsCandidates returns unassigned transactions whose description
// contains the full corrected description, case-insensitively. An empty
// description matches nothing.
func containsCandidates(all []model.Transaction, excludeID, description string) []string {
	needle := strings.ToLower(description)
	if needle == "" {
		return nil
	}
	var ids []string
	for _, t := range all {
		if t.ID == excludeID || t.Assigned() {
			continue
		}
		if strings.Contains(strings.ToLower(t.Description), needle) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// rankCandidates orders candidate ids by edit distance from the corrected
// description so the closest matches surface first in review.
func rankCandidates(ids []string, all []model.Transaction, description string) {
	if len(ids) < 2 {
		return
	}

	byID := make(map[string]string, len(all))
	for _, t := range all {
		byID[t.ID] = strings.ToLower(t.Description)
	}

	target := strings.ToLower(description)
	distance := make(map[string]int, len(ids))
	for _, id := range ids {
		distance[id] = levenshtein.ComputeDistance(target, byID[id])
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return distance[ids[i]] < distance[ids[j]]
	})
}

// CommonStart returns the longest shared prefix of a and b, compared
// case-insensitively. The result takes its casing from a.
func CommonStart(a, b string) string {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	n := len(la)
	if len(lb) < n {
		n = len(lb)
	}
	i := 0
	for i < n && la[i] == lb[i] {
		i++
	}
	return a[:i]
}

// CommonEnd returns the longest shared suffix of a and b, compared
// case-insensitively. The result takes its casing from a.
func CommonEnd(a, b string) string {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	n := len(la)
	if len(lb) < n {
		n = len(lb)
	}
	i := 0
	for i < n && la[len(la)-1-i] == lb[len(lb)-1-i] {
		i++
	}
	return a[len(a)-i:]
}
