package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewhitmore/ledgible/internal/model"
)

func TestCommonStart(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{"shared prefix", "COFFEE SHOP A", "COFFEE SHOP B", "COFFEE SHOP "},
		{"case insensitive", "Netflix.com", "NETFLIX", "Netflix"},
		{"no overlap", "ALPHA", "BETA", ""},
		{"identical", "SAME", "SAME", "SAME"},
		{"empty input", "", "anything", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommonStart(tt.a, tt.b))
		})
	}
}

func TestCommonEnd(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{"shared suffix", "123-MART", "456-MART", "-MART"},
		{"case insensitive", "trip UBER", "PAY uber", " UBER"},
		{"no overlap", "ALPHA", "BETO", ""},
		{"empty input", "anything", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommonEnd(tt.a, tt.b))
		})
	}
}

func TestHistory_RecordCapsAtFive(t *testing.T) {
	var h History
	for i := 0; i < 8; i++ {
		h = h.Record(model.AssignmentEvent{
			Description: string(rune('a' + i)),
			BusinessID:  "b",
		})
	}

	require.Equal(t, HistorySize, h.Len())
	// Most recent first.
	assert.Equal(t, "h", h.Events()[0].Description)
	assert.Equal(t, "d", h.Events()[4].Description)
}

func TestPropose_ReferenceEntryProducesPrefixPattern(t *testing.T) {
	var h History
	h = h.Record(model.AssignmentEvent{Description: "Netflix", BusinessID: "B2"})

	txn := model.Transaction{ID: "t1", Description: "Netflix.com"}
	all := []model.Transaction{
		txn,
		{ID: "t2", Description: "NETFLIX 866-579-7172"},
		{ID: "t3", Description: "Monthly netflix"},
		{ID: "t4", Description: "NETFLIX already assigned", BusinessID: "B7"},
		{ID: "t5", Description: "Spotify"},
	}

	proposal, updated := Propose(txn, "B2", all, h)

	assert.Equal(t, "Netflix", proposal.Pattern)
	assert.Equal(t, "B2", proposal.BusinessID)
	assert.Equal(t, "t1", proposal.SourceTransactionID)
	// t2 starts with the pattern, t3 ends with it; t4 is assigned and t5
	// does not match at all.
	assert.ElementsMatch(t, []string{"t2", "t3"}, proposal.CandidateIDs)
	assert.Equal(t, 2, updated.Len())
}

func TestPropose_SuffixLongerThanPrefixWins(t *testing.T) {
	var h History
	h = h.Record(model.AssignmentEvent{Description: "456-ACME MART", BusinessID: "B1"})

	txn := model.Transaction{ID: "t1", Description: "123-ACME MART"}
	all := []model.Transaction{
		txn,
		{ID: "t2", Description: "789-ACME MART"},
	}

	proposal, _ := Propose(txn, "B1", all, h)

	assert.Equal(t, "-ACME MART", proposal.Pattern)
	assert.Equal(t, []string{"t2"}, proposal.CandidateIDs)
}

func TestPropose_NoReferenceFallsBackToContainment(t *testing.T) {
	txn := model.Transaction{ID: "t1", Description: "SHELL OIL"}
	all := []model.Transaction{
		txn,
		{ID: "t2", Description: "PAYPAL *SHELL OIL 555"},
		{ID: "t3", Description: "shell oil station"},
		{ID: "t4", Description: "CHEVRON"},
	}

	proposal, updated := Propose(txn, "B1", all, History{})

	assert.Equal(t, "SHELL OIL", proposal.Pattern)
	assert.ElementsMatch(t, []string{"t2", "t3"}, proposal.CandidateIDs)
	assert.Equal(t, 1, updated.Len())
}

func TestPropose_DifferentBusinessInHistoryIgnored(t *testing.T) {
	var h History
	h = h.Record(model.AssignmentEvent{Description: "Netflix", BusinessID: "OTHER"})

	txn := model.Transaction{ID: "t1", Description: "Netflix.com"}
	all := []model.Transaction{
		txn,
		{ID: "t2", Description: "Netflix.com renewal fee"},
	}

	proposal, _ := Propose(txn, "B2", all, h)

	// No reference entry for B2, so the fallback containment matcher runs.
	assert.Equal(t, "Netflix.com", proposal.Pattern)
	assert.Equal(t, []string{"t2"}, proposal.CandidateIDs)
}

func TestPropose_ShortCommonPatternFallsBack(t *testing.T) {
	var h History
	h = h.Record(model.AssignmentEvent{Description: "AB WIDGETS", BusinessID: "B1"})

	txn := model.Transaction{ID: "t1", Description: "AX GASKET"}
	all := []model.Transaction{
		txn,
		{ID: "t2", Description: "vendor AX GASKET inc"},
		{ID: "t3", Description: "AX SOMETHING"},
	}

	proposal, _ := Propose(txn, "B1", all, h)

	// The shared prefix with the reference entry is a single character, so
	// containment on the full description applies instead.
	assert.Equal(t, "AX GASKET", proposal.Pattern)
	assert.Equal(t, []string{"t2"}, proposal.CandidateIDs)
}

func TestPropose_EmptyDescriptionMatchesNothing(t *testing.T) {
	txn := model.Transaction{ID: "t1", Description: ""}
	all := []model.Transaction{
		txn,
		{ID: "t2", Description: "anything"},
	}

	proposal, _ := Propose(txn, "B1", all, History{})

	assert.Empty(t, proposal.CandidateIDs)
}

func TestPropose_CandidatesRankedByEditDistance(t *testing.T) {
	var h History
	h = h.Record(model.AssignmentEvent{Description: "ACME STORE 001", BusinessID: "B1"})

	txn := model.Transaction{ID: "t1", Description: "ACME STORE 002"}
	all := []model.Transaction{
		txn,
		{ID: "far", Description: "ACME STORE 0099 OUTLET MALL"},
		{ID: "near", Description: "ACME STORE 003"},
	}

	proposal, _ := Propose(txn, "B1", all, h)

	require.Equal(t, []string{"near", "far"}, proposal.CandidateIDs)
}
