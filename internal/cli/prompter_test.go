package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewhitmore/ledgible/internal/model"
)

func testProposal() *model.Proposal {
	return &model.Proposal{
		Pattern:             "Netflix",
		BusinessID:          "biz-1",
		SourceTransactionID: "t1",
		CandidateIDs:        []string{"t2", "t3"},
	}
}

func testCandidates() []model.Transaction {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return []model.Transaction{
		{ID: "t2", Date: day, Description: "Netflix.com", Amount: -15.99},
		{ID: "t3", Date: day.AddDate(0, 1, 0), Description: "NETFLIX RENEWAL", Amount: -15.99},
	}
}

func TestReviewProposal_AcceptAll(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("a\n"), &output)

	result, err := p.ReviewProposal(context.Background(), testProposal(), "Streaming Co", testCandidates())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, []string{"t2", "t3"}, result.SelectedIDs)
	assert.Contains(t, output.String(), "Netflix.com")
	assert.Contains(t, output.String(), "Streaming Co")
}

func TestReviewProposal_ToggleThenAccept(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("t\n2\na\n"), &output)

	result, err := p.ReviewProposal(context.Background(), testProposal(), "Streaming Co", testCandidates())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, []string{"t2"}, result.SelectedIDs)
}

func TestReviewProposal_RuleOnly(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("n\n"), &output)

	result, err := p.ReviewProposal(context.Background(), testProposal(), "Streaming Co", testCandidates())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Empty(t, result.SelectedIDs)
	assert.NotNil(t, result.SelectedIDs)
}

func TestReviewProposal_Cancel(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("c\n"), &output)

	result, err := p.ReviewProposal(context.Background(), testProposal(), "Streaming Co", testCandidates())
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.Contains(t, output.String(), "manual assignment is kept")
}

func TestReviewProposal_NoCandidates(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("y\n"), &output)

	proposal := testProposal()
	proposal.CandidateIDs = nil

	result, err := p.ReviewProposal(context.Background(), proposal, "Streaming Co", nil)
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Empty(t, result.SelectedIDs)
	assert.Contains(t, output.String(), "No other transactions match")
}

func TestReviewProposal_InvalidInputReprompts(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("x\na\n"), &output)

	result, err := p.ReviewProposal(context.Background(), testProposal(), "Streaming Co", testCandidates())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Contains(t, output.String(), "Please enter one of")
}

func TestReviewProposal_ToggleIgnoresBadNumbers(t *testing.T) {
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("t\n0,junk,2\na\n"), &output)

	result, err := p.ReviewProposal(context.Background(), testProposal(), "Streaming Co", testCandidates())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, []string{"t2"}, result.SelectedIDs)
	assert.Contains(t, output.String(), "Ignoring invalid number")
}

func TestReviewProposal_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewCLIPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.ReviewProposal(ctx, testProposal(), "Streaming Co", testCandidates())
	assert.Error(t, err)
}
