package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewhitmore/ledgible/internal/model"
	"github.com/ewhitmore/ledgible/internal/storage"
	"github.com/ewhitmore/ledgible/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	return New(db.Storage), db.Storage
}

func testTxn(id, description string) model.Transaction {
	txn := model.Transaction{
		ID:          id,
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      -25.00,
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

func TestEngine_ImportTransactions_AutoClassifies(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	biz, err := store.CreateBusiness(ctx, "Acme LLC")
	require.NoError(t, err)
	require.NoError(t, store.CreateRule(ctx, &model.Rule{
		Pattern:    "amazon mktplace",
		BusinessID: biz.ID,
	}))

	stats, err := eng.ImportTransactions(ctx, []model.Transaction{
		testTxn("t1", "AMAZON MKTPLACE US*AB12"),
		testTxn("t2", "SHELL OIL 555"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.AutoClassified)

	matched, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, biz.ID, matched.BusinessID)

	unmatched, err := store.GetTransactionByID(ctx, "t2")
	require.NoError(t, err)
	assert.False(t, unmatched.Assigned())
}

func TestEngine_ImportTransactions_CountsDuplicates(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	batch := []model.Transaction{testTxn("t1", "VENDOR ONE")}
	_, err := eng.ImportTransactions(ctx, batch)
	require.NoError(t, err)

	again := []model.Transaction{testTxn("t1b", "VENDOR ONE")}
	stats, err := eng.ImportTransactions(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Saved)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestEngine_Reclassify(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.ImportTransactions(ctx, []model.Transaction{
		testTxn("t1", "NETFLIX.COM 866-579"),
		testTxn("t2", "SHELL OIL 555"),
	})
	require.NoError(t, err)

	// Rule created after import; only reclassification picks it up.
	biz, err := store.CreateBusiness(ctx, "Streaming")
	require.NoError(t, err)
	require.NoError(t, store.CreateRule(ctx, &model.Rule{
		Pattern:    "netflix.com",
		BusinessID: biz.ID,
	}))

	matched, err := eng.Reclassify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, matched)

	txn, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, biz.ID, txn.BusinessID)
}

func TestEngine_AssignBusiness_ProposesRule(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	biz, err := store.CreateBusiness(ctx, "Streaming")
	require.NoError(t, err)

	_, err = eng.ImportTransactions(ctx, []model.Transaction{
		testTxn("t1", "Netflix"),
		testTxn("t2", "Netflix.com"),
		testTxn("t3", "NETFLIX RENEWAL"),
		testTxn("t4", "SHELL OIL"),
	})
	require.NoError(t, err)

	// First correction has no prior history entry for the business.
	first, err := eng.AssignBusiness(ctx, "t1", biz.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Second correction finds the first as its reference entry.
	second, err := eng.AssignBusiness(ctx, "t2", biz.ID)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, "Netflix", second.Pattern)
	assert.Equal(t, biz.ID, second.BusinessID)
	assert.Equal(t, []string{"t3"}, second.CandidateIDs)

	assert.Len(t, eng.History(), 2)
}

func TestEngine_CommitProposal(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	biz, err := store.CreateBusiness(ctx, "Streaming")
	require.NoError(t, err)

	_, err = eng.ImportTransactions(ctx, []model.Transaction{
		testTxn("t1", "Netflix"),
		testTxn("t2", "Netflix.com"),
		testTxn("t3", "NETFLIX RENEWAL"),
		testTxn("t4", "netflix gift card"),
	})
	require.NoError(t, err)

	proposal := &model.Proposal{
		Pattern:             "Netflix",
		BusinessID:          biz.ID,
		SourceTransactionID: "t1",
		CandidateIDs:        []string{"t2", "t3", "t4"},
	}

	// User deselected t4 before confirming.
	rule, applied, err := eng.CommitProposal(ctx, proposal, []string{"t2", "t3"})
	require.NoError(t, err)

	assert.Equal(t, "netflix", rule.Pattern)
	assert.Equal(t, []string{"t2", "t3"}, applied)

	for _, id := range applied {
		txn, err := store.GetTransactionByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, biz.ID, txn.BusinessID)
		assert.Equal(t, rule.ID, txn.AssignedRule)
	}

	untouched, err := store.GetTransactionByID(ctx, "t4")
	require.NoError(t, err)
	assert.False(t, untouched.Assigned())

	rules, err := store.GetRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
}

func TestEngine_CommitProposal_NilSelectionAppliesAll(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	biz, err := store.CreateBusiness(ctx, "Streaming")
	require.NoError(t, err)

	_, err = eng.ImportTransactions(ctx, []model.Transaction{
		testTxn("t1", "Netflix.com"),
		testTxn("t2", "NETFLIX RENEWAL"),
	})
	require.NoError(t, err)

	proposal := &model.Proposal{
		Pattern:      "Netflix",
		BusinessID:   biz.ID,
		CandidateIDs: []string{"t1", "t2"},
	}

	_, applied, err := eng.CommitProposal(ctx, proposal, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, applied)
}

func TestEngine_AssignBusiness_UnknownBusiness(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.AssignBusiness(context.Background(), "t1", "ghost")
	assert.Error(t, err)
}
