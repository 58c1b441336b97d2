package app

import (
	"context"
	"database/sql"
	"testing"

	"circulation_recall_daemon/internal/domain/borrower"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ccid(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestBorrowerService_SyncFromDirectory(t *testing.T) {
	repo := newFakeBorrowerRepo(
		&borrower.Borrower{ID: 1, CCID: ccid("u1"), Name: "Ada", Email: "old@example.org", Phone: "123"},
		&borrower.Borrower{ID: 2, CCID: ccid("u2"), Name: "Bob", Email: "bob@example.org"},
		&borrower.Borrower{ID: 3, CCID: ccid("gone"), Name: "Cy"},
		&borrower.Borrower{ID: 4, Name: "Walk-in"},
	)
	dir := &fakeDirectory{entries: map[string]*borrower.Entry{
		"u1": {CCID: "u1", Name: "Ada", Email: "ada@example.org"},
		"u2": {CCID: "u2", Name: "Bob", Email: "bob@example.org"},
	}}

	report, err := NewBorrowerService(repo, dir, testLogger()).SyncFromDirectory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SyncReport{Checked: 3, Updated: 1, Missing: 1}, report)
	assert.Equal(t, []int64{1}, repo.updated)
	assert.Equal(t, "ada@example.org", repo.borrowers[1].Email)
	assert.Equal(t, "123", repo.borrowers[1].Phone, "empty directory fields keep local data")
}

func TestBorrowerService_FailuresAreIsolated(t *testing.T) {
	repo := newFakeBorrowerRepo(
		&borrower.Borrower{ID: 1, CCID: ccid("u1"), Name: "Ada"},
		&borrower.Borrower{ID: 2, CCID: ccid("u2"), Name: "Bob"},
	)
	repo.updateErr = errBoom
	dir := &fakeDirectory{entries: map[string]*borrower.Entry{
		"u1": {CCID: "u1", Email: "ada@example.org"},
		"u2": {CCID: "u2", Email: "bob@example.org"},
	}}

	report, err := NewBorrowerService(repo, dir, testLogger()).SyncFromDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failures)

	dir.err = errBoom
	report, err = NewBorrowerService(repo, dir, testLogger()).SyncFromDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failures)
}
