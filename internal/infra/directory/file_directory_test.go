package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"circulation_recall_daemon/internal/domain/borrower"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
people:
  - ccid: u1
    name: Ada Lovelace
    email: ada@example.org
    mailbox: "42"
  - ccid: " u2 "
    name: Charles Babbage
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "borrowers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	e, err := d.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, borrower.Entry{CCID: "u1", Name: "Ada Lovelace", Email: "ada@example.org", Mailbox: "42"}, *e)

	e, err = d.Lookup(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "Charles Babbage", e.Name)

	_, err = d.Lookup(context.Background(), "u3")
	assert.ErrorIs(t, err, borrower.ErrNotInDirectory)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing ccid", "people:\n  - name: Nobody\n", "has no ccid"},
		{"duplicate ccid", "people:\n  - ccid: a\n  - ccid: a\n", "duplicate ccid"},
		{"not yaml", "people: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFile_ReloadsChangedExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "borrowers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("people:\n  - ccid: u1\n    email: old@example.org\n"), 0o600))
	f := NewFile(path)

	e, err := f.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "old@example.org", e.Email)

	require.NoError(t, os.WriteFile(path, []byte("people:\n  - ccid: u1\n    email: new@example.org\n"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	e, err = f.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.org", e.Email)

	_, err = NewFile(filepath.Join(t.TempDir(), "none.yaml")).Lookup(context.Background(), "u1")
	assert.Error(t, err)
}
