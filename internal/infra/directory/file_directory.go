// Package directory provides borrower.Directory implementations.
package directory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"circulation_recall_daemon/internal/domain/borrower"

	"gopkg.in/yaml.v3"
)

// fileFormat is the layout of the directory export:
//
//	people:
//	  - ccid: u123
//	    name: Ada Lovelace
//	    email: ada@example.org
type fileFormat struct {
	People []borrower.Entry `yaml:"people"`
}

// FileDirectory serves lookups from a YAML export of the institutional directory.
type FileDirectory struct {
	entries map[string]borrower.Entry
}

// LoadFile reads the export at path. Entries without a ccid are rejected, and so
// are duplicates.
func LoadFile(path string) (*FileDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read borrower directory: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*FileDirectory, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse borrower directory: %w", err)
	}
	d := &FileDirectory{entries: make(map[string]borrower.Entry, len(f.People))}
	for i, e := range f.People {
		e.CCID = strings.TrimSpace(e.CCID)
		if e.CCID == "" {
			return nil, fmt.Errorf("borrower directory entry %d has no ccid", i)
		}
		if _, dup := d.entries[e.CCID]; dup {
			return nil, fmt.Errorf("borrower directory has duplicate ccid %q", e.CCID)
		}
		d.entries[e.CCID] = e
	}
	return d, nil
}

func (d *FileDirectory) Lookup(_ context.Context, ccid string) (*borrower.Entry, error) {
	e, ok := d.entries[strings.TrimSpace(ccid)]
	if !ok {
		return nil, borrower.ErrNotInDirectory
	}
	return &e, nil
}

func (d *FileDirectory) Len() int {
	return len(d.entries)
}

// File is a Directory backed by a YAML export that may be replaced while the
// daemon runs. The export is re-read whenever its modification time changes.
type File struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	current *FileDirectory
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Lookup(ctx context.Context, ccid string) (*borrower.Entry, error) {
	d, err := f.load()
	if err != nil {
		return nil, err
	}
	return d.Lookup(ctx, ccid)
}

func (f *File) load() (*FileDirectory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat borrower directory: %w", err)
	}
	if f.current != nil && info.ModTime().Equal(f.modTime) {
		return f.current, nil
	}
	d, err := LoadFile(f.path)
	if err != nil {
		return nil, err
	}
	f.current, f.modTime = d, info.ModTime()
	return d, nil
}
