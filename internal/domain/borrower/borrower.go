package borrower

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotInDirectory is returned by a Directory that has no entry for a ccid.
var ErrNotInDirectory = errors.New("person not found in directory")

// Borrower is a library patron. Corresponds to the 'crc_borrowers' table.
type Borrower struct {
	ID        int64
	CCID      sql.NullString // identifier in the institutional directory
	Name      string
	Email     string
	Phone     string
	Address   string
	Mailbox   string
	Notes     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is what the institutional directory knows about a person.
type Entry struct {
	CCID    string `yaml:"ccid"`
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
	Mailbox string `yaml:"mailbox"`
}

// Apply copies directory data onto the borrower and reports whether anything changed.
// Empty directory values never erase local data.
func (b *Borrower) Apply(e Entry) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&b.Name, e.Name)
	set(&b.Email, e.Email)
	set(&b.Phone, e.Phone)
	set(&b.Address, e.Address)
	set(&b.Mailbox, e.Mailbox)
	return changed
}

// Repository defines the operations for persisting and retrieving borrowers.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Borrower, error)
	ListWithCCID(ctx context.Context) ([]*Borrower, error)
	Update(ctx context.Context, b *Borrower) error
}

// Directory looks people up in an external source of truth.
type Directory interface {
	Lookup(ctx context.Context, ccid string) (*Entry, error)
}
