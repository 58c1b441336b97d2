package database

import (
	"context"
	"database/sql"
	"fmt"

	"circulation_recall_daemon/internal/domain/item"
)

type PostgresItemRepository struct {
	db *sql.DB
}

func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

const itemColumns = `barcode, record_id, COALESCE(library_id, 0), description, loan_period, status,
	title, author, year, isbn, publisher`

func scanItem(row rowScanner) (*item.Item, error) {
	it := &item.Item{}
	err := row.Scan(&it.Barcode, &it.RecordID, &it.LibraryID, &it.Description, &it.LoanPeriod,
		&it.Status, &it.Title, &it.Author, &it.Year, &it.ISBN, &it.Publisher)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *PostgresItemRepository) GetByBarcode(ctx context.Context, barcode string) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM crc_items WHERE barcode = $1`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, barcode))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("error getting item by barcode: %w", err)
	}
	return it, nil
}

func (r *PostgresItemRepository) ListCopies(ctx context.Context, recordID int64, description string) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM crc_items
              WHERE record_id = $1 AND description = $2 ORDER BY barcode`
	rows, err := r.db.QueryContext(ctx, query, recordID, description)
	if err != nil {
		return nil, fmt.Errorf("error listing copies of record %d: %w", recordID, err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}
