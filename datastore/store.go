/*
Package datastore persists records as a table: an ordered list of column names and one row per record.

Two implementations are provided: DataStore keeps the table in an SQL database through sqlx, and
Workbook keeps it in a sheet of an .xlsx file. Columns other than the fixed ones are language
columns, and a store keeps every column it is given even when nothing in the program knows what the
column is for.
*/
package datastore

import (
	"context"
	"fmt"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/petert82/go-translation-sync/config"
	"github.com/petert82/go-translation-sync/trans"
)

// Store is a table of records.
type Store interface {
	// Columns returns every column in order. It is empty until the store is initialised.
	Columns(ctx context.Context) ([]string, error)
	// Records returns every row in order. Cells the row lacks read as "".
	Records(ctx context.Context) ([]trans.Record, error)
	// ReplaceAll rewrites the whole table.
	ReplaceAll(ctx context.Context, columns []string, records []trans.Record) error
	// ApplyUpdates replaces existing rows, matched by id, in place.
	ApplyUpdates(ctx context.Context, columns []string, records []trans.Record) error
	// AppendRecords adds rows after the last one.
	AppendRecords(ctx context.Context, columns []string, records []trans.Record) error
	// AddColumn adds a column after the last one. Adding a column that exists does nothing.
	AddColumn(ctx context.Context, name string) error
	Close() error
}

// Open connects to the store selected by the config.
func Open(c config.Config) (Store, error) {
	switch c.Store.Kind {
	case config.StoreKindXLSX:
		return NewWorkbook(c.Store.Workbook, c.Store.Sheet, c.Columns), nil
	case config.StoreKindSQL:
		db, err := sqlx.Connect(c.DB.Driver, c.DB.ConnectionString())
		if err != nil {
			return nil, unavailable(err)
		}
		ds, err := New(db, c.DB.Driver, c.Columns)
		if err != nil {
			db.Close()
			return nil, err
		}
		return ds, nil
	}
	return nil, fmt.Errorf("datastore: no store of kind '%v'", c.Store.Kind)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", trans.ErrStoreUnavailable, err)
}

// mergeColumns returns have followed by any of want that it lacks.
func mergeColumns(have, want []string) []string {
	seen := make(map[string]bool, len(have))
	out := make([]string, 0, len(have)+len(want))
	for _, c := range have {
		seen[c] = true
		out = append(out, c)
	}
	for _, c := range want {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
