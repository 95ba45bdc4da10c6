package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/petert82/go-translation-sync/config"
	"github.com/petert82/go-translation-sync/trans"
	"go.uber.org/zap"
	"sort"
	"sync"
	"time"
)

// Adapter provides database-driver-specific query strings, etc.
type Adapter interface {
	PostCreate(*sqlx.DB) error
	VersionTableQuery() string
	UpdateVersionQuery() string
	Migrations() []Migration
	SupportsLastInsertId() bool
	CreateColumnQuery() string
	CreateRecordQuery() string
	CreateCellQuery() string
	DeleteAllCellsQuery() string
	DeleteAllRecordsQuery() string
	DeleteRecordCellsQuery() string
	GetAllColumnsQuery() string
	GetAllRecordsQuery() string
	GetAllCellsQuery() string
	GetMaxColumnPositionQuery() string
	GetMaxRecordPositionQuery() string
	GetSingleRecordIdQuery() string
}

var (
	// ErrRecordNotFound is returned when a targeted update names an id that has no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateRecord is returned when a hand-edited workbook holds the same id on two rows.
	ErrDuplicateRecord = errors.New("duplicate record id")
)

// DataStore keeps the table in an SQL database. A column is a row of sheet_column, a record a row
// of record, and each non-id value a row of cell.
type DataStore struct {
	adapter Adapter
	db      *sqlx.DB
	columns trans.Columns
	Stats   Stats
}

type Stats struct {
	mu    sync.Mutex
	items map[StatKey]StatItem
}

type StatKey struct {
	Name   string
	Action string
}

type StatItem struct {
	Duration time.Duration
	Count    int
}

func (s *Stats) Log(name, action string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[StatKey]StatItem)
	}
	item := s.items[StatKey{Name: name, Action: action}]
	item.Count++
	item.Duration += d
	s.items[StatKey{Name: name, Action: action}] = item
}

// Items returns a copy of the collected timings.
func (s *Stats) Items() map[StatKey]StatItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[StatKey]StatItem, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

func (s *Stats) String() (out string) {
	items := s.Items()
	for _, k := range sortedKeys(items) {
		v := items[k]
		out += fmt.Sprintf("%v  %v '%v' actions took %v total, %v avg\n", v.Count, k.Name, k.Action, v.Duration, v.Duration/time.Duration(v.Count))
	}

	return out
}

// Fields returns the timings as log fields, a count and a total duration per action.
func (s *Stats) Fields() []zap.Field {
	items := s.Items()
	fields := make([]zap.Field, 0, 2*len(items))
	for _, k := range sortedKeys(items) {
		v := items[k]
		key := k.Name + "." + k.Action
		fields = append(fields, zap.Int(key+".count", v.Count), zap.Duration(key+".took", v.Duration))
	}
	return fields
}

func sortedKeys(items map[StatKey]StatItem) []StatKey {
	keys := make([]StatKey, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Action < keys[j].Action
	})
	return keys
}

// Creates a new datastore using the given database connection. The driver parameter is used to
// select the appropriate database adapter, and should be one of the config.DbDriver* constants.
func New(db *sqlx.DB, driver string, columns trans.Columns) (ds *DataStore, err error) {
	adp, err := newAdapter(driver)
	if err != nil {
		return nil, err
	}

	ds = &DataStore{
		adapter: adp,
		db:      db,
		columns: columns,
	}

	err = ds.adapter.PostCreate(ds.db)
	if err != nil {
		return nil, unavailable(err)
	}

	return ds, nil
}

func newAdapter(driver string) (adp Adapter, err error) {
	switch driver {
	case config.DbDriverSqlite3:
		adp = &Sqlite3Adapter{}
	case config.DbDriverPostgresql:
		adp = &PostgresAdapter{}
	}

	if adp == nil {
		return nil, fmt.Errorf("no adapter available for database driver '%v'", driver)
	}

	return adp, nil
}

// MigrateUp applies every migration not yet applied and returns the resulting schema version.
func (ds *DataStore) MigrateUp() (version int64, err error) {
	return migrateUp(ds.db, ds.adapter)
}

// MigrateDown reverts every applied migration.
func (ds *DataStore) MigrateDown() (version int64, err error) {
	return migrateDown(ds.db, ds.adapter)
}

func (ds *DataStore) Close() error {
	return ds.db.Close()
}

// Columns returns every column in order.
func (ds *DataStore) Columns(ctx context.Context) (columns []string, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("column", "get", time.Since(start)) }()

	if err = ds.db.SelectContext(ctx, &columns, ds.adapter.GetAllColumnsQuery()); err != nil {
		return nil, unavailable(err)
	}
	return columns, nil
}

// Records returns every row in order.
func (ds *DataStore) Records(ctx context.Context) (records []trans.Record, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("record", "get", time.Since(start)) }()

	columns, err := ds.Columns(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Id   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err = ds.db.SelectContext(ctx, &rows, ds.adapter.GetAllRecordsQuery()); err != nil {
		return nil, unavailable(err)
	}

	var cells []struct {
		RecordId int64  `db:"record_id"`
		Column   string `db:"column_name"`
		Value    string `db:"value"`
	}
	if err = ds.db.SelectContext(ctx, &cells, ds.adapter.GetAllCellsQuery()); err != nil {
		return nil, unavailable(err)
	}

	values := make(map[int64]map[string]string, len(rows))
	for _, c := range cells {
		if values[c.RecordId] == nil {
			values[c.RecordId] = make(map[string]string)
		}
		values[c.RecordId][c.Column] = c.Value
	}

	records = make([]trans.Record, 0, len(rows))
	for _, r := range rows {
		row := make([]string, len(columns))
		for i, name := range columns {
			if name == ds.columns.ID {
				row[i] = r.Name
				continue
			}
			row[i] = values[r.Id][name]
		}
		records = append(records, ds.columns.Record(columns, row))
	}

	return records, nil
}

// ReplaceAll rewrites every record in a single transaction. Columns not in the store are added.
func (ds *DataStore) ReplaceAll(ctx context.Context, columns []string, records []trans.Record) error {
	return ds.inTx(ctx, func(tx *sqlx.Tx) error {
		all, err := ds.ensureColumns(ctx, tx, columns)
		if err != nil {
			return err
		}

		start := time.Now()
		if _, err = tx.ExecContext(ctx, ds.adapter.DeleteAllCellsQuery()); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, ds.adapter.DeleteAllRecordsQuery()); err != nil {
			return err
		}
		ds.Stats.Log("record", "delete", time.Since(start))

		for i, r := range records {
			if err = ds.insertRecord(ctx, tx, int64(i+1), all, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyUpdates replaces the cells of existing records, matched by id.
func (ds *DataStore) ApplyUpdates(ctx context.Context, columns []string, records []trans.Record) error {
	return ds.inTx(ctx, func(tx *sqlx.Tx) error {
		all, err := ds.ensureColumns(ctx, tx, columns)
		if err != nil {
			return err
		}

		for _, r := range records {
			start := time.Now()
			var id int64
			err = tx.GetContext(ctx, &id, ds.adapter.GetSingleRecordIdQuery(), r.ID)
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: '%v'", ErrRecordNotFound, r.ID)
			}
			if err != nil {
				return err
			}
			if _, err = tx.ExecContext(ctx, ds.adapter.DeleteRecordCellsQuery(), id); err != nil {
				return err
			}
			if err = ds.insertCells(ctx, tx, id, all, r); err != nil {
				return err
			}
			ds.Stats.Log("record", "update", time.Since(start))
		}
		return nil
	})
}

// AppendRecords adds records after the last one.
func (ds *DataStore) AppendRecords(ctx context.Context, columns []string, records []trans.Record) error {
	return ds.inTx(ctx, func(tx *sqlx.Tx) error {
		all, err := ds.ensureColumns(ctx, tx, columns)
		if err != nil {
			return err
		}

		var last sql.NullInt64
		if err = tx.GetContext(ctx, &last, ds.adapter.GetMaxRecordPositionQuery()); err != nil {
			return err
		}
		for i, r := range records {
			if err = ds.insertRecord(ctx, tx, last.Int64+int64(i+1), all, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddColumn adds a column after the last one.
func (ds *DataStore) AddColumn(ctx context.Context, name string) error {
	return ds.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := ds.ensureColumns(ctx, tx, []string{name})
		return err
	})
}

func (ds *DataStore) inTx(ctx context.Context, f func(*sqlx.Tx) error) error {
	tx, err := ds.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}

	if err = f(tx); err != nil {
		tx.Rollback()
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		return unavailable(err)
	}

	if err = tx.Commit(); err != nil {
		return unavailable(err)
	}
	return nil
}

// ensureColumns adds any of want missing from the store and returns the full column list.
func (ds *DataStore) ensureColumns(ctx context.Context, tx *sqlx.Tx, want []string) (all []string, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("column", "ensure", time.Since(start)) }()

	var have []string
	if err = tx.SelectContext(ctx, &have, ds.adapter.GetAllColumnsQuery()); err != nil {
		return nil, err
	}
	all = mergeColumns(have, want)

	var last sql.NullInt64
	if err = tx.GetContext(ctx, &last, ds.adapter.GetMaxColumnPositionQuery()); err != nil {
		return nil, err
	}
	for i, name := range all[len(have):] {
		if _, err = tx.ExecContext(ctx, ds.adapter.CreateColumnQuery(), name, last.Int64+int64(i+1)); err != nil {
			return nil, err
		}
	}

	return all, nil
}

func (ds *DataStore) insertRecord(ctx context.Context, tx *sqlx.Tx, position int64, columns []string, r trans.Record) (err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("record", "insert", time.Since(start)) }()

	var id int64
	if ds.adapter.SupportsLastInsertId() {
		var result sql.Result
		if result, err = tx.ExecContext(ctx, ds.adapter.CreateRecordQuery(), r.ID, position); err != nil {
			return err
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}
	} else if err = tx.GetContext(ctx, &id, ds.adapter.CreateRecordQuery(), r.ID, position); err != nil {
		return err
	}

	return ds.insertCells(ctx, tx, id, columns, r)
}

func (ds *DataStore) insertCells(ctx context.Context, tx *sqlx.Tx, recordId int64, columns []string, r trans.Record) error {
	row := ds.columns.Row(r, columns)
	for i, name := range columns {
		if name == ds.columns.ID || row[i] == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, ds.adapter.CreateCellQuery(), recordId, name, row[i]); err != nil {
			return err
		}
	}
	return nil
}
