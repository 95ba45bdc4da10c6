package datastore

import (
	"context"
	"errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/petert82/go-translation-sync/trans"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var columns = trans.DefaultColumns()

func setupTestDataStore(t *testing.T) *DataStore {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	ds, err := New(db, "sqlite3", columns)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := ds.MigrateUp(); err != nil || v != 2 {
		t.Fatalf("migrate: version %d, %v", v, err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds
}

func setupTestWorkbook(t *testing.T) *Workbook {
	t.Helper()
	return NewWorkbook(filepath.Join(t.TempDir(), "book", "translations.xlsx"), "Translations", columns)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite3":  setupTestDataStore(t),
		"workbook": setupTestWorkbook(t),
	}
}

var header = []string{"id", "category", "source", "maxwidth", "size_unit", "active", "French", "Spanish"}

func sample() []trans.Record {
	return []trans.Record{
		{ID: "Label.b", Category: "Label", Source: "Bee", MaxWidth: "10", SizeUnit: "char", Active: "TRUE",
			Translations: map[string]string{"French": "Abeille", "Spanish": ""}},
		{ID: "Label.a", Category: "Label", Source: "Ay", Active: "FALSE",
			Translations: map[string]string{"French": "", "Spanish": "Ay"}},
	}
}

func TestStoreEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cols, err := s.Columns(ctx)
			if err != nil || len(cols) != 0 {
				t.Errorf("Columns = %v, %v", cols, err)
			}
			recs, err := s.Records(ctx)
			if err != nil || len(recs) != 0 {
				t.Errorf("Records = %v, %v", recs, err)
			}
		})
	}
}

func TestStoreReplaceAll(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.ReplaceAll(ctx, header, sample()); err != nil {
				t.Fatal(err)
			}
			cols, err := s.Columns(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(cols, header) {
				t.Errorf("Columns = %v, want %v", cols, header)
			}
			recs, err := s.Records(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(recs, sample()) {
				t.Errorf("Records = %+v\nwant %+v", recs, sample())
			}

			// A second rewrite replaces every row.
			next := sample()[1:]
			next[0].Source = "Eh"
			if err := s.ReplaceAll(ctx, header, next); err != nil {
				t.Fatal(err)
			}
			recs, _ = s.Records(ctx)
			if len(recs) != 1 || recs[0].Source != "Eh" {
				t.Errorf("Records after rewrite = %+v", recs)
			}
		})
	}
}

func TestStorePreservesUnknownColumns(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			withNotes := append(append([]string{}, header...), "Notes")
			recs := sample()
			recs[0].Translations["Notes"] = "ask marketing"
			if err := s.ReplaceAll(ctx, withNotes, recs); err != nil {
				t.Fatal(err)
			}

			// A writer that only knows the original columns keeps the extra one.
			got, _ := s.Records(ctx)
			if err := s.ReplaceAll(ctx, header, got); err != nil {
				t.Fatal(err)
			}
			cols, _ := s.Columns(ctx)
			if !reflect.DeepEqual(cols, withNotes) {
				t.Errorf("Columns = %v, want %v", cols, withNotes)
			}
			got, _ = s.Records(ctx)
			if got[0].Translations["Notes"] != "ask marketing" {
				t.Errorf("Notes lost: %+v", got[0])
			}
		})
	}
}

func TestStoreTargetedUpdates(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.ReplaceAll(ctx, header, sample()); err != nil {
				t.Fatal(err)
			}

			changed := sample()[1]
			changed.Active = "TRUE"
			changed.Translations["Spanish"] = ""
			if err := s.ApplyUpdates(ctx, header, []trans.Record{changed}); err != nil {
				t.Fatal(err)
			}
			added := trans.NewRecord(trans.Segment{ID: "Label.c", Source: "See"}, []string{"French", "Spanish"})
			if err := s.AppendRecords(ctx, header, []trans.Record{added}); err != nil {
				t.Fatal(err)
			}

			recs, err := s.Records(ctx)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, r := range recs {
				ids = append(ids, r.ID)
			}
			if want := []string{"Label.b", "Label.a", "Label.c"}; !reflect.DeepEqual(ids, want) {
				t.Errorf("ids = %v, want %v", ids, want)
			}
			if recs[1].Active != "TRUE" || recs[1].Translations["Spanish"] != "" {
				t.Errorf("updated record = %+v", recs[1])
			}
			if recs[0].Translations["French"] != "Abeille" {
				t.Errorf("untouched record changed: %+v", recs[0])
			}

			err = s.ApplyUpdates(ctx, header, []trans.Record{{ID: "missing"}})
			if !errors.Is(err, ErrRecordNotFound) {
				t.Errorf("err = %v, want ErrRecordNotFound", err)
			}
		})
	}
}

func TestStoreAddColumn(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.ReplaceAll(ctx, header, sample()); err != nil {
				t.Fatal(err)
			}
			if err := s.AddColumn(ctx, "German"); err != nil {
				t.Fatal(err)
			}
			if err := s.AddColumn(ctx, "German"); err != nil {
				t.Fatal(err)
			}
			cols, _ := s.Columns(ctx)
			if cols[len(cols)-1] != "German" || len(cols) != len(header)+1 {
				t.Errorf("Columns = %v", cols)
			}
			recs, _ := s.Records(ctx)
			if v, ok := recs[0].Translations["German"]; !ok || v != "" {
				t.Errorf("new column should read as empty, got %q, %v", v, ok)
			}
		})
	}
}

func TestDataStoreUnavailable(t *testing.T) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	ds, err := New(db, "sqlite3", columns)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	// Not migrated, so there are no tables.
	if _, err := ds.Columns(context.Background()); !errors.Is(err, trans.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	if err := ds.ReplaceAll(context.Background(), header, sample()); !errors.Is(err, trans.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestDataStoreMigrateDown(t *testing.T) {
	ds := setupTestDataStore(t)
	if v, err := ds.MigrateDown(); err != nil || v != 0 {
		t.Errorf("MigrateDown = %d, %v", v, err)
	}
	if v, err := ds.MigrateUp(); err != nil || v != 2 {
		t.Errorf("MigrateUp after down = %d, %v", v, err)
	}
}

func TestDataStoreStats(t *testing.T) {
	ds := setupTestDataStore(t)
	if err := ds.ReplaceAll(context.Background(), header, sample()); err != nil {
		t.Fatal(err)
	}
	items := ds.Stats.Items()
	if items[StatKey{Name: "record", Action: "insert"}].Count != 2 {
		t.Errorf("stats = %v", items)
	}
	if !strings.Contains(ds.Stats.String(), "record 'insert'") {
		t.Errorf("String() = %q", ds.Stats.String())
	}

	fields := make(map[string]bool)
	for _, f := range ds.Stats.Fields() {
		fields[f.Key] = true
	}
	for _, key := range []string{"record.insert.count", "record.insert.took", "column.ensure.count"} {
		if !fields[key] {
			t.Errorf("Fields() lacks %q", key)
		}
	}
}

func TestWorkbookDuplicateIds(t *testing.T) {
	w := setupTestWorkbook(t)
	ctx := context.Background()

	// A hand-edited sheet can carry the same id twice.
	records := append(sample(), trans.Record{ID: "Label.b", Category: "Label", Source: "Bee again", Active: "TRUE"})
	if err := w.ReplaceAll(ctx, header, records); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Records(ctx); !errors.Is(err, ErrDuplicateRecord) {
		t.Errorf("Records: err = %v, want ErrDuplicateRecord", err)
	}
	if err := w.ApplyUpdates(ctx, header, records[:1]); !errors.Is(err, ErrDuplicateRecord) {
		t.Errorf("ApplyUpdates: err = %v, want ErrDuplicateRecord", err)
	}
	if err := w.ApplyUpdates(ctx, header, records[:1]); err != nil && !strings.Contains(err.Error(), "rows 2 and 4") {
		t.Errorf("error does not name the rows: %v", err)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	if _, err := New(nil, "mysql", columns); err == nil {
		t.Error("expected error for unknown driver")
	}
}
