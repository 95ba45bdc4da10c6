package importer

import (
	"context"
	"errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/petert82/go-translation-sync/config"
	"github.com/petert82/go-translation-sync/datastore"
	"github.com/petert82/go-translation-sync/language"
	"github.com/petert82/go-translation-sync/trans"
	"github.com/petert82/go-translation-sync/xliff"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testConfig(strategy string) config.Config {
	c := config.New()
	c.Sync.Strategy = strategy
	c.Languages = []trans.Language{{Name: "French", Code: "fr"}, {Name: "Spanish", Code: "es"}}
	return c
}

func setupImporter(t *testing.T, strategy string) (*Importer, *datastore.DataStore) {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	c := testConfig(strategy)
	ds, err := datastore.New(db, config.DbDriverSqlite3, c.Columns)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.MigrateUp(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ds.Close() })

	reg, err := language.New(c.Languages)
	if err != nil {
		t.Fatal(err)
	}
	return New(ds, reg, c, zap.NewNop()), ds
}

func doc(segments ...trans.Segment) *xliff.Document {
	return &xliff.Document{SourceLanguage: "en_US", Segments: segments}
}

func TestSyncInitialisesEmptyStore(t *testing.T) {
	for _, strategy := range []string{config.StrategyRewrite, config.StrategyTargeted} {
		t.Run(strategy, func(t *testing.T) {
			im, ds := setupImporter(t, strategy)
			ctx := context.Background()

			stats, err := im.Sync(ctx, doc(
				trans.Segment{ID: "CustomLabel.Hello", Source: "Hello", MaxWidth: 20, SizeUnit: "char"},
				trans.Segment{ID: "CustomLabel.Bye", Source: "Bye"},
			))
			if err != nil {
				t.Fatal(err)
			}
			if stats != (trans.Stats{Added: 2}) {
				t.Errorf("stats = %+v", stats)
			}

			cols, _ := ds.Columns(ctx)
			want := []string{"id", "category", "source", "maxwidth", "size_unit", "active", "French", "Spanish"}
			if !reflect.DeepEqual(cols, want) {
				t.Errorf("columns = %v, want %v", cols, want)
			}
			recs, _ := ds.Records(ctx)
			if len(recs) != 2 || recs[0].Category != "CustomLabel" || recs[0].MaxWidth != "20" {
				t.Errorf("records = %+v", recs)
			}
		})
	}
}

func TestSyncStrategiesAgree(t *testing.T) {
	ctx := context.Background()
	results := make(map[string][]trans.Record)

	for _, strategy := range []string{config.StrategyRewrite, config.StrategyTargeted} {
		im, ds := setupImporter(t, strategy)

		if _, err := im.Sync(ctx, doc(
			trans.Segment{ID: "a", Source: "A"},
			trans.Segment{ID: "b", Source: "B"},
			trans.Segment{ID: "c", Source: "C"},
		)); err != nil {
			t.Fatal(err)
		}

		// A translator fills in the French column.
		recs, _ := ds.Records(ctx)
		for i := range recs {
			recs[i].Translations["French"] = "fr-" + recs[i].Source
		}
		if err := ds.ReplaceAll(ctx, nil, recs); err != nil {
			t.Fatal(err)
		}

		stats, err := im.Sync(ctx, doc(
			trans.Segment{ID: "a", Source: "A changed"},
			trans.Segment{ID: "c", Source: "C", MaxWidth: 3},
			trans.Segment{ID: "d", Source: "D"},
		))
		if err != nil {
			t.Fatal(err)
		}
		if want := (trans.Stats{Added: 1, Updated: 1, Unchanged: 1, Deactivated: 1}); stats != want {
			t.Errorf("%v: stats = %+v, want %+v", strategy, stats, want)
		}

		results[strategy], _ = ds.Records(ctx)
	}

	got := results[config.StrategyTargeted]
	if !reflect.DeepEqual(got, results[config.StrategyRewrite]) {
		t.Errorf("strategies disagree:\nrewrite  %+v\ntargeted %+v", results[config.StrategyRewrite], got)
	}
	want := map[string]struct{ active, french string }{
		"a": {"TRUE", ""},
		"b": {"FALSE", "fr-B"},
		"c": {"TRUE", "fr-C"},
		"d": {"TRUE", ""},
	}
	for _, r := range got {
		w := want[r.ID]
		if r.Active != w.active || r.Translations["French"] != w.french {
			t.Errorf("%v: active %q french %q, want %q %q", r.ID, r.Active, r.Translations["French"], w.active, w.french)
		}
	}
}

func TestSyncIdempotent(t *testing.T) {
	im, _ := setupImporter(t, config.StrategyRewrite)
	ctx := context.Background()
	d := doc(trans.Segment{ID: "a", Source: "A"}, trans.Segment{ID: "b", Source: "B", MaxWidth: 5})

	if _, err := im.Sync(ctx, d); err != nil {
		t.Fatal(err)
	}
	stats, err := im.Sync(ctx, d)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (trans.Stats{Unchanged: 2}) {
		t.Errorf("second sync stats = %+v", stats)
	}
}

func TestSyncErrors(t *testing.T) {
	im, _ := setupImporter(t, config.StrategyRewrite)
	ctx := context.Background()

	if _, err := im.Sync(ctx, doc()); !errors.Is(err, trans.ErrMalformedDocument) {
		t.Errorf("empty document: err = %v", err)
	}
	if _, err := im.SyncBytes(ctx, []byte(`<xliff><file source-language="de"><body><trans-unit id="a"><source>x</source></trans-unit></body></file></xliff>`)); !errors.Is(err, trans.ErrUnsupportedSourceLanguage) {
		t.Errorf("wrong source language: err = %v", err)
	}
}

func TestSyncStoreUnavailable(t *testing.T) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	c := testConfig(config.StrategyRewrite)
	ds, err := datastore.New(db, config.DbDriverSqlite3, c.Columns)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()
	reg, _ := language.New(c.Languages)

	_, err = New(ds, reg, c, zap.NewNop()).Sync(context.Background(), doc(trans.Segment{ID: "a", Source: "A"}))
	if !errors.Is(err, trans.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestImportDir(t *testing.T) {
	im, ds := setupImporter(t, config.StrategyTargeted)
	dir := t.TempDir()
	unit := func(id, src string) string {
		return `<trans-unit id="` + id + `"><source>` + src + `</source></trans-unit>`
	}
	file := func(units ...string) []byte {
		return []byte(`<xliff version="1.2"><file original="Salesforce" source-language="en_US" datatype="xml"><body>` +
			strings.Join(units, "") + `</body></file></xliff>`)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.xliff"), file(unit("x.1", "One")), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.xlf"), file(unit("x.2", "Two"), unit("x.3", "Three")), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	notify := make(chan string, 10)
	count, stats, err := im.ImportDir(context.Background(), dir, notify)
	if err != nil {
		t.Fatal(err)
	}
	close(notify)

	if count != 2 || stats.Added != 3 {
		t.Errorf("count %d stats %+v", count, stats)
	}
	var names []string
	for n := range notify {
		names = append(names, n)
	}
	if !reflect.DeepEqual(names, []string{"a.xliff", "b.xlf"}) {
		t.Errorf("notified %v", names)
	}
	recs, _ := ds.Records(context.Background())
	if len(recs) != 3 {
		t.Errorf("got %d records", len(recs))
	}

	if _, _, err := im.ImportDir(context.Background(), t.TempDir(), nil); !errors.Is(err, trans.ErrMalformedDocument) {
		t.Errorf("empty dir: err = %v", err)
	}
}
