/*
Package importer syncs the store with incoming XLIFF documents.

A sync reads the whole store, works out the next state with package reconcile and writes it back
using the configured strategy: a rewrite of the whole table, or targeted writes of only the rows
that changed.
*/
package importer

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/petert82/go-translation-sync/config"
	"github.com/petert82/go-translation-sync/datastore"
	"github.com/petert82/go-translation-sync/language"
	"github.com/petert82/go-translation-sync/logging"
	"github.com/petert82/go-translation-sync/reconcile"
	"github.com/petert82/go-translation-sync/trans"
	"github.com/petert82/go-translation-sync/xliff"
	"go.uber.org/zap"
	"path/filepath"
	"sort"
	"time"
)

type Importer struct {
	store          datastore.Store
	columns        trans.Columns
	registry       *language.Registry
	strategy       string
	sourceLanguage string
	logger         *zap.Logger
}

func New(store datastore.Store, registry *language.Registry, c config.Config, logger *zap.Logger) *Importer {
	return &Importer{
		store:          store,
		columns:        c.Columns,
		registry:       registry,
		strategy:       c.Sync.Strategy,
		sourceLanguage: c.XLIFF.SourceLanguage,
		logger:         logger,
	}
}

// Sync brings the store in line with the segments of doc.
func (im *Importer) Sync(ctx context.Context, doc *xliff.Document) (stats trans.Stats, err error) {
	if len(doc.Segments) == 0 {
		return stats, fmt.Errorf("%w: document has no segments", trans.ErrMalformedDocument)
	}

	start := time.Now()
	logger := im.logger.With(zap.String("run", uuid.NewString()), zap.String("strategy", im.strategy))
	logger.Debug("sync started", zap.Int("segments", len(doc.Segments)))

	columns, err := im.store.Columns(ctx)
	if err != nil {
		logger.Error("reading columns failed", zap.Error(err))
		return stats, err
	}
	initialise := len(columns) == 0
	if initialise {
		columns = append(im.columns.Base(), im.registry.Names()...)
		logger.Info("initialising empty store", zap.Strings("columns", columns))
	} else if missing := im.columns.Missing(columns); len(missing) > 0 {
		logger.Warn("store is missing fixed columns, adding them", zap.Strings("columns", missing))
		columns = append(columns, missing...)
		initialise = true
	}

	records, err := im.store.Records(ctx)
	if err != nil {
		logger.Error("reading records failed", zap.Error(err))
		return stats, err
	}

	res := reconcile.Reconcile(doc.Segments, records, im.columns.LanguageColumns(columns))

	if len(res.Changes) > 0 || initialise {
		if err = im.write(ctx, columns, res); err != nil {
			logger.Error("writing records failed", zap.Error(err))
			return stats, err
		}
	}

	logger.Info("sync finished", append(logging.Stats(res.Stats),
		zap.Int("records", len(res.Records)),
		zap.Duration("took", time.Since(start)))...)

	return res.Stats, nil
}

func (im *Importer) write(ctx context.Context, columns []string, res reconcile.Result) error {
	if im.strategy != config.StrategyTargeted {
		return im.store.ReplaceAll(ctx, columns, res.Records)
	}

	changed, added := res.Changed(), res.Added()
	if len(changed) > 0 {
		if err := im.store.ApplyUpdates(ctx, columns, changed); err != nil {
			return err
		}
	}
	if len(added) > 0 {
		return im.store.AppendRecords(ctx, columns, added)
	}
	if len(changed) == 0 {
		// Nothing to write but the header of a store that was empty or lacked columns.
		for _, c := range columns {
			if err := im.store.AddColumn(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncBytes extracts an XLIFF document from data and syncs it.
func (im *Importer) SyncBytes(ctx context.Context, data []byte) (trans.Stats, error) {
	doc, err := xliff.Extract(data, im.sourceLanguage)
	if err != nil {
		return trans.Stats{}, err
	}
	return im.Sync(ctx, doc)
}

// ImportFile syncs the XLIFF file at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (trans.Stats, error) {
	doc, err := xliff.NewFromFile(path, im.sourceLanguage)
	if err != nil {
		return trans.Stats{}, err
	}
	return im.Sync(ctx, doc)
}

// ImportDir syncs the .xliff and .xlf files in dir as a single document, so a segment only has to
// appear in one of them to stay live. Each file's name is sent to notify once it has been read.
func (im *Importer) ImportDir(ctx context.Context, dir string, notify chan<- string) (count int, stats trans.Stats, err error) {
	var files []string
	for _, pattern := range []string{"*.xliff", "*.xlf"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, stats, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return 0, stats, fmt.Errorf("%w: no .xliff or .xlf files in '%v'", trans.ErrMalformedDocument, dir)
	}

	combined := &xliff.Document{}
	for i, file := range files {
		doc, err := xliff.NewFromFile(file, im.sourceLanguage)
		if err != nil {
			return i, stats, err
		}
		combined.SourceLanguage = doc.SourceLanguage
		combined.Segments = append(combined.Segments, doc.Segments...)

		if notify != nil {
			notify <- filepath.Base(file)
		}
	}

	stats, err = im.Sync(ctx, combined)
	return len(files), stats, err
}
