package main

import (
	"context"
	"fmt"
	"github.com/petert82/go-translation-sync/config"
	"github.com/petert82/go-translation-sync/datastore"
	"github.com/petert82/go-translation-sync/exporter"
	"github.com/petert82/go-translation-sync/importer"
	"github.com/petert82/go-translation-sync/language"
	"github.com/petert82/go-translation-sync/logging"
	"github.com/petert82/go-translation-sync/server"
	"go.uber.org/zap"
	"os"
	"os/signal"
)

type env struct {
	store    datastore.Store
	registry *language.Registry
	logger   *zap.Logger
}

// setup opens the store and builds what every command needs from the config.
func setup(c config.Config) (e env, err error) {
	if e.logger, err = logging.New(c.Debug); err != nil {
		return e, err
	}
	if e.registry, err = language.New(c.Languages); err != nil {
		return e, err
	}
	if e.store, err = datastore.Open(c); err != nil {
		return e, err
	}
	return e, nil
}

// close logs the SQL store's timings, then releases the store and flushes the logger.
func (e env) close() {
	if ds, ok := e.store.(*datastore.DataStore); ok {
		e.logger.Debug("store timings", ds.Stats.Fields()...)
	}
	if e.store != nil {
		e.store.Close()
	}
	if e.logger != nil {
		e.logger.Sync()
	}
}

// initDb creates the database tables, then the fixed and language columns.
func initDb(c config.Config, args []string) error {
	e, err := setup(c)
	defer e.close()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if ds, ok := e.store.(*datastore.DataStore); ok {
		dbVersion, err := ds.MigrateUp()
		if err != nil {
			e.logger.Error("migration failed", zap.Int64("version", dbVersion), zap.Error(err))
			return fmt.Errorf("could not complete database migration, last applied version was %v: %w", dbVersion, err)
		}
		fmt.Println("Successfully migrated the database to version", dbVersion)
	}

	columns := append(c.Columns.Base(), e.registry.Names()...)
	for _, col := range columns {
		if err := e.store.AddColumn(ctx, col); err != nil {
			return err
		}
	}
	fmt.Println("Store has columns:", columns)
	return nil
}

// importXliff syncs the store with the file given as an argument, or with every XLIFF file in the
// configured import path.
func importXliff(c config.Config, args []string) error {
	e, err := setup(c)
	defer e.close()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	im := importer.New(e.store, e.registry, c, e.logger)

	if len(args) > 0 {
		stats, err := im.ImportFile(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %v: %+v\n", args[0], stats)
		printStoreStats(e.store)
		return nil
	}

	results := make(chan string, 100)
	done := make(chan bool, 1)

	go func() {
		for imported := range results {
			fmt.Println("Read file:", imported)
		}
		done <- true
	}()

	count, stats, err := im.ImportDir(ctx, c.XLIFF.ImportPath, results)
	close(results)
	<-done
	if err != nil {
		return err
	}

	fmt.Printf("Imported %v files: %+v\n", count, stats)
	printStoreStats(e.store)
	return nil
}

// printStoreStats prints how long the SQL store spent on each kind of action.
func printStoreStats(store datastore.Store) {
	if ds, ok := store.(*datastore.DataStore); ok {
		fmt.Print(ds.Stats.String())
	}
}

// exportXliff writes the language given as an argument, or every available language, to the
// configured export path.
func exportXliff(c config.Config, args []string) error {
	e, err := setup(c)
	defer e.close()
	if err != nil {
		return err
	}
	ctx := context.Background()

	ex := exporter.New(e.store, e.registry, c, e.logger)

	var outs []*exporter.Output
	if len(args) > 0 {
		path, out, err := ex.ExportToDir(ctx, args[0], c.XLIFF.ExportPath)
		if err != nil {
			return err
		}
		fmt.Println("Wrote", path)
		outs = append(outs, out)
	} else if outs, err = ex.ExportAll(ctx, c.XLIFF.ExportPath); err != nil {
		return err
	}

	for _, out := range outs {
		fmt.Printf("%v (%v): %v segments, %v too long\n", out.Language, out.Code, out.Segments, len(out.Violations))
		for _, v := range out.Violations {
			fmt.Printf("  %v: %q is longer than %v\n", v.ID, v.Value, v.MaxWidth)
		}
	}
	return nil
}

// listLanguages prints the languages that can be exported.
func listLanguages(c config.Config, args []string) error {
	e, err := setup(c)
	defer e.close()
	if err != nil {
		return err
	}

	langs, err := exporter.New(e.store, e.registry, c, e.logger).Available(context.Background())
	if err != nil {
		return err
	}
	for _, l := range langs {
		fmt.Printf("%v\t%v\n", l.Code, l.Name)
	}
	return nil
}

// serve starts the HTTP API.
func serve(c config.Config, args []string) error {
	e, err := setup(c)
	defer e.close()
	if err != nil {
		return err
	}

	s := server.New(
		e.store,
		importer.New(e.store, e.registry, c, e.logger),
		exporter.New(e.store, e.registry, c, e.logger),
		e.logger,
	)
	return s.Serve(c.Server.Port)
}
