package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
)

// Migration is one schema version. Down reverts exactly what Up applied.
type Migration struct {
	Up   string
	Down string
}

// ensureVersionTable creates the single-row schema_migrations table, starting at version 0.
func ensureVersionTable(db *sqlx.DB, a Adapter) error {
	if _, err := db.Exec(a.VersionTableQuery()); err != nil {
		return err
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		return err
	}
	switch {
	case count == 0:
		_, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES (0)`)
		return err
	case count > 1:
		return errors.New("too many rows in schema_migrations table")
	}
	return nil
}

func schemaVersion(db *sqlx.DB) (version int64, err error) {
	err = db.Get(&version, `SELECT version FROM schema_migrations`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

// step runs query and records the new version in one transaction.
func step(db *sqlx.DB, a Adapter, query string, to int64) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec(query); err != nil {
		return fmt.Errorf("migrating to version %v: %w", to, err)
	}
	if _, err = tx.Exec(a.UpdateVersionQuery(), to); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateUp applies every migration newer than the current version and returns the version
// reached.
func migrateUp(db *sqlx.DB, a Adapter) (version int64, err error) {
	if err = ensureVersionTable(db, a); err != nil {
		return 0, err
	}
	if version, err = schemaVersion(db); err != nil {
		return 0, err
	}

	for i, m := range a.Migrations() {
		to := int64(i + 1)
		if to <= version {
			continue
		}
		if err = step(db, a, m.Up, to); err != nil {
			return version, err
		}
		version = to
	}
	return version, nil
}

// migrateDown reverts every applied migration, newest first.
func migrateDown(db *sqlx.DB, a Adapter) (version int64, err error) {
	if err = ensureVersionTable(db, a); err != nil {
		return 0, err
	}
	if version, err = schemaVersion(db); err != nil {
		return 0, err
	}

	migrations := a.Migrations()
	for i := len(migrations) - 1; i >= 0; i-- {
		// Skip migrations for newer versions
		if int64(i+1) > version {
			continue
		}
		if err = step(db, a, migrations[i].Down, int64(i)); err != nil {
			return version, err
		}
		version = int64(i)
	}
	return version, nil
}
