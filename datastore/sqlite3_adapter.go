package datastore

import (
	"github.com/jmoiron/sqlx"
)

// Sqlite3Adapter provides support for SQLite3 databases.
type Sqlite3Adapter struct{}

func (s Sqlite3Adapter) VersionTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS "schema_migrations" ("version" INTEGER PRIMARY KEY NOT NULL)`
}

func (s Sqlite3Adapter) UpdateVersionQuery() string {
	return "UPDATE schema_migrations SET version = ?"
}

func (s Sqlite3Adapter) PostCreate(db *sqlx.DB) (err error) {
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return err
	}
	// Faster than using default journal file
	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return err
	}
	// Default (full) is slower
	_, err = db.Exec("PRAGMA synchronous = NORMAL")
	if err != nil {
		return err
	}

	return nil
}

func (s Sqlite3Adapter) Migrations() []Migration {
	return []Migration{
		{
			Up: `
CREATE TABLE "sheet_column" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "name" TEXT NOT NULL UNIQUE,
    "position" INTEGER NOT NULL
);
CREATE TABLE "record" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "name" TEXT NOT NULL UNIQUE,
    "position" INTEGER NOT NULL
);
CREATE INDEX "record_position" ON "record" ("position");
CREATE TABLE "cell" (
    "record_id" INTEGER NOT NULL REFERENCES "record"("id") ON UPDATE CASCADE ON DELETE CASCADE,
    "column_name" TEXT NOT NULL,
    "value" TEXT NOT NULL DEFAULT '',
    PRIMARY KEY ("record_id", "column_name")
);`,
			Down: `
DROP TABLE "cell";
DROP TABLE "record";
DROP TABLE "sheet_column";`,
		},
		{
			Up:   `CREATE INDEX "cell_column_name" ON "cell" ("column_name")`,
			Down: `DROP INDEX "cell_column_name"`,
		},
	}
}

func (s Sqlite3Adapter) SupportsLastInsertId() bool {
	return true
}

func (s Sqlite3Adapter) CreateColumnQuery() string {
	return "INSERT INTO sheet_column (name, position) VALUES (?, ?)"
}

func (s Sqlite3Adapter) CreateRecordQuery() string {
	return "INSERT INTO record (name, position) VALUES (?, ?)"
}

func (s Sqlite3Adapter) CreateCellQuery() string {
	return "INSERT INTO cell (record_id, column_name, value) VALUES (?, ?, ?)"
}

func (s Sqlite3Adapter) DeleteAllCellsQuery() string {
	return "DELETE FROM cell"
}

func (s Sqlite3Adapter) DeleteAllRecordsQuery() string {
	return "DELETE FROM record"
}

func (s Sqlite3Adapter) DeleteRecordCellsQuery() string {
	return "DELETE FROM cell WHERE record_id = ?"
}

func (s Sqlite3Adapter) GetAllColumnsQuery() string {
	return "SELECT name FROM sheet_column ORDER BY position"
}

func (s Sqlite3Adapter) GetAllRecordsQuery() string {
	return "SELECT id, name FROM record ORDER BY position"
}

func (s Sqlite3Adapter) GetAllCellsQuery() string {
	return "SELECT record_id, column_name, value FROM cell"
}

func (s Sqlite3Adapter) GetMaxColumnPositionQuery() string {
	return "SELECT MAX(position) FROM sheet_column"
}

func (s Sqlite3Adapter) GetMaxRecordPositionQuery() string {
	return "SELECT MAX(position) FROM record"
}

func (s Sqlite3Adapter) GetSingleRecordIdQuery() string {
	return "SELECT id FROM record WHERE name = ?"
}
