package datastore

import (
	"github.com/jmoiron/sqlx"
)

// PostgresAdapter provides support for PostgreSQL databases.
type PostgresAdapter struct{}

func (a PostgresAdapter) VersionTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (version integer PRIMARY KEY NOT NULL)`
}

func (a PostgresAdapter) UpdateVersionQuery() string {
	return `UPDATE schema_migrations SET version = $1`
}

func (a PostgresAdapter) PostCreate(db *sqlx.DB) (err error) {
	return nil
}

func (a PostgresAdapter) Migrations() []Migration {
	return []Migration{
		{
			Up: `
CREATE TABLE sheet_column (
    id SERIAL PRIMARY KEY,
    name varchar NOT NULL UNIQUE,
    position integer NOT NULL
);
CREATE TABLE record (
    id SERIAL PRIMARY KEY,
    name varchar NOT NULL UNIQUE,
    position integer NOT NULL
);
CREATE INDEX record_position_idx ON record (position);
CREATE TABLE cell (
    record_id integer NOT NULL REFERENCES record(id) ON DELETE CASCADE ON UPDATE CASCADE,
    column_name varchar NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (record_id, column_name)
);`,
			Down: `
DROP TABLE IF EXISTS cell;
DROP TABLE IF EXISTS record;
DROP TABLE IF EXISTS sheet_column;`,
		},
		{
			Up:   `CREATE INDEX cell_column_name_idx ON cell (column_name);`,
			Down: `DROP INDEX IF EXISTS cell_column_name_idx;`,
		},
	}
}

func (a PostgresAdapter) SupportsLastInsertId() bool {
	return false
}

func (a PostgresAdapter) CreateColumnQuery() string {
	return `INSERT INTO sheet_column (name, position) VALUES ($1, $2);`
}

func (a PostgresAdapter) CreateRecordQuery() string {
	return `INSERT INTO record (name, position) VALUES ($1, $2) RETURNING id;`
}

func (a PostgresAdapter) CreateCellQuery() string {
	return `INSERT INTO cell (record_id, column_name, value) VALUES ($1, $2, $3);`
}

func (a PostgresAdapter) DeleteAllCellsQuery() string {
	return `DELETE FROM cell;`
}

func (a PostgresAdapter) DeleteAllRecordsQuery() string {
	return `DELETE FROM record;`
}

func (a PostgresAdapter) DeleteRecordCellsQuery() string {
	return `DELETE FROM cell WHERE record_id = $1;`
}

func (a PostgresAdapter) GetAllColumnsQuery() string {
	return `SELECT name FROM sheet_column ORDER BY position;`
}

func (a PostgresAdapter) GetAllRecordsQuery() string {
	return `SELECT id, name FROM record ORDER BY position;`
}

func (a PostgresAdapter) GetAllCellsQuery() string {
	return `SELECT record_id, column_name, value FROM cell;`
}

func (a PostgresAdapter) GetMaxColumnPositionQuery() string {
	return `SELECT MAX(position) FROM sheet_column;`
}

func (a PostgresAdapter) GetMaxRecordPositionQuery() string {
	return `SELECT MAX(position) FROM record;`
}

func (a PostgresAdapter) GetSingleRecordIdQuery() string {
	return `SELECT id FROM record WHERE name = $1;`
}
