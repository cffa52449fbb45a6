package repository

import (
	"fmt"
	"time"

	"github.com/RealZimboGuy/taskflow/internal/config"
)

// Dialect is the SQL flavour of a database connection. The values match the
// TASKFLOW_STORAGE_TYPE settings.
type Dialect string

const (
	DialectSQLite   Dialect = config.STORAGE_TYPE_SQLITE
	DialectPostgres Dialect = config.STORAGE_TYPE_POSTGRES
	DialectMySQL    Dialect = config.STORAGE_TYPE_MYSQL
)

// placeholder returns the correct bind variable for the given index.
// Postgres uses $1, $2... while MySQL and SQLite use ?
func (d Dialect) placeholder(i int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// upsertQuery inserts or replaces one kv_store row.
func (d Dialect) upsertQuery() string {
	values := `(state_key, state_value, updated) VALUES (` +
		d.placeholder(1) + `, ` + d.placeholder(2) + `, ` + d.placeholder(3) + `)`
	if d == DialectMySQL {
		return `INSERT INTO kv_store ` + values + `
		ON DUPLICATE KEY UPDATE state_value = VALUES(state_value), updated = VALUES(updated)`
	}
	return `INSERT INTO kv_store ` + values + `
		ON CONFLICT (state_key) DO UPDATE SET state_value = excluded.state_value, updated = excluded.updated`
}

func (d Dialect) selectQuery() string {
	return `SELECT state_value FROM kv_store WHERE state_key = ` + d.placeholder(1)
}

// timestamp formats t the way the dialect stores its updated column.
func (d Dialect) timestamp(t time.Time) string {
	if d == DialectSQLite {
		return t.UTC().Format("2006-01-02 15:04:05.000")
	}
	return t.UTC().Format("2006-01-02 15:04:05.000000")
}

// migrationsPath is the directory of the embedded migrations for the dialect.
func (d Dialect) migrationsPath() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite3"
	}
}
