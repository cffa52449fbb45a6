package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/RealZimboGuy/taskflow/internal/migrations"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenDatabase migrates and opens the database for dialect. dsn is the
// connection URL for POSTGRES and MYSQL and the file name for SQLITE.
func OpenDatabase(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case DialectPostgres:
		return openPostgres(dsn)
	case DialectMySQL:
		return openMySQL(dsn)
	case DialectSQLite:
		return openSQLite(dsn)
	}
	return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
}

func openPostgres(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, errors.New("TASKFLOW_DATABASE_URL must be set when using the POSTGRES storage type")
	}
	slog.Info("Running migrations", "dialect", DialectPostgres)
	if err := RunMigrations(DialectPostgres, dbURL); err != nil {
		return nil, fmt.Errorf("postgres migration failed: %w", err)
	}
	slog.Info("Opening Postgres database")
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := pingOrClose(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openMySQL(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, errors.New("TASKFLOW_DATABASE_URL must be set when using the MYSQL storage type")
	}
	if !strings.HasPrefix(dbURL, "mysql://") {
		return nil, errors.New("TASKFLOW_DATABASE_URL must start with 'mysql://' for MySQL")
	}
	slog.Info("Running migrations", "dialect", DialectMySQL)
	if err := RunMigrations(DialectMySQL, dbURL); err != nil {
		return nil, fmt.Errorf("mysql migration failed: %w", err)
	}
	slog.Info("Opening MySQL database")
	db, err := sql.Open("mysql", strings.TrimPrefix(dbURL, "mysql://"))
	if err != nil {
		return nil, err
	}
	if err := pingOrClose(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(fileName string) (*sql.DB, error) {
	if fileName == "" {
		return nil, errors.New("TASKFLOW_DATABASE_SQLITE_FILE_NAME must be set")
	}
	slog.Info("Running migrations", "dialect", DialectSQLite, "file", fileName)
	if err := RunMigrations(DialectSQLite, "sqlite3://"+fileName); err != nil {
		return nil, fmt.Errorf("sqlite migration failed: %w", err)
	}
	slog.Info("Opening SQLite database", "file", fileName)
	db, err := sql.Open("sqlite3", fileName)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers
	db.SetMaxOpenConns(1)
	if err := pingOrClose(db); err != nil {
		return nil, err
	}
	return db, nil
}

func pingOrClose(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	return nil
}

// RunMigrations applies the embedded migrations of dialect to dbURL.
func RunMigrations(dialect Dialect, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, dialect.migrationsPath())
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
