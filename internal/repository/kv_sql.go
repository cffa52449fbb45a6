package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
)

// ErrKeyNotFound is returned by every store for keys that were never written.
var ErrKeyNotFound = engine.ErrKeyNotFound

// SQLKeyValueStore keeps each key as one row of the kv_store table.
type SQLKeyValueStore struct {
	db      *sql.DB
	dialect Dialect
	clock   core.Clock
}

func NewSQLKeyValueStore(db *sql.DB, dialect Dialect, clock core.Clock) *SQLKeyValueStore {
	if clock == nil {
		clock = core.NewRealClock()
	}
	return &SQLKeyValueStore{db: db, dialect: dialect, clock: clock}
}

func (s *SQLKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.selectQuery(), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLKeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsertQuery(), key, string(value), s.dialect.timestamp(s.clock.Now()))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLKeyValueStore) Close() error {
	return s.db.Close()
}
