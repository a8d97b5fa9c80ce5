package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-memoize/cache"
)

// Record is a persisted cache entry.
type Record struct {
	bun.BaseModel `bun:"table:memo_entries"`

	Namespace string `bun:"namespace,pk"`
	CacheKey  string `bun:"cache_key,pk"`
	Payload   []byte `bun:"payload,notnull"`
	StoredAt  int64  `bun:"stored_at,notnull"`
}

// BunStore implements cache.Backend over a bun database handle.
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps an existing bun handle. The caller keeps ownership of
// the handle and its lifecycle.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// NewSQLiteStore opens a SQLite database at dsn and returns a store over it.
// Use ":memory:" for an ephemeral database.
func NewSQLiteStore(dsn string) (*BunStore, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return &BunStore{db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

// NewPostgresStore connects to Postgres at dsn and returns a store over it.
func NewPostgresStore(dsn string) (*BunStore, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &BunStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the backing table when it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Persist implements cache.Backend. An existing (namespace, key) row is
// overwritten with the new payload and timestamp.
func (s *BunStore) Persist(ctx context.Context, namespace, key string, value any, storedAt time.Time) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	record := &Record{
		Namespace: namespace,
		CacheKey:  key,
		Payload:   payload,
		StoredAt:  storedAt.UnixMilli(),
	}

	_, err = s.db.NewInsert().
		Model(record).
		On("CONFLICT (namespace, cache_key) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("stored_at = EXCLUDED.stored_at").
		Exec(ctx)
	return err
}

// TryRead implements cache.Backend.
func (s *BunStore) TryRead(ctx context.Context, namespace, key string) (any, time.Time, bool, error) {
	record := new(Record)
	err := s.db.NewSelect().
		Model(record).
		Where("namespace = ?", namespace).
		Where("cache_key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}

	var value any
	if err := msgpack.Unmarshal(record.Payload, &value); err != nil {
		return nil, time.Time{}, false, err
	}
	return value, time.UnixMilli(record.StoredAt), true, nil
}

// Remove implements cache.Backend. Removing an absent row is not an error.
func (s *BunStore) Remove(ctx context.Context, namespace, key string) error {
	_, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("namespace = ?", namespace).
		Where("cache_key = ?", key).
		Exec(ctx)
	return err
}

// Close releases the underlying database handle.
func (s *BunStore) Close() error {
	return s.db.Close()
}

var _ cache.Backend = (*BunStore)(nil)
