package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// SQLiteBacking implements Backing on a config_kv table. One row per
// (namespace, key); scalar words are stored as decimal text alongside a
// kind tag for inspection with the sqlite3 shell.
type SQLiteBacking struct {
	db *sql.DB
}

// NewSQLiteBacking wraps an open database handle. The config_kv table
// must already exist (created by migrations).
func NewSQLiteBacking(db *sql.DB) (*SQLiteBacking, error) {
	if db == nil {
		return nil, errors.New("persist: database is nil")
	}
	return &SQLiteBacking{db: db}, nil
}

// Ping verifies the database is reachable.
func (b *SQLiteBacking) Ping(ctx context.Context) error {
	var one int
	if err := b.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// GetWord reads a scalar value.
func (b *SQLiteBacking) GetWord(ctx context.Context, namespace, key string) (uint32, error) {
	raw, err := b.get(ctx, namespace, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("persist: %s/%s: corrupt value %q: %w", namespace, key, raw, err)
	}
	return uint32(v), nil
}

// SetWord writes a scalar value.
func (b *SQLiteBacking) SetWord(ctx context.Context, namespace, key string, value uint32) error {
	return b.set(ctx, namespace, key, "word", strconv.FormatUint(uint64(value), 10))
}

// GetString reads a string value.
func (b *SQLiteBacking) GetString(ctx context.Context, namespace, key string) (string, error) {
	return b.get(ctx, namespace, key)
}

// SetString writes a string value.
func (b *SQLiteBacking) SetString(ctx context.Context, namespace, key, value string) error {
	return b.set(ctx, namespace, key, "string", value)
}

func (b *SQLiteBacking) get(ctx context.Context, namespace, key string) (string, error) {
	var raw string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM config_kv WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, ErrKeyNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("persist: get %s/%s: %w", namespace, key, err)
	}
	return raw, nil
}

func (b *SQLiteBacking) set(ctx context.Context, namespace, key, kind, value string) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO config_kv (namespace, key, kind, value, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET
		   kind = excluded.kind,
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		namespace, key, kind, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("persist: set %s/%s: %w", namespace, key, err)
	}
	return nil
}
