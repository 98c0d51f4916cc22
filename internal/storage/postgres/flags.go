package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// FlagStore keeps idempotency flags in Postgres for deployments without Redis.
// Expired rows are ignored on read and overwritten on write.
type FlagStore struct {
	db *DB
}

func NewFlagStore(db *DB) *FlagStore { return &FlagStore{db: db} }

func (s *FlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.Pool.QueryRow(ctx,
		"SELECT value FROM idempotency_flags WHERE key=$1 AND expires_at > now()", key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get flag: %w", err)
	}
	return v, true, nil
}

func (s *FlagStore) Set(ctx context.Context, key, value string, expireAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO idempotency_flags (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, expireAt)
	if err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	return nil
}

// PurgeExpired deletes flags whose expiry has passed.
func (s *FlagStore) PurgeExpired(ctx context.Context) (int64, error) {
	ct, err := s.db.Pool.Exec(ctx, "DELETE FROM idempotency_flags WHERE expires_at <= now()")
	if err != nil {
		return 0, fmt.Errorf("purge flags: %w", err)
	}
	return ct.RowsAffected(), nil
}
