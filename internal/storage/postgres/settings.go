package postgres

import (
	"context"
	"encoding/json"
	"fmt"
)

// SettingsStore keeps moderator settings as one JSONB value per (namespace, name).
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore { return &SettingsStore{db: db} }

// GetAll returns every stored setting in namespace. Numbers decode as float64.
func (s *SettingsStore) GetAll(ctx context.Context, namespace string) (map[string]any, error) {
	rows, err := s.db.Pool.Query(ctx, "SELECT name, value FROM automation_settings WHERE namespace=$1", namespace)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode setting %s: %w", name, err)
		}
		out[name] = v
	}
	return out, rows.Err()
}

// PutAll replaces namespace's settings atomically.
func (s *SettingsStore) PutAll(ctx context.Context, namespace string, values map[string]any) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM automation_settings WHERE namespace=$1", namespace); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	for name, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode setting %s: %w", name, err)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO automation_settings (namespace, name, value, updated_at) VALUES ($1, $2, $3::jsonb, now())",
			namespace, name, string(b))
		if err != nil {
			return fmt.Errorf("insert setting %s: %w", name, err)
		}
	}
	return tx.Commit(ctx)
}
