package storage

import (
	"cafeteria-pass/common/contract"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// PostgresStorage persists values in a single client_state table, upserting
// by key. Schema:
//
//	CREATE TABLE IF NOT EXISTS client_state (
//	    key   TEXT PRIMARY KEY,
//	    value TEXT NOT NULL
//	);
type PostgresStorage struct {
	Db contract.DbConn
}

func NewPostgresStorage(db contract.DbConn) *PostgresStorage {
	return &PostgresStorage{Db: db}
}

func (s *PostgresStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.Db.QueryRow(ctx, `SELECT value FROM client_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

func (s *PostgresStorage) Set(ctx context.Context, key string, value string) error {
	_, err := s.Db.Exec(ctx,
		`INSERT INTO client_state (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	return err
}

func (s *PostgresStorage) Remove(ctx context.Context, key string) error {
	_, err := s.Db.Exec(ctx, `DELETE FROM client_state WHERE key = $1`, key)
	return err
}
