// Package storage persists the last successfully fetched datasets in a
// local sqlite database. Each dataset is stored as one row holding the
// whole list; a refresh replaces the row, never merges into it.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shopledger/internal/core"

	_ "modernc.org/sqlite"
)

const (
	datasetUsers        = "users"
	datasetTransactions = "transactions"
)

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SnapshotStore) save(ctx context.Context, dataset string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", dataset, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (dataset, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (dataset) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		dataset, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store %s snapshot: %w", dataset, err)
	}
	return nil
}

func (s *SnapshotStore) load(ctx context.Context, dataset string, out any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE dataset = ?`, dataset).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s snapshot: %w", dataset, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", dataset, err)
	}
	return nil
}

func (s *SnapshotStore) SaveUsers(ctx context.Context, users []core.User) error {
	return s.save(ctx, datasetUsers, users)
}

func (s *SnapshotStore) LoadUsers(ctx context.Context) ([]core.User, error) {
	var users []core.User
	if err := s.load(ctx, datasetUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *SnapshotStore) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	return s.save(ctx, datasetTransactions, txs)
}

func (s *SnapshotStore) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := s.load(ctx, datasetTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
