package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	record JSONB NOT NULL
)`

// PostgresStore is the durable Store implementation, keeping each record as a
// JSONB document keyed by job ID.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the jobs table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("jobs: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createJobsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("jobs: ensure jobs table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Get returns the record for id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM jobs WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("jobs: query record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("jobs: decode record: %w", err)
	}
	return &rec, nil
}

// Put stores a new record, stamping timestamps.
func (s *PostgresStore) Put(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("jobs: encode record: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, record) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record`,
		rec.ID, data)
	if err != nil {
		return fmt.Errorf("jobs: insert record: %w", err)
	}
	return nil
}

// Update applies patch to the record for id and persists the result.
func (s *PostgresStore) Update(ctx context.Context, id string, patch func(*Record)) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch(rec)
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode record: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `UPDATE jobs SET record = $2 WHERE id = $1`, id, data); err != nil {
		return nil, fmt.Errorf("jobs: update record: %w", err)
	}
	return rec, nil
}

var _ Store = (*PostgresStore)(nil)
