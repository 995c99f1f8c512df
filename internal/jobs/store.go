// Package jobs tracks generation job records. The store is injected wherever
// records are read or written; there is no ambient global registry.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned when no record exists for an ID.
var ErrNotFound = errors.New("jobs: record not found")

// Record is one tracked job.
type Record struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Images    []string  `json:"images"`
	Error     string    `json:"error,omitempty"`
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store persists job records.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Update(ctx context.Context, id string, patch func(*Record)) (*Record, error)
}

// MemoryStore keeps records in memory, optionally mirrored to flat JSON files
// so records survive a restart. A record missing from memory is looked up on
// disk and cached back.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	dir     string
}

// NewMemoryStore builds a MemoryStore. An empty dir disables the file mirror.
func NewMemoryStore(dir string) (*MemoryStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("jobs: ensure jobs dir: %w", err)
		}
	}
	return &MemoryStore{records: make(map[string]*Record), dir: dir}, nil
}

// Get returns the record for id, consulting the file mirror on a memory miss.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if ok {
		return cloneRecord(rec), nil
	}

	if s.dir == "" {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("jobs: read record: %w", err)
	}
	var loaded Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("jobs: decode record: %w", err)
	}

	s.mu.Lock()
	s.records[id] = &loaded
	s.mu.Unlock()
	return cloneRecord(&loaded), nil
}

// Put stores a new record, stamping timestamps.
func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored := cloneRecord(rec)
	s.mu.Lock()
	s.records[rec.ID] = stored
	s.mu.Unlock()

	return s.mirror(stored)
}

// Update applies patch to the record for id and persists the result.
func (s *MemoryStore) Update(ctx context.Context, id string, patch func(*Record)) (*Record, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	patch(rec)
	rec.UpdatedAt = time.Now().UTC()
	updated := cloneRecord(rec)
	s.mu.Unlock()

	if err := s.mirror(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MemoryStore) mirror(rec *Record) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("jobs: encode record: %w", err)
	}
	if err := os.WriteFile(s.filePath(rec.ID), data, 0o644); err != nil {
		return fmt.Errorf("jobs: write record: %w", err)
	}
	return nil
}

func (s *MemoryStore) filePath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	out.Images = append([]string(nil), rec.Images...)
	return &out
}

var _ Store = (*MemoryStore)(nil)
