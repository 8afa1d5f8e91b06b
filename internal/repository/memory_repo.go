package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/timmy/captionly/internal/domain"
)

type memoryEntry struct {
	seq    uint64
	record *domain.CaptionRecord
}

// MemoryCaptionStore keeps records in process memory. Records live until exit.
type MemoryCaptionStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	seq     uint64
	now     func() time.Time
}

// NewMemoryCaptionStore creates an empty in-memory store.
func NewMemoryCaptionStore() *MemoryCaptionStore {
	return &MemoryCaptionStore{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Create stores a new record under a fresh id.
func (s *MemoryCaptionStore) Create(ctx context.Context, in *domain.NewCaption) (*domain.CaptionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StorageError{Op: "create", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newRecord(in, s.now())
	for {
		if _, exists := s.records[rec.ID]; !exists {
			break
		}
		rec = newRecord(in, rec.CreatedAt)
	}
	s.seq++
	s.records[rec.ID] = memoryEntry{seq: s.seq, record: rec}

	return rec.Clone(), nil
}

// GetByID returns a copy of the record; domain.ErrNotFound when unknown.
func (s *MemoryCaptionStore) GetByID(ctx context.Context, id string) (*domain.CaptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entry.record.Clone(), nil
}

// ListRecent returns copies ordered by createdAt descending; insertion order breaks ties.
func (s *MemoryCaptionStore) ListRecent(ctx context.Context, limit int) ([]domain.CaptionRecord, error) {
	s.mu.RLock()
	entries := make([]memoryEntry, 0, len(s.records))
	for _, e := range s.records {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.After(b.record.CreatedAt)
		}
		return a.seq > b.seq
	})

	limit = clampLimit(limit)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]domain.CaptionRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.record.Clone())
	}
	return out, nil
}
