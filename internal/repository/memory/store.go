package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/repository"
)

// Store keeps every entity in process memory. Reads return copies so callers
// work on a stable snapshot. Lists come back in insertion order.
type Store struct {
	mu          sync.RWMutex
	seq         int64
	items       map[string]record[models.StockItem]
	entries     map[string]record[models.LedgerEntry]
	departments map[string]record[models.Department]
}

type record[T any] struct {
	seq   int64
	value T
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		items:       make(map[string]record[models.StockItem]),
		entries:     make(map[string]record[models.LedgerEntry]),
		departments: make(map[string]record[models.Department]),
	}
}

func (s *Store) GetStockItem(_ context.Context, id string) (models.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[id]
	if !ok {
		return models.StockItem{}, models.ErrNotFound
	}
	return rec.value, nil
}

func (s *Store) ListStockItems(_ context.Context, filter repository.StockFilter) ([]models.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.items, filter.Matches), nil
}

func (s *Store) SaveStockItem(_ context.Context, item models.StockItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.items, item.ID, item)
	return nil
}

func (s *Store) DeleteStockItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.items, id)
}

func (s *Store) GetLedgerEntry(_ context.Context, id string) (models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[id]
	if !ok {
		return models.LedgerEntry{}, models.ErrNotFound
	}
	return rec.value, nil
}

func (s *Store) ListLedgerEntries(_ context.Context, filter repository.EntryFilter) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.entries, filter.Matches), nil
}

func (s *Store) SaveLedgerEntry(_ context.Context, entry models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.entries, entry.ID, entry)
	return nil
}

func (s *Store) DeleteLedgerEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.entries, id)
}

func (s *Store) GetDepartment(_ context.Context, id string) (models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.departments[id]
	if !ok {
		return models.Department{}, models.ErrNotFound
	}
	return rec.value, nil
}

func (s *Store) ListDepartments(_ context.Context) ([]models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.departments, nil), nil
}

func (s *Store) SaveDepartment(_ context.Context, dept models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upsert(s, s.departments, dept.ID, dept)
	return nil
}

func (s *Store) DeleteDepartment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.departments, id)
}

// upsert keeps the original insertion position when a value is replaced.
func upsert[T any](s *Store, m map[string]record[T], id string, value T) {
	if existing, ok := m[id]; ok {
		m[id] = record[T]{seq: existing.seq, value: value}
		return
	}
	s.seq++
	m[id] = record[T]{seq: s.seq, value: value}
}

func remove[T any](m map[string]record[T], id string) error {
	if _, ok := m[id]; !ok {
		return models.ErrNotFound
	}
	delete(m, id)
	return nil
}

func collect[T any](m map[string]record[T], keep func(T) bool) []T {
	recs := make([]record[T], 0, len(m))
	for _, rec := range m {
		if keep != nil && !keep(rec.value) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]T, len(recs))
	for i, rec := range recs {
		out[i] = rec.value
	}
	return out
}
