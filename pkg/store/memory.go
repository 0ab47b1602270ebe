package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps collections in process memory. It backs tests and the
// "memory" backend of local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[string][]Record
	nextID map[string]int64
}

// NewMemoryStore returns an empty store knowing the storefront collections
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		rows:   make(map[string][]Record),
		nextID: make(map[string]int64),
	}
	for name := range schema {
		s.rows[name] = nil
		s.nextID[name] = 1
	}
	return s
}

func (s *MemoryStore) Fetch(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.rows[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}

	matched := make([]Record, 0, len(rows))
	for _, row := range rows {
		if matches(row, q.Filter) {
			matched = append(matched, row.Clone())
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, _ := matched[i].Lookup(q.OrderBy)
			b, _ := matched[j].Lookup(q.OrderBy)
			c := compareValues(a, b)
			if c == 0 {
				c = compareValues(matched[i].ID(), matched[j].ID())
			}
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []Record{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// matches compares through Lookup so rows imported under drifted field
// names still filter by their canonical name.
func matches(row Record, filter map[string]any) bool {
	for field, want := range filter {
		got, ok := row.Lookup(field)
		if !ok || compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func (s *MemoryStore) FetchOne(ctx context.Context, collection string, id int64) (Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, err := s.indexOf(collection, id)
	if err != nil {
		return nil, err
	}
	return s.rows[collection][i].Clone(), nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[collection]; !ok {
		return nil, ErrUnknownCollection
	}

	row := rec.Clone()
	row["id"] = s.nextID[collection]
	s.nextID[collection]++
	s.rows[collection] = append(s.rows[collection], row)
	return row.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection string, id int64, partial Record) (Record, error) {
	return s.UpdateIf(ctx, collection, id, nil, partial)
}

func (s *MemoryStore) UpdateIf(ctx context.Context, collection string, id int64, expect, partial Record) (Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(collection, id)
	if err != nil {
		return nil, err
	}
	if !matches(s.rows[collection][i], expect) {
		return nil, ErrConflict
	}
	row := s.rows[collection][i].Clone()
	for k, v := range partial {
		if k == "id" {
			continue
		}
		row[k] = v
	}
	s.rows[collection][i] = row
	return row.Clone(), nil
}

func (s *MemoryStore) Remove(ctx context.Context, collection string, id int64) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(collection, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	rows := s.rows[collection]
	s.rows[collection] = append(rows[:i:i], rows[i+1:]...)
	return true, nil
}

// checkContext reports a finished context the way PostgresStore does.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *MemoryStore) indexOf(collection string, id int64) (int, error) {
	rows, ok := s.rows[collection]
	if !ok {
		return -1, ErrUnknownCollection
	}
	for i, row := range rows {
		if row.ID() == id {
			return i, nil
		}
	}
	return -1, ErrNotFound
}
