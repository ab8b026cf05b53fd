package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
//
// A single RWMutex covers both indexes, the ordered ID list and the ID
// counter, so every mutation is observed either entirely or not at all.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]model.Item
	slugs  map[string]int64
	order  []int64 // live IDs, ascending
	nextID int64
	now    func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:  make(map[int64]model.Item),
		slugs:  make(map[string]int64),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a new item to the store and returns the created item with generated ID.
func (s *MemoryStore) Create(_ context.Context, input model.CreateItemInput) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[input.Slug]; taken {
		return nil, fmt.Errorf("create item with slug %q: %w", input.Slug, ErrAlreadyExists)
	}

	now := s.now()
	item := model.Item{
		ID:        s.nextID,
		Name:      input.Name,
		Slug:      input.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Description != nil {
		item.Description = model.StringPtr(*input.Description)
	}

	s.items[item.ID] = item
	s.slugs[item.Slug] = item.ID
	s.order = append(s.order, item.ID)
	s.nextID++

	out := item.Clone()
	return &out, nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(_ context.Context, id int64) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	out := item.Clone()
	return &out, nil
}

// GetBySlug retrieves an item by its slug.
func (s *MemoryStore) GetBySlug(_ context.Context, slug string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.slugs[slug]
	if !exists {
		return nil, ErrNotFound
	}

	out := s.items[id].Clone()
	return &out, nil
}

// List returns a page of items in creation order. Out-of-range windows
// yield an empty, non-nil slice.
func (s *MemoryStore) List(_ context.Context, skip, limit int) ([]model.Item, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPagination
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if skip >= len(s.order) || limit == 0 {
		return []model.Item{}, nil
	}

	end := len(s.order)
	if limit < end-skip {
		end = skip + limit
	}

	items := make([]model.Item, 0, end-skip)
	for _, id := range s.order[skip:end] {
		items = append(items, s.items[id].Clone())
	}

	return items, nil
}

// Count returns the number of live items.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items), nil
}

// Update modifies the provided fields of an existing item in the store.
func (s *MemoryStore) Update(_ context.Context, id int64, input model.UpdateItemInput) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = model.StringPtr(*input.Description)
	}

	// UpdatedAt must move forward even if the clock has not ticked.
	now := s.now()
	if !now.After(item.UpdatedAt) {
		now = item.UpdatedAt.Add(time.Nanosecond)
	}
	item.UpdatedAt = now

	s.items[id] = item

	out := item.Clone()
	return &out, nil
}

// Delete removes an item from the store by its ID.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return ErrNotFound
	}

	delete(s.items, id)
	delete(s.slugs, item.Slug)
	if i, found := slices.BinarySearch(s.order, id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}

	return nil
}
