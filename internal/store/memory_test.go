package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

func TestNewMemoryStore(t *testing.T) {
	// Act
	store := NewMemoryStore()

	// Assert
	if store == nil {
		t.Fatal("NewMemoryStore() returned nil")
	}
	if store.items == nil {
		t.Error("items map should be initialized")
	}
	if store.slugs == nil {
		t.Error("slugs map should be initialized")
	}
	if store.nextID != 1 {
		t.Errorf("nextID = %d, want 1", store.nextID)
	}
}

func TestMemoryStore_Create(t *testing.T) {
	tests := []struct {
		name  string
		input model.CreateItemInput
	}{
		{
			name:  "without description",
			input: model.CreateItemInput{Name: "Test Item", Slug: "test-item"},
		},
		{
			name: "with description",
			input: model.CreateItemInput{
				Name:        "Test Item",
				Slug:        "test-item",
				Description: model.StringPtr("A test description"),
			},
		},
		{
			name: "with empty description",
			input: model.CreateItemInput{
				Name:        "Test Item",
				Slug:        "test-item",
				Description: model.StringPtr(""),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := NewMemoryStore()
			ctx := context.Background()

			// Act
			created, err := store.Create(ctx, tt.input)

			// Assert
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if created.ID != 1 {
				t.Errorf("ID = %d, want 1", created.ID)
			}
			if created.Name != tt.input.Name {
				t.Errorf("Name = %s, want %s", created.Name, tt.input.Name)
			}
			if created.Slug != tt.input.Slug {
				t.Errorf("Slug = %s, want %s", created.Slug, tt.input.Slug)
			}
			switch {
			case tt.input.Description == nil && created.Description != nil:
				t.Errorf("Description = %q, want nil", *created.Description)
			case tt.input.Description != nil && (created.Description == nil || *created.Description != *tt.input.Description):
				t.Errorf("Description = %v, want %q", created.Description, *tt.input.Description)
			}
			if created.CreatedAt.IsZero() {
				t.Error("CreatedAt should be set")
			}
			if !created.UpdatedAt.Equal(created.CreatedAt) {
				t.Error("CreatedAt and UpdatedAt should be equal on creation")
			}
		})
	}
}

func TestMemoryStore_Create_DuplicateSlug(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Create(ctx, model.CreateItemInput{Name: "Test Item", Slug: "test-item"})

	// Act
	created, err := store.Create(ctx, model.CreateItemInput{Name: "Other", Slug: "test-item"})

	// Assert
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Create() error = %v, want %v", err, ErrAlreadyExists)
	}
	if created != nil {
		t.Error("Create() should return nil item on conflict")
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestMemoryStore_Create_DoesNotAliasInput(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	desc := "original"

	// Act
	created, _ := store.Create(ctx, model.CreateItemInput{Name: "A", Slug: "a", Description: &desc})
	desc = "mutated by caller"
	*created.Description = "mutated through result"

	// Assert
	got, _ := store.Get(ctx, created.ID)
	if *got.Description != "original" {
		t.Errorf("stored Description = %q, want %q", *got.Description, "original")
	}
}

func TestMemoryStore_Get(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	created, _ := store.Create(ctx, model.CreateItemInput{Name: "Test", Slug: "test"})

	tests := []struct {
		name    string
		id      int64
		wantErr error
	}{
		{name: "existing item", id: created.ID},
		{name: "non-existing item", id: 999, wantErr: ErrNotFound},
		{name: "zero id", id: 0, wantErr: ErrNotFound},
		{name: "negative id", id: -1, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := store.Get(ctx, tt.id)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() unexpected error: %v", err)
			}
			if got.ID != created.ID {
				t.Errorf("ID = %d, want %d", got.ID, created.ID)
			}
			if got.Name != created.Name {
				t.Errorf("Name = %s, want %s", got.Name, created.Name)
			}
		})
	}
}

func TestMemoryStore_GetBySlug(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	created, _ := store.Create(ctx, model.CreateItemInput{Name: "Test", Slug: "test-slug"})

	tests := []struct {
		name    string
		slug    string
		wantErr error
	}{
		{name: "existing slug", slug: "test-slug"},
		{name: "non-existing slug", slug: "nonexistent", wantErr: ErrNotFound},
		{name: "case sensitive", slug: "Test-Slug", wantErr: ErrNotFound},
		{name: "empty slug", slug: "", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetBySlug(ctx, tt.slug)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetBySlug() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetBySlug() unexpected error: %v", err)
			}
			if got.ID != created.ID {
				t.Errorf("ID = %d, want %d", got.ID, created.ID)
			}
		})
	}
}

func TestMemoryStore_List(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		skip      int
		limit     int
		wantNames []string
	}{
		{name: "empty store", count: 0, skip: 0, limit: 100, wantNames: []string{}},
		{name: "all items", count: 3, skip: 0, limit: 100, wantNames: []string{"Item 0", "Item 1", "Item 2"}},
		{name: "skip and limit", count: 10, skip: 2, limit: 3, wantNames: []string{"Item 2", "Item 3", "Item 4"}},
		{name: "limit past end", count: 3, skip: 1, limit: 10, wantNames: []string{"Item 1", "Item 2"}},
		{name: "skip equals size", count: 3, skip: 3, limit: 10, wantNames: []string{}},
		{name: "skip beyond size", count: 3, skip: 50, limit: 10, wantNames: []string{}},
		{name: "zero limit", count: 3, skip: 0, limit: 0, wantNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := NewMemoryStore()
			ctx := context.Background()
			for i := 0; i < tt.count; i++ {
				_, _ = store.Create(ctx, model.CreateItemInput{
					Name: fmt.Sprintf("Item %d", i),
					Slug: fmt.Sprintf("item-%d", i),
				})
			}

			// Act
			items, err := store.List(ctx, tt.skip, tt.limit)

			// Assert
			if err != nil {
				t.Fatalf("List() unexpected error: %v", err)
			}
			if items == nil {
				t.Fatal("List() should return a non-nil slice")
			}
			if len(items) != len(tt.wantNames) {
				t.Fatalf("List() returned %d items, want %d", len(items), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if items[i].Name != name {
					t.Errorf("items[%d].Name = %s, want %s", i, items[i].Name, name)
				}
			}
		})
	}
}

func TestMemoryStore_List_NegativeArguments(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.List(ctx, -1, 10); !errors.Is(err, ErrInvalidPagination) {
		t.Errorf("List(-1, 10) error = %v, want %v", err, ErrInvalidPagination)
	}
	if _, err := store.List(ctx, 0, -1); !errors.Is(err, ErrInvalidPagination) {
		t.Errorf("List(0, -1) error = %v, want %v", err, ErrInvalidPagination)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	tests := []struct {
		name     string
		update   model.UpdateItemInput
		wantName string
		wantDesc *string
	}{
		{
			name:     "name only",
			update:   model.UpdateItemInput{Name: model.StringPtr("Updated")},
			wantName: "Updated",
			wantDesc: model.StringPtr("Original description"),
		},
		{
			name:     "description only",
			update:   model.UpdateItemInput{Description: model.StringPtr("new desc")},
			wantName: "Original",
			wantDesc: model.StringPtr("new desc"),
		},
		{
			name:     "description set to empty",
			update:   model.UpdateItemInput{Description: model.StringPtr("")},
			wantName: "Original",
			wantDesc: model.StringPtr(""),
		},
		{
			name:     "both fields",
			update:   model.UpdateItemInput{Name: model.StringPtr("N"), Description: model.StringPtr("D")},
			wantName: "N",
			wantDesc: model.StringPtr("D"),
		},
		{
			name:     "no fields",
			update:   model.UpdateItemInput{},
			wantName: "Original",
			wantDesc: model.StringPtr("Original description"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Recreate store for each test to avoid state pollution
			store := NewMemoryStore()
			ctx := context.Background()
			created, _ := store.Create(ctx, model.CreateItemInput{
				Name:        "Original",
				Slug:        "original",
				Description: model.StringPtr("Original description"),
			})

			// Act
			updated, err := store.Update(ctx, created.ID, tt.update)

			// Assert
			if err != nil {
				t.Fatalf("Update() unexpected error: %v", err)
			}
			if updated.ID != created.ID {
				t.Errorf("ID = %d, want %d", updated.ID, created.ID)
			}
			if updated.Name != tt.wantName {
				t.Errorf("Name = %s, want %s", updated.Name, tt.wantName)
			}
			if updated.Description == nil || *updated.Description != *tt.wantDesc {
				t.Errorf("Description = %v, want %q", updated.Description, *tt.wantDesc)
			}
			if updated.Slug != "original" {
				t.Errorf("Slug = %s, slug must never change", updated.Slug)
			}
			if !updated.CreatedAt.Equal(created.CreatedAt) {
				t.Error("CreatedAt should not change on update")
			}
			if !updated.UpdatedAt.After(updated.CreatedAt) {
				t.Error("UpdatedAt should be strictly after CreatedAt")
			}
		})
	}
}

func TestMemoryStore_Update_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	updated, err := store.Update(ctx, 999, model.UpdateItemInput{Name: model.StringPtr("Updated")})

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want %v", err, ErrNotFound)
	}
	if updated != nil {
		t.Error("Update() should return nil item when not found")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		wantErr error
	}{
		{name: "existing item", id: 1},
		{name: "non-existing item", id: 999, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Recreate store for each test
			store := NewMemoryStore()
			ctx := context.Background()
			_, _ = store.Create(ctx, model.CreateItemInput{Name: "Test", Slug: "test"})

			// Act
			err := store.Delete(ctx, tt.id)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Delete() unexpected error: %v", err)
			}

			// Verify item is deleted from both indexes
			if _, err := store.Get(ctx, tt.id); !errors.Is(err, ErrNotFound) {
				t.Error("item should be gone from the ID index")
			}
			if _, err := store.GetBySlug(ctx, "test"); !errors.Is(err, ErrNotFound) {
				t.Error("item should be gone from the slug index")
			}
		})
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	numGoroutines := 100
	numOperations := 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Act - Run concurrent operations
	for i := 0; i < numGoroutines; i++ {
		go func(worker int) {
			defer wg.Done()

			for j := 0; j < numOperations; j++ {
				created, err := store.Create(ctx, model.CreateItemInput{
					Name: "Test Item",
					Slug: fmt.Sprintf("item-%d-%d", worker, j),
				})
				if err != nil {
					return
				}

				_, _ = store.Get(ctx, created.ID)
				_, _ = store.GetBySlug(ctx, created.Slug)
				_, _ = store.List(ctx, 0, 50)
				_, _ = store.Update(ctx, created.ID, model.UpdateItemInput{Name: model.StringPtr("Updated Item")})
				_ = store.Delete(ctx, created.ID)
			}
		}(i)
	}

	wg.Wait()

	// Assert - every item was deleted, the counter still advanced for each create
	items, err := store.List(ctx, 0, numGoroutines*numOperations)
	if err != nil {
		t.Fatalf("List() after concurrent access failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("store has %d items remaining, want 0", len(items))
	}
	if store.nextID != int64(numGoroutines*numOperations)+1 {
		t.Errorf("nextID = %d, want %d", store.nextID, numGoroutines*numOperations+1)
	}
}

func TestMemoryStore_ConcurrentSameSlug(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	numGoroutines := 50

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	wg.Add(numGoroutines)

	// Act
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, model.CreateItemInput{Name: "Contended", Slug: "contended"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyExists):
				conflicts++
			}
		}()
	}

	wg.Wait()

	// Assert
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != numGoroutines-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, numGoroutines-1)
	}
	if store.nextID != 2 {
		t.Errorf("nextID = %d, failed creates must not consume IDs", store.nextID)
	}
}

func TestMemoryStore_ConcurrentWrites(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	numGoroutines := 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Act - Run concurrent writes
	for i := 0; i < numGoroutines; i++ {
		go func(n int) {
			defer wg.Done()
			_, _ = store.Create(ctx, model.CreateItemInput{
				Name: "Test Item",
				Slug: fmt.Sprintf("item-%d", n),
			})
		}(i)
	}

	wg.Wait()

	// Assert - list stays sorted by ID
	items, err := store.List(ctx, 0, numGoroutines)
	if err != nil {
		t.Fatalf("List() after concurrent writes failed: %v", err)
	}
	if len(items) != numGoroutines {
		t.Fatalf("Expected %d items, got %d", numGoroutines, len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].ID <= items[i-1].ID {
			t.Fatalf("items not in ascending ID order at %d: %d <= %d", i, items[i].ID, items[i-1].ID)
		}
	}
}

func TestMemoryStore_Timestamps(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()

	before := time.Now().UTC()

	// Act - Create
	created, err := store.Create(ctx, model.CreateItemInput{Name: "Test Item", Slug: "test-item"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	after := time.Now().UTC()

	// Assert - CreatedAt and UpdatedAt should be set
	if created.CreatedAt.Before(before) || created.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v, should be between %v and %v", created.CreatedAt, before, after)
	}

	// Wait a bit and update
	time.Sleep(10 * time.Millisecond)
	beforeUpdate := time.Now().UTC()

	updated, err := store.Update(ctx, created.ID, model.UpdateItemInput{Name: model.StringPtr("Updated Item")})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	afterUpdate := time.Now().UTC()

	// Assert - CreatedAt should not change, UpdatedAt should be updated
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt should not change on update")
	}
	if updated.UpdatedAt.Before(beforeUpdate) || updated.UpdatedAt.After(afterUpdate) {
		t.Errorf("UpdatedAt = %v, should be between %v and %v", updated.UpdatedAt, beforeUpdate, afterUpdate)
	}
}

func TestMemoryStore_Timestamps_FrozenClock(t *testing.T) {
	// Arrange
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return frozen }))
	ctx := context.Background()
	created, _ := store.Create(ctx, model.CreateItemInput{Name: "A", Slug: "a"})

	// Act
	first, _ := store.Update(ctx, created.ID, model.UpdateItemInput{})
	second, _ := store.Update(ctx, created.ID, model.UpdateItemInput{})

	// Assert
	if !created.CreatedAt.Equal(frozen) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, frozen)
	}
	if !first.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt should advance even when the clock does not")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Error("UpdatedAt should advance on every update")
	}
}

func TestMemoryStore_ImplementsInterface(t *testing.T) {
	// Assert that MemoryStore implements Store interface
	var _ Store = (*MemoryStore)(nil)
}
