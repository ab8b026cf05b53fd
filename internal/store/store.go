// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// Store errors.
var (
	ErrNotFound          = errors.New("item not found")
	ErrAlreadyExists     = errors.New("item already exists")
	ErrInvalidID         = errors.New("invalid item ID") // unparseable ID at the API boundary
	ErrInvalidPagination = errors.New("skip and limit must be non-negative")
)

// Store defines the interface for item storage operations.
//
// Implementations assume inputs were already sanitized and validated by
// model.CreateItemInput.Normalize and model.UpdateItemInput.Normalize.
// Returned items are copies owned by the caller.
type Store interface {
	// Create adds a new item and returns it with its assigned ID.
	// Returns ErrAlreadyExists if the slug belongs to a live item.
	Create(ctx context.Context, input model.CreateItemInput) (*model.Item, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// GetBySlug retrieves an item by its slug.
	GetBySlug(ctx context.Context, slug string) (*model.Item, error)

	// List returns at most limit items in ascending ID order, starting at offset skip.
	List(ctx context.Context, skip, limit int) ([]model.Item, error)

	// Count returns the number of live items.
	Count(ctx context.Context) (int, error)

	// Update applies the provided fields of input to an existing item.
	Update(ctx context.Context, id int64, input model.UpdateItemInput) (*model.Item, error)

	// Delete removes an item by its ID. The slug becomes free, the ID is never reused.
	Delete(ctx context.Context, id int64) error
}
