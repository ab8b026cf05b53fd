// Package model defines data structures used throughout the application.
package model

import (
	"time"
)

// Item represents a catalog entry reachable by ID and by slug.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a copy of the item that shares no memory with the receiver.
func (i Item) Clone() Item {
	if i.Description != nil {
		desc := *i.Description
		i.Description = &desc
	}
	return i
}

// CreateItemInput is the payload for creating an item.
type CreateItemInput struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// UpdateItemInput is the payload for a partial update.
// A nil field means "not provided" and leaves the stored value untouched.
// The slug cannot be changed.
type UpdateItemInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsEmpty reports whether the input carries no field to change.
func (u UpdateItemInput) IsEmpty() bool {
	return u.Name == nil && u.Description == nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta describes the page a list response was cut from.
type Meta struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewListResponse creates a successful list response carrying page metadata.
func NewListResponse[T any](data []T, total, skip, limit int) APIResponse[[]T] {
	return APIResponse[[]T]{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Skip: skip, Limit: limit},
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ItemEvent is pushed to WebSocket subscribers after a successful mutation.
type ItemEvent struct {
	Type      string    `json:"type"`
	Item      *Item     `json:"item,omitempty"`
	ItemID    int64     `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Item event types.
const (
	EventItemCreated = "item.created"
	EventItemUpdated = "item.updated"
	EventItemDeleted = "item.deleted"
)

// NewItemEvent builds an event carrying a copy of item.
func NewItemEvent(eventType string, item Item) ItemEvent {
	snapshot := item.Clone()
	return ItemEvent{
		Type:      eventType,
		Item:      &snapshot,
		ItemID:    item.ID,
		Timestamp: time.Now().UTC(),
	}
}

// NewItemDeletedEvent builds the event published when the item with id is removed.
func NewItemDeletedEvent(id int64) ItemEvent {
	return ItemEvent{
		Type:      EventItemDeleted,
		ItemID:    id,
		Timestamp: time.Now().UTC(),
	}
}
