// Package handler provides HTTP request handlers for the item catalog API.
package handler

import (
	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// Default handler settings, used when Options leaves a field empty.
const (
	DefaultAPIPrefix = "/api/v1"
	DefaultAppName   = "Item Catalog"
	DefaultVersion   = "0.1.0"
	DocsPath         = "/docs"
)

// Options configures a RESTHandler.
type Options struct {
	APIPrefix        string
	DefaultPageLimit int
	AppName          string
	Version          string
}

// withDefaults fills empty fields. A zero DefaultPageLimit is kept as-is.
func (o Options) withDefaults() Options {
	if o.APIPrefix == "" {
		o.APIPrefix = DefaultAPIPrefix
	}
	if o.APIPrefix == "/" {
		o.APIPrefix = ""
	}
	if o.AppName == "" {
		o.AppName = DefaultAppName
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	return o
}

// Publisher receives an event after every successful item mutation.
// Events are published once the store call has returned, so two concurrent
// requests may deliver their events in either order; a subscriber can see
// item.updated before item.created for the same id. Created and updated
// events carry the item's updated_at for consumers that need to reorder.
type Publisher interface {
	Publish(event model.ItemEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(model.ItemEvent) {}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness and liveness check responses.
type ReadyResponse struct {
	Status string `json:"status"`
}

// RootResponse describes the service at GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}
