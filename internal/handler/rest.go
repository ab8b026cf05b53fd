package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/middleware"
	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	store     store.Store
	publisher Publisher
	opts      Options
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
// A nil publisher disables item events.
func NewRESTHandler(s store.Store, publisher Publisher, opts Options, logger *zap.Logger) *RESTHandler {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &RESTHandler{
		store:     s,
		publisher: publisher,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// RegisterRoutes registers the service and item routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods(http.MethodGet)
	h.RegisterProbeRoutes(router)

	base := h.opts.APIPrefix + "/items"
	router.HandleFunc(base, h.ListItems).Methods(http.MethodGet)
	router.HandleFunc(base, h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc(base+"/slug/{slug}", h.GetItemBySlug).Methods(http.MethodGet)
	router.HandleFunc(base+"/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc(base+"/{id}", h.UpdateItem).Methods(http.MethodPatch)
	router.HandleFunc(base+"/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// RegisterProbeRoutes registers the health, readiness and liveness routes.
func (h *RESTHandler) RegisterProbeRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/readiness", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/liveness", h.LivenessCheck).Methods(http.MethodGet)
}

// Root handles GET / requests.
func (h *RESTHandler) Root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, RootResponse{
		Message: h.opts.AppName,
		Version: h.opts.Version,
		Docs:    DocsPath,
	})
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: h.opts.Version,
	}
	h.writeJSON(w, http.StatusOK, response)
}

// ReadinessCheck handles GET /readiness requests.
func (h *RESTHandler) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// LivenessCheck handles GET /liveness requests.
func (h *RESTHandler) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "alive"})
}

// ListItems handles GET {prefix}/items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.handleValidationError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", h.opts.DefaultPageLimit)
	if err != nil {
		h.handleValidationError(w, r, err)
		return
	}

	items, err := h.store.List(ctx, skip, limit)
	if err != nil {
		h.handleStoreError(w, r, err, "list items")
		return
	}
	total, err := h.store.Count(ctx)
	if err != nil {
		h.handleStoreError(w, r, err, "count items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewListResponse(items, total, skip, limit))
}

// GetItem handles GET {prefix}/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := itemID(r)
	if err != nil {
		h.handleStoreError(w, r, err, "get item")
		return
	}

	item, err := h.store.Get(ctx, id)
	if err != nil {
		h.handleStoreError(w, r, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// GetItemBySlug handles GET {prefix}/items/slug/{slug} requests.
func (h *RESTHandler) GetItemBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := mux.Vars(r)["slug"]

	item, err := h.store.GetBySlug(ctx, slug)
	if err != nil {
		h.handleStoreError(w, r, err, "get item by slug")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST {prefix}/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input model.CreateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err), requestIDField(r))
		h.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if err := input.Normalize(); err != nil {
		h.handleValidationError(w, r, err)
		return
	}

	item, err := h.store.Create(ctx, input)
	if err != nil {
		h.handleStoreError(w, r, err, "create item")
		return
	}

	h.publisher.Publish(model.NewItemEvent(model.EventItemCreated, *item))
	h.logger.Info("item created", zap.Int64("id", item.ID), zap.String("slug", item.Slug), requestIDField(r))
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(item))
}

// UpdateItem handles PATCH {prefix}/items/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := itemID(r)
	if err != nil {
		h.handleStoreError(w, r, err, "update item")
		return
	}

	var input model.UpdateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err), requestIDField(r))
		h.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if err := input.Normalize(); err != nil {
		h.handleValidationError(w, r, err)
		return
	}

	item, err := h.store.Update(ctx, id, input)
	if err != nil {
		h.handleStoreError(w, r, err, "update item")
		return
	}

	h.publisher.Publish(model.NewItemEvent(model.EventItemUpdated, *item))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// DeleteItem handles DELETE {prefix}/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := itemID(r)
	if err != nil {
		h.handleStoreError(w, r, err, "delete item")
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		h.handleStoreError(w, r, err, "delete item")
		return
	}

	h.publisher.Publish(model.NewItemDeletedEvent(id))
	h.logger.Info("item deleted", zap.Int64("id", id), requestIDField(r))
	w.WriteHeader(http.StatusNoContent)
}

// itemID parses the {id} route variable.
func itemID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse item id %q: %w", raw, store.ErrInvalidID)
	}
	return id, nil
}

// queryInt reads an integer query parameter, returning def when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", name)
	}
	if n < 0 {
		return 0, fmt.Errorf("query parameter %s must not be negative", name)
	}
	return n, nil
}

// handleValidationError writes a 422 response describing a rejected input.
func (h *RESTHandler) handleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("validation failed", zap.Error(err), requestIDField(r))
	h.writeError(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found", "")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusUnprocessableEntity, "invalid item ID", err.Error())
	case errors.Is(err, store.ErrInvalidPagination):
		h.writeError(w, http.StatusUnprocessableEntity, "invalid pagination", err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "item already exists", err.Error())
	default:
		h.logger.Error("store operation failed",
			zap.String("operation", operation),
			zap.Error(err),
			requestIDField(r),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message, details string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
		Details: details,
	}
	h.writeJSON(w, status, response)
}

func requestIDField(r *http.Request) zap.Field {
	return zap.String("request_id", middleware.RequestIDFromContext(r.Context()))
}
