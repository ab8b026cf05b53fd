package store

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// Operation result labels.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultConflict = "conflict"
	resultInvalid  = "invalid"
	resultError    = "error"
)

// InstrumentedStore wraps a Store and records Prometheus metrics for every call.
type InstrumentedStore struct {
	next       Store
	operations *prometheus.CounterVec
	liveItems  prometheus.Gauge
}

// NewInstrumentedStore wraps next, registering its collectors with reg.
func NewInstrumentedStore(next Store, reg prometheus.Registerer) *InstrumentedStore {
	factory := promauto.With(reg)

	s := &InstrumentedStore{
		next: next,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "item_store_operations_total",
				Help: "Total number of item store operations by result",
			},
			[]string{"operation", "result"},
		),
		liveItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "item_store_live_items",
				Help: "Number of live items held by the store",
			},
		),
	}

	if n, err := next.Count(context.Background()); err == nil {
		s.liveItems.Set(float64(n))
	}

	return s
}

// Create implements Store.
func (s *InstrumentedStore) Create(ctx context.Context, input model.CreateItemInput) (*model.Item, error) {
	item, err := s.next.Create(ctx, input)
	s.observe("create", err)
	if err == nil {
		s.liveItems.Inc()
	}
	return item, err
}

// Get implements Store.
func (s *InstrumentedStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.next.Get(ctx, id)
	s.observe("get", err)
	return item, err
}

// GetBySlug implements Store.
func (s *InstrumentedStore) GetBySlug(ctx context.Context, slug string) (*model.Item, error) {
	item, err := s.next.GetBySlug(ctx, slug)
	s.observe("get_by_slug", err)
	return item, err
}

// List implements Store.
func (s *InstrumentedStore) List(ctx context.Context, skip, limit int) ([]model.Item, error) {
	items, err := s.next.List(ctx, skip, limit)
	s.observe("list", err)
	return items, err
}

// Count implements Store.
func (s *InstrumentedStore) Count(ctx context.Context) (int, error) {
	n, err := s.next.Count(ctx)
	s.observe("count", err)
	if err == nil {
		s.liveItems.Set(float64(n))
	}
	return n, err
}

// Update implements Store.
func (s *InstrumentedStore) Update(ctx context.Context, id int64, input model.UpdateItemInput) (*model.Item, error) {
	item, err := s.next.Update(ctx, id, input)
	s.observe("update", err)
	return item, err
}

// Delete implements Store.
func (s *InstrumentedStore) Delete(ctx context.Context, id int64) error {
	err := s.next.Delete(ctx, id)
	s.observe("delete", err)
	if err == nil {
		s.liveItems.Dec()
	}
	return err
}

func (s *InstrumentedStore) observe(operation string, err error) {
	s.operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrAlreadyExists):
		return resultConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidPagination):
		return resultInvalid
	default:
		return resultError
	}
}
