// Package events fans out item change notifications to in-process subscribers.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// DefaultBufferSize is the per-subscriber queue length used when none is given.
const DefaultBufferSize = 64

// Broker delivers published events to every current subscriber.
// Publish never blocks: a subscriber whose queue is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	logger *zap.Logger
}

// Subscription is a single consumer's view of the event stream.
type Subscription struct {
	ch     chan model.ItemEvent
	broker *Broker
	once   sync.Once
}

// NewBroker creates a Broker with the given per-subscriber buffer size.
func NewBroker(buffer int, logger *zap.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Broker{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber. On a closed broker the returned
// subscription's channel is already closed.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		ch:     make(chan model.ItemEvent, b.buffer),
		broker: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.subs[sub] = struct{}{}

	return sub
}

// Publish sends event to every subscriber without waiting.
func (b *Broker) Publish(event model.ItemEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			b.logger.Warn("dropping item event for slow subscriber",
				zap.String("type", event.Type),
				zap.Int64("item_id", event.ItemID),
			)
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// Close ends every subscription. Further publishes are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Events returns the channel on which events are delivered.
// It is closed when the subscription or the broker is closed.
func (s *Subscription) Events() <-chan model.ItemEvent {
	return s.ch
}

// Close removes the subscription from its broker. It is safe to call more than once.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	delete(s.broker.subs, s)
	s.once.Do(func() { close(s.ch) })
}
