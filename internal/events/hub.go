package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
)

const defaultSubscriptionBuffer = 16

var _ Handler = (*Hub)(nil)

// Hub fans change events out to realtime subscribers of one shop. A
// subscriber that falls behind loses events instead of stalling delivery.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	logger *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: defaultSubscriptionBuffer,
		logger: logging.New("realtime-hub"),
	}
}

// Subscription receives the events of one shop, optionally limited to some tables.
type Subscription struct {
	C <-chan *ChangeEvent

	ch      chan *ChangeEvent
	shopID  string
	tables  map[string]bool
	hub     *Hub
	once    sync.Once
	dropped int
}

// Subscribe registers a subscriber. With no tables every table is delivered.
func (h *Hub) Subscribe(shopID string, tables ...string) *Subscription {
	ch := make(chan *ChangeEvent, h.buffer)
	s := &Subscription{C: ch, ch: ch, shopID: shopID, hub: h}
	if len(tables) > 0 {
		s.tables = make(map[string]bool, len(tables))
		for _, t := range tables {
			s.tables[t] = true
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	metrics.Subscribers.Inc()

	h.logger.WithFields(logging.Fields{"shop_id": shopID, "tables": tables}).Debug("Subscriber added")
	return s
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
		metrics.Subscribers.Dec()
	})
}

// Dropped is the number of events this subscriber missed.
func (s *Subscription) Dropped() int {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.dropped
}

func (s *Subscription) wants(ev *ChangeEvent) bool {
	if ev.ShopID != s.shopID {
		return false
	}
	return s.tables == nil || s.tables[ev.Table]
}

// HandleChange delivers ev to every matching subscriber without blocking.
func (h *Hub) HandleChange(_ context.Context, ev *ChangeEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		if !s.wants(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			s.dropped++
			metrics.ChangeEvents.WithLabelValues("dropped", ev.Table).Inc()
		}
	}
	return nil
}

// Len is the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
