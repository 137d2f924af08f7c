package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"opschecklist/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_total",
			Help: "Change events published to the feed hub",
		},
		[]string{"collection", "op"},
	)
	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_events_dropped_total",
			Help: "Events dropped because a subscriber's buffer was full",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsPublished)
	prometheus.MustRegister(eventsDropped)
}

var ErrBadFilter = errors.New("filter must be empty or column=value")

// Handlers are the caller-supplied callbacks for a subscription. OnAny runs
// first for every event, then exactly one of the op-specific handlers.
// All of them run on the subscription's own goroutine, never concurrently
// with each other.
type Handlers struct {
	OnInsert func(Event)
	OnUpdate func(Event)
	OnDelete func(Event)
	OnAny    func(Event)
}

// Hub routes change events to subscriptions. Events within one subscription
// are delivered in publish order; no ordering holds across subscriptions.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]*Subscription
	seq  int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]*Subscription)}
}

// Subscribe registers handlers for changes on a collection. filter is empty
// or a single "column=value" equality predicate evaluated against the
// changed row. The caller owns the returned handle and must Close it when
// done; a handle left open leaks a goroutine.
func (h *Hub) Subscribe(collection, filter string, handlers Handlers) (*Subscription, error) {
	s := &Subscription{
		hub:        h,
		collection: collection,
		handlers:   handlers,
		events:     make(chan Event, subscriptionBuffer),
		done:       make(chan struct{}),
	}

	if filter != "" {
		key, value, ok := strings.Cut(filter, "=")
		if !ok || key == "" {
			return nil, ErrBadFilter
		}
		s.filterKey = key
		s.filterValue = value
	}

	h.mu.Lock()
	h.seq++
	s.id = h.seq
	h.subs[s.id] = s
	h.mu.Unlock()

	go s.run()
	return s, nil
}

// Publish delivers the event to every matching subscription. A subscriber
// that cannot keep up has the event dropped rather than stalling the hub.
func (h *Hub) Publish(ev Event) {
	eventsPublished.WithLabelValues(ev.Collection, string(ev.Op)).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if s.collection != ev.Collection {
			continue
		}
		if !s.matches(ev) {
			continue
		}
		select {
		case s.events <- ev:
		default:
			eventsDropped.Inc()
			logger.Warn("feed subscriber buffer full, dropping event",
				"collection", ev.Collection, "op", ev.Op, "subscription", s.id)
		}
	}
}

// SubscriberCount reports open subscriptions. Used by tests and the
// readiness probe to catch leaked handles.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id int64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

const subscriptionBuffer = 256

// Subscription is an open feed handle. Close tears it down; Close is
// idempotent and safe to call from any goroutine.
type Subscription struct {
	hub         *Hub
	id          int64
	collection  string
	filterKey   string
	filterValue string
	handlers    Handlers

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s.id)
		close(s.done)
	})
}

func (s *Subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.dispatch(ev)
		}
	}
}

func (s *Subscription) dispatch(ev Event) {
	if s.handlers.OnAny != nil {
		s.handlers.OnAny(ev)
	}
	switch ev.Op {
	case OpInsert:
		if s.handlers.OnInsert != nil {
			s.handlers.OnInsert(ev)
		}
	case OpUpdate:
		if s.handlers.OnUpdate != nil {
			s.handlers.OnUpdate(ev)
		}
	case OpDelete:
		if s.handlers.OnDelete != nil {
			s.handlers.OnDelete(ev)
		}
	}
}

func (s *Subscription) matches(ev Event) bool {
	if s.filterKey == "" {
		return true
	}

	var row map[string]any
	if err := json.Unmarshal(ev.Row(), &row); err != nil {
		return false
	}
	v, ok := row[s.filterKey]
	if !ok {
		return false
	}
	return formatValue(v) == s.filterValue
}

// formatValue normalizes JSON scalars for string comparison so a filter
// like user_id=42 matches the number 42 in the row payload.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
