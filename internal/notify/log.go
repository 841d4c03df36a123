package notify

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const subscriberBufferSize = 16

// LogConfig describes the dependencies of a notification log.
type LogConfig struct {
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Log is the append-only notification record consumed by external
// observers. Entries are never mutated or removed; subscribers receive
// each appended event after the owning mutation has fully applied.
type Log struct {
	mu          sync.RWMutex
	ids         IDProvider
	logger      *zap.Logger
	events      []Event
	subscribers map[int64]*subscriber
	nextSubID   int64
}

type subscriber struct {
	id     int64
	stream chan Event
}

// NewLog constructs a notification log with sane defaults.
func NewLog(cfg LogConfig) *Log {
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		ids:         ids,
		logger:      logger,
		subscribers: make(map[int64]*subscriber),
	}
}

// NewEvent allocates an identifier and marshals the payload, without
// appending anything. The caller appends only once the mutation committed.
func (l *Log) NewEvent(kind string, payload any, occurredAt int64) (Event, error) {
	id, err := l.ids.NewID()
	if err != nil {
		return Event{}, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:                id,
		Kind:              kind,
		OccurredAtSeconds: occurredAt,
		PayloadJSON:       string(encoded),
	}, nil
}

// Append records the event and fans it out to subscribers. Slow subscribers
// miss events rather than block the mutation path.
func (l *Log) Append(event Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	copies := make([]*subscriber, 0, len(l.subscribers))
	for _, sub := range l.subscribers {
		copies = append(copies, sub)
	}
	l.mu.Unlock()

	l.logger.Debug("notification appended",
		zap.String("event_id", event.ID),
		zap.String("kind", event.Kind))

	for _, sub := range copies {
		select {
		case sub.stream <- event:
		default:
		}
	}
}

// Restore replaces the in-memory log with previously persisted entries.
// Called once at startup before any mutation runs.
func (l *Log) Restore(events []Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append([]Event(nil), events...)
}

// Len returns the number of appended events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Since returns a copy of all events at log index >= sinceIndex, in append
// order. A negative index reads from the beginning.
func (l *Log) Since(sinceIndex int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if sinceIndex < 0 {
		sinceIndex = 0
	}
	if sinceIndex >= len(l.events) {
		return nil
	}
	return append([]Event(nil), l.events[sinceIndex:]...)
}

// Subscribe registers an observer for future events. The returned cancel
// function releases the subscription; cancelling the context does the same.
func (l *Log) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := &subscriber{stream: make(chan Event, subscriberBufferSize)}

	l.mu.Lock()
	l.nextSubID++
	sub.id = l.nextSubID
	l.subscribers[sub.id] = sub
	l.mu.Unlock()

	cleanup := func() {
		l.mu.Lock()
		delete(l.subscribers, sub.id)
		l.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}
