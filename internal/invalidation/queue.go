package invalidation

import (
	"context"
	"log/slog"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/observability"

	"github.com/google/uuid"
)

// Event is one batch of scopes emitted by a single mutation.
type Event struct {
	ID     string    `json:"id"`
	Scopes []Scope   `json:"scopes"`
	At     time.Time `json:"at"`
}

// Enqueuer accepts invalidation scopes. Implementations never block and never fail.
type Enqueuer interface {
	Enqueue(ctx context.Context, scopes ...Scope)
}

// Queue is a bounded in-process outbound queue.
type Queue struct {
	events chan Event
}

// NewQueue creates a queue holding up to size pending events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{events: make(chan Event, size)}
}

// Enqueue appends an event without blocking. When the queue is full the event
// is dropped; the affected views expire with their TTL instead.
func (q *Queue) Enqueue(ctx context.Context, scopes ...Scope) {
	if len(scopes) == 0 {
		return
	}
	ev := Event{ID: uuid.NewString(), Scopes: dedupe(scopes), At: time.Now().UTC()}
	select {
	case q.events <- ev:
		observability.InvalidationEvents.WithLabelValues("enqueued").Inc()
		observability.InvalidationQueueDepth.Set(float64(len(q.events)))
	default:
		observability.InvalidationEvents.WithLabelValues("dropped").Inc()
		middleware.Logger.WarnContext(ctx, "invalidation queue full, event dropped",
			slog.String("event_id", ev.ID), slog.Any("scopes", ev.Scopes))
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

func dedupe(scopes []Scope) []Scope {
	seen := make(map[Scope]struct{}, len(scopes))
	out := scopes[:0:0]
	for _, s := range scopes {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Discard drops every scope. It stands in for the queue when view
// invalidation is switched off.
type Discard struct{}

func (Discard) Enqueue(context.Context, ...Scope) {}
