package invalidation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"murmur/internal/cache"
	"murmur/internal/middleware"
	"murmur/internal/notifications"
	"murmur/internal/observability"
)

// Broadcaster pushes a payload to every connected client.
type Broadcaster interface {
	PublishBroadcast(ctx context.Context, payload string) error
}

// Consumer applies queued events: it deletes the cached views of each scope
// and tells connected clients which scopes went stale.
type Consumer struct {
	queue       *Queue
	broadcaster Broadcaster
}

// NewConsumer creates a Consumer draining q. broadcaster may be nil.
func NewConsumer(q *Queue, broadcaster Broadcaster) *Consumer {
	return &Consumer{queue: q, broadcaster: broadcaster}
}

// Run applies events until ctx is cancelled, then applies whatever is still
// queued using a fresh context.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.drain()
			return nil
		case ev := <-c.queue.events:
			observability.InvalidationQueueDepth.Set(float64(c.queue.Len()))
			c.handle(ctx, ev)
		}
	}
}

func (c *Consumer) drain() {
	ctx := context.Background()
	for {
		select {
		case ev := <-c.queue.events:
			c.handle(ctx, ev)
		default:
			observability.InvalidationQueueDepth.Set(0)
			return
		}
	}
}

func (c *Consumer) handle(ctx context.Context, ev Event) {
	if err := c.Apply(ctx, ev); err != nil {
		observability.InvalidationEvents.WithLabelValues("failed").Inc()
		middleware.Logger.WarnContext(ctx, "view invalidation failed",
			slog.String("event_id", ev.ID), slog.String("error", err.Error()))
		return
	}
	observability.InvalidationEvents.WithLabelValues("applied").Inc()
}

// Apply deletes the cache entries of every scope in ev and broadcasts the
// event. Every scope is attempted even when an earlier one fails.
func (c *Consumer) Apply(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range ev.Scopes {
		if err := evict(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}

	if c.broadcaster != nil {
		payload, err := notifications.Event{Type: notifications.EventViewInvalidated, Payload: ev}.Encode()
		if err == nil {
			err = c.broadcaster.PublishBroadcast(ctx, payload)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func evict(ctx context.Context, s Scope) error {
	kind, arg, err := s.parse()
	if err != nil {
		return err
	}
	if kind == kindProfile {
		return cache.Invalidate(ctx, cache.ProfileKey(arg))
	}

	var id uint
	if arg != "" {
		n, _ := strconv.ParseUint(arg, 10, 64)
		id = uint(n)
	}
	switch kind {
	case kindFeed:
		_, err = cache.InvalidatePattern(ctx, cache.FeedPattern())
	case kindPost:
		err = cache.Invalidate(ctx, cache.PostKey(id))
	case kindAuthor:
		_, err = cache.InvalidatePattern(ctx, cache.AuthorPostsPattern(id))
	case kindLiked:
		_, err = cache.InvalidatePattern(ctx, cache.LikedPattern(id))
	case kindSuggestions:
		_, err = cache.InvalidatePattern(ctx, cache.SuggestionsPattern(id))
	}
	return err
}
