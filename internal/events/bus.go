package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"nagarneuron/backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel shared by every instance.
const Channel = "nagarneuron:events"

const localBufferSize = 256

// ErrBusFull is returned when the in-process queue cannot take another event.
var ErrBusFull = errors.New("events: bus queue full")

type subscribers struct {
	mu       sync.RWMutex
	handlers []Handler
}

func (s *subscribers) Subscribe(h Handler) {
	s.mu.Lock()
	s.handlers = append(s.handlers, h)
	s.mu.Unlock()
}

func (s *subscribers) dispatch(ctx context.Context, e Event) {
	s.mu.RLock()
	hs := s.handlers
	s.mu.RUnlock()
	for _, h := range hs {
		h(ctx, e)
	}
}

// LocalBus delivers events within one process.
type LocalBus struct {
	subscribers
	queue chan Event
	log   *logger.Logger
}

func NewLocalBus(log *logger.Logger) *LocalBus {
	return &LocalBus{
		queue: make(chan Event, localBufferSize),
		log:   log.With("component", "events"),
	}
}

func (b *LocalBus) Publish(ctx context.Context, e Event) error {
	select {
	case b.queue <- e:
		return nil
	default:
		b.log.Warn("dropping event, queue full", "type", e.Type, "complaint_id", e.ComplaintID)
		return ErrBusFull
	}
}

// Run dispatches queued events until ctx is done.
func (b *LocalBus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-b.queue:
			b.dispatch(ctx, e)
		}
	}
}

// RedisBus publishes to a Redis channel so every instance's subscribers see
// every event.
type RedisBus struct {
	subscribers
	rdb *redis.Client
	log *logger.Logger
}

func NewRedisBus(rdb *redis.Client, log *logger.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log.With("component", "events")}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel, payload).Err()
}

// Run listens on the channel until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed before reporting ready
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.Warn("error decoding event", "error", err)
				continue
			}
			b.dispatch(ctx, e)
		}
	}
}
