package manager

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultRedisChannel = "torchserved:events"
	redisPublishTimeout = 2 * time.Second
)

// RedisPublisher forwards events to a Redis Pub/Sub channel. Publish only
// enqueues; a single goroutine performs the network writes so the manager is
// never blocked by Redis. Events are dropped when the buffer is full.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewRedisClient builds a client from either a redis:// URL or a host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// NewRedisPublisher starts the forwarding goroutine. Close stops it and
// closes the client.
func NewRedisPublisher(client *redis.Client, channel string, buffer int, log zerolog.Logger) *RedisPublisher {
	if channel == "" {
		channel = defaultRedisChannel
	}
	if buffer <= 0 {
		buffer = 256
	}
	p := &RedisPublisher{
		client:  client,
		channel: channel,
		log:     log,
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues e without blocking.
func (p *RedisPublisher) Publish(e Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.events <- e:
	default:
		p.log.Warn().Str("event", e.Name).Str("model", e.Model).Msg("redis event buffer full, dropping")
	}
}

func (p *RedisPublisher) run() {
	defer close(p.done)
	for e := range p.events {
		b, err := json.Marshal(e)
		if err != nil {
			p.log.Error().Err(err).Str("event", e.Name).Msg("marshal event")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), redisPublishTimeout)
		err = p.client.Publish(ctx, p.channel, b).Err()
		cancel()
		if err != nil {
			p.log.Warn().Err(err).Str("event", e.Name).Str("channel", p.channel).Msg("publish event")
		}
	}
}

// Close flushes queued events and closes the Redis client.
func (p *RedisPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()
		<-p.done
		err = p.client.Close()
	})
	return err
}
