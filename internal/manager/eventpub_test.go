package manager

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_PublishesTransitions(t *testing.T) {
	m, pub := newTestManager(t, newFakeLoader(), func(c *Config) { c.LoadMode = LoadSync }, "m")
	_, err := m.Load(testCtx(t), "m")
	require.NoError(t, err)
	_, err = m.Unload(testCtx(t), "m")
	require.NoError(t, err)

	var tos []string
	for _, e := range pub.Named(EventStateChanged) {
		assert.Equal(t, "m", e.Model)
		tos = append(tos, e.Fields["to"].(string))
	}
	assert.Equal(t, []string{"Loading", "Available", "Unloading", "Unloaded"}, tos)
}

func TestNewRedisClient_AddrForms(t *testing.T) {
	c, err := NewRedisClient("127.0.0.1:6379")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", c.Options().Addr)
	_ = c.Close()

	c, err = NewRedisClient("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	_, err = NewRedisClient("redis://cache:notaport")
	assert.Error(t, err)
}

func TestRedisPublisher_NeverBlocks(t *testing.T) {
	// Nothing listens on this port; publishes fail in the background.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	p := NewRedisPublisher(client, "", 2, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 100; i++ {
		p.Publish(Event{Name: EventLoadStart, Model: "m"})
	}
	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, p.Close())
	p.Publish(Event{Name: "after_close"}) // dropped, no panic
}
