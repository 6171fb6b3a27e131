package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	bare := Key("aGVsbG8=", "model-a")

	assert.Len(t, bare, 32)
	assert.Equal(t, bare, Key("data:image/jpeg;base64,aGVsbG8=", "model-a"))
	assert.NotEqual(t, bare, Key("aGVsbG8=", "model-b"))
	assert.NotEqual(t, bare, Key("aGVsbG9=", "model-a"))
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", 0, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
	_, ok, err := c.Get(ctx, "missing")
	assert.False(t, ok)
	assert.Error(t, err)
}
