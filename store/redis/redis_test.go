package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Nothing listens on port 1, so every command fails fast.
const deadAddress = "127.0.0.1:1"

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := New(ctx, Options{Address: deadAddress, Prefix: "backoffice:"})

	assert.Nil(t, s)
	assert.ErrorContains(t, err, "failed to ping Redis")
}

func TestNewWithClient_WrapsCommandErrors(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: deadAddress, MaxRetries: -1})
	s := NewWithClient(client, "backoffice:")
	defer s.Close()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "orders")
	require.Error(t, err)
	assert.False(t, found)
	assert.Contains(t, err.Error(), "redis get orders")

	err = s.Set(ctx, "orders", []byte("[]"))
	assert.ErrorContains(t, err, "redis set orders")
}
