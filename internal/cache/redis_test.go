package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClient(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, Options{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	require.NoError(t, c.SetJSON(ctx, "k", []int{1, 2}, time.Minute))

	var out []int
	hit, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, out)
	assert.NoError(t, c.Close())
}

func TestUnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Port 1 is reserved and never serves Redis.
	_, err := New(ctx, Options{Enabled: true, Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
