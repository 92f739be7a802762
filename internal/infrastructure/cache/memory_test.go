package cache

import (
	"context"
	"testing"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		value   []byte
		ttl     time.Duration
		expired bool
	}{
		{
			name:  "store and retrieve records",
			key:   "records:DB",
			value: []byte(`[{"회원명":"홍길동"}]`),
			ttl:   time.Minute,
		},
		{
			name:  "store empty value",
			key:   "records:empty",
			value: []byte{},
			ttl:   time.Minute,
		},
		{
			name:    "store with short TTL",
			key:     "records:short",
			value:   []byte("expires-soon"),
			ttl:     time.Millisecond,
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value, tt.ttl))

			if tt.expired {
				time.Sleep(10 * time.Millisecond)
				_, err := cache.Get(ctx, tt.key)
				assert.ErrorIs(t, err, domain.ErrCacheMiss)
				return
			}

			got, err := cache.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestMemoryCache_StoresCopies(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, cache.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'y'
	again, _ := cache.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))

	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "k"))

	ok, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "old", []byte("v"), time.Millisecond))
	require.NoError(t, cache.Set(ctx, "new", []byte("v"), time.Hour))
	assert.Equal(t, 2, cache.Size())

	cache.removeExpired(time.Now().Add(time.Second))
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}
