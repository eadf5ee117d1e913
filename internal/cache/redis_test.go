package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-ledger/internal/config"
	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.Session{
		Plate:     "ABC123",
		Category:  models.CategoryCar,
		EnteredAt: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Operator:  "gate-1",
	}
	err := cache.Set("session:ABC123", expected, time.Minute)
	require.NoError(t, err)

	var actual models.Session
	found, err := cache.Get("session:ABC123", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.Plate, actual.Plate)
	assert.Equal(t, expected.Category, actual.Category)
	assert.True(t, expected.EnteredAt.Equal(actual.EnteredAt))
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out models.Session
	found, err := cache.Get("session:ZZZ999", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("session:ABC123", models.Session{Plate: "ABC123"}, time.Minute))
	require.NoError(t, cache.Invalidate("session:ABC123"))

	var out models.Session
	found, err := cache.Get("session:ABC123", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
