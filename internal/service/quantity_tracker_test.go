package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerswin/2025v2POS-sub001/internal/cache"
)

func TestTrackerSold_CacheHitSkipsDatabase(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("stage:sold:1").SetVal("42")

	store := newFakeSoldStore()
	store.sold[1] = 99 // must not be consulted
	tracker := NewQuantityTracker(store, cache.NewCounterCache(client, time.Minute))

	sold, err := tracker.Sold(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sold)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackerSold_MissRepopulatesFromDatabase(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("stage:sold:1").RedisNil()
	mock.ExpectSet("stage:sold:1", int64(7), time.Minute).SetVal("OK")

	store := newFakeSoldStore()
	store.sold[1] = 7
	tracker := NewQuantityTracker(store, cache.NewCounterCache(client, time.Minute))

	sold, err := tracker.Sold(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sold)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackerSold_OutageFallsBackToDatabase(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("stage:sold:1").SetErr(errors.New("connection refused"))

	store := newFakeSoldStore()
	store.sold[1] = 13
	tracker := NewQuantityTracker(store, cache.NewCounterCache(client, time.Minute))

	sold, err := tracker.Sold(context.Background(), 1)
	require.NoError(t, err, "an unreachable cache must never fail a read")
	assert.Equal(t, int64(13), sold)
}

func TestTrackerCorrect_WritesStoreThenCache(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectSet("stage:sold:1", int64(120), time.Minute).SetVal("OK")

	store := newFakeSoldStore()
	store.sold[1] = 125
	tracker := NewQuantityTracker(store, cache.NewCounterCache(client, time.Minute))

	require.NoError(t, tracker.Correct(context.Background(), 1, 120))
	got, _ := store.Sold(context.Background(), 1)
	assert.Equal(t, int64(120), got)
	require.NoError(t, mock.ExpectationsWereMet())
}
