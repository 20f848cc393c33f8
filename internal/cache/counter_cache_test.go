package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterCache_SoldMissAndHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCounterCache(client, time.Minute)
	ctx := context.Background()

	mock.ExpectGet("stage:sold:5").RedisNil()
	_, err := c.Sold(ctx, 5)
	assert.ErrorIs(t, err, ErrMiss)

	mock.ExpectSet("stage:sold:5", int64(30), time.Minute).SetVal("OK")
	require.NoError(t, c.SetSold(ctx, 5, 30))

	mock.ExpectGet("stage:sold:5").SetVal("30")
	v, err := c.Sold(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(30), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterCache_UnavailableWrapsError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCounterCache(client, time.Minute)

	mock.ExpectGet("stage:reserved:5").SetErr(errors.New("connection refused"))
	_, err := c.Reserved(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCounterCache_AddReservedIncrementsExistingOnly(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCounterCache(client, time.Minute)
	ctx := context.Background()

	// The script returns -1 for an absent key; the adjustment is simply
	// skipped, never invented.
	mock.Regexp().ExpectEval(`(?s).*`, []string{"stage:reserved:5"}, "3").SetVal(int64(-1))
	require.NoError(t, c.AddReserved(ctx, 5, 3))

	mock.Regexp().ExpectEval(`(?s).*`, []string{"stage:reserved:5"}, "-3").SetVal(int64(7))
	require.NoError(t, c.AddReserved(ctx, 5, -3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterCache_Invalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCounterCache(client, time.Minute)
	ctx := context.Background()

	mock.ExpectDel("stage:reserved:5").SetVal(1)
	require.NoError(t, c.InvalidateReserved(ctx, 5))

	mock.ExpectDel("stage:sold:5").SetVal(1)
	require.NoError(t, c.InvalidateSold(ctx, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}
