package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows_VisitsEveryRowOnce(t *testing.T) {
	const rows = 97
	var seen [rows]int32

	err := Rows(context.Background(), 8, rows, func(y int) error {
		atomic.AddInt32(&seen[y], 1)
		return nil
	})
	require.NoError(t, err)
	for y := range seen {
		assert.Equal(t, int32(1), seen[y], "row %d", y)
	}
}

func TestRows_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := Rows(context.Background(), 4, 64, func(y int) error {
		if y == 10 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRows_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := Rows(ctx, 2, 1000, func(y int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRows_Empty(t *testing.T) {
	assert.NoError(t, Rows(context.Background(), 0, 0, func(int) error { return nil }))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(3))
	assert.Greater(t, Count(0), 0)
}
