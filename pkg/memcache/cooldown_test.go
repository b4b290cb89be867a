package mem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownsAcquireOncePerWindow(t *testing.T) {
	ctx := context.Background()
	s := NewCooldowns()

	ok, err := s.Acquire(ctx, "stock_alert:win11", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	for i := 0; i < 10; i++ {
		ok, err = s.Acquire(ctx, "stock_alert:win11", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "cooldown must suppress repeat acquisitions")
	}

	active, err := s.Active(ctx, "stock_alert:win11")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestCooldownsExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewCooldowns()

	ok, err := s.Acquire(ctx, "stock_alert:office", 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	active, err := s.Active(ctx, "stock_alert:office")
	require.NoError(t, err)
	assert.False(t, active)

	ok, err = s.Acquire(ctx, "stock_alert:office", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "expired cooldown must be acquirable again")
}

func TestCooldownsReset(t *testing.T) {
	ctx := context.Background()
	s := NewCooldowns()

	ok, err := s.Acquire(ctx, "stock_alert:p1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Reset(ctx, "stock_alert:p1"))

	ok, err = s.Acquire(ctx, "stock_alert:p1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCooldownsKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewCooldowns()

	ok, _ := s.Acquire(ctx, "stock_alert:a", time.Hour)
	assert.True(t, ok)
	ok, _ = s.Acquire(ctx, "stock_alert:b", time.Hour)
	assert.True(t, ok)
}
