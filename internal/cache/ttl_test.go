// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/internal/cache"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.NewTTL[string, int](30*time.Minute, clock.Now)

	t.Run("get and expire", func(t *testing.T) {
		_, ok := c.Get("brc20:ordi")
		require.False(t, ok)

		c.Set("brc20:ordi", 42)

		value, ok := c.Get("brc20:ordi")
		require.True(t, ok)
		require.Equal(t, 42, value)

		clock.Advance(29 * time.Minute)
		_, ok = c.Get("brc20:ordi")
		require.True(t, ok)

		clock.Advance(time.Minute)
		_, ok = c.Get("brc20:ordi")
		require.False(t, ok)
		require.Zero(t, c.Len())
	})

	t.Run("expiry is lazy", func(t *testing.T) {
		c.Set("rune:840000:3", 7)
		clock.Advance(time.Hour)

		require.Equal(t, 1, c.Len())

		_, ok := c.Get("rune:840000:3")
		require.False(t, ok)
		require.Zero(t, c.Len())
	})

	t.Run("get or load", func(t *testing.T) {
		calls := 0
		load := func() (int, error) {
			calls++
			return 100 + calls, nil
		}

		value, err := c.GetOrLoad("brc20:sats", load)
		require.NoError(t, err)
		require.Equal(t, 101, value)

		value, err = c.GetOrLoad("brc20:sats", load)
		require.NoError(t, err)
		require.Equal(t, 101, value)
		require.Equal(t, 1, calls)

		clock.Advance(31 * time.Minute)

		value, err = c.GetOrLoad("brc20:sats", load)
		require.NoError(t, err)
		require.Equal(t, 102, value)
	})

	t.Run("failed load is not cached", func(t *testing.T) {
		errLoad := errors.New("load")

		_, err := c.GetOrLoad("brc20:fail", func() (int, error) { return 0, errLoad })
		require.ErrorIs(t, err, errLoad)

		_, ok := c.Get("brc20:fail")
		require.False(t, ok)
	})
}
