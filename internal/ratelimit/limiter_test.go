package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l := New(60, 3)

	for i := 0; i < 3; i++ {
		d := l.Check("user_1")
		require.True(t, d.Allowed)
		require.Equal(t, 3, d.Limit)
	}

	d := l.Check("user_1")
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	require.Greater(t, d.ResetEpoch, int64(0))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New(60, 1)

	require.True(t, l.Check("user_1").Allowed)
	require.False(t, l.Check("user_1").Allowed)
	require.True(t, l.Check("user_2").Allowed)
}

func TestLimiterDefaultsAppliedForInvalidConfig(t *testing.T) {
	l := New(0, 0)
	require.Equal(t, int64(60), l.windowSeconds)
	require.Equal(t, 30, l.limit)
}

func TestLimiterCleanupDropsStaleBuckets(t *testing.T) {
	l := New(10, 5)
	l.buckets["user_1:0"] = 5
	l.buckets["user_1:9999999999"] = 1

	l.cleanup(100)

	_, stillPresent := l.buckets["user_1:0"]
	require.False(t, stillPresent)
	_, recentPresent := l.buckets["user_1:9999999999"]
	require.True(t, recentPresent)
}
