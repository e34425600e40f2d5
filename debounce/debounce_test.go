package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTriggerCoalescesBursts(t *testing.T) {
	d := New(20 * time.Millisecond)

	var calls int32
	var last int32
	for i := 1; i <= 5; i++ {
		i := int32(i)
		d.Trigger(func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, i)
		})
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)

	// Give a superseded invocation time to fire if it wrongly survived.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, int32(5), atomic.LoadInt32(&last), "the latest function wins")
}

func TestFlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	require.True(t, d.Pending())

	d.Flush()
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.False(t, d.Pending())

	// Flushing with nothing pending is a no-op.
	d.Flush()
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCancelDropsPending(t *testing.T) {
	d := New(10 * time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Cancel()
	require.False(t, d.Pending())

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTriggerRestartsDelay(t *testing.T) {
	d := New(60 * time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(40 * time.Millisecond)
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first trigger, but only 40ms after the second.
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)
}
