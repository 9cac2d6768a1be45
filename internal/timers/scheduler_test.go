package timers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleFires(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	var fired atomic.Int32
	key := Key{Scope: "room-1", Purpose: "countdown"}
	s.Schedule(key, 10*time.Millisecond, func() { fired.Add(1) })
	assert.True(t, s.Pending(key))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Pending(key))
}

func TestCancelPreventsCallback(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	var fired atomic.Int32
	key := Key{Scope: "room-1", Purpose: "rematch"}
	s.Schedule(key, 20*time.Millisecond, func() { fired.Add(1) })
	assert.True(t, s.Cancel(key))
	assert.False(t, s.Cancel(key))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestRescheduleReplacesOldTimer(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	var first, second atomic.Int32
	key := Key{Scope: "conn-1", Purpose: "queue"}
	s.Schedule(key, 10*time.Millisecond, func() { first.Add(1) })
	s.Schedule(key, 30*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

// 回调已触发但在等锁期间被取消：不应执行
func TestStaleFireWhileLockedIsNoop(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	var fired atomic.Int32
	key := Key{Scope: "room-1", Purpose: "end_grace"}

	mu.Lock()
	s.Schedule(key, time.Millisecond, func() { fired.Add(1) })
	time.Sleep(20 * time.Millisecond) // timer has fired and is blocked on mu
	s.Cancel(key)
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestCallbackRunsUnderLock(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	done := make(chan bool, 1)
	s.Schedule(Key{Scope: "x", Purpose: "y"}, time.Millisecond, func() {
		done <- !mu.TryLock()
	})
	select {
	case locked := <-done:
		assert.True(t, locked, "callback should hold the lock")
	case <-time.After(time.Second):
		t.Fatal("callback did not run")
	}
}

func TestCancelScope(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	var fired atomic.Int32
	s.Schedule(Key{Scope: "room-1", Purpose: "a"}, 20*time.Millisecond, func() { fired.Add(1) })
	s.Schedule(Key{Scope: "room-1", Purpose: "b"}, 20*time.Millisecond, func() { fired.Add(1) })
	s.Schedule(Key{Scope: "room-2", Purpose: "a"}, 20*time.Millisecond, func() { fired.Add(10) })

	assert.Equal(t, 2, s.CancelScope("room-1"))
	assert.Eventually(t, func() bool { return fired.Load() == 10 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(10), fired.Load())
	assert.Equal(t, 0, s.Len())
}

func TestStopIgnoresLaterSchedules(t *testing.T) {
	var mu sync.Mutex
	s := NewScheduler(&mu)

	s.Schedule(Key{Scope: "a", Purpose: "b"}, time.Hour, func() {})
	s.Stop()
	assert.Equal(t, 0, s.Len())

	s.Schedule(Key{Scope: "a", Purpose: "b"}, time.Millisecond, func() {})
	assert.Equal(t, 0, s.Len())
}
