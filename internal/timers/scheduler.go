// Package timers 提供按 (scope, purpose) 键控、可取消的定时器。
//
// 回调在构造时传入的 sync.Locker 下执行，与调用方的其它处理器串行。
// 被取消或被同键新定时器替换的旧定时器即使已经触发也不会执行回调。
package timers

import (
	"sync"
	"time"
)

// Key 定时器标识，例如 {roomID, "rematch"}
type Key struct {
	Scope   string
	Purpose string
}

type entry struct {
	timer *time.Timer
	gen   uint64
}

type Scheduler struct {
	lock sync.Locker

	mu      sync.Mutex
	entries map[Key]*entry
	gen     uint64
	stopped bool
}

func NewScheduler(lock sync.Locker) *Scheduler {
	return &Scheduler{
		lock:    lock,
		entries: make(map[Key]*entry),
	}
}

// Schedule 在 d 之后执行 fn；同键已有定时器时先取消
func (s *Scheduler) Schedule(key Key, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}
	s.gen++
	gen := s.gen
	e := &entry{gen: gen}
	e.timer = time.AfterFunc(d, func() { s.fire(key, gen, fn) })
	s.entries[key] = e
}

func (s *Scheduler) fire(key Key, gen uint64, fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()

	fn()
}

// Cancel 返回是否确实取消了一个待触发的定时器
func (s *Scheduler) Cancel(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, key)
	return true
}

// CancelScope 取消某个 scope 下的所有定时器
func (s *Scheduler) CancelScope(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if k.Scope != scope {
			continue
		}
		e.timer.Stop()
		delete(s.entries, k)
		n++
	}
	return n
}

func (s *Scheduler) Pending(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop 取消全部定时器，之后的 Schedule 调用被忽略
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, k)
	}
	s.stopped = true
}
