package syncx

import "sync"

// Monitor is a mutex paired with a condition variable.
// The zero value is ready to use. A Monitor must not be copied after first use.
type Monitor struct {
	mu   sync.Mutex
	cond sync.Cond
	once sync.Once
}

func (m *Monitor) init() {
	m.once.Do(func() {
		m.cond.L = &m.mu
	})
}

// Lock acquires the monitor's mutex.
func (m *Monitor) Lock() {
	m.mu.Lock()
}

// Unlock releases the monitor's mutex.
func (m *Monitor) Unlock() {
	m.mu.Unlock()
}

// Wait atomically unlocks the monitor and suspends the calling goroutine
// until Broadcast or Signal wakes it. The mutex is held again on return.
// Callers must hold the lock and re-check their condition in a loop.
func (m *Monitor) Wait() {
	m.init()
	m.cond.Wait()
}

// Broadcast wakes every goroutine waiting on the monitor.
func (m *Monitor) Broadcast() {
	m.init()
	m.cond.Broadcast()
}

// Signal wakes one goroutine waiting on the monitor.
func (m *Monitor) Signal() {
	m.init()
	m.cond.Signal()
}
