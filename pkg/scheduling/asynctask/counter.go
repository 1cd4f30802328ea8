package asynctask

import (
	"github.com/vnykmshr/asyncrt/pkg/runtime/syncx"
)

// drainCounter counts run-after-released tasks alive on dedicated
// goroutines. Terminate blocks on it before tearing down the pool.
type drainCounter struct {
	mon syncx.Monitor
	n   int64
}

func (c *drainCounter) add() {
	c.mon.Lock()
	c.n++
	c.mon.Unlock()
}

// done retires one slot and wakes shutdown waiters.
func (c *drainCounter) done() {
	c.mon.Lock()
	if c.n <= 0 {
		c.mon.Unlock()
		syncx.Fatalf("asynctask: termination counter underflow")
	}
	c.n--
	c.mon.Broadcast()
	c.mon.Unlock()
}

// wait blocks until the counter reaches zero.
func (c *drainCounter) wait() {
	c.mon.Lock()
	for c.n > 0 {
		c.mon.Wait()
	}
	c.mon.Unlock()
}

func (c *drainCounter) load() int64 {
	c.mon.Lock()
	defer c.mon.Unlock()
	return c.n
}
