// Package syncvar provides Var, a shared value guarded by a monitor.
//
// A Var owns one reference to its current value. Readers get their own
// reference through the retain callback; replacing or destroying the value
// hands the old reference to the release callback. Goroutines coordinate on
// the value with Lock, Wait and SignalAll, or with the Update and WaitUntil
// helpers that wrap that pattern.
package syncvar

import (
	"context"

	"github.com/vnykmshr/asyncrt/pkg/runtime/syncx"
)

// Option configures a Var.
type Option func(*Var)

// WithRelease sets the callback that gives up the Var's reference to a value.
func WithRelease(fn func(v any)) Option {
	return func(x *Var) {
		x.release = fn
	}
}

// WithRetain sets the callback that takes a reference for a reader.
func WithRetain(fn func(v any)) Option {
	return func(x *Var) {
		x.retain = fn
	}
}

// Var is a value shared between goroutines.
type Var struct {
	mon       syncx.Monitor
	data      any
	release   func(any)
	retain    func(any)
	destroyed bool
}

// New creates a Var holding data. The Var takes over the caller's reference.
func New(data any, opts ...Option) *Var {
	v := &Var{data: data}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Lock acquires the Var's monitor.
func (v *Var) Lock() {
	v.mon.Lock()
}

// Unlock releases the Var's monitor.
func (v *Var) Unlock() {
	v.mon.Unlock()
}

// Wait atomically unlocks the monitor and suspends until SignalAll.
// The caller must hold the lock.
func (v *Var) Wait() {
	v.mon.Wait()
}

// SignalAll wakes every goroutine blocked in Wait.
func (v *Var) SignalAll() {
	v.mon.Broadcast()
}

// Get returns a retained reference to the current value.
func (v *Var) Get() any {
	v.mon.Lock()
	data := v.GetLocked()
	v.mon.Unlock()
	return data
}

// GetLocked is Get for a caller that already holds the lock.
func (v *Var) GetLocked() any {
	v.check("Get")
	if v.retain != nil {
		v.retain(v.data)
	}
	return v.data
}

// Set replaces the value, releasing the old one, and wakes waiters.
// The Var takes over the caller's reference to data.
func (v *Var) Set(data any) {
	v.mon.Lock()
	v.SetLocked(data)
	v.mon.Broadcast()
	v.mon.Unlock()
}

// SetLocked is Set for a caller that already holds the lock. It does not
// signal; call SignalAll once the update is complete.
func (v *Var) SetLocked(data any) {
	v.check("Set")
	if v.release != nil {
		v.release(v.data)
	}
	v.data = data
}

// Update replaces the value with fn(current) under the lock and wakes
// waiters. fn receives the Var's own reference and must not keep it; the
// old value is released after fn returns.
func (v *Var) Update(fn func(current any) any) {
	v.mon.Lock()
	v.check("Update")
	v.SetLocked(fn(v.data))
	v.mon.Broadcast()
	v.mon.Unlock()
}

// WaitUntil blocks until cond holds for the current value, then returns a
// retained reference to it. It gives up when ctx is done.
func (v *Var) WaitUntil(ctx context.Context, cond func(current any) bool) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stop := context.AfterFunc(ctx, func() {
		v.mon.Lock()
		v.mon.Broadcast()
		v.mon.Unlock()
	})
	defer stop()

	v.mon.Lock()
	for {
		v.check("WaitUntil")
		if cond(v.data) {
			data := v.GetLocked()
			v.mon.Unlock()
			return data, nil
		}
		if err := ctx.Err(); err != nil {
			v.mon.Unlock()
			return nil, err
		}
		v.mon.Wait()
	}
}

// Destroy releases the current value. The Var must not be used afterwards.
func (v *Var) Destroy() {
	v.mon.Lock()
	v.check("Destroy")
	v.destroyed = true
	data := v.data
	v.data = nil
	v.mon.Broadcast()
	v.mon.Unlock()

	if v.release != nil {
		v.release(data)
	}
}

// check aborts on use of a destroyed Var. Must hold the lock; callers must
// not defer the unlock, since check gives it up before aborting.
func (v *Var) check(op string) {
	if v.destroyed {
		v.mon.Unlock()
		syncx.Fatalf("syncvar: %s on destroyed var", op)
	}
}
