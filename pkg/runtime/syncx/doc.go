/*
Package syncx provides the synchronization primitives shared by the asyncrt
runtime: a Monitor (a mutex paired with a condition variable) and a fail-fast
Fatalf used when a runtime invariant is violated.

The primitives are assumed infallible. When an invariant they protect no longer
holds (a reference count going negative, a task being released after it was
destroyed) the process cannot keep its guarantees, so Fatalf reports the
problem and terminates instead of returning an error to the caller.

Basic usage:

	var m syncx.Monitor
	m.Lock()
	for !ready {
		m.Wait()
	}
	m.Unlock()

Tests that need to observe a fatal condition install their own handler:

	restore := syncx.SetFatalHandler(func(msg string) {
		panic(msg)
	})
	defer restore()
*/
package syncx
