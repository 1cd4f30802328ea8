package testutil

import (
	"fmt"
	"sync"
)

// Recorder counts release and retain callbacks per value. It is used to check
// that runtime objects hand every payload back exactly once.
type Recorder struct {
	mu       sync.Mutex
	released map[interface{}]int
	retained map[interface{}]int
	order    []interface{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		released: make(map[interface{}]int),
		retained: make(map[interface{}]int),
	}
}

// Release records a release of v. Its signature matches release callbacks.
func (r *Recorder) Release(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released[v]++
	r.order = append(r.order, v)
}

// Retain records a retain of v. Its signature matches retain callbacks.
func (r *Recorder) Retain(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retained[v]++
}

// Released returns how many times v was released.
func (r *Recorder) Released(v interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released[v]
}

// Retained returns how many times v was retained.
func (r *Recorder) Retained(v interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retained[v]
}

// TotalReleased returns the number of release calls across all values.
func (r *Recorder) TotalReleased() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// ReleaseOrder returns released values in the order they were released.
func (r *Recorder) ReleaseOrder() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, len(r.order))
	copy(out, r.order)
	return out
}

// CheckReleasedOnce returns an error naming the first value in vs that was not
// released exactly once.
func (r *Recorder) CheckReleasedOnce(vs ...interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range vs {
		if n := r.released[v]; n != 1 {
			return fmt.Errorf("value %v released %d times, want 1", v, n)
		}
	}
	return nil
}
