package asynctask

import (
	"fmt"
	"sync"

	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
)

var (
	defaultMu    sync.Mutex
	defaultSched *Scheduler
)

// Init creates and starts the process-wide scheduler.
func Init(config Config) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSched != nil {
		return fmt.Errorf("default scheduler: %w", arterrors.ErrAlreadyInitialized)
	}
	s, err := NewStarted(config)
	if err != nil {
		return err
	}
	defaultSched = s
	return nil
}

// Default returns the process-wide scheduler, or nil before Init.
func Default() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSched
}

// Shutdown terminates the process-wide scheduler. Init may be called again
// afterwards.
func Shutdown() error {
	defaultMu.Lock()
	s := defaultSched
	defaultSched = nil
	defaultMu.Unlock()

	if s == nil {
		return fmt.Errorf("default scheduler: %w", arterrors.ErrNotInitialized)
	}
	return s.Terminate()
}
