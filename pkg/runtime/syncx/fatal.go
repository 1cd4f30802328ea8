package syncx

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// FatalHandler receives the diagnostic of an unrecoverable runtime fault.
// A handler should not return; if it does, Fatalf panics with the message.
type FatalHandler func(msg string)

var fatalHandler atomic.Pointer[FatalHandler]

func init() {
	h := FatalHandler(abort)
	fatalHandler.Store(&h)
}

// abort reports msg with a stack trace and exits the process with status 1.
func abort(msg string) {
	slog.Error("fatal runtime fault", "error", msg)
	fmt.Fprintf(os.Stderr, "[runtime] %s\n%s", msg, debug.Stack())
	os.Exit(1)
}

// Fatalf reports an unrecoverable fault and never returns.
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	(*fatalHandler.Load())(msg)
	panic("syncx: fatal handler returned: " + msg)
}

// SetFatalHandler replaces the handler used by Fatalf and returns a function
// restoring the previous one. A nil handler restores the default.
func SetFatalHandler(h FatalHandler) (restore func()) {
	if h == nil {
		h = abort
	}
	prev := fatalHandler.Swap(&h)
	return func() {
		fatalHandler.Store(prev)
	}
}
