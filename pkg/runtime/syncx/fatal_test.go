package syncx

import (
	"strings"
	"testing"

	"github.com/vnykmshr/asyncrt/internal/testutil"
)

func TestFatalfInvokesHandler(t *testing.T) {
	var got string
	restore := SetFatalHandler(func(msg string) {
		got = msg
		panic(msg)
	})
	defer restore()

	func() {
		defer func() {
			r := recover()
			testutil.AssertNotEqual(t, r, nil)
		}()
		Fatalf("refcount underflow on task %d", 7)
	}()

	testutil.AssertEqual(t, got, "refcount underflow on task 7")
}

func TestFatalfPanicsWhenHandlerReturns(t *testing.T) {
	restore := SetFatalHandler(func(string) {})
	defer restore()

	defer func() {
		r := recover()
		msg, ok := r.(string)
		testutil.AssertEqual(t, ok, true)
		testutil.AssertEqual(t, strings.Contains(msg, "handler returned"), true)
	}()
	Fatalf("boom")
}

func TestSetFatalHandlerRestore(t *testing.T) {
	var calls []string
	restoreOuter := SetFatalHandler(func(msg string) {
		calls = append(calls, "outer:"+msg)
		panic(msg)
	})
	defer restoreOuter()

	restoreInner := SetFatalHandler(func(msg string) {
		calls = append(calls, "inner:"+msg)
		panic(msg)
	})
	restoreInner()

	func() {
		defer func() { _ = recover() }()
		Fatalf("x")
	}()

	testutil.AssertEqual(t, len(calls), 1)
	testutil.AssertEqual(t, calls[0], "outer:x")
}
