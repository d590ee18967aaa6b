package utils

import (
	"errors"
	"testing"
	"time"
)

func TestRecoverAsError(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		fn := func() (err error) {
			defer RecoverAsError(&err)
			panic("neo4j row")
		}

		err := fn()
		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("expected PanicError, got %T", err)
		}
		if panicErr.Value != "neo4j row" {
			t.Errorf("expected panic value 'neo4j row', got %v", panicErr.Value)
		}
		if panicErr.StackTrace == "" {
			t.Error("expected stack trace to be populated")
		}
	})

	t.Run("preserves original error", func(t *testing.T) {
		originalErr := errors.New("original error")
		fn := func() (err error) {
			defer RecoverAsError(&err)
			return originalErr
		}

		if err := fn(); err != originalErr {
			t.Errorf("expected original error, got %v", err)
		}
	})
}

func TestRecoverWithCallback(t *testing.T) {
	var captured error
	func() {
		defer RecoverWithCallback(func(err error) { captured = err })
		panic("callback test")
	}()

	var panicErr *PanicError
	if !errors.As(captured, &panicErr) {
		t.Fatalf("expected PanicError, got %T", captured)
	}

	// nil callback must not re-panic
	func() {
		defer RecoverWithCallback(nil)
		panic("nil callback test")
	}()
}

func TestSafeGo(t *testing.T) {
	errCh := make(chan error, 1)
	SafeGo(func() {
		panic("safe go panic")
	}, func(err error) {
		errCh <- err
	})

	select {
	case err := <-errCh:
		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("expected PanicError, got %T", err)
		}
	case <-time.After(time.Second):
		t.Fatal("error handler was not called")
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test value"}
	if err.Error() != "panic: test value" {
		t.Errorf("expected %q, got %q", "panic: test value", err.Error())
	}
}
