package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExecErrorMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", TimeLimitExceeded("sandbox", 10*time.Second))
	if !errors.Is(err, ErrResourceExceeded) {
		t.Fatalf("expected resource exceeded match")
	}
	if errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("did not expect service unavailable match")
	}
	if KindOf(err) != ErrorResourceExceeded {
		t.Fatalf("expected resource_exceeded kind, got %q", KindOf(err))
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) || execErr.Error() != "Time Limit Exceeded (10s)" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestExecErrorUnwrapsCause(t *testing.T) {
	err := NewExecError(ErrorCanceled, "remote", context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped cause to match")
	}
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected kind sentinel to match")
	}
	if err.Error() != context.Canceled.Error() {
		t.Fatalf("expected cause message, got %q", err.Error())
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("boom")) != ErrorRuntime {
		t.Fatalf("expected runtime for unclassified errors")
	}
	if (&ExecError{Op: "render"}).Error() != "render failed" {
		t.Fatalf("unexpected op-only message")
	}
}

func TestTimeLimitLabel(t *testing.T) {
	if got := TimeLimitExceeded("remote", 15*time.Second).Error(); got != "Time Limit Exceeded (15s)" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := TimeLimitExceeded("sandbox", 250*time.Millisecond).Error(); got != "Time Limit Exceeded (250ms)" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAsExecError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewExecError(ErrorBuild, "transpile", errors.New("bad token")))
	execErr, ok := AsExecError(wrapped)
	if !ok || execErr.Kind != ErrorBuild {
		t.Fatalf("expected build exec error, got %v %v", execErr, ok)
	}
	if _, ok := AsExecError(errors.New("plain")); ok {
		t.Fatalf("expected plain error to not match")
	}
}
