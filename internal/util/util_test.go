package util

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"stocktracker/pkg/stocktracker"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("persistent")
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

// A decoded backend rejection is permanent: no second attempt is made.
func TestRetryStopsOnServerRejection(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &stocktracker.ServerError{StatusCode: 400, Message: "Invalid credentials"}
	})
	if calls != 1 {
		t.Errorf("expected 1 call for a server rejection, got %d", calls)
	}
	var srv *stocktracker.ServerError
	if !errors.As(err, &srv) || srv.Message != "Invalid credentials" {
		t.Errorf("expected the rejection back unchanged, got %v", err)
	}

	// Wrapped rejections are recognized too.
	calls = 0
	err = Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("fetching sectors: %w", &stocktracker.ServerError{StatusCode: 500, Message: "boom"})
	})
	if calls != 1 {
		t.Errorf("expected 1 call for a wrapped rejection, got %d", calls)
	}
	if !errors.As(err, &srv) {
		t.Errorf("expected the wrapped rejection back, got %v", err)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, time.Hour, func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		if logger := NewLogger(level, "json"); logger == nil {
			t.Errorf("NewLogger(%q) returned nil", level)
		}
	}
	if logger := NewLogger("info", "text"); logger == nil {
		t.Error("NewLogger text format returned nil")
	}
}
