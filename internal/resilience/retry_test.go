package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fastCfg = Config{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastCfg, func(context.Context) error {
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

func TestDo_RetriesTransient(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastCfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("overloaded"), 529)
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

func TestDo_StopsOnPermanentError(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastCfg, func(context.Context) error {
		calls++
		return errors.New("invalid credentials")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastCfg, func(context.Context) error {
		calls++
		return NewTransientError(errors.New("still down"), 503)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	val, err := DoVal(context.Background(), fastCfg, func(context.Context) (string, error) {
		return "https://www.linkedin.com/company/acme", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "https://www.linkedin.com/company/acme" {
		t.Errorf("unexpected value %q", val)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Do(ctx, fastCfg, func(context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("reset"), 0)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected no retries after cancel, got %d calls", calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("x"), 503), true},
		{"wrapped string", errors.New("read tcp: connection reset by peer"), true},
		{"rate limit", errors.New("anthropic: rate limit exceeded"), true},
		{"permanent", errors.New("404 not found"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("%s: IsTransient = %v, want %v", tt.name, got, tt.want)
		}
	}
}
