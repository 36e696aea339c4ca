package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 3
	cfg.OpenTimeout = 50 * time.Millisecond
	b := New(cfg)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		_, err := b.Execute(context.Background(), func(context.Context) (any, error) {
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom error, got %v", err)
		}
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker open after threshold failures, got %v", b.State())
	}

	_, err := b.Execute(context.Background(), func(context.Context) (any, error) {
		t.Fatal("fn must not run while breaker is open")
		return nil, nil
	})
	if err != gobreaker.ErrOpenState {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	cfg := DefaultConfig("test2")
	cfg.FailureThreshold = 1
	cfg.OpenTimeout = 20 * time.Millisecond
	b := New(cfg)

	_, _ = b.Execute(context.Background(), func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	if b.State() != gobreaker.StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(30 * time.Millisecond)

	v, err := b.Execute(context.Background(), func(context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("expected half-open probe to succeed, got v=%v err=%v", v, err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed after successful probe, got %v", b.State())
	}
}

func TestPoolSizing(t *testing.T) {
	p := NewPool("tts", 4)
	if p.Len() != 4 {
		t.Fatalf("expected 4 breakers, got %d", p.Len())
	}
	for i := 0; i < 4; i++ {
		if p.For(i) == nil {
			t.Fatalf("breaker %d is nil", i)
		}
	}
}
