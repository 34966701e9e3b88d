package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noJitter(b *Backoff) *Backoff {
	b.rand = func() float64 { return 0.5 }
	return b
}

func TestBackoff_Next(t *testing.T) {
	b := noJitter(NewBackoff(10*time.Millisecond, 40*time.Millisecond))

	want := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		40 * time.Millisecond,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}

	b.Reset()
	if b.Current() != 10*time.Millisecond {
		t.Errorf("Current() after Reset = %v, want 10ms", b.Current())
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second)
	for i := 0; i < 20; i++ {
		b.Reset()
		d := b.Next()
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("Next() = %v, outside ±20%% of 100ms", d)
		}
	}
}

func TestNewBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Current() != DefaultInitial {
		t.Errorf("Current() = %v, want %v", b.Current(), DefaultInitial)
	}
	if b.max != DefaultMax {
		t.Errorf("max = %v, want %v", b.max, DefaultMax)
	}
}

func TestBackoff_WaitCanceled(t *testing.T) {
	b := NewBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Sleep returned early")
	}
}
