package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, Delay: Flat(time.Second), Sleep: func(time.Duration) {}}
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt == 2 {
			return nil
		}
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDoNeverExceedsBudget(t *testing.T) {
	calls := 0
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Delay:       Flat(2 * time.Second),
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	}
	wantErr := errors.New("always fails")
	err := p.Do(context.Background(), func(int) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error to surface, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	// exactly one delay between each pair of attempts
	if len(slept) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(slept))
	}
	for _, d := range slept {
		if d != 2*time.Second {
			t.Fatalf("expected flat 2s delay, got %v", d)
		}
	}
}

func TestEscalatingDelays(t *testing.T) {
	d := Escalating(10*time.Second, 5*time.Second)
	want := []time.Duration{15 * time.Second, 20 * time.Second, 25 * time.Second}
	for i, w := range want {
		if got := d(i + 1); got != w {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
	// strictly increasing
	for i := 2; i <= 5; i++ {
		if d(i) <= d(i-1) {
			t.Errorf("delay must strictly increase: d(%d)=%v <= d(%d)=%v", i, d(i), i-1, d(i-1))
		}
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{MaxAttempts: 5, Delay: Flat(0), Sleep: func(time.Duration) {}}
	err := p.Do(ctx, func(int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", calls)
	}
}
