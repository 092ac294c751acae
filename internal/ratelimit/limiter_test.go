package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := NewLimiter(1.0, 5.0)

	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("Allow() = false within burst capacity at call %d", i)
		}
	}
	if l.Allow() {
		t.Error("Allow() = true after burst exhausted")
	}
}

func TestWaitConsumesToken(t *testing.T) {
	l := NewLimiter(100.0, 1.0)

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	// Bucket empty; second Wait must block until refill (~10ms at 100/sec)
	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("Wait returned too quickly: %v", elapsed)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	l := NewLimiter(0.1, 1.0) // very slow refill

	if !l.Allow() {
		t.Fatal("initial token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("Wait should fail when context expires before a token is available")
	}
}

func TestRefillCapsAtBurstSize(t *testing.T) {
	l := NewLimiter(1000.0, 2.0)
	time.Sleep(20 * time.Millisecond)

	count := 0
	for l.Allow() {
		count++
		if count > 10 {
			break
		}
	}
	if count > 2 {
		t.Errorf("bucket exceeded burst capacity: %d tokens consumed", count)
	}
}
