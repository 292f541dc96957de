package lockout

import (
	"context"
	"testing"
)

func TestLocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, 60)

	for i := 0; i < 2; i++ {
		s.RecordFailure(ctx, "resolve:10.0.0.1")
		if locked, _ := s.IsLocked(ctx, "resolve:10.0.0.1"); locked {
			t.Fatalf("locked after %d failures, max is 3", i+1)
		}
	}
	s.RecordFailure(ctx, "resolve:10.0.0.1")
	locked, retryAfter := s.IsLocked(ctx, "resolve:10.0.0.1")
	if !locked {
		t.Fatal("expected lock after 3 failures")
	}
	if retryAfter < 1 || retryAfter > 60 {
		t.Fatalf("retryAfter = %d, want 1..60", retryAfter)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(1, 60)
	s.RecordFailure(ctx, "resolve:10.0.0.1")
	if locked, _ := s.IsLocked(ctx, "resolve:10.0.0.2"); locked {
		t.Fatal("failure on one key locked another")
	}
}

func TestSuccessClearsFailures(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, 60)
	s.RecordFailure(ctx, "resolve:10.0.0.1")
	s.RecordSuccess(ctx, "resolve:10.0.0.1")
	s.RecordFailure(ctx, "resolve:10.0.0.1")
	if locked, _ := s.IsLocked(ctx, "resolve:10.0.0.1"); locked {
		t.Fatal("success did not reset the failure count")
	}
}

func TestZeroMaxAttemptsDisablesLockout(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 60)
	for i := 0; i < 20; i++ {
		s.RecordFailure(ctx, "resolve:10.0.0.1")
	}
	if locked, _ := s.IsLocked(ctx, "resolve:10.0.0.1"); locked {
		t.Fatal("lockout fired with maxAttempts 0")
	}
}
