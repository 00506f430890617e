package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowsUpToLimitThenBlocks(t *testing.T) {
	l := New(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt should be blocked")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("remaining: got %d, want 0", got)
	}
	if !l.Allow("other") {
		t.Error("keys are independent")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected block inside window")
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if !l.Allow("k") {
		t.Error("expected a new window after expiry")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	l.Allow("k")
	l.Reset("k")
	if got := l.Remaining("k"); got != 1 {
		t.Errorf("remaining after reset: got %d, want 1", got)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ClientIP(r); got != "10.0.0.9" {
		t.Errorf("remote addr: got %q", got)
	}

	r.Header.Set("X-Real-IP", "192.0.2.4")
	if got := ClientIP(r); got != "192.0.2.4" {
		t.Errorf("x-real-ip: got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Errorf("x-forwarded-for: got %q", got)
	}
}

func TestAuthLimiter_PerEmailAndReset(t *testing.T) {
	a := NewAuthLimiter(100, 2)
	defer a.Stop()
	r := httptest.NewRequest("POST", "/login", nil)

	if !a.Allow(r, "Dana@Example.com") || !a.Allow(r, "dana@example.com ") {
		t.Fatal("first two attempts should pass")
	}
	if a.Allow(r, "dana@example.com") {
		t.Error("third attempt against the same account should be blocked")
	}
	a.Succeeded("DANA@example.com")
	if !a.Allow(r, "dana@example.com") {
		t.Error("success should clear the account counter")
	}
}
