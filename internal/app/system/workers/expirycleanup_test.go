package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeExpirer struct {
	n     int64
	err   error
	calls atomic.Int32
	seen  atomic.Value
}

func (f *fakeExpirer) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	f.seen.Store(now)
	return f.n, f.err
}

func TestSweep_SumsAndSkipsFailures(t *testing.T) {
	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	ok := &fakeExpirer{n: 3}
	bad := &fakeExpirer{err: errors.New("boom")}

	w := NewExpiryCleanup(map[string]Expirer{"cooldowns": ok, "reset_tokens": bad}, zap.NewNop(), time.Minute)
	w.now = func() time.Time { return fixed }

	if got := w.sweep(); got != 3 {
		t.Errorf("sweep total: got %d, want 3", got)
	}
	if ok.calls.Load() != 1 || bad.calls.Load() != 1 {
		t.Error("every target should be visited once")
	}
	if seen, _ := ok.seen.Load().(time.Time); !seen.Equal(fixed) {
		t.Errorf("expected sweep time %v, got %v", fixed, seen)
	}
}

func TestStartStop_RunsOnInterval(t *testing.T) {
	f := &fakeExpirer{}
	w := NewExpiryCleanup(map[string]Expirer{"x": f}, zap.NewNop(), 10*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if f.calls.Load() == 0 {
		t.Error("expected at least one sweep")
	}
}

func TestNewExpiryCleanup_DefaultInterval(t *testing.T) {
	w := NewExpiryCleanup(nil, zap.NewNop(), 0)
	if w.interval != time.Minute {
		t.Errorf("interval: got %v, want 1m", w.interval)
	}
}
