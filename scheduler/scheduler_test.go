package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/services"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	ran   chan struct{}
	err   error
}

func (r *countingRunner) RunOnce(ctx context.Context) (services.ReconcileReport, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	select {
	case r.ran <- struct{}{}:
	default:
	}
	return services.ReconcileReport{Scanned: 1, Applied: 1}, r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSchedulerRunsImmediatelyAndStops(t *testing.T) {
	t.Parallel()
	runner := &countingRunner{ran: make(chan struct{}, 1)}
	s, err := New(runner, time.Hour, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-runner.ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected the first pass to run on start")
	}

	if _, err := s.NextRun(); err != nil {
		t.Fatalf("next run: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := runner.count(); got != 1 {
		t.Fatalf("expected exactly one pass within the interval, got %d", got)
	}
}

func TestSchedulerRunNow(t *testing.T) {
	t.Parallel()
	runner := &countingRunner{ran: make(chan struct{}, 1), err: errors.New("boom")}
	s, err := New(runner, time.Minute, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	report, err := s.RunNow(t.Context())
	if err == nil || report.Applied != 1 {
		t.Fatalf("expected the runner result passed through, got %+v %v", report, err)
	}
	if _, err := s.NextRun(); err == nil {
		t.Fatalf("expected no next run before start")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()
	if _, err := New(&countingRunner{}, 0, nil); err == nil {
		t.Fatalf("expected a zero interval to be rejected")
	}
}
