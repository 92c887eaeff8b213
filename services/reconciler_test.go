package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// scriptedResults fails expiry of selected matches with a fixed error.
type scriptedResults struct {
	ResultService
	mu    sync.Mutex
	fails map[string]error
	calls int
}

func (s *scriptedResults) ExpireConfirmation(ctx context.Context, matchID string, generation int) (*models.Match, error) {
	s.mu.Lock()
	s.calls++
	err := s.fails[matchID]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.ResultService.ExpireConfirmation(ctx, matchID, generation)
}

func TestReconcilerExpiresOverdueClaims(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 8, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})

	for _, code := range []string{"R1M1", "R1M2", "R1M3"} {
		m := f.byCode(t, tour.ID, code)
		f.pendingClaim(t, m.ID, m.Slots[0].ParticipantID, score(2, 0))
	}
	f.clock.Advance(time.Hour)
	// Still inside the window.
	late := f.byCode(t, tour.ID, "R1M4")
	f.pendingClaim(t, late.ID, late.Slots[1].ParticipantID, score(0, 2))
	f.clock.Advance(23 * time.Hour)

	stale := f.byCode(t, tour.ID, "R1M2")
	broken := f.byCode(t, tour.ID, "R1M3")
	results := &scriptedResults{ResultService: f.results, fails: map[string]error{
		stale.ID:  ErrStaleWrite,
		broken.ID: errors.New("disk on fire"),
	}}
	reconciler := NewReconciler(f.deps, results, 2)

	report, err := reconciler.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	want := ReconcileReport{Scanned: 3, Applied: 1, Stale: 1, Failed: 1}
	if report != want {
		t.Fatalf("expected %+v, got %+v", want, report)
	}

	if m := f.byCode(t, tour.ID, "R1M1"); m.State != models.MatchStateCompleted || m.Result.FinalizedBy != SystemActorID {
		t.Fatalf("expected R1M1 auto confirmed, got %s", m.State)
	}
	if m := f.get(t, late.ID); m.State != models.MatchStatePendingConfirmation {
		t.Fatalf("expected R1M4 untouched, got %s", m.State)
	}
}

func TestReconcilerWithNothingOverdue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})

	report, err := NewReconciler(f.deps, f.results, 0).RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if report != (ReconcileReport{}) {
		t.Fatalf("expected an empty report, got %+v", report)
	}
}

func TestReconcilerStopsOnCancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m := f.byCode(t, tour.ID, "R1M1")
	f.pendingClaim(t, m.ID, "p1", score(1, 0))
	f.clock.Advance(48 * time.Hour)

	results := &scriptedResults{ResultService: f.results, fails: map[string]error{m.ID: context.Canceled}}
	if _, err := NewReconciler(f.deps, results, 1).RunOnce(t.Context()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDashboardStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 4, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	f.createTournament(t, 2, models.TournamentSettings{})

	m1 := f.byCode(t, tour.ID, "R1M1")
	m2 := f.byCode(t, tour.ID, "R1M2")
	f.pendingClaim(t, m1.ID, "p1", score(2, 0))
	f.start(t, m2.ID)
	f.submit(t, m2.ID, "p2", "p2", score(2, 0))
	f.submit(t, m2.ID, "p3", "p3", score(0, 2))
	f.clock.Advance(25 * time.Hour)

	stats, err := NewDashboardService(f.deps).GetStats(t.Context())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := models.DashboardStats{
		TournamentsTotal:  2,
		ActiveTournaments: 1,
		AwaitingConfirm:   1,
		OverdueMatches:    1,
		ConflictedMatches: 1,
		OpenDisputes:      1,
	}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
}
