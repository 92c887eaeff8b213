package services

import (
	"reflect"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func TestPropagateIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 4, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m1 := f.byCode(t, tour.ID, "R1M1")
	f.play(t, m1.ID, "p1", score(2, 0))
	before := f.byCode(t, tour.ID, "R2M1")

	c := newCore(f.deps)
	for i := 0; i < 2; i++ {
		err := c.inTx(t.Context(), func(tx *txn) error {
			src, err := tx.match(m1.ID)
			if err != nil {
				return err
			}
			return tx.propagate(src)
		})
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
	}

	after := f.get(t, before.ID)
	if after.Version != before.Version || !reflect.DeepEqual(after.Slots, before.Slots) || after.State != before.State {
		t.Fatalf("replaying the completion changed the final: before %+v after %+v", before, after)
	}
}

func TestByesFallToTopSeeds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 3, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})

	_, matches := f.stageMatches(t, tour.ID, 0)
	if len(matches) != 2 {
		t.Fatalf("expected the bye compressed away, got %d matches", len(matches))
	}
	semi := f.byCode(t, tour.ID, "R1M1")
	if semi.Slots[0].ParticipantID != "p2" || semi.Slots[1].ParticipantID != "p3" {
		t.Fatalf("expected seeds 2 and 3 to play in, got %+v", semi.Slots)
	}
	final := f.byCode(t, tour.ID, "R2M1")
	if final.Slots[0].ParticipantID != "p1" || final.Slots[1].Source == nil || final.State != models.MatchStateWaiting {
		t.Fatalf("expected p1 waiting in the final, got %+v %s", final.Slots, final.State)
	}
}

// playDoubleEliminationToGrandFinal leaves p1 (winners side) against p2
// (losers side) in GF1.
func (f *fixture) playDoubleEliminationToGrandFinal(t *testing.T, tournamentID string) *models.Match {
	t.Helper()
	for _, step := range []struct{ code, winner string }{
		{"WR1M1", "p1"},
		{"WR1M2", "p2"},
		{"WR2M1", "p1"},
		{"LR1M1", "p3"},
		{"LR2M1", "p2"},
	} {
		m := f.byCode(t, tournamentID, step.code)
		sa := 2
		if m.SideOf(step.winner) == 1 {
			sa = 0
		}
		f.play(t, m.ID, step.winner, score(sa, 2-sa))
	}
	gf := f.byCode(t, tournamentID, "GF1")
	if gf.State != models.MatchStatePending || gf.Slots[0].ParticipantID != "p1" || gf.Slots[1].ParticipantID != "p2" {
		t.Fatalf("expected GF1 p1 vs p2 pending, got %+v %s", gf.Slots, gf.State)
	}
	return gf
}

func TestDoubleEliminationResetSkipped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 4, models.FormatDoubleElimination, models.StageOptions{BracketReset: true}, models.TournamentSettings{})

	lr := f.byCode(t, tour.ID, "LR1M1")
	if lr.Slots[0].Source == nil || lr.Slots[0].Source.Outcome != models.OutcomeLoser {
		t.Fatalf("expected the losers bracket fed by winners bracket losers, got %+v", lr.Slots)
	}

	gf := f.playDoubleEliminationToGrandFinal(t, tour.ID)
	f.play(t, gf.ID, "p1", score(3, 1))

	reset := f.byCode(t, tour.ID, "GF2")
	if reset.State != models.MatchStateCancelled || reset.CancelReason != models.CancelReasonResetSkipped {
		t.Fatalf("expected the reset skipped, got %s %q", reset.State, reset.CancelReason)
	}
	tournament, err := f.brackets.GetTournament(t.Context(), tour.ID)
	if err != nil {
		t.Fatalf("get tournament: %v", err)
	}
	if tournament.Status != models.TournamentStatusCompleted || tournament.WinnerID != "p1" {
		t.Fatalf("expected p1 champion, got %s %q", tournament.Status, tournament.WinnerID)
	}
}

func TestDoubleEliminationResetPlayed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 4, models.FormatDoubleElimination, models.StageOptions{BracketReset: true}, models.TournamentSettings{})

	gf := f.playDoubleEliminationToGrandFinal(t, tour.ID)
	f.play(t, gf.ID, "p2", score(1, 3))

	reset := f.byCode(t, tour.ID, "GF2")
	if reset.State != models.MatchStatePending || reset.Slots[0].ParticipantID != "p2" || reset.Slots[1].ParticipantID != "p1" {
		t.Fatalf("expected the reset p2 vs p1, got %+v %s", reset.Slots, reset.State)
	}
	f.play(t, reset.ID, "p1", score(0, 3))

	tournament, err := f.brackets.GetTournament(t.Context(), tour.ID)
	if err != nil {
		t.Fatalf("get tournament: %v", err)
	}
	if tournament.WinnerID != "p1" {
		t.Fatalf("expected p1 champion after the reset, got %q", tournament.WinnerID)
	}
}

func TestCancellationCascadesWalkovers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 4, models.FormatDoubleElimination, models.StageOptions{}, models.TournamentSettings{})

	if _, err := f.matches.Cancel(t.Context(), f.byCode(t, tour.ID, "WR1M1").ID, "double no-show", organizer); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	wr2 := f.byCode(t, tour.ID, "WR1M2")
	f.play(t, wr2.ID, "p2", score(2, 0))

	for _, code := range []string{"WR2M1", "LR1M1", "LR2M1"} {
		m := f.byCode(t, tour.ID, code)
		if m.State != models.MatchStateCompleted || !m.Result.Walkover {
			t.Fatalf("expected %s completed by walkover, got %s %+v", code, m.State, m.Result)
		}
	}
	gf := f.byCode(t, tour.ID, "GF1")
	if gf.State != models.MatchStatePending || gf.Slots[0].ParticipantID != "p2" || gf.Slots[1].ParticipantID != "p3" {
		t.Fatalf("expected GF1 p2 vs p3, got %+v %s", gf.Slots, gf.State)
	}

	// Walkovers downstream never block an override.
	input := OverrideInput{Result: ResultInput{WinnerID: "p3", Score: score(0, 2)}, Notes: "p2 fielded a substitute"}
	if _, _, err := f.disputes.Override(t.Context(), wr2.ID, input, organizer); err != nil {
		t.Fatalf("override: %v", err)
	}
	gf = f.get(t, gf.ID)
	if gf.State != models.MatchStatePending || gf.Slots[0].ParticipantID != "p3" || gf.Slots[1].ParticipantID != "p2" {
		t.Fatalf("expected GF1 p3 vs p2 after the override, got %+v %s", gf.Slots, gf.State)
	}
}

func TestChampionSkipsResetPlaceholder(t *testing.T) {
	t.Parallel()
	gf1 := &models.Match{State: models.MatchStateCompleted, Result: &models.MatchResult{WinnerID: "p1"}}
	gf2 := &models.Match{State: models.MatchStateCancelled, CancelReason: models.CancelReasonResetSkipped}
	if got := champion([]*models.Match{gf1, gf2}); got != "p1" {
		t.Fatalf("expected p1, got %q", got)
	}
	gf2 = &models.Match{State: models.MatchStateCancelled, CancelReason: models.CancelReasonBye}
	if got := champion([]*models.Match{gf1, gf2}); got != "" {
		t.Fatalf("expected no champion when the final was cancelled, got %q", got)
	}
}
