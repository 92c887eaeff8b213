package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

func TestSingleEliminationFinalsSlotResolvesFromSemiFinal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 4, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})

	m1 := f.byCode(t, tour.ID, "R1M1")
	if m1.Slots[0].ParticipantID != "p1" || m1.Slots[1].ParticipantID != "p4" {
		t.Fatalf("expected M1 = seed1 vs seed4, got %+v", m1.Slots)
	}
	m2 := f.byCode(t, tour.ID, "R1M2")
	if m2.Slots[0].ParticipantID != "p2" || m2.Slots[1].ParticipantID != "p3" {
		t.Fatalf("expected M2 = seed2 vs seed3, got %+v", m2.Slots)
	}

	done := f.play(t, m1.ID, "p1", json.RawMessage(`[13,7]`))
	if done.Result.WinnerID != "p1" || string(done.Result.Score) != `[13,7]` {
		t.Fatalf("unexpected result %+v", done.Result)
	}

	final := f.byCode(t, tour.ID, "R2M1")
	if final.Slots[0].ParticipantID != "p1" {
		t.Fatalf("expected finals slot 1 = p1, got %+v", final.Slots[0])
	}
	if final.Slots[1].Resolved() {
		t.Fatalf("expected finals slot 2 unresolved until M2 finalizes, got %+v", final.Slots[1])
	}
	if final.State != models.MatchStateWaiting {
		t.Fatalf("expected final waiting, got %s", final.State)
	}
}

func TestAgreementIsCommutative(t *testing.T) {
	t.Parallel()

	for _, firstSide := range []int{0, 1} {
		f := newFixture(t)
		tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
		m := f.byCode(t, tour.ID, "R1M1")
		f.start(t, m.ID)

		first := m.Slots[firstSide].ParticipantID
		second := m.Slots[1-firstSide].ParticipantID
		f.submit(t, m.ID, first, "p2", json.RawMessage(`{"scores": [11, 13]}`))
		out := f.submit(t, m.ID, second, "p2", json.RawMessage(`{"scores":[11,13]}`))

		if out.State != models.MatchStateCompleted || out.Result.WinnerID != "p2" {
			t.Fatalf("first side %d: expected completed with p2, got %s %+v", firstSide, out.State, out.Result)
		}
		if string(out.Result.Score) != `{"scores":[11,13]}` {
			t.Fatalf("first side %d: unexpected score %s", firstSide, out.Result.Score)
		}
	}
}

func TestDisagreementIsCommutative(t *testing.T) {
	t.Parallel()

	for _, firstSide := range []int{0, 1} {
		f := newFixture(t)
		tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
		m := f.byCode(t, tour.ID, "R1M1")
		f.start(t, m.ID)

		f.submit(t, m.ID, m.Slots[firstSide].ParticipantID, "p1", score(13, 7))
		out := f.submit(t, m.ID, m.Slots[1-firstSide].ParticipantID, "p2", score(7, 13))
		if out.State != models.MatchStateConflicted {
			t.Fatalf("first side %d: expected conflicted, got %s", firstSide, out.State)
		}
	}
}

func TestScoreMismatchConflictsEvenWhenWinnerAgrees(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m := f.byCode(t, tour.ID, "R1M1")
	f.start(t, m.ID)

	f.submit(t, m.ID, "p1", "p1", score(13, 7))
	out := f.submit(t, m.ID, "p2", "p1", score(13, 8))
	if out.State != models.MatchStateConflicted {
		t.Fatalf("expected conflicted, got %s", out.State)
	}
	if out.Result != nil {
		t.Fatalf("expected no result on a conflicted match, got %+v", out.Result)
	}

	details, err := f.matches.Get(t.Context(), m.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if details.ActiveClaims[0] == nil || details.ActiveClaims[1] == nil {
		t.Fatalf("expected both competing claims retained, got %+v", details.ActiveClaims)
	}
	if len(details.Disputes) != 1 || details.Disputes[0].Reason != models.ReasonConflictingClaims || details.Disputes[0].RaisedBy != "" {
		t.Fatalf("expected one system dispute for conflicting claims, got %+v", details.Disputes)
	}
	decisions := details.AvailableDecisions
	if len(decisions) != 3 || decisions[0] != models.DecisionApproveSubmission {
		t.Fatalf("unexpected decisions %v", decisions)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	schema := json.RawMessage(`{
		"type": "object",
		"required": ["scores"],
		"properties": {"scores": {"type": "array", "minItems": 2, "maxItems": 2, "items": {"type": "integer", "minimum": 0}}}
	}`)

	tests := []struct {
		name   string
		who    string
		input  SubmitResultInput
		target error
	}{
		{"outsider", "p9", SubmitResultInput{ClaimedWinnerID: "p1", Score: score(2, 0)}, ErrNotParticipant},
		{"winner not in match", "p1", SubmitResultInput{ClaimedWinnerID: "p3", Score: score(2, 0)}, ErrValidation},
		{"scalar score", "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: json.RawMessage(`"2-0"`)}, ErrValidation},
		{"broken json", "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: json.RawMessage(`{"scores":[2,`)}, ErrValidation},
		{"schema violation", "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: json.RawMessage(`{"scores":[-1,0]}`)}, ErrValidation},
		{"draw in bracket", "p1", SubmitResultInput{ClaimedWinnerID: "", Score: score(1, 1)}, ErrValidation},
		{"unknown proof", "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: score(2, 0), ProofRef: "nope"}, ErrValidation},
	}

	f := newFixture(t)
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{},
		models.TournamentSettings{ScoreSchema: schema, AllowDraws: true})
	m := f.byCode(t, tour.ID, "R1M1")

	if _, _, err := f.results.Submit(t.Context(), m.ID, "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: score(2, 0)}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before the match is live, got %v", err)
	}
	f.start(t, m.ID)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.results.Submit(t.Context(), m.ID, tt.who, tt.input)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}

	_, out, err := f.results.Submit(t.Context(), m.ID, "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: score(2, 0), ProofRef: "proof-1"})
	if err != nil || out.State != models.MatchStatePendingConfirmation {
		t.Fatalf("expected a valid submission to be accepted, got %v", err)
	}
}

func TestProofRequiredByPolicy(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(d *Dependencies) { d.Policy.RequireProof = true })
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m := f.byCode(t, tour.ID, "R1M1")
	f.start(t, m.ID)

	if _, _, err := f.results.Submit(t.Context(), m.ID, "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: score(2, 0)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing proof to fail validation, got %v", err)
	}
	if _, _, err := f.results.Submit(t.Context(), m.ID, "p1", SubmitResultInput{ClaimedWinnerID: "p1", Score: score(2, 0), ProofRef: "proof-2"}); err != nil {
		t.Fatalf("expected submission with proof to pass, got %v", err)
	}
}

func TestLateSubmissionRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m := f.byCode(t, tour.ID, "R1M1")
	f.play(t, m.ID, "p1", score(2, 1))

	if _, _, err := f.results.Submit(t.Context(), m.ID, "p2", SubmitResultInput{ClaimedWinnerID: "p2", Score: score(1, 2)}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected late submission rejected with ErrInvalidState, got %v", err)
	}
}

func TestSameSideEditRestartsDeadline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m := f.byCode(t, tour.ID, "R1M1")

	first := f.pendingClaim(t, m.ID, "p1", score(2, 0))
	f.clock.Advance(time.Hour)
	edited := f.submit(t, m.ID, "p1", "p1", score(2, 1))

	if edited.State != models.MatchStatePendingConfirmation || edited.ClaimSide != 0 {
		t.Fatalf("expected the edit to stay pending on side 0, got %s side %d", edited.State, edited.ClaimSide)
	}
	if !edited.ConfirmationDeadline.Equal(first.ConfirmationDeadline.Add(time.Hour)) {
		t.Fatalf("expected deadline restart, first %v edited %v", first.ConfirmationDeadline, edited.ConfirmationDeadline)
	}

	// The opponent agreeing with the edit finalizes it, not the first claim.
	out := f.submit(t, m.ID, "p2", "p1", score(2, 1))
	if out.State != models.MatchStateCompleted || string(out.Result.Score) != `{"scores":[2,1]}` {
		t.Fatalf("expected edited claim finalized, got %s %+v", out.State, out.Result)
	}
}

func TestConfirmOnlyByOpposingSide(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
	m := f.byCode(t, tour.ID, "R1M1")
	f.pendingClaim(t, m.ID, "p2", score(1, 2))

	if _, err := f.results.Confirm(t.Context(), m.ID, "p1x"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := f.results.Confirm(t.Context(), m.ID, "p1"); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected the claiming side to be refused, got %v", err)
	}
	out, err := f.results.Confirm(t.Context(), m.ID, "p2")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out.State != models.MatchStateCompleted || out.Result.WinnerID != "p2" || out.Result.LoserID != "p1" {
		t.Fatalf("unexpected confirmed result %s %+v", out.State, out.Result)
	}

	tournament, err := f.brackets.GetTournament(t.Context(), tour.ID)
	if err != nil {
		t.Fatalf("get tournament: %v", err)
	}
	if tournament.Status != models.TournamentStatusCompleted || tournament.WinnerID != "p2" {
		t.Fatalf("expected tournament completed with p2, got %s %q", tournament.Status, tournament.WinnerID)
	}
}

func TestExpireConfirmation(t *testing.T) {
	t.Parallel()

	t.Run("auto confirm", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
		m := f.byCode(t, tour.ID, "R1M1")
		pending := f.pendingClaim(t, m.ID, "p1", score(3, 0))

		if _, err := f.results.ExpireConfirmation(t.Context(), m.ID, pending.Generation); !errors.Is(err, ErrStaleWrite) {
			t.Fatalf("expected expiry before the deadline to be stale, got %v", err)
		}
		f.clock.Advance(24 * time.Hour)
		out, err := f.results.ExpireConfirmation(t.Context(), m.ID, pending.Generation)
		if err != nil {
			t.Fatalf("expire: %v", err)
		}
		if out.State != models.MatchStateCompleted || out.Result.WinnerID != "p1" || out.Result.FinalizedBy != SystemActorID {
			t.Fatalf("expected auto confirmation, got %s %+v", out.State, out.Result)
		}
		if _, err := f.results.ExpireConfirmation(t.Context(), m.ID, pending.Generation); !errors.Is(err, ErrStaleWrite) {
			t.Fatalf("expected a second expiry to be stale, got %v", err)
		}
	})

	t.Run("escalate", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(d *Dependencies) { d.Policy.ExpiryPolicy = ExpiryEscalate })
		tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
		m := f.byCode(t, tour.ID, "R1M1")
		pending := f.pendingClaim(t, m.ID, "p1", score(3, 0))
		f.clock.Advance(25 * time.Hour)

		out, err := f.results.ExpireConfirmation(t.Context(), m.ID, pending.Generation)
		if err != nil {
			t.Fatalf("expire: %v", err)
		}
		if out.State != models.MatchStateDisputed {
			t.Fatalf("expected disputed, got %s", out.State)
		}
		queue, err := f.disputes.OpenQueue(t.Context())
		if err != nil {
			t.Fatalf("open queue: %v", err)
		}
		if len(queue) != 1 || queue[0].Reason != models.ReasonConfirmationTimeout {
			t.Fatalf("expected one confirmation timeout dispute, got %+v", queue)
		}
	})

	t.Run("generation mismatch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tour := f.setup(t, 2, models.FormatSingleElimination, models.StageOptions{}, models.TournamentSettings{})
		m := f.byCode(t, tour.ID, "R1M1")
		pending := f.pendingClaim(t, m.ID, "p1", score(3, 0))
		f.clock.Advance(48 * time.Hour)

		if _, err := f.results.ExpireConfirmation(t.Context(), m.ID, pending.Generation+1); !errors.Is(err, ErrStaleWrite) {
			t.Fatalf("expected ErrStaleWrite, got %v", err)
		}
	})
}
