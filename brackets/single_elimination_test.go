package brackets

import (
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func TestSingleEliminationPowerOfTwo(t *testing.T) {
	t.Parallel()

	for k := 1; k <= 5; k++ {
		n := 1 << k
		plan := mustGenerate(t, models.FormatSingleElimination, n, models.StageOptions{})

		if len(plan.Matches) != n-1 {
			t.Fatalf("n=%d: expected %d matches got %d", n, n-1, len(plan.Matches))
		}
		maxRound := 0
		for _, m := range plan.Matches {
			if m.Round > maxRound {
				maxRound = m.Round
			}
			for i, s := range m.Slots {
				if m.Round == 1 && s.ParticipantID == "" {
					t.Fatalf("n=%d: round 1 match %s slot %d unresolved", n, m.UID, i)
				}
				if m.Round > 1 && (s.SourceUID == "" || s.ParticipantID != "" || s.Bye) {
					t.Fatalf("n=%d: match %s slot %d should reference a source, got %+v", n, m.UID, i, s)
				}
			}
		}
		if maxRound != k {
			t.Fatalf("n=%d: expected %d rounds got %d", n, k, maxRound)
		}
	}
}

func TestSingleEliminationFourSeeds(t *testing.T) {
	t.Parallel()

	plan := mustGenerate(t, models.FormatSingleElimination, 4, models.StageOptions{})

	m1 := findMatch(t, plan, "R1M1")
	if m1.Slots[0].ParticipantID != "p1" || m1.Slots[1].ParticipantID != "p4" {
		t.Fatalf("expected R1M1 = p1 vs p4, got %+v", m1.Slots)
	}
	m2 := findMatch(t, plan, "R1M2")
	if m2.Slots[0].ParticipantID != "p2" || m2.Slots[1].ParticipantID != "p3" {
		t.Fatalf("expected R1M2 = p2 vs p3, got %+v", m2.Slots)
	}
	final := findMatch(t, plan, "R2M1")
	want := [2]SlotPlan{
		{SourceUID: "R1M1", Outcome: models.OutcomeWinner},
		{SourceUID: "R1M2", Outcome: models.OutcomeWinner},
	}
	if final.Slots != want {
		t.Fatalf("expected final slots %+v got %+v", want, final.Slots)
	}
}

func TestSingleEliminationByesAreCompressed(t *testing.T) {
	t.Parallel()

	for n := 3; n <= 13; n++ {
		plan := mustGenerate(t, models.FormatSingleElimination, n, models.StageOptions{})
		if len(plan.Matches) != n-1 {
			t.Fatalf("n=%d: expected %d matches got %d", n, n-1, len(plan.Matches))
		}
		for _, m := range plan.Matches {
			if m.Slots[0].Bye || m.Slots[1].Bye {
				t.Fatalf("n=%d: match %s carries a bye slot", n, m.UID)
			}
		}
	}
}

func TestSingleEliminationTopSeedsReceiveByes(t *testing.T) {
	t.Parallel()

	plan := mustGenerate(t, models.FormatSingleElimination, 6, models.StageOptions{})

	for _, m := range plan.Matches {
		if m.Round != 1 {
			continue
		}
		for _, s := range m.Slots {
			if s.ParticipantID == "p1" || s.ParticipantID == "p2" {
				t.Fatalf("expected %s to skip round 1, found in %s", s.ParticipantID, m.UID)
			}
		}
	}

	semi := findMatch(t, plan, "R2M1")
	if semi.Slots[0].ParticipantID != "p1" {
		t.Fatalf("expected p1 placed directly into R2M1, got %+v", semi.Slots)
	}
	if semi.Slots[1].SourceUID != "R1M1" {
		t.Fatalf("expected R2M1 slot 1 fed by R1M1, got %+v", semi.Slots[1])
	}
}
