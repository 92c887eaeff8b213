package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func stageParticipants(n int) []models.StageParticipant {
	out := make([]models.StageParticipant, n)
	for i := range out {
		out[i] = models.StageParticipant{ParticipantID: fmt.Sprintf("p%d", i+1), Seed: i + 1}
	}
	return out
}

func mustGenerate(t *testing.T, format models.StageFormat, n int, opts models.StageOptions) *Plan {
	t.Helper()
	gen, err := NewGenerator(format)
	if err != nil {
		t.Fatalf("NewGenerator(%s): %v", format, err)
	}
	plan, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		Participants: stageParticipants(n),
		Options:      opts,
	})
	if err != nil {
		t.Fatalf("GenerateBracket(%s, %d): %v", format, n, err)
	}
	assertTopological(t, plan)
	return plan
}

// assertTopological checks UIDs are unique and every source refers to an
// earlier match of the plan.
func assertTopological(t *testing.T, plan *Plan) {
	t.Helper()
	seen := make(map[string]bool, len(plan.Matches))
	for _, m := range plan.Matches {
		if seen[m.UID] {
			t.Fatalf("duplicate uid %s", m.UID)
		}
		for i, s := range m.Slots {
			if s.SourceUID != "" && !seen[s.SourceUID] {
				t.Fatalf("match %s slot %d references unknown or later match %s", m.UID, i, s.SourceUID)
			}
		}
		seen[m.UID] = true
	}
}

func findMatch(t *testing.T, plan *Plan, uid string) *BracketMatch {
	t.Helper()
	for _, m := range plan.Matches {
		if m.UID == uid {
			return m
		}
	}
	t.Fatalf("match %s not found in plan", uid)
	return nil
}

func TestNewGeneratorUnsupportedFormat(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator("ladder"); err != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestGeneratorsRejectSingleEntrant(t *testing.T) {
	t.Parallel()

	for _, format := range []models.StageFormat{
		models.FormatSingleElimination,
		models.FormatDoubleElimination,
		models.FormatRoundRobin,
		models.FormatSwiss,
	} {
		gen, _ := NewGenerator(format)
		_, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Participants: stageParticipants(1)})
		if err != ErrNotEnoughEntrants {
			t.Fatalf("%s: expected ErrNotEnoughEntrants, got %v", format, err)
		}
	}
}

func TestCeilLog2(t *testing.T) {
	t.Parallel()

	cases := map[int]int{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4, 17: 5}
	for n, want := range cases {
		if got := ceilLog2(n); got != want {
			t.Fatalf("ceilLog2(%d): expected %d got %d", n, want, got)
		}
	}
}
