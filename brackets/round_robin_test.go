package brackets

import (
	"reflect"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func TestRoundRobinEveryPairOnce(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 3, 4, 5, 6, 7, 8} {
		plan := mustGenerate(t, models.FormatRoundRobin, n, models.StageOptions{})

		wantMatches := n * (n - 1) / 2
		if len(plan.Matches) != wantMatches {
			t.Fatalf("n=%d: expected %d matches got %d", n, wantMatches, len(plan.Matches))
		}

		pairs := make(map[[2]string]int)
		perRound := make(map[int]map[string]bool)
		for _, m := range plan.Matches {
			a, b := m.Slots[0].ParticipantID, m.Slots[1].ParticipantID
			if a == "" || b == "" || a == b {
				t.Fatalf("n=%d: invalid pairing in %s: %+v", n, m.UID, m.Slots)
			}
			pairs[pairKey(a, b)]++
			if perRound[m.Round] == nil {
				perRound[m.Round] = make(map[string]bool)
			}
			for _, id := range []string{a, b} {
				if perRound[m.Round][id] {
					t.Fatalf("n=%d: %s plays twice in round %d", n, id, m.Round)
				}
				perRound[m.Round][id] = true
			}
		}
		for k, c := range pairs {
			if c != 1 {
				t.Fatalf("n=%d: pair %v played %d times", n, k, c)
			}
		}
	}
}

func TestRoundRobinHomeAway(t *testing.T) {
	t.Parallel()

	plan := mustGenerate(t, models.FormatRoundRobin, 4, models.StageOptions{HomeAway: true})
	if len(plan.Matches) != 12 {
		t.Fatalf("expected 12 matches got %d", len(plan.Matches))
	}
	ordered := make(map[[2]string]bool)
	for _, m := range plan.Matches {
		key := [2]string{m.Slots[0].ParticipantID, m.Slots[1].ParticipantID}
		if ordered[key] {
			t.Fatalf("ordered pairing %v scheduled twice", key)
		}
		ordered[key] = true
	}
}

func TestRoundRobinSnakeGroups(t *testing.T) {
	t.Parallel()

	plan := mustGenerate(t, models.FormatRoundRobin, 8, models.StageOptions{GroupCount: 2})
	if len(plan.Groups) != 2 {
		t.Fatalf("expected 2 groups got %d", len(plan.Groups))
	}
	if want := []string{"p1", "p4", "p5", "p8"}; !reflect.DeepEqual(plan.Groups[0].ParticipantIDs, want) {
		t.Fatalf("expected group A %v got %v", want, plan.Groups[0].ParticipantIDs)
	}
	if want := []string{"p2", "p3", "p6", "p7"}; !reflect.DeepEqual(plan.Groups[1].ParticipantIDs, want) {
		t.Fatalf("expected group B %v got %v", want, plan.Groups[1].ParticipantIDs)
	}
	if plan.Groups[0].Name != "A" || plan.Groups[1].Name != "B" {
		t.Fatalf("unexpected group names %q %q", plan.Groups[0].Name, plan.Groups[1].Name)
	}
	if len(plan.Matches) != 12 {
		t.Fatalf("expected 12 matches got %d", len(plan.Matches))
	}
	for _, m := range plan.Matches {
		group := plan.Groups[m.GroupIndex].ParticipantIDs
		for _, s := range m.Slots {
			found := false
			for _, id := range group {
				found = found || id == s.ParticipantID
			}
			if !found {
				t.Fatalf("match %s pairs %s outside group %d", m.UID, s.ParticipantID, m.GroupIndex)
			}
		}
	}
}

func TestRoundRobinInvalidGroupCount(t *testing.T) {
	t.Parallel()

	gen := NewRoundRobinGenerator()
	_, err := gen.GenerateBracket(t.Context(), GenerateBracketParams{
		Participants: stageParticipants(5),
		Options:      models.StageOptions{GroupCount: 3},
	})
	if err == nil {
		t.Fatalf("expected ErrInvalidGroupCount, got nil")
	}
}
