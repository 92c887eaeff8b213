package brackets

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func TestSwissFirstRoundTopHalfAgainstBottomHalf(t *testing.T) {
	t.Parallel()

	plan := mustGenerate(t, models.FormatSwiss, 8, models.StageOptions{})
	want := [][2]string{{"p1", "p5"}, {"p2", "p6"}, {"p3", "p7"}, {"p4", "p8"}}
	if len(plan.Matches) != len(want) {
		t.Fatalf("expected %d matches got %d", len(want), len(plan.Matches))
	}
	for i, m := range plan.Matches {
		got := [2]string{m.Slots[0].ParticipantID, m.Slots[1].ParticipantID}
		if got != want[i] || m.Bracket != models.BracketSwiss || m.Round != 1 {
			t.Fatalf("match %d: expected %v got %v (%+v)", i, want[i], got, m)
		}
	}
	if len(plan.Groups) != 1 || len(plan.Groups[0].ParticipantIDs) != 8 {
		t.Fatalf("expected one group of 8, got %+v", plan.Groups)
	}
}

func TestSwissFirstRoundOddGivesLowestSeedBye(t *testing.T) {
	t.Parallel()

	plan := mustGenerate(t, models.FormatSwiss, 5, models.StageOptions{})
	if len(plan.Matches) != 3 {
		t.Fatalf("expected 3 matches got %d", len(plan.Matches))
	}
	bye := plan.Matches[2]
	if bye.Slots[0].ParticipantID != "p5" || !bye.Slots[1].Bye {
		t.Fatalf("expected p5 bye match, got %+v", bye.Slots)
	}
	if got := plan.Matches[0].Slots; got[0].ParticipantID != "p1" || got[1].ParticipantID != "p3" {
		t.Fatalf("expected p1 vs p3, got %+v", got)
	}
	if len(plan.Groups[0].ParticipantIDs) != 5 {
		t.Fatalf("expected group of 5, got %v", plan.Groups[0].ParticipantIDs)
	}
}

func TestPairSwissRoundBacktracks(t *testing.T) {
	t.Parallel()

	entrants := []SwissEntrant{
		{ParticipantID: "a", Seed: 1, Points: 6, Opponents: []string{"b"}},
		{ParticipantID: "b", Seed: 2, Points: 6, Opponents: []string{"a", "d"}},
		{ParticipantID: "c", Seed: 3, Points: 3},
		{ParticipantID: "d", Seed: 4, Points: 0, Opponents: []string{"b"}},
	}
	pairs, bye, err := PairSwissRound(entrants)
	if err != nil {
		t.Fatalf("PairSwissRound: %v", err)
	}
	if bye != "" {
		t.Fatalf("expected no bye, got %q", bye)
	}
	want := [][2]string{{"a", "d"}, {"b", "c"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("expected %v got %v", want, pairs)
	}
}

func TestPairSwissRoundByeSkipsPreviousRecipient(t *testing.T) {
	t.Parallel()

	entrants := []SwissEntrant{
		{ParticipantID: "a", Seed: 1, Points: 3},
		{ParticipantID: "b", Seed: 2, Points: 3},
		{ParticipantID: "c", Seed: 3, Points: 0, HadBye: true},
	}
	pairs, bye, err := PairSwissRound(entrants)
	if err != nil {
		t.Fatalf("PairSwissRound: %v", err)
	}
	if bye != "b" {
		t.Fatalf("expected bye for b, got %q", bye)
	}
	if want := [][2]string{{"a", "c"}}; !reflect.DeepEqual(pairs, want) {
		t.Fatalf("expected %v got %v", want, pairs)
	}
}

func TestPairSwissRoundFallsBackToRepeats(t *testing.T) {
	t.Parallel()

	entrants := []SwissEntrant{
		{ParticipantID: "a", Seed: 1, Points: 3, Opponents: []string{"b"}},
		{ParticipantID: "b", Seed: 2, Points: 0, Opponents: []string{"a"}},
	}
	pairs, _, err := PairSwissRound(entrants)
	if err != nil {
		t.Fatalf("PairSwissRound: %v", err)
	}
	if want := [][2]string{{"a", "b"}}; !reflect.DeepEqual(pairs, want) {
		t.Fatalf("expected repeat pairing %v got %v", want, pairs)
	}
}

func TestPairSwissRoundNeedsTwo(t *testing.T) {
	t.Parallel()

	_, _, err := PairSwissRound([]SwissEntrant{{ParticipantID: "a"}})
	if !errors.Is(err, ErrNotEnoughEntrants) {
		t.Fatalf("expected ErrNotEnoughEntrants, got %v", err)
	}
}

func TestSwissRoundsDefault(t *testing.T) {
	t.Parallel()

	if got := SwissRounds(8, models.StageOptions{}); got != 3 {
		t.Fatalf("expected 3 rounds got %d", got)
	}
	if got := SwissRounds(9, models.StageOptions{}); got != 4 {
		t.Fatalf("expected 4 rounds got %d", got)
	}
	if got := SwissRounds(9, models.StageOptions{SwissRounds: 5}); got != 5 {
		t.Fatalf("expected configured 5 rounds got %d", got)
	}
}
