package brackets

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func seedIDs(seeded []models.StageParticipant) []string {
	ids := make([]string, len(seeded))
	for i, s := range seeded {
		if s.Seed != i+1 {
			panic("seeds must be consecutive")
		}
		ids[i] = s.ParticipantID
	}
	return ids
}

func TestSeedOrder(t *testing.T) {
	t.Parallel()

	cases := map[int][]int{
		1: {1},
		2: {1, 2},
		4: {1, 4, 2, 3},
		8: {1, 8, 4, 5, 2, 7, 3, 6},
	}
	for size, want := range cases {
		if got := SeedOrder(size); !reflect.DeepEqual(got, want) {
			t.Fatalf("SeedOrder(%d): expected %v got %v", size, want, got)
		}
	}
}

func TestApplySeedingRanked(t *testing.T) {
	t.Parallel()

	participants := []models.Participant{
		{ID: "c", Seed: 3},
		{ID: "x"},
		{ID: "a", Seed: 1},
		{ID: "b", Seed: 2},
	}
	seeded, err := ApplySeeding(participants, models.SeedingRanked, nil, nil)
	if err != nil {
		t.Fatalf("ApplySeeding: %v", err)
	}
	if want := []string{"a", "b", "c", "x"}; !reflect.DeepEqual(seedIDs(seeded), want) {
		t.Fatalf("expected %v got %v", want, seedIDs(seeded))
	}
}

func TestApplySeedingRandomIsDeterministicWithSource(t *testing.T) {
	t.Parallel()

	participants := []models.Participant{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	first, err := ApplySeeding(participants, models.SeedingRandom, nil, rand.New(rand.NewPCG(7, 11)))
	if err != nil {
		t.Fatalf("ApplySeeding: %v", err)
	}
	second, _ := ApplySeeding(participants, models.SeedingRandom, nil, rand.New(rand.NewPCG(7, 11)))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected equal shuffles for equal sources, got %v and %v", first, second)
	}

	ids := seedIDs(first)
	sort.Strings(ids)
	if want := []string{"a", "b", "c", "d", "e"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected a permutation of %v got %v", want, ids)
	}
}

func TestApplySeedingManual(t *testing.T) {
	t.Parallel()

	participants := []models.Participant{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	seeded, err := ApplySeeding(participants, models.SeedingManual, []string{"c", "a", "b"}, nil)
	if err != nil {
		t.Fatalf("ApplySeeding: %v", err)
	}
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(seedIDs(seeded), want) {
		t.Fatalf("expected %v got %v", want, seedIDs(seeded))
	}

	for _, order := range [][]string{{"a", "b"}, {"a", "a", "b"}, {"a", "b", "z"}} {
		if _, err := ApplySeeding(participants, models.SeedingManual, order, nil); !errors.Is(err, ErrInvalidManualOrder) {
			t.Fatalf("order %v: expected ErrInvalidManualOrder, got %v", order, err)
		}
	}
}

func TestApplySeedingUnknownPolicy(t *testing.T) {
	t.Parallel()

	_, err := ApplySeeding([]models.Participant{{ID: "a"}}, "elo", nil, nil)
	if !errors.Is(err, ErrUnknownSeedPolicy) {
		t.Fatalf("expected ErrUnknownSeedPolicy, got %v", err)
	}
}
