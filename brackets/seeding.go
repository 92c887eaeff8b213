package brackets

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

// ApplySeeding orders participants according to the policy and assigns stage
// seeds 1..n. rnd is only used by SeedingRandom; nil falls back to the global source.
func ApplySeeding(participants []models.Participant, policy models.SeedingPolicy, manualOrder []string, rnd *rand.Rand) ([]models.StageParticipant, error) {
	ordered := make([]models.Participant, len(participants))
	copy(ordered, participants)

	switch policy {
	case models.SeedingRanked, "":
		// Unseeded entries (seed 0) go last, original order breaks ties.
		sort.SliceStable(ordered, func(i, j int) bool {
			si, sj := ordered[i].Seed, ordered[j].Seed
			if si == 0 || sj == 0 {
				return si != 0 && sj == 0
			}
			return si < sj
		})
	case models.SeedingRandom:
		shuffle := rand.Shuffle
		if rnd != nil {
			shuffle = rnd.Shuffle
		}
		shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	case models.SeedingManual:
		byID := make(map[string]models.Participant, len(participants))
		for _, p := range participants {
			byID[p.ID] = p
		}
		if len(manualOrder) != len(participants) {
			return nil, ErrInvalidManualOrder
		}
		seen := make(map[string]bool, len(manualOrder))
		for i, id := range manualOrder {
			p, ok := byID[id]
			if !ok || seen[id] {
				return nil, fmt.Errorf("%w: %q", ErrInvalidManualOrder, id)
			}
			seen[id] = true
			ordered[i] = p
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSeedPolicy, policy)
	}

	seeded := make([]models.StageParticipant, len(ordered))
	for i, p := range ordered {
		seeded[i] = models.StageParticipant{ParticipantID: p.ID, Seed: i + 1}
	}
	return seeded, nil
}

// SeedOrder returns bracket positions for a bracket of the given size so that
// seed 1 and seed 2 can only meet in the final: 4 -> [1 4 2 3], 8 -> [1 8 4 5 2 7 3 6].
func SeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		sum := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, sum-s)
		}
		order = next
	}
	return order
}
