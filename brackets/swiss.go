package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

// swissSearchBudget bounds the backtracking search of one pairing attempt.
const swissSearchBudget = 200000

type SwissGenerator struct{}

func NewSwissGenerator() *SwissGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GenerateBracket only plans round 1: top half against bottom half by seed.
// With an odd count the lowest seed receives the bye. Later rounds are paired
// from standings with PairSwissRound.
func (g *SwissGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(params.Participants)
	if n < 2 {
		return nil, ErrNotEnoughEntrants
	}

	all := make([]string, n)
	for i, p := range params.Participants {
		all[i] = p.ParticipantID
	}

	ids := all
	var bye string
	if n%2 == 1 {
		bye = ids[n-1]
		ids = ids[:n-1]
	}
	half := len(ids) / 2
	pairs := make([][2]string, 0, half)
	for i := 0; i < half; i++ {
		pairs = append(pairs, [2]string{ids[i], ids[i+half]})
	}

	return &Plan{
		Matches: SwissRoundMatches(1, pairs, bye),
		Groups:  []GroupPlan{{Name: GroupName(0), ParticipantIDs: all}},
	}, nil
}

// SwissRounds returns the configured number of rounds, ceil(log2 n) by default.
func SwissRounds(participants int, opts models.StageOptions) int {
	if opts.SwissRounds > 0 {
		return opts.SwissRounds
	}
	rounds := ceilLog2(participants)
	if rounds < 1 {
		rounds = 1
	}
	return rounds
}

// SwissEntrant is a participant's standing going into a swiss round.
type SwissEntrant struct {
	ParticipantID string
	Seed          int
	Points        int
	ScoreDiff     int
	Opponents     []string
	HadBye        bool
}

func (e SwissEntrant) played(id string) bool {
	for _, o := range e.Opponents {
		if o == id {
			return true
		}
	}
	return false
}

// PairSwissRound pairs entrants with similar scores, first-fit with
// backtracking so that nobody meets a previous opponent. With an odd count the
// lowest ranked entrant without a previous bye sits out. Repeats are only
// allowed when no repeat-free pairing exists.
func PairSwissRound(entrants []SwissEntrant) ([][2]string, string, error) {
	if len(entrants) < 2 {
		return nil, "", ErrNotEnoughEntrants
	}

	ranked := make([]SwissEntrant, len(entrants))
	copy(ranked, entrants)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.ScoreDiff != b.ScoreDiff {
			return a.ScoreDiff > b.ScoreDiff
		}
		return a.Seed < b.Seed
	})

	byeCandidates := []int{-1}
	if len(ranked)%2 == 1 {
		byeCandidates = byeCandidates[:0]
		for i := len(ranked) - 1; i >= 0; i-- {
			if !ranked[i].HadBye {
				byeCandidates = append(byeCandidates, i)
			}
		}
		if len(byeCandidates) == 0 {
			byeCandidates = append(byeCandidates, len(ranked)-1)
		}
	}

	for _, allowRepeats := range []bool{false, true} {
		for _, byeIdx := range byeCandidates {
			pool := make([]SwissEntrant, 0, len(ranked))
			bye := ""
			for i, e := range ranked {
				if i == byeIdx {
					bye = e.ParticipantID
					continue
				}
				pool = append(pool, e)
			}
			budget := swissSearchBudget
			if pairs, ok := pairPool(pool, allowRepeats, &budget); ok {
				return pairs, bye, nil
			}
		}
	}
	return nil, "", ErrNoPairingPossible
}

func pairPool(pool []SwissEntrant, allowRepeats bool, budget *int) ([][2]string, bool) {
	if len(pool) == 0 {
		return nil, true
	}
	first := pool[0]
	for j := 1; j < len(pool); j++ {
		*budget--
		if *budget < 0 {
			return nil, false
		}
		if !allowRepeats && first.played(pool[j].ParticipantID) {
			continue
		}
		rest := make([]SwissEntrant, 0, len(pool)-2)
		rest = append(rest, pool[1:j]...)
		rest = append(rest, pool[j+1:]...)
		if pairs, ok := pairPool(rest, allowRepeats, budget); ok {
			return append([][2]string{{first.ParticipantID, pool[j].ParticipantID}}, pairs...), true
		}
	}
	return nil, false
}

// SwissRoundMatches plans the matches of one swiss round. The bye is a match
// against a bye slot, which completes as a walkover once materialized.
func SwissRoundMatches(round int, pairs [][2]string, bye string) []*BracketMatch {
	matches := make([]*BracketMatch, 0, len(pairs)+1)
	for i, p := range pairs {
		matches = append(matches, &BracketMatch{
			UID:          fmt.Sprintf("SR%dM%d", round, i+1),
			Bracket:      models.BracketSwiss,
			Round:        round,
			OrderInRound: i + 1,
			Slots:        [2]SlotPlan{{ParticipantID: p[0]}, {ParticipantID: p[1]}},
		})
	}
	if bye != "" {
		order := len(pairs) + 1
		matches = append(matches, &BracketMatch{
			UID:          fmt.Sprintf("SR%dM%d", round, order),
			Bracket:      models.BracketSwiss,
			Round:        round,
			OrderInRound: order,
			Slots:        [2]SlotPlan{{ParticipantID: bye}, {Bye: true}},
		})
	}
	return matches
}
