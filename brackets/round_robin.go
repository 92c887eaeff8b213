package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() *RoundRobinGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "Round Robin"
}

// GenerateBracket snake-distributes seeds into groups and schedules every
// unordered pair of a group once, or twice with swapped slots for home/away.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(params.Participants)
	if n < 2 {
		return nil, ErrNotEnoughEntrants
	}
	groupCount := params.Options.GroupCount
	if groupCount < 1 {
		groupCount = 1
	}
	if n < groupCount*2 {
		return nil, fmt.Errorf("%w: %d participants in %d groups", ErrInvalidGroupCount, n, groupCount)
	}

	groups := SnakeGroups(params.Participants, groupCount)

	plan := &Plan{}
	for gi, ids := range groups {
		name := GroupName(gi)
		plan.Groups = append(plan.Groups, GroupPlan{Name: name, ParticipantIDs: ids})
		plan.Matches = append(plan.Matches, roundRobinMatches(gi, name, ids, params.Options.HomeAway)...)
	}
	return plan, nil
}

// SnakeGroups distributes seeded participants 1..n over groups in snake order:
// A B C C B A A B C ...
func SnakeGroups(participants []models.StageParticipant, groupCount int) [][]string {
	groups := make([][]string, groupCount)
	for i, p := range participants {
		row, col := i/groupCount, i%groupCount
		if row%2 == 1 {
			col = groupCount - 1 - col
		}
		groups[col] = append(groups[col], p.ParticipantID)
	}
	return groups
}

// GroupName returns "A", "B", ... for group indexes.
func GroupName(index int) string {
	if index < 26 {
		return string(rune('A' + index))
	}
	return fmt.Sprintf("G%d", index+1)
}

// roundRobinMatches uses the circle method: the first entrant stays fixed while
// the others rotate; an odd group gets a rest slot that produces no match.
func roundRobinMatches(groupIndex int, name string, ids []string, homeAway bool) []*BracketMatch {
	ring := make([]string, len(ids))
	copy(ring, ids)
	if len(ring)%2 == 1 {
		ring = append(ring, "")
	}
	size := len(ring)
	rounds := size - 1

	var matches []*BracketMatch
	add := func(round int, order *int, home, away string) {
		*order++
		matches = append(matches, &BracketMatch{
			UID:          fmt.Sprintf("G%sR%dM%d", name, round, *order),
			Bracket:      models.BracketGroup,
			GroupIndex:   groupIndex,
			Round:        round,
			OrderInRound: *order,
			Slots:        [2]SlotPlan{{ParticipantID: home}, {ParticipantID: away}},
		})
	}

	type pairing struct{ home, away string }
	schedule := make([][]pairing, 0, rounds)
	for r := 0; r < rounds; r++ {
		var pairs []pairing
		for i := 0; i < size/2; i++ {
			home, away := ring[i], ring[size-1-i]
			if home == "" || away == "" {
				continue
			}
			// Alternate the fixed entrant between home and away.
			if i == 0 && r%2 == 1 {
				home, away = away, home
			}
			pairs = append(pairs, pairing{home, away})
		}
		schedule = append(schedule, pairs)

		last := ring[size-1]
		copy(ring[2:], ring[1:size-1])
		ring[1] = last
	}

	for r, pairs := range schedule {
		order := 0
		for _, p := range pairs {
			add(r+1, &order, p.home, p.away)
		}
	}
	if homeAway {
		for r, pairs := range schedule {
			order := 0
			for _, p := range pairs {
				add(rounds+r+1, &order, p.away, p.home)
			}
		}
	}
	return matches
}
