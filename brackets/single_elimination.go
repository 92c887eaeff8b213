package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

// node is an entrant of a pairing round: a participant known at generation
// time, a bye, or the outcome of a planned match.
type node struct {
	participantID string
	bye           bool
	uid           string
	outcome       models.SlotOutcome
}

func (n node) slot() SlotPlan {
	if n.bye {
		return SlotPlan{Bye: true}
	}
	if n.uid != "" {
		return SlotPlan{SourceUID: n.uid, Outcome: n.outcome}
	}
	return SlotPlan{ParticipantID: n.participantID}
}

var byeNode = node{bye: true}

// roundBuilder collects the matches of one bracket side and names them
// "<prefix><round>M<order>".
type roundBuilder struct {
	bracket models.BracketSide
	prefix  string
	matches []*BracketMatch
}

// play pairs two nodes. Byes are compressed: a bye against an entrant passes
// the entrant through without creating a match.
func (b *roundBuilder) play(round int, order *int, x, y node) (winner, loser node) {
	switch {
	case x.bye && y.bye:
		return byeNode, byeNode
	case y.bye:
		return x, byeNode
	case x.bye:
		return y, byeNode
	}
	*order++
	uid := fmt.Sprintf("%s%dM%d", b.prefix, round, *order)
	b.matches = append(b.matches, &BracketMatch{
		UID:          uid,
		Bracket:      b.bracket,
		Round:        round,
		OrderInRound: *order,
		Slots:        [2]SlotPlan{x.slot(), y.slot()},
	})
	return node{uid: uid, outcome: models.OutcomeWinner}, node{uid: uid, outcome: models.OutcomeLoser}
}

// pairUp plays consecutive nodes against each other.
func (b *roundBuilder) pairUp(round int, nodes []node) (winners, losers []node) {
	order := 0
	for i := 0; i+1 < len(nodes); i += 2 {
		w, l := b.play(round, &order, nodes[i], nodes[i+1])
		winners = append(winners, w)
		losers = append(losers, l)
	}
	return winners, losers
}

// zip plays a[i] against b[i].
func (b *roundBuilder) zip(round int, a, c []node) []node {
	order := 0
	winners := make([]node, 0, len(a))
	for i := range a {
		w, _ := b.play(round, &order, a[i], c[i])
		winners = append(winners, w)
	}
	return winners
}

// seededNodes places seeds in standard bracket order, padding with byes up to
// the next power of two so byes fall to the top seeds.
func seededNodes(participants []models.StageParticipant) []node {
	size := 1 << ceilLog2(len(participants))
	nodes := make([]node, 0, size)
	for _, seed := range SeedOrder(size) {
		if seed > len(participants) {
			nodes = append(nodes, byeNode)
			continue
		}
		nodes = append(nodes, node{participantID: participants[seed-1].ParticipantID})
	}
	return nodes
}

// buildWinnersBracket plays the elimination tree and returns the champion node
// and the losers of every round, in bracket order.
func buildWinnersBracket(b *roundBuilder, participants []models.StageParticipant) (node, [][]node) {
	current := seededNodes(participants)
	var losersByRound [][]node
	for round := 1; len(current) > 1; round++ {
		var losers []node
		current, losers = b.pairUp(round, current)
		losersByRound = append(losersByRound, losers)
	}
	return current[0], losersByRound
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "Single Elimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Participants) < 2 {
		return nil, ErrNotEnoughEntrants
	}

	b := &roundBuilder{bracket: models.BracketWinners, prefix: "R"}
	buildWinnersBracket(b, params.Participants)

	return &Plan{Matches: b.matches}, nil
}
