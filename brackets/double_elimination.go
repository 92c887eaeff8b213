package brackets

import (
	"context"

	"github.com/Dosada05/tournament-engine/models"
)

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() *DoubleEliminationGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "Double Elimination"
}

// GenerateBracket builds the winners bracket as single elimination, feeds
// every winners-bracket loser into the losers bracket and joins both
// champions in a grand final. With Options.BracketReset a second grand final
// is planned; it is cancelled at runtime when the winners champion takes GF1.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Participants) < 2 {
		return nil, ErrNotEnoughEntrants
	}

	wb := &roundBuilder{bracket: models.BracketWinners, prefix: "WR"}
	wbChamp, losers := buildWinnersBracket(wb, params.Participants)

	lb := &roundBuilder{bracket: models.BracketLosers, prefix: "LR"}
	lbChamp := buildLosersBracket(lb, losers)

	matches := append(wb.matches, lb.matches...)

	gf1 := &BracketMatch{
		UID:          "GF1",
		Bracket:      models.BracketGrandFinal,
		Round:        1,
		OrderInRound: 1,
		Slots:        [2]SlotPlan{wbChamp.slot(), lbChamp.slot()},
	}
	matches = append(matches, gf1)

	if params.Options.BracketReset {
		matches = append(matches, &BracketMatch{
			UID:          "GF2",
			Bracket:      models.BracketGrandFinalReset,
			Round:        2,
			OrderInRound: 1,
			Slots: [2]SlotPlan{
				{SourceUID: gf1.UID, Outcome: models.OutcomeWinner},
				{SourceUID: gf1.UID, Outcome: models.OutcomeLoser},
			},
		})
	}

	return &Plan{Matches: matches}, nil
}

// buildLosersBracket alternates minor rounds, where losers-bracket survivors
// meet the losers dropping from winners round r, and major rounds among the
// survivors. Drops from even winners rounds are reversed to delay rematches.
func buildLosersBracket(b *roundBuilder, losersByRound [][]node) node {
	if len(losersByRound) == 1 {
		return losersByRound[0][0]
	}

	round := 1
	survivors, _ := b.pairUp(round, losersByRound[0])

	last := len(losersByRound)
	for r := 2; r <= last; r++ {
		drops := losersByRound[r-1]
		if r%2 == 0 {
			drops = reversed(drops)
		}
		round++
		survivors = b.zip(round, survivors, drops)

		if r < last {
			round++
			survivors, _ = b.pairUp(round, survivors)
		}
	}
	return survivors[0]
}

func reversed(nodes []node) []node {
	out := make([]node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
