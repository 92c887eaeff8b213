package brackets

import (
	"context"
	"math/bits"

	"github.com/Dosada05/tournament-engine/models"
)

// SlotPlan is a slot before match ids exist: either a participant, a bye, or a
// reference to another planned match by UID.
type SlotPlan struct {
	ParticipantID string
	SourceUID     string
	Outcome       models.SlotOutcome
	Bye           bool
}

type BracketMatch struct {
	UID          string
	Bracket      models.BracketSide
	GroupIndex   int
	Round        int
	OrderInRound int
	Slots        [2]SlotPlan
}

type GroupPlan struct {
	Name           string
	ParticipantIDs []string
}

// Plan is the full graph of a stage as produced by a generator.
type Plan struct {
	Matches []*BracketMatch
	Groups  []GroupPlan
}

type GenerateBracketParams struct {
	// Participants are already seeded: index 0 is seed 1.
	Participants []models.StageParticipant
	Options      models.StageOptions
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error)

	GetName() string
}

// NewGenerator returns the generator for a stage format.
func NewGenerator(format models.StageFormat) (BracketGenerator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	}
	return nil, ErrUnsupportedFormat
}

// ceilLog2 returns the number of rounds needed to reduce n entrants to one.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
