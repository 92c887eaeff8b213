package models

import "time"

type StageType string

const (
	StageTypeGroup   StageType = "group"
	StageTypeBracket StageType = "bracket"
)

type StageFormat string

const (
	FormatSingleElimination StageFormat = "single_elimination"
	FormatDoubleElimination StageFormat = "double_elimination"
	FormatRoundRobin        StageFormat = "round_robin"
	FormatSwiss             StageFormat = "swiss"
)

// Type reports whether the format produces a group stage or a bracket stage.
func (f StageFormat) Type() StageType {
	switch f {
	case FormatRoundRobin, FormatSwiss:
		return StageTypeGroup
	default:
		return StageTypeBracket
	}
}

func (f StageFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatRoundRobin, FormatSwiss:
		return true
	}
	return false
}

type SeedingPolicy string

const (
	SeedingRanked SeedingPolicy = "ranked"
	SeedingRandom SeedingPolicy = "random"
	SeedingManual SeedingPolicy = "manual"
)

type StageStatus string

const (
	StageStatusActive       StageStatus = "active"
	StageStatusCompleted    StageStatus = "completed"
	StageStatusTransitioned StageStatus = "transitioned"
)

// StageOptions are the format specific knobs of a stage.
type StageOptions struct {
	GroupCount   int  `json:"group_count,omitempty"`
	HomeAway     bool `json:"home_away,omitempty"`
	BracketReset bool `json:"bracket_reset,omitempty"`
	SwissRounds  int  `json:"swiss_rounds,omitempty"`
	// ManualOrder lists participant ids in seed order for SeedingManual.
	ManualOrder []string `json:"manual_order,omitempty"`
}

type AdvancementSeeding string

const (
	// AdvancePositionThenGroup seeds group winners 1..k in group order, runners-up k+1..2k and so on.
	AdvancePositionThenGroup AdvancementSeeding = "position_then_group"
	// AdvancePositionThenPoints orders each finishing position by points, differential, seed.
	AdvancePositionThenPoints AdvancementSeeding = "position_then_points"
)

type AdvancementRule struct {
	TopN    int                `json:"top_n"`
	Seeding AdvancementSeeding `json:"seeding,omitempty"`
}

type StageParticipant struct {
	ParticipantID string `json:"participant_id"`
	Seed          int    `json:"seed"`
}

type Group struct {
	ID             string   `json:"id"`
	StageID        string   `json:"stage_id"`
	Name           string   `json:"name"`
	Index          int      `json:"index"`
	ParticipantIDs []string `json:"participant_ids"`
}

type Stage struct {
	ID              string             `json:"id"`
	TournamentID    string             `json:"tournament_id"`
	Index           int                `json:"index"`
	Type            StageType          `json:"type"`
	Format          StageFormat        `json:"format"`
	Status          StageStatus        `json:"status"`
	Seeding         SeedingPolicy      `json:"seeding"`
	Options         StageOptions       `json:"options"`
	AdvancementRule AdvancementRule    `json:"advancement_rule"`
	Participants    []StageParticipant `json:"participants"`
	Groups          []Group            `json:"groups,omitempty"`
	SwissRound      int                `json:"swiss_round,omitempty"`
	NextStageID     string             `json:"next_stage_id,omitempty"`
	TransitionedAt  *time.Time         `json:"transitioned_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Version         int                `json:"version"`
}

// Group returns the group with the given id.
func (s *Stage) Group(id string) (Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// SeedOf returns the stage seed of a participant, 0 if unknown.
func (s *Stage) SeedOf(participantID string) int {
	for _, p := range s.Participants {
		if p.ParticipantID == participantID {
			return p.Seed
		}
	}
	return 0
}
