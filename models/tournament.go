package models

import (
	"encoding/json"
	"time"
)

// TournamentStatus представляет статусы турнира.
type TournamentStatus string

const (
	TournamentStatusSetup     TournamentStatus = "setup"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
)

// ScoringRule defines how many table points a group result is worth.
type ScoringRule struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

// DefaultScoringRule is the usual 3/1/0 rule.
func DefaultScoringRule() ScoringRule {
	return ScoringRule{Win: 3, Draw: 1, Loss: 0}
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seed int    `json:"seed"`
}

// PlannedStage describes a stage that follows the current one. With AutoAdvance
// the orchestrator materializes it as soon as the previous group stage closes.
type PlannedStage struct {
	Format      StageFormat     `json:"format"`
	Seeding     SeedingPolicy   `json:"seeding,omitempty"`
	Options     StageOptions    `json:"options"`
	Advancement AdvancementRule `json:"advancement"`
	AutoAdvance bool            `json:"auto_advance"`
}

type TournamentSettings struct {
	// ScoreSchema is an optional JSON Schema every submitted score must satisfy.
	ScoreSchema json.RawMessage `json:"score_schema,omitempty"`
	Scoring     *ScoringRule    `json:"scoring,omitempty"`
	AllowDraws  bool            `json:"allow_draws"`
	StagePlan   []PlannedStage  `json:"stage_plan,omitempty"`
}

// ScoringRuleOrDefault returns the configured rule or 3/1/0.
func (s TournamentSettings) ScoringRuleOrDefault() ScoringRule {
	if s.Scoring == nil {
		return DefaultScoringRule()
	}
	return *s.Scoring
}

type Tournament struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug"`
	Status       TournamentStatus   `json:"status"`
	Participants []Participant      `json:"participants"`
	Settings     TournamentSettings `json:"settings"`
	WinnerID     string             `json:"winner_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Participant looks up a registered participant by id.
func (t *Tournament) Participant(id string) (Participant, bool) {
	for _, p := range t.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
