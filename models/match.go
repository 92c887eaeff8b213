package models

import (
	"encoding/json"
	"time"
)

type MatchState string

const (
	// MatchStateWaiting: at least one slot still references an unfinished match.
	MatchStateWaiting             MatchState = "waiting"
	MatchStatePending             MatchState = "pending"
	MatchStateLive                MatchState = "live"
	MatchStatePendingConfirmation MatchState = "pending_confirmation"
	MatchStateConflicted          MatchState = "conflicted"
	MatchStateDisputed            MatchState = "disputed"
	MatchStateCompleted           MatchState = "completed"
	MatchStateCancelled           MatchState = "cancelled"
)

// Terminal reports whether no further transition is possible without an override.
func (s MatchState) Terminal() bool {
	return s == MatchStateCompleted || s == MatchStateCancelled
}

// Started reports whether participants have begun acting on the match.
func (s MatchState) Started() bool {
	switch s {
	case MatchStateLive, MatchStatePendingConfirmation, MatchStateConflicted, MatchStateDisputed, MatchStateCompleted:
		return true
	}
	return false
}

type BracketSide string

const (
	BracketWinners         BracketSide = "winners"
	BracketLosers          BracketSide = "losers"
	BracketGrandFinal      BracketSide = "grand_final"
	BracketGrandFinalReset BracketSide = "grand_final_reset"
	BracketGroup           BracketSide = "group"
	BracketSwiss           BracketSide = "swiss"
)

type SlotOutcome string

const (
	OutcomeWinner SlotOutcome = "winner"
	OutcomeLoser  SlotOutcome = "loser"
)

type SlotSource struct {
	MatchID string      `json:"match_id"`
	Outcome SlotOutcome `json:"outcome"`
}

// Slot is one side of a match: a concrete participant, a bye, or a forward
// reference to the outcome of another match.
type Slot struct {
	ParticipantID string      `json:"participant_id,omitempty"`
	Source        *SlotSource `json:"source,omitempty"`
	Bye           bool        `json:"bye,omitempty"`
}

func (s Slot) Resolved() bool {
	return s.ParticipantID != "" || s.Bye
}

const (
	CancelReasonBye          = "bye"
	CancelReasonResetSkipped = "bracket_reset_not_required"
)

type MatchResult struct {
	WinnerID    string          `json:"winner_id,omitempty"`
	LoserID     string          `json:"loser_id,omitempty"`
	Draw        bool            `json:"draw,omitempty"`
	Walkover    bool            `json:"walkover,omitempty"`
	Score       json.RawMessage `json:"score,omitempty"`
	Generation  int             `json:"generation"`
	CompletedAt time.Time       `json:"completed_at"`
	FinalizedBy string          `json:"finalized_by,omitempty"`
}

// Match is one pairing inside a stage. ClaimSide is the slot index (0 or 1)
// whose claim awaits confirmation, -1 when there is none.
type Match struct {
	ID                   string       `json:"id"`
	TournamentID         string       `json:"tournament_id"`
	StageID              string       `json:"stage_id"`
	GroupID              string       `json:"group_id,omitempty"`
	Bracket              BracketSide  `json:"bracket"`
	Round                int          `json:"round"`
	Order                int          `json:"order"`
	Code                 string       `json:"code"`
	Slots                [2]Slot      `json:"slots"`
	State                MatchState   `json:"state"`
	Generation           int          `json:"generation"`
	Version              int          `json:"version"`
	RematchCount         int          `json:"rematch_count"`
	ScheduledAt          *time.Time   `json:"scheduled_at,omitempty"`
	StartedAt            *time.Time   `json:"started_at,omitempty"`
	ConfirmationDeadline *time.Time   `json:"confirmation_deadline,omitempty"`
	ClaimSide            int          `json:"claim_side"`
	Result               *MatchResult `json:"result,omitempty"`
	CancelReason         string       `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// SideOf returns the slot index of a participant, or -1.
func (m *Match) SideOf(participantID string) int {
	if participantID == "" {
		return -1
	}
	for i, s := range m.Slots {
		if s.ParticipantID == participantID {
			return i
		}
	}
	return -1
}

// Opponent returns the participant in the other slot.
func (m *Match) Opponent(participantID string) string {
	switch m.SideOf(participantID) {
	case 0:
		return m.Slots[1].ParticipantID
	case 1:
		return m.Slots[0].ParticipantID
	}
	return ""
}

// HasParticipants reports whether both slots hold concrete participants.
func (m *Match) HasParticipants() bool {
	return m.Slots[0].ParticipantID != "" && m.Slots[1].ParticipantID != ""
}

// DependsOn reports which slot indexes of m are fed by the given match.
func (m *Match) DependsOn(matchID string) []int {
	var idx []int
	for i, s := range m.Slots {
		if s.Source != nil && s.Source.MatchID == matchID {
			idx = append(idx, i)
		}
	}
	return idx
}
