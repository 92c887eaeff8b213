package models

import "time"

type DisputeReason string

const (
	ReasonIncorrectScore      DisputeReason = "incorrect_score"
	ReasonWrongWinner         DisputeReason = "wrong_winner"
	ReasonCheating            DisputeReason = "cheating"
	ReasonNoShow              DisputeReason = "no_show"
	ReasonTechnicalIssue      DisputeReason = "technical_issue"
	ReasonOther               DisputeReason = "other"
	ReasonConflictingClaims   DisputeReason = "conflicting_claims"
	ReasonConfirmationTimeout DisputeReason = "confirmation_timeout"
)

// Raisable reports whether a participant may use the reason code.
func (r DisputeReason) Raisable() bool {
	switch r {
	case ReasonIncorrectScore, ReasonWrongWinner, ReasonCheating, ReasonNoShow, ReasonTechnicalIssue, ReasonOther:
		return true
	}
	return false
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
	// DisputeStatusVoided: the match was reverted by an upstream override before resolution.
	DisputeStatusVoided DisputeStatus = "voided"
)

// Decision is the closed set of organizer resolution actions.
type Decision string

const (
	DecisionApproveOriginal   Decision = "approve_original"
	DecisionApproveDispute    Decision = "approve_dispute"
	DecisionApproveSubmission Decision = "approve_submission"
	DecisionOrderRematch      Decision = "order_rematch"
	DecisionManualOverride    Decision = "manual_override"
)

// AvailableDecisions lists the organizer actions legal for a match state.
func AvailableDecisions(state MatchState) []Decision {
	switch state {
	case MatchStateDisputed:
		return []Decision{DecisionApproveOriginal, DecisionApproveDispute, DecisionOrderRematch, DecisionManualOverride}
	case MatchStateConflicted:
		return []Decision{DecisionApproveSubmission, DecisionOrderRematch, DecisionManualOverride}
	case MatchStateCompleted:
		return []Decision{DecisionManualOverride}
	}
	return nil
}

// Allows reports whether d is legal in the given state.
func (d Decision) Allows(state MatchState) bool {
	for _, allowed := range AvailableDecisions(state) {
		if allowed == d {
			return true
		}
	}
	return false
}

type Resolution struct {
	Decision           Decision  `json:"decision"`
	Notes              string    `json:"notes"`
	ResolvedBy         string    `json:"resolved_by"`
	ChosenSubmissionID string    `json:"chosen_submission_id,omitempty"`
	ResolvedAt         time.Time `json:"resolved_at"`
}

type Dispute struct {
	ID              string        `json:"id"`
	MatchID         string        `json:"match_id"`
	TournamentID    string        `json:"tournament_id"`
	Generation      int           `json:"generation"`
	RaisedBy        string        `json:"raised_by,omitempty"`
	Reason          DisputeReason `json:"reason"`
	Explanation     string        `json:"explanation,omitempty"`
	CounterProofRef string        `json:"counter_proof_ref,omitempty"`
	Status          DisputeStatus `json:"status"`
	Resolution      *Resolution   `json:"resolution,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}
