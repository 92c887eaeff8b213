package models

import "time"

// Transition is the audit record of one match state change.
type Transition struct {
	ID           string     `json:"id"`
	MatchID      string     `json:"match_id"`
	TournamentID string     `json:"tournament_id"`
	Actor        string     `json:"actor"`
	Action       string     `json:"action"`
	From         MatchState `json:"from"`
	To           MatchState `json:"to"`
	Generation   int        `json:"generation"`
	Notes        string     `json:"notes,omitempty"`
	At           time.Time  `json:"at"`
}
