package models

import (
	"encoding/json"
	"time"
)

// ResultSubmission is one participant's claim about a match outcome. Records are
// never modified; the active claim of a side is its latest submission in the
// match's current generation.
type ResultSubmission struct {
	ID              string          `json:"id"`
	MatchID         string          `json:"match_id"`
	Generation      int             `json:"generation"`
	ParticipantID   string          `json:"participant_id"`
	Side            int             `json:"side"`
	ClaimedWinnerID string          `json:"claimed_winner_id,omitempty"`
	Score           json.RawMessage `json:"score"`
	ProofRef        string          `json:"proof_ref,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	SubmittedAt     time.Time       `json:"submitted_at"`
}

// ActiveClaims returns the latest submission per side for the given generation.
func ActiveClaims(subs []*ResultSubmission, generation int) [2]*ResultSubmission {
	var active [2]*ResultSubmission
	for _, s := range subs {
		if s.Generation != generation || s.Side < 0 || s.Side > 1 {
			continue
		}
		cur := active[s.Side]
		if cur == nil || !s.SubmittedAt.Before(cur.SubmittedAt) {
			active[s.Side] = s
		}
	}
	return active
}
