package models

// DashboardStats is computed on demand from the match and dispute tables.
type DashboardStats struct {
	TournamentsTotal  int `json:"tournaments_total"`
	ActiveTournaments int `json:"active_tournaments"`
	LiveMatches       int `json:"live_matches"`
	AwaitingConfirm   int `json:"awaiting_confirmation"`
	OverdueMatches    int `json:"overdue_matches"`
	ConflictedMatches int `json:"conflicted_matches"`
	DisputedMatches   int `json:"disputed_matches"`
	CompletedMatches  int `json:"completed_matches"`
	OpenDisputes      int `json:"open_disputes"`
}
