package models

// StandingsRow is derived from completed group matches, never stored.
type StandingsRow struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Seed          int    `json:"seed"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
	Draws         int    `json:"draws"`
	Losses        int    `json:"losses"`
	ScoreFor      int    `json:"score_for"`
	ScoreAgainst  int    `json:"score_against"`
	ScoreDiff     int    `json:"score_difference"`
	Points        int    `json:"points"`
	Advances      bool   `json:"advances"`
}

type GroupStandings struct {
	GroupID string         `json:"group_id"`
	StageID string         `json:"stage_id"`
	Name    string         `json:"name"`
	Rows    []StandingsRow `json:"rows"`
}
