package services

import (
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

// CalculateStandings ranks participants from the completed matches among
// them. Order: points, score differential, head-to-head when exactly two are
// level, then seed. With topN > 0 the first topN rows advance.
func CalculateStandings(participants []models.StageParticipant, matches []*models.Match, rule models.ScoringRule, topN int) []models.StandingsRow {
	rows := make(map[string]*models.StandingsRow, len(participants))
	for _, p := range participants {
		rows[p.ParticipantID] = &models.StandingsRow{ParticipantID: p.ParticipantID, Seed: p.Seed}
	}

	for _, m := range matches {
		if m.State != models.MatchStateCompleted || m.Result == nil {
			continue
		}
		if m.Result.Walkover {
			if w, ok := rows[m.Result.WinnerID]; ok {
				w.Played++
				w.Wins++
				w.Points += rule.Win
			}
			continue
		}
		a, okA := rows[m.Slots[0].ParticipantID]
		b, okB := rows[m.Slots[1].ParticipantID]
		if !okA || !okB {
			continue
		}
		a.Played++
		b.Played++
		if sa, sb, ok := scorePair(m.Result.Score); ok {
			a.ScoreFor += sa
			a.ScoreAgainst += sb
			b.ScoreFor += sb
			b.ScoreAgainst += sa
		}
		switch {
		case m.Result.Draw:
			a.Draws++
			b.Draws++
			a.Points += rule.Draw
			b.Points += rule.Draw
		case m.Result.WinnerID == a.ParticipantID:
			a.Wins++
			b.Losses++
			a.Points += rule.Win
			b.Points += rule.Loss
		case m.Result.WinnerID == b.ParticipantID:
			b.Wins++
			a.Losses++
			b.Points += rule.Win
			a.Points += rule.Loss
		}
	}

	table := make([]models.StandingsRow, 0, len(rows))
	for _, r := range rows {
		r.ScoreDiff = r.ScoreFor - r.ScoreAgainst
		table = append(table, *r)
	}
	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.ScoreDiff != b.ScoreDiff {
			return a.ScoreDiff > b.ScoreDiff
		}
		if a.Seed != b.Seed {
			return a.Seed < b.Seed
		}
		return a.ParticipantID < b.ParticipantID
	})

	for i := 0; i < len(table); {
		j := i + 1
		for j < len(table) && table[j].Points == table[i].Points && table[j].ScoreDiff == table[i].ScoreDiff {
			j++
		}
		if j-i == 2 && headToHead(matches, table[i+1].ParticipantID, table[i].ParticipantID) > 0 {
			table[i], table[i+1] = table[i+1], table[i]
		}
		i = j
	}

	for i := range table {
		table[i].Rank = i + 1
		table[i].Advances = topN > 0 && i < topN
	}
	return table
}

// headToHead returns wins of a over b minus wins of b over a.
func headToHead(matches []*models.Match, a, b string) int {
	balance := 0
	for _, m := range matches {
		if m.State != models.MatchStateCompleted || m.Result == nil || m.Result.Draw {
			continue
		}
		if m.SideOf(a) < 0 || m.SideOf(b) < 0 {
			continue
		}
		switch m.Result.WinnerID {
		case a:
			balance++
		case b:
			balance--
		}
	}
	return balance
}

// groupStandings computes the table of one group of a stage.
func groupStandings(stage *models.Stage, group models.Group, matches []*models.Match, rule models.ScoringRule, topN int) models.GroupStandings {
	participants := make([]models.StageParticipant, 0, len(group.ParticipantIDs))
	for _, id := range group.ParticipantIDs {
		participants = append(participants, models.StageParticipant{ParticipantID: id, Seed: stage.SeedOf(id)})
	}
	inGroup := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.GroupID == group.ID {
			inGroup = append(inGroup, m)
		}
	}
	return models.GroupStandings{
		GroupID: group.ID,
		StageID: stage.ID,
		Name:    group.Name,
		Rows:    CalculateStandings(participants, inGroup, rule, topN),
	}
}
