package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func seeded(ids ...string) []models.StageParticipant {
	out := make([]models.StageParticipant, len(ids))
	for i, id := range ids {
		out[i] = models.StageParticipant{ParticipantID: id, Seed: i + 1}
	}
	return out
}

// played builds a completed match between a and b with the score in slot order.
func played(a, b, winner string, sa, sb int) *models.Match {
	m := &models.Match{
		ID:    fmt.Sprintf("%s-%s", a, b),
		State: models.MatchStateCompleted,
		Slots: [2]models.Slot{{ParticipantID: a}, {ParticipantID: b}},
	}
	result := &models.MatchResult{Score: json.RawMessage(fmt.Sprintf("[%d,%d]", sa, sb))}
	if winner == "" {
		result.Draw = true
	} else {
		result.WinnerID = winner
		result.LoserID = m.Opponent(winner)
	}
	m.Result = result
	return m
}

func order(rows []models.StandingsRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ParticipantID
	}
	return ids
}

func TestStandingsOrderIndependent(t *testing.T) {
	t.Parallel()
	participants := seeded("p1", "p2", "p3", "p4")
	matches := []*models.Match{
		played("p1", "p2", "p1", 3, 1),
		played("p3", "p4", "p4", 0, 2),
		played("p1", "p3", "p3", 0, 1),
		played("p2", "p4", "", 2, 2),
		played("p1", "p4", "p1", 5, 0),
		played("p2", "p3", "p2", 1, 0),
	}
	want := CalculateStandings(participants, matches, models.DefaultScoringRule(), 2)

	for shift := 1; shift < len(matches); shift++ {
		rotated := append(append([]*models.Match{}, matches[shift:]...), matches[:shift]...)
		got := CalculateStandings(participants, rotated, models.DefaultScoringRule(), 2)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("rotation %d changed the table:\n got %+v\nwant %+v", shift, got, want)
		}
	}

	if got := order(want); !reflect.DeepEqual(got, []string{"p1", "p2", "p4", "p3"}) {
		t.Fatalf("unexpected order %v", got)
	}
	top := want[0]
	if top.Points != 6 || top.Wins != 2 || top.Losses != 1 || top.ScoreFor != 8 || top.ScoreAgainst != 2 || top.ScoreDiff != 6 {
		t.Fatalf("unexpected leader row %+v", top)
	}
	if !want[0].Advances || !want[1].Advances || want[2].Advances {
		t.Fatalf("expected only the top two to advance, got %+v", want)
	}
	if want[1].Draws != 1 || want[1].Points != 4 {
		t.Fatalf("expected the draw counted for p2, got %+v", want[1])
	}
}

func TestStandingsHeadToHeadBreaksTwoWayTie(t *testing.T) {
	t.Parallel()
	participants := seeded("p1", "p2", "p3", "p4")
	matches := []*models.Match{
		played("p1", "p2", "p2", 0, 1),
		played("p1", "p3", "p1", 2, 0),
		played("p1", "p4", "p1", 1, 0),
		played("p2", "p3", "p2", 2, 0),
		played("p2", "p4", "p4", 0, 1),
		played("p3", "p4", "p4", 0, 1),
	}
	rows := CalculateStandings(participants, matches, models.DefaultScoringRule(), 0)
	if got := order(rows); !reflect.DeepEqual(got, []string{"p2", "p1", "p4", "p3"}) {
		t.Fatalf("expected head-to-head to put p2 above p1, got %v", got)
	}
	for i, r := range rows {
		if r.Rank != i+1 {
			t.Fatalf("row %d has rank %d", i, r.Rank)
		}
	}
}

func TestStandingsThreeWayTieFallsBackToSeed(t *testing.T) {
	t.Parallel()
	participants := seeded("p1", "p2", "p3")
	matches := []*models.Match{
		played("p1", "p2", "p2", 0, 1),
		played("p1", "p3", "p1", 1, 0),
		played("p2", "p3", "p3", 0, 1),
	}
	rows := CalculateStandings(participants, matches, models.DefaultScoringRule(), 0)
	if got := order(rows); !reflect.DeepEqual(got, []string{"p1", "p2", "p3"}) {
		t.Fatalf("expected seed order for a three-way tie, got %v", got)
	}
}

func TestStandingsWalkoverAndCustomRule(t *testing.T) {
	t.Parallel()
	participants := seeded("p1", "p2", "p3")
	walkover := &models.Match{
		State:  models.MatchStateCompleted,
		Slots:  [2]models.Slot{{ParticipantID: "p3"}, {Bye: true}},
		Result: &models.MatchResult{WinnerID: "p3", Walkover: true},
	}
	open := &models.Match{
		State: models.MatchStateLive,
		Slots: [2]models.Slot{{ParticipantID: "p1"}, {ParticipantID: "p3"}},
	}
	matches := []*models.Match{played("p1", "p2", "", 1, 1), walkover, open}
	rule := models.ScoringRule{Win: 2, Draw: 1, Loss: -1}

	rows := CalculateStandings(participants, matches, rule, 0)
	byID := make(map[string]models.StandingsRow)
	for _, r := range rows {
		byID[r.ParticipantID] = r
	}
	if r := byID["p3"]; r.Played != 1 || r.Wins != 1 || r.Points != 2 || r.ScoreFor != 0 {
		t.Fatalf("unexpected walkover row %+v", r)
	}
	if r := byID["p1"]; r.Played != 1 || r.Draws != 1 || r.Points != 1 || r.ScoreFor != 1 {
		t.Fatalf("open matches must not count, got %+v", r)
	}
	if rows[0].ParticipantID != "p3" {
		t.Fatalf("expected p3 on top, got %v", order(rows))
	}
}

func TestScorePair(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		a, b int
		ok   bool
	}{
		{`[2,1]`, 2, 1, true},
		{`{"scores":[3,4],"maps":["dust2"]}`, 3, 4, true},
		{`{"home":1,"away":0}`, 0, 0, false},
		{`[1,2,3]`, 0, 0, false},
		{`["1","2"]`, 0, 0, false},
		{``, 0, 0, false},
	}
	for _, tt := range tests {
		a, b, ok := scorePair(json.RawMessage(tt.raw))
		if a != tt.a || b != tt.b || ok != tt.ok {
			t.Fatalf("scorePair(%s) = %d, %d, %v", tt.raw, a, b, ok)
		}
	}
}
