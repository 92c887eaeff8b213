package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
)

var organizer = Actor{ID: "organizer-1", Organizer: true}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubProofs map[string]bool

func (p stubProofs) Exists(_ context.Context, ref string) (bool, error) {
	return p[ref], nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	transitions []models.Transition
	stages      []*models.Stage
}

func (n *recordingNotifier) MatchTransitioned(_ context.Context, transition models.Transition, _ *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, transition)
}

func (n *recordingNotifier) StageCreated(_ context.Context, stage *models.Stage, _ []*models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stages = append(n.stages, stage)
}

type fixture struct {
	deps     Dependencies
	clock    *testClock
	notifier *recordingNotifier

	matches  MatchService
	results  ResultService
	disputes DisputeService
	stages   StageService
	brackets BracketService
}

func newFixture(t *testing.T, opts ...func(*Dependencies)) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	deps := Dependencies{
		Store:    repositories.NewMemoryStore(),
		Notifier: notifier,
		Proofs:   stubProofs{"proof-1": true, "proof-2": true},
		Policy:   DefaultPolicy(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      clock.Now,
		Rand:     rand.New(rand.NewPCG(7, 11)),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &fixture{
		deps:     deps,
		clock:    clock,
		notifier: notifier,
		matches:  NewMatchService(deps),
		results:  NewResultService(deps),
		disputes: NewDisputeService(deps),
		stages:   NewStageService(deps),
		brackets: NewBracketService(deps),
	}
}

func participants(n int) []models.Participant {
	out := make([]models.Participant, n)
	for i := range out {
		out[i] = models.Participant{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Player %d", i+1), Seed: i + 1}
	}
	return out
}

func (f *fixture) createTournament(t *testing.T, n int, settings models.TournamentSettings) *models.Tournament {
	t.Helper()
	tour, err := f.brackets.CreateTournament(t.Context(), CreateTournamentInput{
		Name:         "Spring Cup",
		Participants: participants(n),
		Settings:     settings,
	}, organizer)
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	return tour
}

func (f *fixture) generate(t *testing.T, tournamentID string, format models.StageFormat, opts models.StageOptions) *BracketView {
	t.Helper()
	view, err := f.brackets.GenerateStructure(t.Context(), tournamentID, GenerateStructureInput{
		Format:  format,
		Seeding: models.SeedingRanked,
		Options: opts,
	}, organizer)
	if err != nil {
		t.Fatalf("generate %s: %v", format, err)
	}
	return view
}

// setup creates a tournament of n participants and generates its first stage.
func (f *fixture) setup(t *testing.T, n int, format models.StageFormat, opts models.StageOptions, settings models.TournamentSettings) *models.Tournament {
	t.Helper()
	tour := f.createTournament(t, n, settings)
	f.generate(t, tour.ID, format, opts)
	return tour
}

func (f *fixture) byCode(t *testing.T, tournamentID, code string) *models.Match {
	t.Helper()
	view, err := f.brackets.GetBracket(t.Context(), tournamentID)
	if err != nil {
		t.Fatalf("get bracket: %v", err)
	}
	for _, st := range view.Stages {
		for _, m := range st.Matches {
			if m.Code == code {
				return m
			}
		}
	}
	t.Fatalf("match %s not found", code)
	return nil
}

func (f *fixture) get(t *testing.T, matchID string) *models.Match {
	t.Helper()
	details, err := f.matches.Get(t.Context(), matchID)
	if err != nil {
		t.Fatalf("get match %s: %v", matchID, err)
	}
	return details.Match
}

func (f *fixture) start(t *testing.T, matchID string) {
	t.Helper()
	if _, err := f.matches.Start(t.Context(), matchID, organizer); err != nil {
		t.Fatalf("start match %s: %v", matchID, err)
	}
}

func (f *fixture) submit(t *testing.T, matchID, participantID, winner string, score json.RawMessage) *models.Match {
	t.Helper()
	_, m, err := f.results.Submit(t.Context(), matchID, participantID, SubmitResultInput{ClaimedWinnerID: winner, Score: score})
	if err != nil {
		t.Fatalf("submit %s for match %s: %v", participantID, matchID, err)
	}
	return m
}

// play starts the match if needed and has both sides report the same result.
func (f *fixture) play(t *testing.T, matchID, winner string, score json.RawMessage) *models.Match {
	t.Helper()
	m := f.get(t, matchID)
	if m.State == models.MatchStatePending {
		f.start(t, matchID)
	}
	f.submit(t, matchID, m.Slots[0].ParticipantID, winner, score)
	out := f.submit(t, matchID, m.Slots[1].ParticipantID, winner, score)
	if out.State != models.MatchStateCompleted {
		t.Fatalf("expected match %s completed, got %s", m.Code, out.State)
	}
	return out
}

// pendingClaim starts the match and submits a claim from side 0.
func (f *fixture) pendingClaim(t *testing.T, matchID, winner string, score json.RawMessage) *models.Match {
	t.Helper()
	m := f.get(t, matchID)
	f.start(t, matchID)
	return f.submit(t, matchID, m.Slots[0].ParticipantID, winner, score)
}

func score(a, b int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"scores":[%d,%d]}`, a, b))
}

// winsBySeed returns the participant of m with the better (lower) seed.
func winsBySeed(m *models.Match) string {
	a, b := m.Slots[0].ParticipantID, m.Slots[1].ParticipantID
	var sa, sb int
	fmt.Sscanf(a, "p%d", &sa)
	fmt.Sscanf(b, "p%d", &sb)
	if sa < sb {
		return a
	}
	return b
}

func (f *fixture) stageMatches(t *testing.T, tournamentID string, index int) (*models.Stage, []*models.Match) {
	t.Helper()
	view, err := f.brackets.GetBracket(t.Context(), tournamentID)
	if err != nil {
		t.Fatalf("get bracket: %v", err)
	}
	for _, st := range view.Stages {
		if st.Stage.Index == index {
			return st.Stage, st.Matches
		}
	}
	t.Fatalf("stage %d not found", index)
	return nil, nil
}
