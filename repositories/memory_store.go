package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// MemoryStore keeps everything in process memory. Transactions are serialized
// and work on a copy of the maps that replaces the live state on commit.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

type memoryState struct {
	seq         int64
	order       map[string]int64
	tournaments map[string]*models.Tournament
	stages      map[string]*models.Stage
	matches     map[string]*models.Match
	submissions map[string]*models.ResultSubmission
	disputes    map[string]*models.Dispute
	transitions map[string][]*models.Transition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		order:       make(map[string]int64),
		tournaments: make(map[string]*models.Tournament),
		stages:      make(map[string]*models.Stage),
		matches:     make(map[string]*models.Match),
		submissions: make(map[string]*models.ResultSubmission),
		disputes:    make(map[string]*models.Dispute),
		transitions: make(map[string][]*models.Transition),
	}}
}

// clone copies the maps. Stored values are never mutated in place, so the
// pointers can be shared between the copies.
func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		seq:         s.seq,
		order:       make(map[string]int64, len(s.order)),
		tournaments: make(map[string]*models.Tournament, len(s.tournaments)),
		stages:      make(map[string]*models.Stage, len(s.stages)),
		matches:     make(map[string]*models.Match, len(s.matches)),
		submissions: make(map[string]*models.ResultSubmission, len(s.submissions)),
		disputes:    make(map[string]*models.Dispute, len(s.disputes)),
		transitions: make(map[string][]*models.Transition, len(s.transitions)),
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range s.stages {
		c.stages[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	for k, v := range s.submissions {
		c.submissions[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.transitions {
		c.transitions[k] = v[:len(v):len(v)]
	}
	return c
}

func (s *memoryState) nextSeq(id string) {
	s.seq++
	s.order[id] = s.seq
}

// memoryAccess routes reads and writes either to an open transaction or to
// the live state under the store lock.
type memoryAccess struct {
	store *MemoryStore
	tx    *memoryState
}

func (a *memoryAccess) read(fn func(s *memoryState) error) error {
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.state)
}

func (a *memoryAccess) write(fn func(s *memoryState) error) error {
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	working := a.store.state.clone()
	if err := fn(working); err != nil {
		return err
	}
	a.store.state = working
	return nil
}

func (m *MemoryStore) repositories(access *memoryAccess) Repositories {
	return Repositories{
		Tournaments: &memoryTournamentRepository{access},
		Stages:      &memoryStageRepository{access},
		Matches:     &memoryMatchRepository{access},
		Submissions: &memorySubmissionRepository{access},
		Disputes:    &memoryDisputeRepository{access},
		Transitions: &memoryTransitionRepository{access},
	}
}

func (m *MemoryStore) Repositories() Repositories {
	return m.repositories(&memoryAccess{store: m})
}

// WithinTx holds the store lock for the whole of fn. fn must only use the
// repositories it is given.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(ctx, m.repositories(&memoryAccess{store: m, tx: working})); err != nil {
		return err
	}
	m.state = working
	return nil
}

// sortByOrder sorts values by insertion order.
func sortByOrder[T any](s *memoryState, items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		return s.order[id(items[i])] < s.order[id(items[j])]
	})
}

type memoryTournamentRepository struct{ *memoryAccess }

func (r *memoryTournamentRepository) Create(_ context.Context, tournament *models.Tournament) error {
	return r.write(func(s *memoryState) error {
		if _, exists := s.tournaments[tournament.ID]; exists {
			return ErrDuplicateID
		}
		s.tournaments[tournament.ID] = cloneTournament(tournament)
		s.nextSeq(tournament.ID)
		return nil
	})
}

func (r *memoryTournamentRepository) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.read(func(s *memoryState) error {
		t, ok := s.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		out = cloneTournament(t)
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) List(_ context.Context) ([]*models.Tournament, error) {
	var out []*models.Tournament
	err := r.read(func(s *memoryState) error {
		for _, t := range s.tournaments {
			out = append(out, cloneTournament(t))
		}
		sortByOrder(s, out, func(t *models.Tournament) string { return t.ID })
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) Update(_ context.Context, tournament *models.Tournament) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.tournaments[tournament.ID]; !ok {
			return ErrTournamentNotFound
		}
		s.tournaments[tournament.ID] = cloneTournament(tournament)
		return nil
	})
}

// Lock only checks existence: WithinTx already holds the store lock.
func (r *memoryTournamentRepository) Lock(_ context.Context, id string) error {
	return r.read(func(s *memoryState) error {
		if _, ok := s.tournaments[id]; !ok {
			return ErrTournamentNotFound
		}
		return nil
	})
}

func (r *memoryTournamentRepository) CountByStatus(_ context.Context) (map[models.TournamentStatus]int, error) {
	counts := make(map[models.TournamentStatus]int)
	err := r.read(func(s *memoryState) error {
		for _, t := range s.tournaments {
			counts[t.Status]++
		}
		return nil
	})
	return counts, err
}

type memoryStageRepository struct{ *memoryAccess }

func (r *memoryStageRepository) Create(_ context.Context, stage *models.Stage) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.tournaments[stage.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		if _, exists := s.stages[stage.ID]; exists {
			return ErrDuplicateID
		}
		if stage.Version == 0 {
			stage.Version = 1
		}
		s.stages[stage.ID] = cloneStage(stage)
		s.nextSeq(stage.ID)
		return nil
	})
}

func (r *memoryStageRepository) GetByID(_ context.Context, id string) (*models.Stage, error) {
	var out *models.Stage
	err := r.read(func(s *memoryState) error {
		st, ok := s.stages[id]
		if !ok {
			return ErrStageNotFound
		}
		out = cloneStage(st)
		return nil
	})
	return out, err
}

func (r *memoryStageRepository) GetByGroupID(_ context.Context, groupID string) (*models.Stage, error) {
	var out *models.Stage
	err := r.read(func(s *memoryState) error {
		for _, st := range s.stages {
			if _, ok := st.Group(groupID); ok {
				out = cloneStage(st)
				return nil
			}
		}
		return ErrGroupNotFound
	})
	return out, err
}

func (r *memoryStageRepository) ListByTournament(_ context.Context, tournamentID string) ([]*models.Stage, error) {
	var out []*models.Stage
	err := r.read(func(s *memoryState) error {
		for _, st := range s.stages {
			if st.TournamentID == tournamentID {
				out = append(out, cloneStage(st))
			}
		}
		sortByOrder(s, out, func(st *models.Stage) string { return st.ID })
		return nil
	})
	return out, err
}

func (r *memoryStageRepository) Update(_ context.Context, stage *models.Stage) error {
	return r.write(func(s *memoryState) error {
		current, ok := s.stages[stage.ID]
		if !ok {
			return ErrStageNotFound
		}
		if current.Version != stage.Version {
			return ErrVersionConflict
		}
		stage.Version++
		s.stages[stage.ID] = cloneStage(stage)
		return nil
	})
}

func (r *memoryStageRepository) DeleteByTournament(_ context.Context, tournamentID string) error {
	return r.write(func(s *memoryState) error {
		for id, st := range s.stages {
			if st.TournamentID == tournamentID {
				delete(s.stages, id)
				delete(s.order, id)
			}
		}
		for id, m := range s.matches {
			if m.TournamentID != tournamentID {
				continue
			}
			delete(s.matches, id)
			delete(s.order, id)
			delete(s.transitions, id)
			for sid, sub := range s.submissions {
				if sub.MatchID == id {
					delete(s.submissions, sid)
					delete(s.order, sid)
				}
			}
		}
		for id, d := range s.disputes {
			if d.TournamentID == tournamentID {
				delete(s.disputes, id)
				delete(s.order, id)
			}
		}
		return nil
	})
}

type memoryMatchRepository struct{ *memoryAccess }

func (r *memoryMatchRepository) Create(_ context.Context, match *models.Match) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.stages[match.StageID]; !ok {
			return ErrStageNotFound
		}
		if _, exists := s.matches[match.ID]; exists {
			return ErrDuplicateID
		}
		if match.Version == 0 {
			match.Version = 1
		}
		s.matches[match.ID] = cloneMatch(match)
		s.nextSeq(match.ID)
		return nil
	})
}

func (r *memoryMatchRepository) GetByID(_ context.Context, id string) (*models.Match, error) {
	var out *models.Match
	err := r.read(func(s *memoryState) error {
		m, ok := s.matches[id]
		if !ok {
			return ErrMatchNotFound
		}
		out = cloneMatch(m)
		return nil
	})
	return out, err
}

func (r *memoryMatchRepository) list(keep func(m *models.Match) bool) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.read(func(s *memoryState) error {
		for _, m := range s.matches {
			if keep(m) {
				out = append(out, cloneMatch(m))
			}
		}
		sortByOrder(s, out, func(m *models.Match) string { return m.ID })
		return nil
	})
	return out, err
}

func (r *memoryMatchRepository) ListByStage(_ context.Context, stageID string) ([]*models.Match, error) {
	return r.list(func(m *models.Match) bool { return m.StageID == stageID })
}

func (r *memoryMatchRepository) ListByGroup(_ context.Context, groupID string) ([]*models.Match, error) {
	return r.list(func(m *models.Match) bool { return m.GroupID == groupID })
}

func (r *memoryMatchRepository) ListByTournament(_ context.Context, tournamentID string) ([]*models.Match, error) {
	return r.list(func(m *models.Match) bool { return m.TournamentID == tournamentID })
}

func (r *memoryMatchRepository) ListDependents(_ context.Context, matchID string) ([]*models.Match, error) {
	return r.list(func(m *models.Match) bool { return len(m.DependsOn(matchID)) > 0 })
}

func (r *memoryMatchRepository) ListAwaitingConfirmation(_ context.Context, before time.Time) ([]*models.Match, error) {
	return r.list(func(m *models.Match) bool {
		return m.State == models.MatchStatePendingConfirmation &&
			m.ConfirmationDeadline != nil && !m.ConfirmationDeadline.After(before)
	})
}

func (r *memoryMatchRepository) CountByState(_ context.Context) (map[models.MatchState]int, error) {
	counts := make(map[models.MatchState]int)
	err := r.read(func(s *memoryState) error {
		for _, m := range s.matches {
			counts[m.State]++
		}
		return nil
	})
	return counts, err
}

func (r *memoryMatchRepository) Update(_ context.Context, match *models.Match) error {
	return r.write(func(s *memoryState) error {
		current, ok := s.matches[match.ID]
		if !ok {
			return ErrMatchNotFound
		}
		if current.Version != match.Version {
			return ErrVersionConflict
		}
		match.Version++
		s.matches[match.ID] = cloneMatch(match)
		return nil
	})
}

type memorySubmissionRepository struct{ *memoryAccess }

func (r *memorySubmissionRepository) Create(_ context.Context, submission *models.ResultSubmission) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.matches[submission.MatchID]; !ok {
			return ErrMatchNotFound
		}
		if _, exists := s.submissions[submission.ID]; exists {
			return ErrDuplicateID
		}
		s.submissions[submission.ID] = cloneSubmission(submission)
		s.nextSeq(submission.ID)
		return nil
	})
}

func (r *memorySubmissionRepository) GetByID(_ context.Context, id string) (*models.ResultSubmission, error) {
	var out *models.ResultSubmission
	err := r.read(func(s *memoryState) error {
		sub, ok := s.submissions[id]
		if !ok {
			return ErrSubmissionNotFound
		}
		out = cloneSubmission(sub)
		return nil
	})
	return out, err
}

func (r *memorySubmissionRepository) ListByMatch(_ context.Context, matchID string) ([]*models.ResultSubmission, error) {
	out := make([]*models.ResultSubmission, 0)
	err := r.read(func(s *memoryState) error {
		for _, sub := range s.submissions {
			if sub.MatchID == matchID {
				out = append(out, cloneSubmission(sub))
			}
		}
		sortByOrder(s, out, func(sub *models.ResultSubmission) string { return sub.ID })
		return nil
	})
	return out, err
}

type memoryDisputeRepository struct{ *memoryAccess }

func (r *memoryDisputeRepository) Create(_ context.Context, dispute *models.Dispute) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.matches[dispute.MatchID]; !ok {
			return ErrMatchNotFound
		}
		if _, exists := s.disputes[dispute.ID]; exists {
			return ErrDuplicateID
		}
		s.disputes[dispute.ID] = cloneDispute(dispute)
		s.nextSeq(dispute.ID)
		return nil
	})
}

func (r *memoryDisputeRepository) GetByID(_ context.Context, id string) (*models.Dispute, error) {
	var out *models.Dispute
	err := r.read(func(s *memoryState) error {
		d, ok := s.disputes[id]
		if !ok {
			return ErrDisputeNotFound
		}
		out = cloneDispute(d)
		return nil
	})
	return out, err
}

func (r *memoryDisputeRepository) Update(_ context.Context, dispute *models.Dispute) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.disputes[dispute.ID]; !ok {
			return ErrDisputeNotFound
		}
		s.disputes[dispute.ID] = cloneDispute(dispute)
		return nil
	})
}

func (r *memoryDisputeRepository) list(keep func(d *models.Dispute) bool) ([]*models.Dispute, error) {
	out := make([]*models.Dispute, 0)
	err := r.read(func(s *memoryState) error {
		for _, d := range s.disputes {
			if keep(d) {
				out = append(out, cloneDispute(d))
			}
		}
		sortByOrder(s, out, func(d *models.Dispute) string { return d.ID })
		return nil
	})
	return out, err
}

func (r *memoryDisputeRepository) ListByMatch(_ context.Context, matchID string) ([]*models.Dispute, error) {
	return r.list(func(d *models.Dispute) bool { return d.MatchID == matchID })
}

func (r *memoryDisputeRepository) ListOpen(_ context.Context) ([]*models.Dispute, error) {
	return r.list(func(d *models.Dispute) bool { return d.Status == models.DisputeStatusOpen })
}

func (r *memoryDisputeRepository) CountOpen(ctx context.Context) (int, error) {
	open, err := r.ListOpen(ctx)
	return len(open), err
}

type memoryTransitionRepository struct{ *memoryAccess }

func (r *memoryTransitionRepository) Create(_ context.Context, transition *models.Transition) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.matches[transition.MatchID]; !ok {
			return ErrMatchNotFound
		}
		copied := *transition
		s.transitions[transition.MatchID] = append(s.transitions[transition.MatchID], &copied)
		return nil
	})
}

func (r *memoryTransitionRepository) ListByMatch(_ context.Context, matchID string) ([]*models.Transition, error) {
	out := make([]*models.Transition, 0)
	err := r.read(func(s *memoryState) error {
		for _, t := range s.transitions[matchID] {
			copied := *t
			out = append(out, &copied)
		}
		return nil
	})
	return out, err
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneTournament(t *models.Tournament) *models.Tournament {
	c := *t
	c.Participants = append([]models.Participant(nil), t.Participants...)
	c.Settings.ScoreSchema = cloneRaw(t.Settings.ScoreSchema)
	if t.Settings.Scoring != nil {
		rule := *t.Settings.Scoring
		c.Settings.Scoring = &rule
	}
	if t.Settings.StagePlan != nil {
		c.Settings.StagePlan = make([]models.PlannedStage, len(t.Settings.StagePlan))
		for i, ps := range t.Settings.StagePlan {
			ps.Options.ManualOrder = append([]string(nil), ps.Options.ManualOrder...)
			c.Settings.StagePlan[i] = ps
		}
	}
	return &c
}

func cloneStage(st *models.Stage) *models.Stage {
	c := *st
	c.Options.ManualOrder = append([]string(nil), st.Options.ManualOrder...)
	c.Participants = append([]models.StageParticipant(nil), st.Participants...)
	if st.Groups != nil {
		c.Groups = make([]models.Group, len(st.Groups))
		for i, g := range st.Groups {
			g.ParticipantIDs = append([]string(nil), g.ParticipantIDs...)
			c.Groups[i] = g
		}
	}
	c.TransitionedAt = cloneTime(st.TransitionedAt)
	return &c
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	for i, s := range m.Slots {
		if s.Source != nil {
			src := *s.Source
			c.Slots[i].Source = &src
		}
	}
	c.ScheduledAt = cloneTime(m.ScheduledAt)
	c.StartedAt = cloneTime(m.StartedAt)
	c.ConfirmationDeadline = cloneTime(m.ConfirmationDeadline)
	if m.Result != nil {
		res := *m.Result
		res.Score = cloneRaw(m.Result.Score)
		c.Result = &res
	}
	return &c
}

func cloneSubmission(sub *models.ResultSubmission) *models.ResultSubmission {
	c := *sub
	c.Score = cloneRaw(sub.Score)
	return &c
}

func cloneDispute(d *models.Dispute) *models.Dispute {
	c := *d
	if d.Resolution != nil {
		res := *d.Resolution
		c.Resolution = &res
	}
	return &c
}
