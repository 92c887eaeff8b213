package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name         string                    `json:"name"`
	Participants []models.Participant      `json:"participants"`
	Settings     models.TournamentSettings `json:"settings"`
}

type GenerateStructureInput struct {
	Format  models.StageFormat   `json:"format"`
	Seeding models.SeedingPolicy `json:"seeding"`
	Options models.StageOptions  `json:"options"`
}

type StageView struct {
	Stage   *models.Stage   `json:"stage"`
	Matches []*models.Match `json:"matches"`
}

// BracketView is the complete structure of a tournament.
type BracketView struct {
	Tournament *models.Tournament `json:"tournament"`
	Stages     []StageView        `json:"stages"`
}

type BracketService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput, actor Actor) (*models.Tournament, error)
	GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]*models.Tournament, error)
	GenerateStructure(ctx context.Context, tournamentID string, input GenerateStructureInput, actor Actor) (*BracketView, error)
	ResetStructure(ctx context.Context, tournamentID string, actor Actor) error
	GetBracket(ctx context.Context, tournamentID string) (*BracketView, error)
}

type bracketService struct {
	*core
}

func NewBracketService(deps Dependencies) BracketService {
	return &bracketService{core: newCore(deps)}
}

func (s *bracketService) CreateTournament(ctx context.Context, input CreateTournamentInput, actor Actor) (*models.Tournament, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationf("tournament name is required")
	}
	if err := ValidateScoreSchema(input.Settings.ScoreSchema); err != nil {
		return nil, err
	}
	for i, planned := range input.Settings.StagePlan {
		if !planned.Format.Valid() {
			return nil, validationf("stage plan entry %d has unknown format %q", i, planned.Format)
		}
		if planned.AutoAdvance && planned.Advancement.TopN < 1 {
			return nil, validationf("stage plan entry %d advances automatically without top_n", i)
		}
	}

	participants := make([]models.Participant, 0, len(input.Participants))
	seen := make(map[string]bool, len(input.Participants))
	for _, p := range input.Participants {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if seen[p.ID] {
			return nil, validationf("participant %s is listed twice", p.ID)
		}
		if p.Seed < 0 {
			return nil, validationf("participant %s has a negative seed", p.ID)
		}
		seen[p.ID] = true
		participants = append(participants, p)
	}

	now := s.now().UTC()
	t := &models.Tournament{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         slug.Make(name),
		Status:       models.TournamentStatusSetup,
		Participants: participants,
		Settings:     input.Settings,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Repositories().Tournaments.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.Info("tournament created", "tournament_id", t.ID, "slug", t.Slug, "participants", len(participants))
	return t, nil
}

func (s *bracketService) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := s.store.Repositories().Tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return t, nil
}

func (s *bracketService) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	list, err := s.store.Repositories().Tournaments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if list == nil {
		return []*models.Tournament{}, nil
	}
	return list, nil
}

// GenerateStructure seeds the participants and materializes the first stage.
func (s *bracketService) GenerateStructure(ctx context.Context, tournamentID string, input GenerateStructureInput, actor Actor) (*BracketView, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	if !input.Format.Valid() {
		return nil, validationf("unknown stage format %q", input.Format)
	}
	err := s.inTx(ctx, func(tx *txn) error {
		if err := tx.lockTournament(tournamentID); err != nil {
			return err
		}
		t, err := tx.tournament(tournamentID)
		if err != nil {
			return err
		}
		existing, err := tx.repos.Stages.ListByTournament(tx.ctx, t.ID)
		if err != nil {
			return translateRepoError(err)
		}
		if len(existing) > 0 {
			return ErrStructureExists
		}
		if len(t.Participants) < 2 {
			return fmt.Errorf("%w: %w", ErrValidation, brackets.ErrNotEnoughEntrants)
		}
		seeded, err := tx.core.seed(t.Participants, input.Seeding, input.Options.ManualOrder)
		if err != nil {
			return err
		}
		if _, _, err := tx.materializeStage(t, 0, input.Format, input.Seeding, input.Options, seeded); err != nil {
			return err
		}
		// Walkovers may already have completed the tournament.
		current, err := tx.tournament(t.ID)
		if err != nil {
			return err
		}
		if current.Status == models.TournamentStatusSetup {
			current.Status = models.TournamentStatusActive
			current.UpdatedAt = tx.now
			return translateRepoError(tx.repos.Tournaments.Update(tx.ctx, current))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("structure generated", "tournament_id", tournamentID, "format", input.Format)
	return s.GetBracket(ctx, tournamentID)
}

func (s *bracketService) ResetStructure(ctx context.Context, tournamentID string, actor Actor) error {
	if err := requireOrganizer(actor); err != nil {
		return err
	}
	err := s.inTx(ctx, func(tx *txn) error {
		if err := tx.lockTournament(tournamentID); err != nil {
			return err
		}
		t, err := tx.tournament(tournamentID)
		if err != nil {
			return err
		}
		if err := tx.repos.Stages.DeleteByTournament(tx.ctx, t.ID); err != nil {
			return translateRepoError(err)
		}
		t.Status = models.TournamentStatusSetup
		t.WinnerID = ""
		t.UpdatedAt = tx.now
		return translateRepoError(tx.repos.Tournaments.Update(tx.ctx, t))
	})
	if err != nil {
		return err
	}
	s.logger.Info("structure reset", "tournament_id", tournamentID, "actor", actor.ID)
	return nil
}

// GetBracket loads the tournament, its stages and its matches in parallel.
func (s *bracketService) GetBracket(ctx context.Context, tournamentID string) (*BracketView, error) {
	repos := s.store.Repositories()
	var (
		t       *models.Tournament
		stages  []*models.Stage
		matches []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = repos.Tournaments.GetByID(gCtx, tournamentID)
		return translateRepoError(err)
	})
	g.Go(func() error {
		var err error
		stages, err = repos.Stages.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list stages of tournament %s: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = repos.Matches.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list matches of tournament %s: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("bracket fetch failed", "tournament_id", tournamentID, "error", err)
		return nil, err
	}

	byStage := make(map[string][]*models.Match, len(stages))
	for _, m := range matches {
		byStage[m.StageID] = append(byStage[m.StageID], m)
	}
	view := &BracketView{Tournament: t, Stages: make([]StageView, 0, len(stages))}
	for _, st := range stages {
		stageMatches := byStage[st.ID]
		if stageMatches == nil {
			stageMatches = []*models.Match{}
		}
		view.Stages = append(view.Stages, StageView{Stage: st, Matches: stageMatches})
	}
	return view, nil
}

func (c *core) seed(participants []models.Participant, policy models.SeedingPolicy, manualOrder []string) ([]models.StageParticipant, error) {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	seeded, err := brackets.ApplySeeding(participants, policy, manualOrder, c.rand)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return seeded, nil
}

// generate runs the generator of a format. It writes nothing.
func (tx *txn) generate(format models.StageFormat, opts models.StageOptions, seeded []models.StageParticipant) (*brackets.Plan, error) {
	gen, err := brackets.NewGenerator(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	plan, err := gen.GenerateBracket(tx.ctx, brackets.GenerateBracketParams{Participants: seeded, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrValidation, gen.GetName(), err)
	}
	return plan, nil
}

// materializeStage runs the generator of a format and stores the resulting
// stage with all of its matches.
func (tx *txn) materializeStage(t *models.Tournament, index int, format models.StageFormat, policy models.SeedingPolicy,
	opts models.StageOptions, seeded []models.StageParticipant) (*models.Stage, []*models.Match, error) {
	plan, err := tx.generate(format, opts, seeded)
	if err != nil {
		return nil, nil, err
	}
	return tx.storeStage(t, index, format, policy, opts, seeded, plan)
}

// storeStage writes a generated stage and its matches, then resolves the
// matches that are already decided by byes.
func (tx *txn) storeStage(t *models.Tournament, index int, format models.StageFormat, policy models.SeedingPolicy,
	opts models.StageOptions, seeded []models.StageParticipant, plan *brackets.Plan) (*models.Stage, []*models.Match, error) {
	if policy == "" {
		policy = models.SeedingRanked
	}

	stage := &models.Stage{
		ID:           uuid.NewString(),
		TournamentID: t.ID,
		Index:        index,
		Type:         format.Type(),
		Format:       format,
		Status:       models.StageStatusActive,
		Seeding:      policy,
		Options:      opts,
		Participants: seeded,
		CreatedAt:    tx.now,
	}
	for i, g := range plan.Groups {
		stage.Groups = append(stage.Groups, models.Group{
			ID:             uuid.NewString(),
			StageID:        stage.ID,
			Name:           g.Name,
			Index:          i,
			ParticipantIDs: g.ParticipantIDs,
		})
	}
	if format == models.FormatSwiss {
		stage.SwissRound = 1
	}
	if err := tx.repos.Stages.Create(tx.ctx, stage); err != nil {
		return nil, nil, fmt.Errorf("failed to create stage %d of tournament %s: %w", index, t.ID, err)
	}

	matches, err := tx.materialize(stage, plan.Matches)
	if err != nil {
		return nil, nil, err
	}
	tx.core.logger.Info("stage materialized",
		"tournament_id", t.ID, "stage_id", stage.ID, "format", format, "matches", len(matches))
	return stage, matches, nil
}

// materialize stores planned matches, translating plan UIDs into match ids,
// then resolves the matches whose slots are already complete.
func (tx *txn) materialize(stage *models.Stage, planned []*brackets.BracketMatch) ([]*models.Match, error) {
	ids := make(map[string]string, len(planned))
	created := make([]*models.Match, 0, len(planned))
	for _, pm := range planned {
		m := &models.Match{
			ID:           uuid.NewString(),
			TournamentID: stage.TournamentID,
			StageID:      stage.ID,
			Bracket:      pm.Bracket,
			Round:        pm.Round,
			Order:        pm.OrderInRound,
			Code:         pm.UID,
			State:        models.MatchStateWaiting,
			Generation:   1,
			ClaimSide:    -1,
			CreatedAt:    tx.now,
			UpdatedAt:    tx.now,
		}
		if stage.Type == models.StageTypeGroup {
			if pm.GroupIndex < 0 || pm.GroupIndex >= len(stage.Groups) {
				return nil, fmt.Errorf("planned match %s references unknown group %d", pm.UID, pm.GroupIndex)
			}
			m.GroupID = stage.Groups[pm.GroupIndex].ID
		}
		for i, sp := range pm.Slots {
			switch {
			case sp.SourceUID != "":
				sourceID, ok := ids[sp.SourceUID]
				if !ok {
					return nil, fmt.Errorf("planned match %s references %s before it exists", pm.UID, sp.SourceUID)
				}
				m.Slots[i].Source = &models.SlotSource{MatchID: sourceID, Outcome: sp.Outcome}
			case sp.Bye:
				m.Slots[i].Bye = true
			default:
				m.Slots[i].ParticipantID = sp.ParticipantID
			}
		}
		if m.HasParticipants() {
			m.State = models.MatchStatePending
		}
		if err := tx.repos.Matches.Create(tx.ctx, m); err != nil {
			return nil, fmt.Errorf("failed to create match %s: %w", pm.UID, err)
		}
		ids[pm.UID] = m.ID
		created = append(created, m)
	}

	snapshot := *stage
	announced := make([]*models.Match, len(created))
	for i, m := range created {
		cp := *m
		announced[i] = &cp
	}
	notifier := tx.core.notifier
	tx.effects = append(tx.effects, func(ctx context.Context) {
		notifier.StageCreated(ctx, &snapshot, announced)
	})

	for _, m := range created {
		if m.State == models.MatchStateWaiting && m.Slots[0].Resolved() && m.Slots[1].Resolved() {
			if err := tx.resolveReadiness(m, nil); err != nil {
				return nil, err
			}
		}
	}
	return created, nil
}
