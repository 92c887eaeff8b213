package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

type AdvanceStageInput struct {
	Rule       models.AdvancementRule `json:"advancement_rule"`
	NextFormat models.StageFormat     `json:"next_format"`
	// Seeding of the next stage; ranked keeps the advancement order.
	Seeding models.SeedingPolicy `json:"seeding,omitempty"`
	Options models.StageOptions  `json:"options"`
}

type StageService interface {
	AdvanceStage(ctx context.Context, stageID string, input AdvanceStageInput, actor Actor) (*models.Stage, error)
	GetStandings(ctx context.Context, groupID string) (*models.GroupStandings, error)
	GetStageStandings(ctx context.Context, stageID string) ([]models.GroupStandings, error)
}

type stageService struct {
	*core
}

func NewStageService(deps Dependencies) StageService {
	return &stageService{core: newCore(deps)}
}

func (s *stageService) AdvanceStage(ctx context.Context, stageID string, input AdvanceStageInput, actor Actor) (*models.Stage, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	var next *models.Stage
	err := s.inTx(ctx, func(tx *txn) error {
		stage, err := tx.lockedStage(stageID)
		if err != nil {
			return err
		}
		t, err := tx.tournament(stage.TournamentID)
		if err != nil {
			return err
		}
		next, err = tx.advance(t, stage, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stage advanced",
		"stage_id", stageID, "next_stage_id", next.ID, "next_format", next.Format, "actor", actor.ID)
	return next, nil
}

// stageAdvance is a checked transition that has not been written yet.
type stageAdvance struct {
	input  AdvanceStageInput
	policy models.SeedingPolicy
	seeded []models.StageParticipant
	plan   *brackets.Plan
}

// advance closes a finished group stage and materializes the next stage from
// its standings.
func (tx *txn) advance(t *models.Tournament, stage *models.Stage, input AdvanceStageInput) (*models.Stage, error) {
	adv, err := tx.prepareAdvance(t, stage, input)
	if err != nil {
		return nil, err
	}
	return tx.applyAdvance(t, stage, adv)
}

// prepareAdvance checks a transition and generates the next stage without
// writing anything.
func (tx *txn) prepareAdvance(t *models.Tournament, stage *models.Stage, input AdvanceStageInput) (*stageAdvance, error) {
	if stage.Status == models.StageStatusTransitioned {
		return nil, fmt.Errorf("%w: stage %d of tournament %s", ErrAlreadyTransitioned, stage.Index, t.ID)
	}
	if stage.Type != models.StageTypeGroup {
		return nil, invalidStatef("only group stages can advance")
	}
	if input.Rule.TopN < 1 {
		return nil, validationf("advancement top_n must be at least 1")
	}
	if !input.NextFormat.Valid() {
		return nil, validationf("unknown stage format %q", input.NextFormat)
	}

	matches, err := tx.repos.Matches.ListByStage(tx.ctx, stage.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	for _, m := range matches {
		if !m.State.Terminal() {
			return nil, invalidStatef("match %s of the stage is still %s", m.Code, m.State)
		}
	}
	if stage.Format == models.FormatSwiss && stage.SwissRound < brackets.SwissRounds(len(stage.Participants), stage.Options) {
		return nil, invalidStatef("swiss round %d of %d", stage.SwissRound, brackets.SwissRounds(len(stage.Participants), stage.Options))
	}

	rule := t.Settings.ScoringRuleOrDefault()
	tables := make([]models.GroupStandings, 0, len(stage.Groups))
	for _, g := range stage.Groups {
		tables = append(tables, groupStandings(stage, g, matches, rule, input.Rule.TopN))
	}
	advancing := advancingOrder(tables, input.Rule)
	if len(advancing) < 2 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, brackets.ErrNotEnoughEntrants)
	}

	participants := make([]models.Participant, len(advancing))
	for i, row := range advancing {
		participants[i] = models.Participant{ID: row.ParticipantID, Seed: i + 1}
		if p, ok := t.Participant(row.ParticipantID); ok {
			participants[i].Name = p.Name
		}
	}
	policy := input.Seeding
	if policy == "" {
		policy = models.SeedingRanked
	}
	seeded, err := tx.core.seed(participants, policy, input.Options.ManualOrder)
	if err != nil {
		return nil, err
	}
	plan, err := tx.generate(input.NextFormat, input.Options, seeded)
	if err != nil {
		return nil, err
	}
	return &stageAdvance{input: input, policy: policy, seeded: seeded, plan: plan}, nil
}

// applyAdvance writes a prepared transition. Errors from here on leave partial
// writes behind, so the caller must roll the transaction back.
func (tx *txn) applyAdvance(t *models.Tournament, stage *models.Stage, adv *stageAdvance) (*models.Stage, error) {
	next, _, err := tx.storeStage(t, stage.Index+1, adv.input.NextFormat, adv.policy, adv.input.Options, adv.seeded, adv.plan)
	if err != nil {
		return nil, err
	}

	transitioned := tx.now
	stage.Status = models.StageStatusTransitioned
	stage.TransitionedAt = &transitioned
	stage.NextStageID = next.ID
	stage.AdvancementRule = adv.input.Rule
	if err := tx.repos.Stages.Update(tx.ctx, stage); err != nil {
		return nil, translateRepoError(err)
	}
	return next, nil
}

// autoAdvance runs the planned transition of a completed group stage.
func (tx *txn) autoAdvance(stage *models.Stage) error {
	t, err := tx.tournament(stage.TournamentID)
	if err != nil {
		return err
	}
	if stage.Index >= len(t.Settings.StagePlan) {
		return nil
	}
	plan := t.Settings.StagePlan[stage.Index]
	if !plan.AutoAdvance {
		return nil
	}
	adv, err := tx.prepareAdvance(t, stage, AdvanceStageInput{
		Rule:       plan.Advancement,
		NextFormat: plan.Format,
		Seeding:    plan.Seeding,
		Options:    plan.Options,
	})
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidState) {
		// The organizer can still advance by hand.
		tx.core.logger.Warn("automatic advancement skipped",
			"stage_id", stage.ID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("automatic advancement of stage %d: %w", stage.Index, err)
	}
	next, err := tx.applyAdvance(t, stage, adv)
	if err != nil {
		return fmt.Errorf("automatic advancement of stage %d: %w", stage.Index, err)
	}
	tx.core.logger.Info("stage advanced automatically",
		"stage_id", stage.ID, "next_stage_id", next.ID, "next_format", next.Format)
	return nil
}

// advancingOrder lists the advancing rows of every group in next-stage seed
// order.
func advancingOrder(tables []models.GroupStandings, rule models.AdvancementRule) []models.StandingsRow {
	var out []models.StandingsRow
	for pos := 0; pos < rule.TopN; pos++ {
		var tier []models.StandingsRow
		for _, table := range tables {
			if pos < len(table.Rows) {
				tier = append(tier, table.Rows[pos])
			}
		}
		if rule.Seeding == models.AdvancePositionThenPoints {
			sort.SliceStable(tier, func(i, j int) bool {
				a, b := tier[i], tier[j]
				if a.Points != b.Points {
					return a.Points > b.Points
				}
				if a.ScoreDiff != b.ScoreDiff {
					return a.ScoreDiff > b.ScoreDiff
				}
				return a.Seed < b.Seed
			})
		}
		out = append(out, tier...)
	}
	return out
}

// nextSwissRound pairs the next swiss round from the standings so far.
func (tx *txn) nextSwissRound(stage *models.Stage, matches []*models.Match) error {
	t, err := tx.tournament(stage.TournamentID)
	if err != nil {
		return err
	}
	if len(stage.Groups) == 0 {
		return invalidStatef("swiss stage %s has no group", stage.ID)
	}

	opponents := make(map[string][]string)
	hadBye := make(map[string]bool)
	for _, m := range matches {
		a, b := m.Slots[0].ParticipantID, m.Slots[1].ParticipantID
		switch {
		case a != "" && b != "":
			opponents[a] = append(opponents[a], b)
			opponents[b] = append(opponents[b], a)
		case a != "" && m.Slots[1].Bye:
			hadBye[a] = true
		}
	}

	rows := CalculateStandings(stage.Participants, matches, t.Settings.ScoringRuleOrDefault(), 0)
	entrants := make([]brackets.SwissEntrant, 0, len(rows))
	for _, row := range rows {
		entrants = append(entrants, brackets.SwissEntrant{
			ParticipantID: row.ParticipantID,
			Seed:          row.Seed,
			Points:        row.Points,
			ScoreDiff:     row.ScoreDiff,
			Opponents:     opponents[row.ParticipantID],
			HadBye:        hadBye[row.ParticipantID],
		})
	}
	pairs, bye, err := brackets.PairSwissRound(entrants)
	if err != nil {
		return fmt.Errorf("%w: swiss round %d: %w", ErrInvalidState, stage.SwissRound+1, err)
	}

	stage.SwissRound++
	if err := tx.repos.Stages.Update(tx.ctx, stage); err != nil {
		return translateRepoError(err)
	}
	_, err = tx.materialize(stage, brackets.SwissRoundMatches(stage.SwissRound, pairs, bye))
	if err != nil {
		return err
	}
	tx.core.logger.Info("swiss round paired", "stage_id", stage.ID, "round", stage.SwissRound)
	return nil
}

// advancementTopN is the top N shown as advancing in standings: the rule the
// stage transitioned with, or the planned rule while it is still running.
func advancementTopN(t *models.Tournament, stage *models.Stage) int {
	if stage.AdvancementRule.TopN > 0 {
		return stage.AdvancementRule.TopN
	}
	if stage.Index < len(t.Settings.StagePlan) {
		return t.Settings.StagePlan[stage.Index].Advancement.TopN
	}
	return 0
}

func (s *stageService) GetStandings(ctx context.Context, groupID string) (*models.GroupStandings, error) {
	repos := s.store.Repositories()
	stage, err := repos.Stages.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	group, ok := stage.Group(groupID)
	if !ok {
		return nil, ErrGroupNotFound
	}
	t, err := repos.Tournaments.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	matches, err := repos.Matches.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of group %s: %w", groupID, err)
	}
	table := groupStandings(stage, group, matches, t.Settings.ScoringRuleOrDefault(), advancementTopN(t, stage))
	return &table, nil
}

func (s *stageService) GetStageStandings(ctx context.Context, stageID string) ([]models.GroupStandings, error) {
	repos := s.store.Repositories()
	stage, err := repos.Stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if stage.Type != models.StageTypeGroup {
		return nil, invalidStatef("bracket stages have no standings")
	}
	t, err := repos.Tournaments.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	matches, err := repos.Matches.ListByStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of stage %s: %w", stageID, err)
	}
	rule := t.Settings.ScoringRuleOrDefault()
	topN := advancementTopN(t, stage)
	tables := make([]models.GroupStandings, 0, len(stage.Groups))
	for _, g := range stage.Groups {
		tables = append(tables, groupStandings(stage, g, matches, rule, topN))
	}
	return tables, nil
}
