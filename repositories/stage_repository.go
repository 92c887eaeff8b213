package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresStageRepository struct {
	exec SQLExecutor
}

func NewPostgresStageRepository(exec SQLExecutor) StageRepository {
	return &postgresStageRepository{exec: exec}
}

const stageColumns = `id, tournament_id, stage_index, type, format, status, seeding, options, advancement_rule,
	participants, stage_groups, swiss_round, next_stage_id, transitioned_at, created_at, version`

var stageFKErrors = map[string]error{
	"stages_tournament_id_fkey": ErrTournamentNotFound,
}

func scanStage(row rowScanner) (*models.Stage, error) {
	var (
		st             models.Stage
		options        []byte
		rule           []byte
		participants   []byte
		groups         []byte
		nextStageID    sql.NullString
		transitionedAt sql.NullTime
	)
	err := row.Scan(&st.ID, &st.TournamentID, &st.Index, &st.Type, &st.Format, &st.Status, &st.Seeding,
		&options, &rule, &participants, &groups, &st.SwissRound, &nextStageID, &transitionedAt, &st.CreatedAt, &st.Version)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{options, &st.Options},
		{rule, &st.AdvancementRule},
		{participants, &st.Participants},
		{groups, &st.Groups},
	} {
		if err := scanJSON(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	st.NextStageID = nextStageID.String
	st.TransitionedAt = timePtr(transitionedAt)
	return &st, nil
}

func stageJSONColumns(st *models.Stage) (options, rule, participants, groups interface{}, err error) {
	if options, err = jsonValue(st.Options); err != nil {
		return
	}
	if rule, err = jsonValue(st.AdvancementRule); err != nil {
		return
	}
	if participants, err = jsonValue(st.Participants); err != nil {
		return
	}
	groupList := st.Groups
	if groupList == nil {
		groupList = []models.Group{}
	}
	groups, err = jsonValue(groupList)
	return
}

func (r *postgresStageRepository) Create(ctx context.Context, st *models.Stage) error {
	options, rule, participants, groups, err := stageJSONColumns(st)
	if err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	query := `
		INSERT INTO stages (` + stageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.exec.ExecContext(ctx, query,
		st.ID, st.TournamentID, st.Index, st.Type, st.Format, st.Status, st.Seeding, options, rule,
		participants, groups, st.SwissRound, nullString(st.NextStageID), nullTime(st.TransitionedAt), st.CreatedAt, st.Version)
	return handlePQError(err, stageFKErrors)
}

func (r *postgresStageRepository) getOne(ctx context.Context, notFound error, query string, args ...interface{}) (*models.Stage, error) {
	st, err := scanStage(r.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to scan stage: %w", err)
	}
	return st, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id string) (*models.Stage, error) {
	return r.getOne(ctx, ErrStageNotFound, `SELECT `+stageColumns+` FROM stages WHERE id = $1`, id)
}

func (r *postgresStageRepository) GetByGroupID(ctx context.Context, groupID string) (*models.Stage, error) {
	filter, err := json.Marshal([]map[string]string{{"id": groupID}})
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, ErrGroupNotFound, `SELECT `+stageColumns+` FROM stages WHERE stage_groups @> $1::jsonb`, string(filter))
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Stage, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+stageColumns+` FROM stages WHERE tournament_id = $1 ORDER BY stage_index, seq`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		stages = append(stages, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage rows iteration: %w", err)
	}
	return stages, nil
}

func (r *postgresStageRepository) Update(ctx context.Context, st *models.Stage) error {
	options, rule, participants, groups, err := stageJSONColumns(st)
	if err != nil {
		return err
	}
	query := `
		UPDATE stages
		SET status = $1, seeding = $2, options = $3, advancement_rule = $4, participants = $5, stage_groups = $6,
		    swiss_round = $7, next_stage_id = $8, transitioned_at = $9, version = version + 1
		WHERE id = $10 AND version = $11`
	result, err := r.exec.ExecContext(ctx, query,
		st.Status, st.Seeding, options, rule, participants, groups,
		st.SwissRound, nullString(st.NextStageID), nullTime(st.TransitionedAt), st.ID, st.Version)
	if err != nil {
		return handlePQError(err, stageFKErrors)
	}
	if err := checkAffectedRows(result, ErrVersionConflict); err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		var exists bool
		if qErr := r.exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM stages WHERE id = $1)`, st.ID).Scan(&exists); qErr != nil {
			return fmt.Errorf("failed to check stage %s: %w", st.ID, qErr)
		}
		if !exists {
			return ErrStageNotFound
		}
		return ErrVersionConflict
	}
	st.Version++
	return nil
}

// DeleteByTournament relies on ON DELETE CASCADE from stages to matches and
// from matches to submissions, disputes and transitions.
func (r *postgresStageRepository) DeleteByTournament(ctx context.Context, tournamentID string) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM stages WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete stages of tournament %s: %w", tournamentID, err)
	}
	return nil
}
