package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresMatchRepository struct {
	exec SQLExecutor
}

func NewPostgresMatchRepository(exec SQLExecutor) MatchRepository {
	return &postgresMatchRepository{exec: exec}
}

const matchColumns = `id, tournament_id, stage_id, group_id, bracket, round, match_order, code,
	slot0_participant_id, slot0_source_match_id, slot0_source_outcome, slot0_bye,
	slot1_participant_id, slot1_source_match_id, slot1_source_outcome, slot1_bye,
	state, generation, version, rematch_count, scheduled_at, started_at, confirmation_deadline,
	claim_side, result, cancel_reason, created_at, updated_at`

var matchFKErrors = map[string]error{
	"matches_tournament_id_fkey": ErrTournamentNotFound,
	"matches_stage_id_fkey":      ErrStageNotFound,
}

type slotColumns struct {
	participantID sql.NullString
	sourceMatchID sql.NullString
	sourceOutcome sql.NullString
	bye           bool
}

func (c slotColumns) slot() models.Slot {
	s := models.Slot{ParticipantID: c.participantID.String, Bye: c.bye}
	if c.sourceMatchID.Valid {
		s.Source = &models.SlotSource{MatchID: c.sourceMatchID.String, Outcome: models.SlotOutcome(c.sourceOutcome.String)}
	}
	return s
}

func slotArgs(s models.Slot) []interface{} {
	var matchID, outcome string
	if s.Source != nil {
		matchID, outcome = s.Source.MatchID, string(s.Source.Outcome)
	}
	return []interface{}{nullString(s.ParticipantID), nullString(matchID), nullString(outcome), s.Bye}
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m            models.Match
		groupID      sql.NullString
		slots        [2]slotColumns
		scheduledAt  sql.NullTime
		startedAt    sql.NullTime
		deadline     sql.NullTime
		result       []byte
		cancelReason sql.NullString
	)
	err := row.Scan(&m.ID, &m.TournamentID, &m.StageID, &groupID, &m.Bracket, &m.Round, &m.Order, &m.Code,
		&slots[0].participantID, &slots[0].sourceMatchID, &slots[0].sourceOutcome, &slots[0].bye,
		&slots[1].participantID, &slots[1].sourceMatchID, &slots[1].sourceOutcome, &slots[1].bye,
		&m.State, &m.Generation, &m.Version, &m.RematchCount, &scheduledAt, &startedAt, &deadline,
		&m.ClaimSide, &result, &cancelReason, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.GroupID = groupID.String
	m.Slots = [2]models.Slot{slots[0].slot(), slots[1].slot()}
	m.ScheduledAt = timePtr(scheduledAt)
	m.StartedAt = timePtr(startedAt)
	m.ConfirmationDeadline = timePtr(deadline)
	m.CancelReason = cancelReason.String
	if len(result) > 0 {
		m.Result = &models.MatchResult{}
		if err := scanJSON(result, m.Result); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	if m.Version == 0 {
		m.Version = 1
	}
	result, err := jsonValue(m.Result)
	if err != nil {
		return err
	}
	args := []interface{}{m.ID, m.TournamentID, m.StageID, nullString(m.GroupID), m.Bracket, m.Round, m.Order, m.Code}
	args = append(args, slotArgs(m.Slots[0])...)
	args = append(args, slotArgs(m.Slots[1])...)
	args = append(args, m.State, m.Generation, m.Version, m.RematchCount,
		nullTime(m.ScheduledAt), nullTime(m.StartedAt), nullTime(m.ConfirmationDeadline),
		m.ClaimSide, result, nullString(m.CancelReason), m.CreatedAt, m.UpdatedAt)

	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`
	_, err = r.exec.ExecContext(ctx, query, args...)
	return handlePQError(err, matchFKErrors)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	m, err := scanMatch(r.exec.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) list(ctx context.Context, where string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID string) ([]*models.Match, error) {
	return r.list(ctx, `stage_id = $1`, stageID)
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.Match, error) {
	return r.list(ctx, `group_id = $1`, groupID)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	return r.list(ctx, `tournament_id = $1`, tournamentID)
}

func (r *postgresMatchRepository) ListDependents(ctx context.Context, matchID string) ([]*models.Match, error) {
	return r.list(ctx, `slot0_source_match_id = $1 OR slot1_source_match_id = $1`, matchID)
}

func (r *postgresMatchRepository) ListAwaitingConfirmation(ctx context.Context, before time.Time) ([]*models.Match, error) {
	return r.list(ctx, `state = $1 AND confirmation_deadline <= $2`, models.MatchStatePendingConfirmation, before)
}

func (r *postgresMatchRepository) CountByState(ctx context.Context) (map[models.MatchState]int, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT state, COUNT(*) FROM matches GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MatchState]int)
	for rows.Next() {
		var (
			state models.MatchState
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan match count: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	result, err := jsonValue(m.Result)
	if err != nil {
		return err
	}
	args := slotArgs(m.Slots[0])
	args = append(args, slotArgs(m.Slots[1])...)
	args = append(args, m.State, m.Generation, m.RematchCount,
		nullTime(m.ScheduledAt), nullTime(m.StartedAt), nullTime(m.ConfirmationDeadline),
		m.ClaimSide, result, nullString(m.CancelReason), m.UpdatedAt, m.ID, m.Version)

	query := `
		UPDATE matches
		SET slot0_participant_id = $1, slot0_source_match_id = $2, slot0_source_outcome = $3, slot0_bye = $4,
		    slot1_participant_id = $5, slot1_source_match_id = $6, slot1_source_outcome = $7, slot1_bye = $8,
		    state = $9, generation = $10, rematch_count = $11, scheduled_at = $12, started_at = $13,
		    confirmation_deadline = $14, claim_side = $15, result = $16, cancel_reason = $17, updated_at = $18,
		    version = version + 1
		WHERE id = $19 AND version = $20`
	res, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return handlePQError(err, matchFKErrors)
	}
	if err := checkAffectedRows(res, ErrVersionConflict); err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		var exists bool
		if qErr := r.exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, m.ID).Scan(&exists); qErr != nil {
			return fmt.Errorf("failed to check match %s: %w", m.ID, qErr)
		}
		if !exists {
			return ErrMatchNotFound
		}
		return ErrVersionConflict
	}
	m.Version++
	return nil
}
