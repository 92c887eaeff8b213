package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresTransitionRepository struct {
	exec SQLExecutor
}

func NewPostgresTransitionRepository(exec SQLExecutor) TransitionRepository {
	return &postgresTransitionRepository{exec: exec}
}

func (r *postgresTransitionRepository) Create(ctx context.Context, t *models.Transition) error {
	query := `
		INSERT INTO match_transitions
			(id, match_id, tournament_id, actor, action, from_state, to_state, generation, notes, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.exec.ExecContext(ctx, query,
		t.ID, t.MatchID, t.TournamentID, t.Actor, t.Action, t.From, t.To, t.Generation, nullString(t.Notes), t.At)
	return handlePQError(err, map[string]error{"match_transitions_match_id_fkey": ErrMatchNotFound})
}

func (r *postgresTransitionRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.Transition, error) {
	query := `
		SELECT id, match_id, tournament_id, actor, action, from_state, to_state, generation, notes, at
		FROM match_transitions
		WHERE match_id = $1
		ORDER BY seq`
	rows, err := r.exec.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions for match %s: %w", matchID, err)
	}
	defer rows.Close()

	transitions := make([]*models.Transition, 0)
	for rows.Next() {
		var (
			t     models.Transition
			notes sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.MatchID, &t.TournamentID, &t.Actor, &t.Action, &t.From, &t.To,
			&t.Generation, &notes, &t.At); err != nil {
			return nil, fmt.Errorf("failed to scan transition row: %w", err)
		}
		t.Notes = notes.String
		transitions = append(transitions, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during transition rows iteration: %w", err)
	}
	return transitions, nil
}
