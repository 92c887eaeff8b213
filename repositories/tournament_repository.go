package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func NewPostgresTournamentRepository(exec SQLExecutor) TournamentRepository {
	return &postgresTournamentRepository{exec: exec}
}

const tournamentColumns = `id, name, slug, status, participants, settings, winner_id, created_at, updated_at`

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var (
		t            models.Tournament
		participants []byte
		settings     []byte
		winnerID     sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &participants, &settings, &winnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := scanJSON(participants, &t.Participants); err != nil {
		return nil, err
	}
	if err := scanJSON(settings, &t.Settings); err != nil {
		return nil, err
	}
	t.WinnerID = winnerID.String
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	participants, err := jsonValue(t.Participants)
	if err != nil {
		return err
	}
	settings, err := jsonValue(t.Settings)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tournaments (` + tournamentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.exec.ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Status, participants, settings, nullString(t.WinnerID), t.CreatedAt, t.UpdatedAt)
	return handlePQError(err, nil)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	t, err := scanTournament(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	participants, err := jsonValue(t.Participants)
	if err != nil {
		return err
	}
	settings, err := jsonValue(t.Settings)
	if err != nil {
		return err
	}
	query := `
		UPDATE tournaments
		SET name = $1, slug = $2, status = $3, participants = $4, settings = $5, winner_id = $6, updated_at = $7
		WHERE id = $8`
	result, err := r.exec.ExecContext(ctx, query,
		t.Name, t.Slug, t.Status, participants, settings, nullString(t.WinnerID), t.UpdatedAt, t.ID)
	if err != nil {
		return handlePQError(err, nil)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Lock(ctx context.Context, id string) error {
	var locked string
	err := r.exec.QueryRowContext(ctx, `SELECT id FROM tournaments WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to lock tournament %s: %w", id, err)
	}
	return nil
}

func (r *postgresTournamentRepository) CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT status, COUNT(*) FROM tournaments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tournaments: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TournamentStatus]int)
	for rows.Next() {
		var (
			status models.TournamentStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tournament count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
