package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresDisputeRepository struct {
	exec SQLExecutor
}

func NewPostgresDisputeRepository(exec SQLExecutor) DisputeRepository {
	return &postgresDisputeRepository{exec: exec}
}

const disputeColumns = `id, match_id, tournament_id, generation, raised_by, reason, explanation, counter_proof_ref, status, resolution, created_at`

func scanDispute(row rowScanner) (*models.Dispute, error) {
	var (
		d            models.Dispute
		raisedBy     sql.NullString
		explanation  sql.NullString
		counterProof sql.NullString
		resolution   []byte
	)
	if err := row.Scan(&d.ID, &d.MatchID, &d.TournamentID, &d.Generation, &raisedBy, &d.Reason,
		&explanation, &counterProof, &d.Status, &resolution, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.RaisedBy = raisedBy.String
	d.Explanation = explanation.String
	d.CounterProofRef = counterProof.String
	if len(resolution) > 0 {
		d.Resolution = &models.Resolution{}
		if err := scanJSON(resolution, d.Resolution); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (r *postgresDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	resolution, err := jsonValue(d.Resolution)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.exec.ExecContext(ctx, query,
		d.ID, d.MatchID, d.TournamentID, d.Generation, nullString(d.RaisedBy), d.Reason,
		nullString(d.Explanation), nullString(d.CounterProofRef), d.Status, resolution, d.CreatedAt)
	return handlePQError(err, map[string]error{"disputes_match_id_fkey": ErrMatchNotFound})
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, id string) (*models.Dispute, error) {
	d, err := scanDispute(r.exec.QueryRowContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute %s: %w", id, err)
	}
	return d, nil
}

func (r *postgresDisputeRepository) Update(ctx context.Context, d *models.Dispute) error {
	resolution, err := jsonValue(d.Resolution)
	if err != nil {
		return err
	}
	result, err := r.exec.ExecContext(ctx, `UPDATE disputes SET status = $1, resolution = $2 WHERE id = $3`,
		d.Status, resolution, d.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrDisputeNotFound)
}

func (r *postgresDisputeRepository) list(ctx context.Context, where string, args ...interface{}) ([]*models.Dispute, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", err)
		}
		disputes = append(disputes, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during dispute rows iteration: %w", err)
	}
	return disputes, nil
}

func (r *postgresDisputeRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.Dispute, error) {
	return r.list(ctx, `match_id = $1`, matchID)
}

func (r *postgresDisputeRepository) ListOpen(ctx context.Context) ([]*models.Dispute, error) {
	return r.list(ctx, `status = $1`, models.DisputeStatusOpen)
}

func (r *postgresDisputeRepository) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM disputes WHERE status = $1`, models.DisputeStatusOpen).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count open disputes: %w", err)
	}
	return n, nil
}
