package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresSubmissionRepository struct {
	exec SQLExecutor
}

func NewPostgresSubmissionRepository(exec SQLExecutor) SubmissionRepository {
	return &postgresSubmissionRepository{exec: exec}
}

const submissionColumns = `id, match_id, generation, participant_id, side, claimed_winner_id, score, proof_ref, notes, submitted_at`

func scanSubmission(row rowScanner) (*models.ResultSubmission, error) {
	var (
		s             models.ResultSubmission
		claimedWinner sql.NullString
		score         []byte
		proofRef      sql.NullString
		notes         sql.NullString
	)
	if err := row.Scan(&s.ID, &s.MatchID, &s.Generation, &s.ParticipantID, &s.Side, &claimedWinner,
		&score, &proofRef, &notes, &s.SubmittedAt); err != nil {
		return nil, err
	}
	s.ClaimedWinnerID = claimedWinner.String
	s.Score = score
	s.ProofRef = proofRef.String
	s.Notes = notes.String
	return &s, nil
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, s *models.ResultSubmission) error {
	query := `
		INSERT INTO result_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.exec.ExecContext(ctx, query,
		s.ID, s.MatchID, s.Generation, s.ParticipantID, s.Side, nullString(s.ClaimedWinnerID),
		string(s.Score), nullString(s.ProofRef), nullString(s.Notes), s.SubmittedAt)
	return handlePQError(err, map[string]error{"result_submissions_match_id_fkey": ErrMatchNotFound})
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id string) (*models.ResultSubmission, error) {
	s, err := scanSubmission(r.exec.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM result_submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to scan submission %s: %w", id, err)
	}
	return s, nil
}

func (r *postgresSubmissionRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.ResultSubmission, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+submissionColumns+` FROM result_submissions WHERE match_id = $1 ORDER BY seq`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions for match %s: %w", matchID, err)
	}
	defer rows.Close()

	subs := make([]*models.ResultSubmission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during submission rows iteration: %w", err)
	}
	return subs, nil
}
