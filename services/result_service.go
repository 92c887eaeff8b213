package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

type SubmitResultInput struct {
	// ClaimedWinnerID empty claims a draw.
	ClaimedWinnerID string          `json:"claimed_winner_id"`
	Score           json.RawMessage `json:"score"`
	ProofRef        string          `json:"proof_ref"`
	Notes           string          `json:"notes"`
}

type ResultService interface {
	Submit(ctx context.Context, matchID, participantID string, input SubmitResultInput) (*models.ResultSubmission, *models.Match, error)
	Confirm(ctx context.Context, matchID, participantID string) (*models.Match, error)
	// ExpireConfirmation applies the expiry policy to a match whose
	// confirmation deadline has passed, as observed at the given generation.
	ExpireConfirmation(ctx context.Context, matchID string, generation int) (*models.Match, error)
	ListSubmissions(ctx context.Context, matchID string) ([]*models.ResultSubmission, error)
}

type resultService struct {
	*core
}

func NewResultService(deps Dependencies) ResultService {
	return &resultService{core: newCore(deps)}
}

func (s *resultService) Submit(ctx context.Context, matchID, participantID string, input SubmitResultInput) (*models.ResultSubmission, *models.Match, error) {
	if err := s.checkProof(ctx, strings.TrimSpace(input.ProofRef), s.policy.RequireProof); err != nil {
		return nil, nil, err
	}

	var (
		submission *models.ResultSubmission
		out        *models.Match
	)
	err := s.inTx(ctx, func(tx *txn) error {
		m, stage, t, err := tx.matchContext(matchID)
		if err != nil {
			return err
		}
		side := m.SideOf(participantID)
		if side < 0 {
			return fmt.Errorf("%w: %s does not play match %s", ErrNotParticipant, participantID, m.Code)
		}
		if m.State != models.MatchStateLive && m.State != models.MatchStatePendingConfirmation {
			return fmt.Errorf("%w: match %s does not accept results in state %s", ErrInvalidState, m.Code, m.State)
		}
		claimed, err := buildResult(t, stage, m, input.ClaimedWinnerID, input.Score)
		if err != nil {
			return err
		}

		submission = &models.ResultSubmission{
			ID:              uuid.NewString(),
			MatchID:         m.ID,
			Generation:      m.Generation,
			ParticipantID:   participantID,
			Side:            side,
			ClaimedWinnerID: claimed.WinnerID,
			Score:           claimed.Score,
			ProofRef:        strings.TrimSpace(input.ProofRef),
			Notes:           input.Notes,
			SubmittedAt:     tx.now,
		}
		if err := tx.repos.Submissions.Create(tx.ctx, submission); err != nil {
			return fmt.Errorf("failed to store submission for match %s: %w", m.ID, err)
		}
		out = m

		from := m.State
		if from == models.MatchStateLive || side == m.ClaimSide {
			// First claim, or an edit of the pending claim: the window restarts.
			deadline := tx.now.Add(s.policy.ConfirmationWindow)
			m.State = models.MatchStatePendingConfirmation
			m.ClaimSide = side
			m.ConfirmationDeadline = &deadline
			action := "submit"
			if from == models.MatchStatePendingConfirmation {
				action = "edit_submission"
			}
			return tx.save(m, from, participantID, action, "")
		}

		pending, err := activeClaim(tx, m)
		if err != nil {
			return err
		}
		if sameOutcome(pending.ClaimedWinnerID, pending.Score, submission.ClaimedWinnerID, submission.Score) {
			return tx.finalize(m, claimed, participantID, "consensus", "")
		}

		m.State = models.MatchStateConflicted
		m.ClaimSide = -1
		m.ConfirmationDeadline = nil
		if err := tx.save(m, from, participantID, "conflict", ""); err != nil {
			return err
		}
		_, err = tx.openSystemDispute(m, models.ReasonConflictingClaims)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("result submitted",
		"match_id", matchID, "participant_id", participantID, "match_state", out.State)
	return submission, out, nil
}

func (s *resultService) Confirm(ctx context.Context, matchID, participantID string) (*models.Match, error) {
	var out *models.Match
	err := s.inTx(ctx, func(tx *txn) error {
		m, err := tx.lockedMatch(matchID)
		if err != nil {
			return err
		}
		side := m.SideOf(participantID)
		if side < 0 {
			return fmt.Errorf("%w: %s does not play match %s", ErrNotParticipant, participantID, m.Code)
		}
		if m.State != models.MatchStatePendingConfirmation {
			return fmt.Errorf("%w: match %s has nothing to confirm in state %s", ErrInvalidState, m.Code, m.State)
		}
		if side == m.ClaimSide {
			return fmt.Errorf("%w: a claim must be confirmed by the opposing side", ErrPermission)
		}
		claim, err := activeClaim(tx, m)
		if err != nil {
			return err
		}
		if err := tx.finalize(m, resultFromClaim(claim, m), participantID, "confirm", ""); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *resultService) ExpireConfirmation(ctx context.Context, matchID string, generation int) (*models.Match, error) {
	var out *models.Match
	err := s.inTx(ctx, func(tx *txn) error {
		m, err := tx.lockedMatch(matchID)
		if err != nil {
			return err
		}
		if m.Generation != generation || m.State != models.MatchStatePendingConfirmation {
			return fmt.Errorf("%w: match %s moved on before expiry", ErrStaleWrite, m.Code)
		}
		if m.ConfirmationDeadline == nil || m.ConfirmationDeadline.After(tx.now) {
			return fmt.Errorf("%w: confirmation window of match %s is still open", ErrStaleWrite, m.Code)
		}
		out = m

		if s.policy.ExpiryPolicy == ExpiryEscalate {
			m.State = models.MatchStateDisputed
			m.ConfirmationDeadline = nil
			if err := tx.save(m, models.MatchStatePendingConfirmation, SystemActorID, "confirmation_timeout", ""); err != nil {
				return err
			}
			_, err := tx.openSystemDispute(m, models.ReasonConfirmationTimeout)
			return err
		}

		claim, err := activeClaim(tx, m)
		if err != nil {
			return err
		}
		return tx.finalize(m, resultFromClaim(claim, m), SystemActorID, "auto_confirm", "")
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("confirmation window expired",
		"match_id", matchID, "policy", s.policy.ExpiryPolicy, "match_state", out.State)
	return out, nil
}

func (s *resultService) ListSubmissions(ctx context.Context, matchID string) ([]*models.ResultSubmission, error) {
	repos := s.store.Repositories()
	if _, err := repos.Matches.GetByID(ctx, matchID); err != nil {
		return nil, translateRepoError(err)
	}
	subs, err := repos.Submissions.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions of match %s: %w", matchID, err)
	}
	if subs == nil {
		return []*models.ResultSubmission{}, nil
	}
	return subs, nil
}

// activeClaim returns the pending claim of a match in pending_confirmation.
func activeClaim(tx *txn, m *models.Match) (*models.ResultSubmission, error) {
	if m.ClaimSide < 0 || m.ClaimSide > 1 {
		return nil, fmt.Errorf("%w: match %s has no pending claim", ErrInvalidState, m.Code)
	}
	subs, err := tx.repos.Submissions.ListByMatch(tx.ctx, m.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	claim := models.ActiveClaims(subs, m.Generation)[m.ClaimSide]
	if claim == nil {
		return nil, fmt.Errorf("%w: match %s has no pending claim", ErrInvalidState, m.Code)
	}
	return claim, nil
}
