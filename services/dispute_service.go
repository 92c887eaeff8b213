package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

type RaiseDisputeInput struct {
	Reason          models.DisputeReason `json:"reason"`
	Explanation     string               `json:"explanation"`
	CounterProofRef string               `json:"counter_proof_ref"`
}

// ResultInput is a result decided by the organizer. WinnerID empty is a draw.
type ResultInput struct {
	WinnerID string          `json:"winner_id"`
	Score    json.RawMessage `json:"score"`
}

type ResolveDisputeInput struct {
	Decision     models.Decision `json:"decision"`
	Notes        string          `json:"notes"`
	NewResult    *ResultInput    `json:"new_result,omitempty"`
	SubmissionID string          `json:"submission_id,omitempty"`
	// Cascade allows an override to revert dependent matches that already started.
	Cascade bool `json:"cascade"`
}

// OverrideInput replaces the result of a completed match.
type OverrideInput struct {
	Result  ResultInput `json:"result"`
	Notes   string      `json:"notes"`
	Cascade bool        `json:"cascade"`
}

type DisputeService interface {
	Raise(ctx context.Context, matchID, participantID string, input RaiseDisputeInput) (*models.Dispute, *models.Match, error)
	Resolve(ctx context.Context, disputeID string, input ResolveDisputeInput, actor Actor) (*models.Dispute, *models.Match, error)
	Override(ctx context.Context, matchID string, input OverrideInput, actor Actor) (*models.Dispute, *models.Match, error)
	Get(ctx context.Context, disputeID string) (*models.Dispute, error)
	ListByMatch(ctx context.Context, matchID string) ([]*models.Dispute, error)
	OpenQueue(ctx context.Context) ([]*models.Dispute, error)
}

type disputeService struct {
	*core
}

func NewDisputeService(deps Dependencies) DisputeService {
	return &disputeService{core: newCore(deps)}
}

// textLength counts characters of the NFC form, so composed and decomposed
// accents count the same.
func textLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(strings.TrimSpace(s)))
}

func (s *disputeService) Raise(ctx context.Context, matchID, participantID string, input RaiseDisputeInput) (*models.Dispute, *models.Match, error) {
	counterProof := strings.TrimSpace(input.CounterProofRef)
	if counterProof != "" {
		if err := s.checkProof(ctx, counterProof, false); err != nil {
			return nil, nil, err
		}
	}

	var (
		dispute *models.Dispute
		out     *models.Match
	)
	err := s.inTx(ctx, func(tx *txn) error {
		m, err := tx.lockedMatch(matchID)
		if err != nil {
			return err
		}
		if m.State != models.MatchStatePendingConfirmation {
			return fmt.Errorf("%w: match %s cannot be disputed in state %s", ErrInvalidState, m.Code, m.State)
		}
		side := m.SideOf(participantID)
		if side < 0 {
			return fmt.Errorf("%w: %s does not play match %s", ErrNotParticipant, participantID, m.Code)
		}
		if side == m.ClaimSide {
			return fmt.Errorf("%w: the submitting side cannot dispute its own claim", ErrPermission)
		}
		if !input.Reason.Raisable() {
			return validationf("unknown dispute reason %q", input.Reason)
		}
		if n := textLength(input.Explanation); n < s.policy.ExplanationMin || n > s.policy.ExplanationMax {
			return validationf("explanation must be between %d and %d characters, got %d",
				s.policy.ExplanationMin, s.policy.ExplanationMax, n)
		}

		dispute = &models.Dispute{
			ID:              uuid.NewString(),
			MatchID:         m.ID,
			TournamentID:    m.TournamentID,
			Generation:      m.Generation,
			RaisedBy:        participantID,
			Reason:          input.Reason,
			Explanation:     norm.NFC.String(strings.TrimSpace(input.Explanation)),
			CounterProofRef: counterProof,
			Status:          models.DisputeStatusOpen,
			CreatedAt:       tx.now,
		}
		if err := tx.repos.Disputes.Create(tx.ctx, dispute); err != nil {
			return fmt.Errorf("failed to store dispute for match %s: %w", m.ID, err)
		}

		m.State = models.MatchStateDisputed
		m.ConfirmationDeadline = nil
		if err := tx.save(m, models.MatchStatePendingConfirmation, participantID, "dispute", string(input.Reason)); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("dispute raised",
		"dispute_id", dispute.ID, "match_id", matchID, "reason", dispute.Reason)
	return dispute, out, nil
}

func (s *disputeService) Resolve(ctx context.Context, disputeID string, input ResolveDisputeInput, actor Actor) (*models.Dispute, *models.Match, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, nil, err
	}
	if err := s.checkNotes(input.Notes); err != nil {
		return nil, nil, err
	}

	var (
		dispute *models.Dispute
		out     *models.Match
	)
	err := s.inTx(ctx, func(tx *txn) error {
		d, err := tx.dispute(disputeID)
		if err != nil {
			return err
		}
		m, stage, t, err := tx.matchContext(d.MatchID)
		if err != nil {
			return err
		}
		// Another resolution may have committed while the lock was taken.
		if d, err = tx.dispute(disputeID); err != nil {
			return err
		}
		if d.Status != models.DisputeStatusOpen {
			return fmt.Errorf("%w: dispute is %s", ErrInvalidState, d.Status)
		}
		if d.Generation != m.Generation {
			return fmt.Errorf("%w: dispute belongs to generation %d of match %s", ErrStaleWrite, d.Generation, m.Code)
		}
		if !input.Decision.Allows(m.State) {
			return fmt.Errorf("%w: decision %q is not available for match %s in state %s",
				ErrInvalidState, input.Decision, m.Code, m.State)
		}

		d.Status = models.DisputeStatusResolved
		d.Resolution = &models.Resolution{
			Decision:   input.Decision,
			Notes:      strings.TrimSpace(input.Notes),
			ResolvedBy: actor.ID,
			ResolvedAt: tx.now,
		}

		switch input.Decision {
		case models.DecisionApproveOriginal:
			// The claim that was pending when the match got disputed.
			claim, err := activeClaim(tx, m)
			if err != nil {
				return err
			}
			d.Resolution.ChosenSubmissionID = claim.ID
			if err := s.closeWith(tx, d, m, resultFromClaim(claim, m), actor); err != nil {
				return err
			}
		case models.DecisionApproveSubmission:
			claim, err := competingClaim(tx, m, input.SubmissionID)
			if err != nil {
				return err
			}
			d.Resolution.ChosenSubmissionID = claim.ID
			if err := s.closeWith(tx, d, m, resultFromClaim(claim, m), actor); err != nil {
				return err
			}
		case models.DecisionApproveDispute, models.DecisionManualOverride:
			if input.NewResult == nil {
				return validationf("decision %q requires a new result", input.Decision)
			}
			result, err := buildResult(t, stage, m, input.NewResult.WinnerID, input.NewResult.Score)
			if err != nil {
				return err
			}
			if m.State == models.MatchStateCompleted {
				if err := tx.updateDispute(d); err != nil {
					return err
				}
				if err := tx.override(m, stage, result, input.Cascade, actor.ID, d.Resolution.Notes); err != nil {
					return err
				}
				break
			}
			if err := s.closeWith(tx, d, m, result, actor); err != nil {
				return err
			}
		case models.DecisionOrderRematch:
			if err := tx.updateDispute(d); err != nil {
				return err
			}
			if err := tx.rematch(m, actor.ID, d.Resolution.Notes); err != nil {
				return err
			}
		}

		dispute, out = d, m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("dispute resolved",
		"dispute_id", disputeID, "decision", input.Decision, "actor", actor.ID, "match_state", out.State)
	return dispute, out, nil
}

// Override replaces the result of a completed match. It is recorded as a
// resolved organizer dispute so every result change has a resolution trail.
func (s *disputeService) Override(ctx context.Context, matchID string, input OverrideInput, actor Actor) (*models.Dispute, *models.Match, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, nil, err
	}
	if err := s.checkNotes(input.Notes); err != nil {
		return nil, nil, err
	}

	var (
		dispute *models.Dispute
		out     *models.Match
	)
	err := s.inTx(ctx, func(tx *txn) error {
		m, stage, t, err := tx.matchContext(matchID)
		if err != nil {
			return err
		}
		if !models.DecisionManualOverride.Allows(m.State) {
			return fmt.Errorf("%w: match %s cannot be overridden in state %s", ErrInvalidState, m.Code, m.State)
		}
		if m.State != models.MatchStateCompleted {
			return fmt.Errorf("%w: match %s has an open dispute, resolve it instead", ErrInvalidState, m.Code)
		}
		result, err := buildResult(t, stage, m, input.Result.WinnerID, input.Result.Score)
		if err != nil {
			return err
		}

		notes := strings.TrimSpace(input.Notes)
		dispute = &models.Dispute{
			ID:           uuid.NewString(),
			MatchID:      m.ID,
			TournamentID: m.TournamentID,
			Generation:   m.Generation,
			RaisedBy:     actor.ID,
			Reason:       models.ReasonOther,
			Explanation:  notes,
			Status:       models.DisputeStatusResolved,
			Resolution: &models.Resolution{
				Decision:   models.DecisionManualOverride,
				Notes:      notes,
				ResolvedBy: actor.ID,
				ResolvedAt: tx.now,
			},
			CreatedAt: tx.now,
		}
		if err := tx.repos.Disputes.Create(tx.ctx, dispute); err != nil {
			return fmt.Errorf("failed to record override of match %s: %w", m.ID, err)
		}
		if err := tx.override(m, stage, result, input.Cascade, actor.ID, notes); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("match result overridden",
		"match_id", matchID, "actor", actor.ID, "cascade", input.Cascade, "generation", out.Generation)
	return dispute, out, nil
}

func (s *disputeService) Get(ctx context.Context, disputeID string) (*models.Dispute, error) {
	d, err := s.store.Repositories().Disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return d, nil
}

func (s *disputeService) ListByMatch(ctx context.Context, matchID string) ([]*models.Dispute, error) {
	repos := s.store.Repositories()
	if _, err := repos.Matches.GetByID(ctx, matchID); err != nil {
		return nil, translateRepoError(err)
	}
	disputes, err := repos.Disputes.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes of match %s: %w", matchID, err)
	}
	if disputes == nil {
		return []*models.Dispute{}, nil
	}
	return disputes, nil
}

func (s *disputeService) OpenQueue(ctx context.Context) ([]*models.Dispute, error) {
	disputes, err := s.store.Repositories().Disputes.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open disputes: %w", err)
	}
	if disputes == nil {
		return []*models.Dispute{}, nil
	}
	return disputes, nil
}

func (s *disputeService) checkNotes(notes string) error {
	if n := textLength(notes); n < s.policy.ResolutionNotesMin {
		return validationf("resolution notes must be at least %d characters, got %d", s.policy.ResolutionNotesMin, n)
	}
	return nil
}

// closeWith stores the resolved dispute and finalizes the match with result.
func (s *disputeService) closeWith(tx *txn, d *models.Dispute, m *models.Match, result models.MatchResult, actor Actor) error {
	if err := tx.updateDispute(d); err != nil {
		return err
	}
	return tx.finalize(m, result, actor.ID, string(d.Resolution.Decision), d.Resolution.Notes)
}

func (tx *txn) updateDispute(d *models.Dispute) error {
	return translateRepoError(tx.repos.Disputes.Update(tx.ctx, d))
}

// competingClaim returns the active claim with the given id.
func competingClaim(tx *txn, m *models.Match, submissionID string) (*models.ResultSubmission, error) {
	if submissionID == "" {
		return nil, validationf("approve_submission requires a submission id")
	}
	subs, err := tx.repos.Submissions.ListByMatch(tx.ctx, m.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	for _, claim := range models.ActiveClaims(subs, m.Generation) {
		if claim != nil && claim.ID == submissionID {
			return claim, nil
		}
	}
	return nil, validationf("submission %s is not one of the competing claims", submissionID)
}

// rematch sends a contested match back to pending under a new generation.
func (tx *txn) rematch(m *models.Match, actor, notes string) error {
	from := m.State
	m.State = models.MatchStatePending
	m.Generation++
	m.RematchCount++
	m.Result = nil
	m.ClaimSide = -1
	m.ConfirmationDeadline = nil
	m.StartedAt = nil
	if err := tx.save(m, from, actor, string(models.DecisionOrderRematch), notes); err != nil {
		return err
	}
	return tx.voidOpenDisputes(m.ID)
}

// override replaces the result of a completed match. Dependents whose slots
// the new result fills differently are reverted and fed again. A result that
// keeps the same winner and loser leaves them alone.
func (tx *txn) override(m *models.Match, stage *models.Stage, result models.MatchResult, cascade bool, actor, notes string) error {
	if stage.Status == models.StageStatusTransitioned {
		return fmt.Errorf("%w: stage of match %s has already transitioned", ErrDownstreamLocked, m.Code)
	}
	if stage.Format == models.FormatSwiss && m.Round < stage.SwissRound {
		return fmt.Errorf("%w: later swiss rounds were already paired from match %s", ErrDownstreamLocked, m.Code)
	}
	if _, err := tx.invalidateDependents(m, result, cascade, actor); err != nil {
		return err
	}
	if err := tx.reopen(stage); err != nil {
		return err
	}

	m.Generation++
	result.Generation = m.Generation
	result.CompletedAt = tx.now
	result.FinalizedBy = actor
	m.Result = &result
	if err := tx.save(m, models.MatchStateCompleted, actor, string(models.DecisionManualOverride), notes); err != nil {
		return err
	}
	if err := tx.propagate(m); err != nil {
		return err
	}
	return tx.afterMatchClosed(m)
}
