package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// MatchDetails is a match with everything recorded against it and the
// organizer decisions available in its current state.
type MatchDetails struct {
	Match              *models.Match               `json:"match"`
	Submissions        []*models.ResultSubmission  `json:"submissions"`
	ActiveClaims       [2]*models.ResultSubmission `json:"active_claims"`
	Disputes           []*models.Dispute           `json:"disputes"`
	AvailableDecisions []models.Decision           `json:"available_decisions"`
}

type FinalizeInput struct {
	// WinnerID empty finalizes a draw.
	WinnerID   string          `json:"winner_id"`
	Score      json.RawMessage `json:"score"`
	Generation int             `json:"generation"`
}

type MatchService interface {
	Get(ctx context.Context, matchID string) (*MatchDetails, error)
	Start(ctx context.Context, matchID string, actor Actor) (*models.Match, error)
	Finalize(ctx context.Context, matchID string, input FinalizeInput, actor Actor) (*models.Match, error)
	Cancel(ctx context.Context, matchID string, reason string, actor Actor) (*models.Match, error)
	Schedule(ctx context.Context, matchID string, at time.Time, actor Actor) (*models.Match, error)
	History(ctx context.Context, matchID string) ([]*models.Transition, error)
}

type matchService struct {
	*core
}

func NewMatchService(deps Dependencies) MatchService {
	return &matchService{core: newCore(deps)}
}

func (s *matchService) Get(ctx context.Context, matchID string) (*MatchDetails, error) {
	repos := s.store.Repositories()
	m, err := repos.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	subs, err := repos.Submissions.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions of match %s: %w", matchID, err)
	}
	disputes, err := repos.Disputes.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes of match %s: %w", matchID, err)
	}
	if subs == nil {
		subs = []*models.ResultSubmission{}
	}
	if disputes == nil {
		disputes = []*models.Dispute{}
	}
	return &MatchDetails{
		Match:              m,
		Submissions:        subs,
		ActiveClaims:       models.ActiveClaims(subs, m.Generation),
		Disputes:           disputes,
		AvailableDecisions: models.AvailableDecisions(m.State),
	}, nil
}

func (s *matchService) Start(ctx context.Context, matchID string, actor Actor) (*models.Match, error) {
	var out *models.Match
	err := s.inTx(ctx, func(tx *txn) error {
		m, err := tx.lockedMatch(matchID)
		if err != nil {
			return err
		}
		if !actor.Organizer && m.SideOf(actor.ID) < 0 {
			return ErrNotParticipant
		}
		if m.State != models.MatchStatePending {
			return fmt.Errorf("%w: cannot start match %s in state %s", ErrInvalidTransition, m.Code, m.State)
		}
		started := tx.now
		m.State = models.MatchStateLive
		m.StartedAt = &started
		if err := tx.save(m, models.MatchStatePending, actor.ID, "start", ""); err != nil {
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

// Finalize completes a match directly. Repeating it with the same generation
// and result is a no-op; anything else against a finalized generation is a
// stale write.
func (s *matchService) Finalize(ctx context.Context, matchID string, input FinalizeInput, actor Actor) (*models.Match, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	var out *models.Match
	err := s.inTx(ctx, func(tx *txn) error {
		m, stage, t, err := tx.matchContext(matchID)
		if err != nil {
			return err
		}
		if input.Generation != m.Generation {
			return fmt.Errorf("%w: match %s is at generation %d, got %d", ErrStaleWrite, m.Code, m.Generation, input.Generation)
		}
		if m.State == models.MatchStateCompleted {
			if m.Result != nil && sameOutcome(m.Result.WinnerID, m.Result.Score, input.WinnerID, input.Score) {
				out = m
				return nil
			}
			return fmt.Errorf("%w: generation %d of match %s is already finalized with a different result", ErrStaleWrite, m.Generation, m.Code)
		}
		switch m.State {
		case models.MatchStateLive, models.MatchStatePendingConfirmation, models.MatchStateDisputed, models.MatchStateConflicted:
		default:
			return fmt.Errorf("%w: cannot finalize match %s in state %s", ErrInvalidTransition, m.Code, m.State)
		}
		result, err := buildResult(t, stage, m, input.WinnerID, input.Score)
		if err != nil {
			return err
		}
		if err := tx.finalize(m, result, actor.ID, "finalize", ""); err != nil {
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

func (s *matchService) Cancel(ctx context.Context, matchID string, reason string, actor Actor) (*models.Match, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("cancellation reason is required")
	}
	var out *models.Match
	err := s.inTx(ctx, func(tx *txn) error {
		m, err := tx.lockedMatch(matchID)
		if err != nil {
			return err
		}
		if m.State.Terminal() {
			return fmt.Errorf("%w: match %s is already %s", ErrInvalidTransition, m.Code, m.State)
		}
		if err := tx.cancel(m, reason, actor.ID); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match cancelled", "match_id", matchID, "actor", actor.ID, "reason", reason)
	return out, nil
}

func (s *matchService) Schedule(ctx context.Context, matchID string, at time.Time, actor Actor) (*models.Match, error) {
	if err := requireOrganizer(actor); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, validationf("schedule time is required")
	}
	var out *models.Match
	err := s.inTx(ctx, func(tx *txn) error {
		m, err := tx.lockedMatch(matchID)
		if err != nil {
			return err
		}
		if m.State.Terminal() {
			return fmt.Errorf("%w: match %s is already %s", ErrInvalidState, m.Code, m.State)
		}
		scheduled := at.UTC()
		m.ScheduledAt = &scheduled
		if err := tx.save(m, m.State, actor.ID, "schedule", scheduled.Format(time.RFC3339)); err != nil {
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

func (s *matchService) History(ctx context.Context, matchID string) ([]*models.Transition, error) {
	repos := s.store.Repositories()
	if _, err := repos.Matches.GetByID(ctx, matchID); err != nil {
		return nil, translateRepoError(err)
	}
	history, err := repos.Transitions.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions of match %s: %w", matchID, err)
	}
	if history == nil {
		return []*models.Transition{}, nil
	}
	return history, nil
}
