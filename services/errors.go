package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/repositories"
)

// Error taxonomy shared by the services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrTournamentNotFound = fmt.Errorf("tournament %w", ErrNotFound)
	ErrStageNotFound      = fmt.Errorf("stage %w", ErrNotFound)
	ErrGroupNotFound      = fmt.Errorf("group %w", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("match %w", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("submission %w", ErrNotFound)
	ErrDisputeNotFound    = fmt.Errorf("dispute %w", ErrNotFound)

	// State and authorization errors
	ErrInvalidState      = errors.New("operation not allowed in the current state")
	ErrInvalidTransition = fmt.Errorf("%w: invalid transition", ErrInvalidState)
	ErrStructureExists   = fmt.Errorf("%w: tournament structure already generated", ErrInvalidState)
	ErrNotParticipant    = errors.New("actor is not a participant of this match")
	ErrPermission        = errors.New("actor is not allowed to perform this action")
	ErrValidation        = errors.New("validation failed")

	// Concurrency and structure errors
	ErrStaleWrite          = errors.New("stale write: the match changed since it was read")
	ErrAlreadyTransitioned = errors.New("stage already transitioned")
	ErrDownstreamLocked    = errors.New("override blocked by a dependent match that has already started")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// translateRepoError maps repository errors onto the service taxonomy.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrVersionConflict):
		return fmt.Errorf("%w: %v", ErrStaleWrite, err)
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrStageNotFound):
		return ErrStageNotFound
	case errors.Is(err, repositories.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrSubmissionNotFound):
		return ErrSubmissionNotFound
	case errors.Is(err, repositories.ErrDisputeNotFound):
		return ErrDisputeNotFound
	}
	return err
}
