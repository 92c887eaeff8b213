package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrSubmissionNotFound = errors.New("result submission not found")
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrDuplicateID        = errors.New("record with this id already exists")
	// ErrVersionConflict is returned by the Update of matches and stages when
	// the stored version no longer matches the version the caller read.
	ErrVersionConflict = errors.New("version conflict")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	// Lock holds the row of a tournament until the transaction ends. Outside
	// a transaction it only checks that the tournament exists.
	Lock(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error)
}

type StageRepository interface {
	Create(ctx context.Context, stage *models.Stage) error
	GetByID(ctx context.Context, id string) (*models.Stage, error)
	GetByGroupID(ctx context.Context, groupID string) (*models.Stage, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Stage, error)
	Update(ctx context.Context, stage *models.Stage) error
	// DeleteByTournament removes the stages of a tournament together with
	// their matches and everything recorded against those matches.
	DeleteByTournament(ctx context.Context, tournamentID string) error
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByStage(ctx context.Context, stageID string) ([]*models.Match, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error)
	// ListDependents returns the matches with a slot fed by the given match.
	ListDependents(ctx context.Context, matchID string) ([]*models.Match, error)
	// ListAwaitingConfirmation returns pending_confirmation matches whose
	// deadline is at or before the given time.
	ListAwaitingConfirmation(ctx context.Context, before time.Time) ([]*models.Match, error)
	CountByState(ctx context.Context) (map[models.MatchState]int, error)
	// Update stores the match if its Version still matches and increments it.
	Update(ctx context.Context, match *models.Match) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.ResultSubmission) error
	GetByID(ctx context.Context, id string) (*models.ResultSubmission, error)
	// ListByMatch returns every submission of the match in submission order.
	ListByMatch(ctx context.Context, matchID string) ([]*models.ResultSubmission, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute *models.Dispute) error
	GetByID(ctx context.Context, id string) (*models.Dispute, error)
	Update(ctx context.Context, dispute *models.Dispute) error
	ListByMatch(ctx context.Context, matchID string) ([]*models.Dispute, error)
	ListOpen(ctx context.Context) ([]*models.Dispute, error)
	CountOpen(ctx context.Context) (int, error)
}

type TransitionRepository interface {
	Create(ctx context.Context, transition *models.Transition) error
	ListByMatch(ctx context.Context, matchID string) ([]*models.Transition, error)
}

// Repositories bundles the repositories bound to one executor: the store
// itself, or an open transaction.
type Repositories struct {
	Tournaments TournamentRepository
	Stages      StageRepository
	Matches     MatchRepository
	Submissions SubmissionRepository
	Disputes    DisputeRepository
	Transitions TransitionRepository
}

// Store is the persistence boundary of the engine. WithinTx runs fn
// atomically: either every write made through repos is applied or none is.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
