package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

func postgresRepositories(exec SQLExecutor) Repositories {
	return Repositories{
		Tournaments: NewPostgresTournamentRepository(exec),
		Stages:      NewPostgresStageRepository(exec),
		Matches:     NewPostgresMatchRepository(exec),
		Submissions: NewPostgresSubmissionRepository(exec),
		Disputes:    NewPostgresDisputeRepository(exec),
		Transitions: NewPostgresTransitionRepository(exec),
	}
}

func (s *PostgresStore) Repositories() Repositories {
	return postgresRepositories(s.db)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (txErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(ctx, postgresRepositories(tx))
}
