package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	*core
}

func NewDashboardService(deps Dependencies) DashboardService {
	return &dashboardService{core: newCore(deps)}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	repos := s.store.Repositories()
	var (
		tournaments map[models.TournamentStatus]int
		matches     map[models.MatchState]int
		overdue     []*models.Match
		open        int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournaments, err = repos.Tournaments.CountByStatus(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = repos.Matches.CountByState(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		overdue, err = repos.Matches.ListAwaitingConfirmation(gCtx, s.now().UTC())
		return err
	})
	g.Go(func() error {
		var err error
		open, err = repos.Disputes.CountOpen(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	total := 0
	for _, n := range tournaments {
		total += n
	}
	return models.DashboardStats{
		TournamentsTotal:  total,
		ActiveTournaments: tournaments[models.TournamentStatusActive],
		LiveMatches:       matches[models.MatchStateLive],
		AwaitingConfirm:   matches[models.MatchStatePendingConfirmation],
		OverdueMatches:    len(overdue),
		ConflictedMatches: matches[models.MatchStateConflicted],
		DisputedMatches:   matches[models.MatchStateDisputed],
		CompletedMatches:  matches[models.MatchStateCompleted],
		OpenDisputes:      open,
	}, nil
}
