package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const defaultReconcileConcurrency = 4

// ReconcileReport summarizes one pass over overdue confirmations.
type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Applied int `json:"applied"`
	Stale   int `json:"stale"`
	Failed  int `json:"failed"`
}

// Reconciler applies the expiry policy to matches whose confirmation window
// has passed.
type Reconciler struct {
	*core
	results     ResultService
	concurrency int
}

func NewReconciler(deps Dependencies, results ResultService, concurrency int) *Reconciler {
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &Reconciler{core: newCore(deps), results: results, concurrency: concurrency}
}

// RunOnce expires every overdue match with the generation it was observed at.
// Races lost to a concurrent submission or decision are dropped; other
// failures are counted and logged without stopping the pass.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	overdue, err := r.store.Repositories().Matches.ListAwaitingConfirmation(ctx, r.now().UTC())
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("failed to list overdue confirmations: %w", err)
	}

	var applied, stale, failed atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, m := range overdue {
		matchID, generation := m.ID, m.Generation
		g.Go(func() error {
			_, err := r.results.ExpireConfirmation(gCtx, matchID, generation)
			switch {
			case err == nil:
				applied.Add(1)
			case errors.Is(err, ErrStaleWrite):
				stale.Add(1)
			case errors.Is(err, context.Canceled):
				return err
			default:
				failed.Add(1)
				r.logger.Error("confirmation expiry failed", "match_id", matchID, "generation", generation, "error", err)
			}
			return nil
		})
	}
	err = g.Wait()

	report := ReconcileReport{
		Scanned: len(overdue),
		Applied: int(applied.Load()),
		Stale:   int(stale.Load()),
		Failed:  int(failed.Load()),
	}
	if report.Scanned > 0 {
		r.logger.Info("confirmations reconciled",
			"scanned", report.Scanned, "applied", report.Applied, "stale", report.Stale, "failed", report.Failed)
	}
	return report, err
}
