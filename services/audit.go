package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
)

// SlogAuditLogger writes every match transition as a structured log line.
type SlogAuditLogger struct {
	logger *slog.Logger
}

func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditLogger{logger: logger.With(slog.String("component", "audit"))}
}

func (a *SlogAuditLogger) Record(ctx context.Context, t models.Transition) {
	a.logger.InfoContext(ctx, "match transition",
		slog.String("transition_id", t.ID),
		slog.String("match_id", t.MatchID),
		slog.String("tournament_id", t.TournamentID),
		slog.String("actor", t.Actor),
		slog.String("action", t.Action),
		slog.String("from", string(t.From)),
		slog.String("to", string(t.To)),
		slog.Int("generation", t.Generation),
		slog.Time("at", t.At),
	)
}
