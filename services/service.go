package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

// SystemActorID is recorded for transitions made by the engine itself.
const SystemActorID = "system"

type ExpiryPolicy string

const (
	ExpiryAutoConfirm ExpiryPolicy = "auto_confirm"
	ExpiryEscalate    ExpiryPolicy = "escalate"
)

// Policy holds the tunable rules of the result and dispute workflow.
type Policy struct {
	ConfirmationWindow time.Duration
	ExpiryPolicy       ExpiryPolicy
	ExplanationMin     int
	ExplanationMax     int
	ResolutionNotesMin int
	RequireProof       bool
}

func DefaultPolicy() Policy {
	return Policy{
		ConfirmationWindow: 24 * time.Hour,
		ExpiryPolicy:       ExpiryAutoConfirm,
		ExplanationMin:     50,
		ExplanationMax:     500,
		ResolutionNotesMin: 10,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.ConfirmationWindow <= 0 {
		p.ConfirmationWindow = def.ConfirmationWindow
	}
	if p.ExpiryPolicy == "" {
		p.ExpiryPolicy = def.ExpiryPolicy
	}
	if p.ExplanationMin <= 0 {
		p.ExplanationMin = def.ExplanationMin
	}
	if p.ExplanationMax <= 0 {
		p.ExplanationMax = def.ExplanationMax
	}
	if p.ResolutionNotesMin <= 0 {
		p.ResolutionNotesMin = def.ResolutionNotesMin
	}
	return p
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID        string
	Organizer bool
}

func SystemActor() Actor {
	return Actor{ID: SystemActorID, Organizer: true}
}

func requireOrganizer(actor Actor) error {
	if !actor.Organizer {
		return fmt.Errorf("%w: organizer role required", ErrPermission)
	}
	return nil
}

// Notifier receives committed changes, e.g. to push them to websocket clients.
type Notifier interface {
	MatchTransitioned(ctx context.Context, transition models.Transition, match *models.Match)
	StageCreated(ctx context.Context, stage *models.Stage, matches []*models.Match)
}

// AuditLogger receives every committed match transition.
type AuditLogger interface {
	Record(ctx context.Context, transition models.Transition)
}

// ProofChecker tells whether a proof reference points at a stored blob.
type ProofChecker interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

type Dependencies struct {
	Store    repositories.Store
	Notifier Notifier
	Audit    AuditLogger
	Proofs   ProofChecker
	Policy   Policy
	Logger   *slog.Logger
	Now      func() time.Time
	// Rand drives random seeding. Nil uses the global source.
	Rand *rand.Rand
}

type noopNotifier struct{}

func (noopNotifier) MatchTransitioned(context.Context, models.Transition, *models.Match) {}
func (noopNotifier) StageCreated(context.Context, *models.Stage, []*models.Match)        {}

type noopAudit struct{}

func (noopAudit) Record(context.Context, models.Transition) {}

// core is shared by every service: the store, the collaborators and the
// transaction helper.
type core struct {
	store    repositories.Store
	notifier Notifier
	audit    AuditLogger
	proofs   ProofChecker
	policy   Policy
	logger   *slog.Logger
	now      func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

func newCore(deps Dependencies) *core {
	c := &core{
		store:    deps.Store,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		proofs:   deps.Proofs,
		policy:   deps.Policy.withDefaults(),
		logger:   deps.Logger,
		now:      deps.Now,
		rand:     deps.Rand,
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if c.audit == nil {
		c.audit = noopAudit{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// txn is the unit of work of one mutating operation. Effects are collected
// while the transaction runs and delivered only after it commits.
type txn struct {
	ctx     context.Context
	repos   repositories.Repositories
	core    *core
	now     time.Time
	effects []func(ctx context.Context)
}

func (c *core) inTx(ctx context.Context, fn func(tx *txn) error) error {
	var committed *txn
	err := c.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		tx := &txn{ctx: ctx, repos: repos, core: c, now: c.now().UTC()}
		if err := fn(tx); err != nil {
			return err
		}
		committed = tx
		return nil
	})
	if err != nil {
		return translateRepoError(err)
	}
	for _, effect := range committed.effects {
		effect(ctx)
	}
	return nil
}

// save persists m. A non-empty action also records a transition from the
// given state.
func (tx *txn) save(m *models.Match, from models.MatchState, actor, action, notes string) error {
	m.UpdatedAt = tx.now
	if err := tx.repos.Matches.Update(tx.ctx, m); err != nil {
		return translateRepoError(err)
	}
	if action == "" {
		return nil
	}

	transition := models.Transition{
		ID:           uuid.NewString(),
		MatchID:      m.ID,
		TournamentID: m.TournamentID,
		Actor:        actor,
		Action:       action,
		From:         from,
		To:           m.State,
		Generation:   m.Generation,
		Notes:        notes,
		At:           tx.now,
	}
	if err := tx.repos.Transitions.Create(tx.ctx, &transition); err != nil {
		return fmt.Errorf("failed to record transition for match %s: %w", m.ID, err)
	}

	snapshot := *m
	c := tx.core
	tx.effects = append(tx.effects, func(ctx context.Context) {
		c.audit.Record(ctx, transition)
		c.notifier.MatchTransitioned(ctx, transition, &snapshot)
	})
	return nil
}

func (tx *txn) match(id string) (*models.Match, error) {
	m, err := tx.repos.Matches.GetByID(tx.ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return m, nil
}

func (tx *txn) stage(id string) (*models.Stage, error) {
	s, err := tx.repos.Stages.GetByID(tx.ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return s, nil
}

func (tx *txn) tournament(id string) (*models.Tournament, error) {
	t, err := tx.repos.Tournaments.GetByID(tx.ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return t, nil
}

func (tx *txn) dispute(id string) (*models.Dispute, error) {
	d, err := tx.repos.Disputes.GetByID(tx.ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return d, nil
}

// lockTournament takes the write lock of a tournament for the rest of the
// transaction. Mutating operations take it before reading the state they
// decide on, so operations on one tournament apply one after another.
func (tx *txn) lockTournament(id string) error {
	return translateRepoError(tx.repos.Tournaments.Lock(tx.ctx, id))
}

// lockedMatch locks the tournament of a match and loads the match as it was
// committed when the lock was granted.
func (tx *txn) lockedMatch(id string) (*models.Match, error) {
	m, err := tx.match(id)
	if err != nil {
		return nil, err
	}
	if err := tx.lockTournament(m.TournamentID); err != nil {
		return nil, err
	}
	return tx.match(id)
}

// lockedStage is lockedMatch for stages.
func (tx *txn) lockedStage(id string) (*models.Stage, error) {
	s, err := tx.stage(id)
	if err != nil {
		return nil, err
	}
	if err := tx.lockTournament(s.TournamentID); err != nil {
		return nil, err
	}
	return tx.stage(id)
}

// matchContext locks and loads a match together with its stage and
// tournament.
func (tx *txn) matchContext(id string) (*models.Match, *models.Stage, *models.Tournament, error) {
	m, err := tx.lockedMatch(id)
	if err != nil {
		return nil, nil, nil, err
	}
	stage, err := tx.stage(m.StageID)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := tx.tournament(m.TournamentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, stage, t, nil
}

// voidOpenDisputes closes every open dispute of a match without a decision.
func (tx *txn) voidOpenDisputes(matchID string) error {
	disputes, err := tx.repos.Disputes.ListByMatch(tx.ctx, matchID)
	if err != nil {
		return translateRepoError(err)
	}
	for _, d := range disputes {
		if d.Status != models.DisputeStatusOpen {
			continue
		}
		d.Status = models.DisputeStatusVoided
		if err := tx.repos.Disputes.Update(tx.ctx, d); err != nil {
			return translateRepoError(err)
		}
	}
	return nil
}

func (tx *txn) openSystemDispute(m *models.Match, reason models.DisputeReason) (*models.Dispute, error) {
	d := &models.Dispute{
		ID:           uuid.NewString(),
		MatchID:      m.ID,
		TournamentID: m.TournamentID,
		Generation:   m.Generation,
		Reason:       reason,
		Status:       models.DisputeStatusOpen,
		CreatedAt:    tx.now,
	}
	if err := tx.repos.Disputes.Create(tx.ctx, d); err != nil {
		return nil, fmt.Errorf("failed to open dispute for match %s: %w", m.ID, err)
	}
	return d, nil
}
