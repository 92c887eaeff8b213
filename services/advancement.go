package services

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

// finalize is the only path into MatchStateCompleted. It propagates the result
// to dependent slots and closes the stage when it was the last open match.
func (tx *txn) finalize(m *models.Match, result models.MatchResult, actor, action, notes string) error {
	from := m.State
	result.Generation = m.Generation
	result.CompletedAt = tx.now
	result.FinalizedBy = actor
	m.Result = &result
	m.State = models.MatchStateCompleted
	m.ConfirmationDeadline = nil
	m.ClaimSide = -1
	if err := tx.save(m, from, actor, action, notes); err != nil {
		return err
	}
	if err := tx.voidOpenDisputes(m.ID); err != nil {
		return err
	}
	if err := tx.propagate(m); err != nil {
		return err
	}
	return tx.afterMatchClosed(m)
}

func (tx *txn) cancel(m *models.Match, reason, actor string) error {
	from := m.State
	m.State = models.MatchStateCancelled
	m.CancelReason = reason
	m.ConfirmationDeadline = nil
	m.ClaimSide = -1
	if err := tx.save(m, from, actor, "cancel", reason); err != nil {
		return err
	}
	if err := tx.voidOpenDisputes(m.ID); err != nil {
		return err
	}
	if err := tx.propagate(m); err != nil {
		return err
	}
	return tx.afterMatchClosed(m)
}

// outcomeSlot is what src contributes to a slot that waits for the given outcome.
func outcomeSlot(src *models.Match, outcome models.SlotOutcome) models.Slot {
	if src.State != models.MatchStateCompleted || src.Result == nil {
		return models.Slot{Bye: true}
	}
	if outcome == models.OutcomeWinner {
		return models.Slot{ParticipantID: src.Result.WinnerID}
	}
	if src.Result.Walkover || src.Result.LoserID == "" {
		return models.Slot{Bye: true}
	}
	return models.Slot{ParticipantID: src.Result.LoserID}
}

// propagate writes the outcome of a closed match into every slot it feeds.
// Slots that are already resolved are left alone, so applying the same event
// twice changes nothing.
func (tx *txn) propagate(src *models.Match) error {
	dependents, err := tx.repos.Matches.ListDependents(tx.ctx, src.ID)
	if err != nil {
		return translateRepoError(err)
	}
	for _, d := range dependents {
		// Earlier iterations may have cascaded into this match.
		dep, err := tx.match(d.ID)
		if err != nil {
			return err
		}
		changed := false
		for _, i := range dep.DependsOn(src.ID) {
			if dep.Slots[i].Resolved() {
				continue
			}
			fill := outcomeSlot(src, dep.Slots[i].Source.Outcome)
			dep.Slots[i].ParticipantID = fill.ParticipantID
			dep.Slots[i].Bye = fill.Bye
			changed = true
		}
		if !changed {
			continue
		}
		if err := tx.resolveReadiness(dep, src); err != nil {
			return err
		}
	}
	return nil
}

// resolveReadiness stores freshly filled slots and moves the match out of
// waiting once both sides are known.
func (tx *txn) resolveReadiness(m *models.Match, src *models.Match) error {
	if m.State != models.MatchStateWaiting || !m.Slots[0].Resolved() || !m.Slots[1].Resolved() {
		return tx.save(m, m.State, "", "", "")
	}

	a, b := m.Slots[0], m.Slots[1]
	switch {
	case a.Bye && b.Bye:
		return tx.cancel(m, models.CancelReasonBye, SystemActorID)
	case a.Bye || b.Bye:
		winner := a.ParticipantID
		if a.Bye {
			winner = b.ParticipantID
		}
		return tx.finalize(m, models.MatchResult{WinnerID: winner, Walkover: true}, SystemActorID, "walkover", "")
	}

	if m.Bracket == models.BracketGrandFinalReset && resetNotRequired(src) {
		return tx.cancel(m, models.CancelReasonResetSkipped, SystemActorID)
	}
	m.State = models.MatchStatePending
	return tx.save(m, models.MatchStateWaiting, SystemActorID, "ready", "")
}

// resetNotRequired reports whether the winners bracket champion, who always
// holds the first grand final slot, won the first grand final.
func resetNotRequired(src *models.Match) bool {
	if src == nil || src.Bracket != models.BracketGrandFinal || src.Result == nil {
		return false
	}
	return src.Result.WinnerID == src.Slots[0].ParticipantID
}

// lockedForOverride reports whether a dependent match blocks a non-cascading
// override. Automatic walkovers and automatic cancellations never block.
func lockedForOverride(m *models.Match) bool {
	switch m.State {
	case models.MatchStateCancelled:
		return m.CancelReason != models.CancelReasonBye && m.CancelReason != models.CancelReasonResetSkipped
	case models.MatchStateCompleted:
		return m.Result == nil || !m.Result.Walkover
	}
	return m.State.Started()
}

// invalidateDependents reverts, breadth first, every match holding a slot
// that the replacement result of src fills differently, and every match fed
// by a match reverted before it.
func (tx *txn) invalidateDependents(src *models.Match, replacement models.MatchResult, cascade bool, actor string) ([]*models.Match, error) {
	next := *src
	next.Result = &replacement
	reverted := map[string]bool{src.ID: true}
	queue := []*models.Match{src}
	var affected []*models.Match

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		dependents, err := tx.repos.Matches.ListDependents(tx.ctx, cur.ID)
		if err != nil {
			return nil, translateRepoError(err)
		}
		for _, dep := range dependents {
			if reverted[dep.ID] {
				continue
			}
			resolved := false
			for _, i := range dep.DependsOn(cur.ID) {
				slot := dep.Slots[i]
				if !slot.Resolved() {
					continue
				}
				if cur.ID == src.ID {
					fill := outcomeSlot(&next, slot.Source.Outcome)
					if fill.ParticipantID == slot.ParticipantID && fill.Bye == slot.Bye {
						continue
					}
				}
				resolved = true
			}
			if !resolved {
				continue
			}
			if !cascade && lockedForOverride(dep) {
				return nil, fmt.Errorf("%w: match %s is %s", ErrDownstreamLocked, dep.Code, dep.State)
			}
			reverted[dep.ID] = true
			affected = append(affected, dep)
			queue = append(queue, dep)
		}
	}

	for _, dep := range affected {
		for i, s := range dep.Slots {
			if s.Source != nil && reverted[s.Source.MatchID] {
				dep.Slots[i].ParticipantID = ""
				dep.Slots[i].Bye = false
			}
		}
		from := dep.State
		dep.State = models.MatchStateWaiting
		dep.Generation++
		dep.Result = nil
		dep.ClaimSide = -1
		dep.ConfirmationDeadline = nil
		dep.StartedAt = nil
		dep.CancelReason = ""
		if err := tx.save(dep, from, actor, "invalidate", "reverted by override of "+src.Code); err != nil {
			return nil, err
		}
		if err := tx.voidOpenDisputes(dep.ID); err != nil {
			return nil, err
		}
	}
	return affected, nil
}

// afterMatchClosed reacts to the last open match of a stage closing: swiss
// stages get their next round, other stages complete. A completed bracket
// stage completes the tournament, a completed group stage may advance
// automatically.
func (tx *txn) afterMatchClosed(m *models.Match) error {
	stage, err := tx.stage(m.StageID)
	if err != nil {
		return err
	}
	if stage.Status != models.StageStatusActive {
		return nil
	}
	matches, err := tx.repos.Matches.ListByStage(tx.ctx, stage.ID)
	if err != nil {
		return translateRepoError(err)
	}
	for _, sm := range matches {
		if !sm.State.Terminal() {
			return nil
		}
	}

	if stage.Format == models.FormatSwiss && stage.SwissRound < brackets.SwissRounds(len(stage.Participants), stage.Options) {
		return tx.nextSwissRound(stage, matches)
	}

	stage.Status = models.StageStatusCompleted
	if err := tx.repos.Stages.Update(tx.ctx, stage); err != nil {
		return translateRepoError(err)
	}
	tx.core.logger.Info("stage completed",
		"stage_id", stage.ID, "tournament_id", stage.TournamentID, "format", stage.Format)

	if stage.Type == models.StageTypeBracket {
		return tx.completeTournament(stage, matches)
	}
	return tx.autoAdvance(stage)
}

// champion is the winner of the last decisive match in plan order.
func champion(matches []*models.Match) string {
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m.State == models.MatchStateCancelled && m.CancelReason == models.CancelReasonResetSkipped {
			continue
		}
		if m.State == models.MatchStateCompleted && m.Result != nil {
			return m.Result.WinnerID
		}
		return ""
	}
	return ""
}

func (tx *txn) completeTournament(stage *models.Stage, matches []*models.Match) error {
	t, err := tx.tournament(stage.TournamentID)
	if err != nil {
		return err
	}
	t.Status = models.TournamentStatusCompleted
	t.WinnerID = champion(matches)
	t.UpdatedAt = tx.now
	if err := tx.repos.Tournaments.Update(tx.ctx, t); err != nil {
		return translateRepoError(err)
	}
	tx.core.logger.Info("tournament completed", "tournament_id", t.ID, "winner_id", t.WinnerID)
	return nil
}

// reopen undoes stage and tournament completion before an override changes
// the results they were derived from.
func (tx *txn) reopen(stage *models.Stage) error {
	if stage.Status == models.StageStatusCompleted && stage.Type == models.StageTypeBracket {
		stage.Status = models.StageStatusActive
		if err := tx.repos.Stages.Update(tx.ctx, stage); err != nil {
			return translateRepoError(err)
		}
	}
	t, err := tx.tournament(stage.TournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.TournamentStatusCompleted {
		return nil
	}
	t.Status = models.TournamentStatusActive
	t.WinnerID = ""
	t.UpdatedAt = tx.now
	return translateRepoError(tx.repos.Tournaments.Update(tx.ctx, t))
}
