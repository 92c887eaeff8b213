package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// scoreSchemas caches compiled tournament score schemas keyed by schema text.
var scoreSchemas sync.Map

func compileScoreSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	key := string(raw)
	if cached, ok := scoreSchemas.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	schema, err := jsonschema.CompileString("score.schema.json", key)
	if err != nil {
		return nil, fmt.Errorf("compile score schema: %w", err)
	}
	scoreSchemas.Store(key, schema)
	return schema, nil
}

// ValidateScoreSchema reports whether raw is a usable score schema.
func ValidateScoreSchema(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if _, err := compileScoreSchema(raw); err != nil {
		return validationf("%v", err)
	}
	return nil
}

// normalizeScore checks that score is a JSON object or array and returns it
// in canonical form: object keys sorted, whitespace stripped, numbers
// re-encoded.
func normalizeScore(raw json.RawMessage) (json.RawMessage, any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, nil, validationf("score must be a JSON object or array")
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, nil, validationf("score is not valid JSON: %v", err)
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, validationf("score cannot be encoded: %v", err)
	}
	return canonical, payload, nil
}

func checkScore(settings models.TournamentSettings, raw json.RawMessage) (json.RawMessage, error) {
	canonical, payload, err := normalizeScore(raw)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(settings.ScoreSchema)) == 0 {
		return canonical, nil
	}
	schema, err := compileScoreSchema(settings.ScoreSchema)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, validationf("score does not match the tournament schema: %v", err)
	}
	return canonical, nil
}

// buildResult validates a claimed outcome of m. An empty winner is a draw.
func buildResult(t *models.Tournament, stage *models.Stage, m *models.Match, winnerID string, score json.RawMessage) (models.MatchResult, error) {
	canonical, err := checkScore(t.Settings, score)
	if err != nil {
		return models.MatchResult{}, err
	}
	if winnerID == "" {
		if stage.Type != models.StageTypeGroup || !t.Settings.AllowDraws {
			return models.MatchResult{}, validationf("draws are not allowed in this match")
		}
		return models.MatchResult{Draw: true, Score: canonical}, nil
	}
	if m.SideOf(winnerID) < 0 {
		return models.MatchResult{}, validationf("winner %s is not a participant of match %s", winnerID, m.Code)
	}
	return models.MatchResult{WinnerID: winnerID, LoserID: m.Opponent(winnerID), Score: canonical}, nil
}

func resultFromClaim(claim *models.ResultSubmission, m *models.Match) models.MatchResult {
	if claim.ClaimedWinnerID == "" {
		return models.MatchResult{Draw: true, Score: claim.Score}
	}
	return models.MatchResult{
		WinnerID: claim.ClaimedWinnerID,
		LoserID:  m.Opponent(claim.ClaimedWinnerID),
		Score:    claim.Score,
	}
}

// sameOutcome compares winner and canonical score.
func sameOutcome(winnerA string, scoreA json.RawMessage, winnerB string, scoreB json.RawMessage) bool {
	if winnerA != winnerB {
		return false
	}
	a, _, errA := normalizeScore(scoreA)
	b, _, errB := normalizeScore(scoreB)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// scorePair reads a score given as [a, b] or {"scores": [a, b]} in slot order.
func scorePair(raw json.RawMessage) (int, int, bool) {
	if len(raw) == 0 {
		return 0, 0, false
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, 0, false
	}
	if obj, ok := payload.(map[string]any); ok {
		payload = obj["scores"]
	}
	list, ok := payload.([]any)
	if !ok || len(list) != 2 {
		return 0, 0, false
	}
	a, okA := list[0].(float64)
	b, okB := list[1].(float64)
	if !okA || !okB {
		return 0, 0, false
	}
	return int(math.Round(a)), int(math.Round(b)), true
}

func (c *core) checkProof(ctx context.Context, ref string, required bool) error {
	if ref == "" {
		if required {
			return validationf("proof is required")
		}
		return nil
	}
	if c.proofs == nil {
		return validationf("proof %q is unknown", ref)
	}
	ok, err := c.proofs.Exists(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to look up proof %q: %w", ref, err)
	}
	if !ok {
		return validationf("proof %q is unknown", ref)
	}
	return nil
}
