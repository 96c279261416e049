package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/identity"
	"github.com/sakif/arcade-leaderboard/internal/model"
)

// LegacyPlayer is one player document from an older export. Only name and
// phone are required.
//
// Exports come in two shapes: plain JSON, where _id and createdAt are
// strings, and extended JSON, where they are {"$oid": ...} and
// {"$date": ...}. Both are accepted.
type LegacyPlayer struct {
	DocID     json.RawMessage `json:"_id"`
	ID        string          `json:"id"`
	ShortCode string          `json:"playerId"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Scores    []LegacyScore   `json:"scores"`
	CreatedAt json.RawMessage `json:"createdAt"`
}

// LegacyScore is one embedded score of a LegacyPlayer.
type LegacyScore struct {
	GameID   string          `json:"gameId"`
	Score    int             `json:"score"`
	PlayedAt json.RawMessage `json:"playedAt"`
}

// ImportReport summarises an Import run.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"` // phone already registered
	Invalid  []string `json:"invalid"` // records rejected, with the reason
}

// Import loads legacy player documents into the store.
//
// Each record gets a fresh store id; its old identifier is kept as the alias
// so links and badges printed before the migration still resolve. Records
// without a short code get one. Scores are de-duplicated per game (first
// one wins) and the total is recomputed from what is kept, so imported
// players satisfy the same invariants as registered ones.
func (s *PlayerService) Import(ctx context.Context, records []LegacyPlayer) (*ImportReport, error) {
	report := &ImportReport{Invalid: []string{}}

	for i, rec := range records {
		name := strings.TrimSpace(rec.Name)
		phone := strings.TrimSpace(rec.Phone)
		if name == "" || phone == "" {
			report.Invalid = append(report.Invalid, fmt.Sprintf("record %d: name and phone are required", i+1))
			continue
		}

		player := &model.Player{
			ID:        identity.NewNativeID(),
			ShortCode: strings.ToUpper(strings.TrimSpace(rec.ShortCode)),
			Alias:     legacyAlias(rec),
			Name:      name,
			Phone:     phone,
			Scores:    dedupeScores(rec.Scores, s.clock.Now()),
			CreatedAt: s.clock.Now(),
		}
		if player.ShortCode == "" {
			player.ShortCode = s.codes.Next()
		}
		if t, ok := extendedTime(rec.CreatedAt); ok {
			player.CreatedAt = t
		}
		player.TotalScore = player.SumScores()

		created, err := s.repo.Create(ctx, player)
		if err != nil {
			return report, fmt.Errorf("importing record %d: %w", i+1, err)
		}
		if !created {
			report.Skipped++
			continue
		}
		report.Imported++
	}

	if report.Imported > 0 {
		s.invalidate(ctx)
	}

	s.logger.Info("legacy import finished",
		slog.Int("imported", report.Imported),
		slog.Int("skipped", report.Skipped),
		slog.Int("invalid", len(report.Invalid)),
	)
	return report, nil
}

// legacyAlias prefers the plain id field, then the old document id.
func legacyAlias(rec LegacyPlayer) string {
	if id := strings.TrimSpace(rec.ID); id != "" {
		return id
	}
	return strings.TrimSpace(extendedString(rec.DocID, "$oid"))
}

// extendedString decodes either "value" or {"<wrapper>": "value"}.
func extendedString(raw json.RawMessage, wrapper string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj[wrapper]
	}
	return ""
}

func extendedTime(raw json.RawMessage) (time.Time, bool) {
	s := extendedString(raw, "$date")
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// dedupeScores keeps the first score per game. A score without a readable
// playedAt is stamped with now.
func dedupeScores(in []LegacyScore, now time.Time) []model.Score {
	out := make([]model.Score, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, sc := range in {
		gameID := strings.TrimSpace(sc.GameID)
		if gameID == "" || seen[gameID] {
			continue
		}
		seen[gameID] = true

		playedAt, ok := extendedTime(sc.PlayedAt)
		if !ok {
			playedAt = now
		}
		out = append(out, model.Score{GameID: gameID, Value: sc.Score, PlayedAt: playedAt})
	}
	return out
}
