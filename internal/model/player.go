// Package model defines the data structures used throughout the application.
package model

import "time"

// Player is a registered arcade participant.
//
// The JSON names follow what the pages and scanners already consume:
// "_id" is the store-assigned identifier and "playerId" is the short code
// printed on the player's badge.
type Player struct {
	ID         string    `json:"_id"`
	ShortCode  string    `json:"playerId"`
	Alias      string    `json:"id,omitempty"` // legacy identifier from an import, never assigned on registration
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Scores     []Score   `json:"scores"`
	TotalScore int       `json:"totalScore"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Score is one game result embedded in a Player.
type Score struct {
	GameID   string    `json:"gameId"`
	Value    int       `json:"score"`
	PlayedAt time.Time `json:"playedAt"`
}

// ScoreFor returns the player's score for gameID, if one is recorded.
func (p *Player) ScoreFor(gameID string) (Score, bool) {
	for _, s := range p.Scores {
		if s.GameID == gameID {
			return s, true
		}
	}
	return Score{}, false
}

// SumScores recomputes the total from the embedded scores. TotalScore must
// always equal this value after a write.
func (p *Player) SumScores() int {
	total := 0
	for _, s := range p.Scores {
		total += s.Value
	}
	return total
}

// Registration is the response to a registration request.
type Registration struct {
	ID          string `json:"_id"`
	ShortCode   string `json:"playerId"`
	Name        string `json:"name"`
	IsNewPlayer bool   `json:"isNewPlayer"`
}

// ScoreResult is the outcome of a score submission.
type ScoreResult struct {
	Success       bool   `json:"success"`
	GameID        string `json:"gameId"`
	Score         int    `json:"score"`
	TotalScore    int    `json:"totalScore"`
	WasUpdate     bool   `json:"updated"`
	PreviousValue *int   `json:"previousScore,omitempty"`
}

// Ranking places one player in the full leaderboard.
type Ranking struct {
	ID         string `json:"_id"`
	ShortCode  string `json:"playerId"`
	Name       string `json:"name"`
	Rank       int    `json:"rank"`
	TotalScore int    `json:"totalScore"`
	Players    int    `json:"players"`
}
