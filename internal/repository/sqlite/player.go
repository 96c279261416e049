package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/identity"
	"github.com/sakif/arcade-leaderboard/internal/model"
	"github.com/sakif/arcade-leaderboard/internal/repository"
)

var _ repository.PlayerRepository = (*DB)(nil)

const playerColumns = `id, short_code, alias, name, phone, scores, total_score, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var (
		p      model.Player
		scores string
	)
	if err := row.Scan(
		&p.ID, &p.ShortCode, &p.Alias, &p.Name, &p.Phone,
		&scores, &p.TotalScore, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scores), &p.Scores); err != nil {
		return nil, fmt.Errorf("decoding scores of player %s: %w", p.ID, err)
	}
	if p.Scores == nil {
		p.Scores = []model.Score{}
	}
	return &p, nil
}

// Create inserts a new player. The caller fills in every field, including
// ID and ShortCode; imports may also carry scores and an alias.
//
// ON CONFLICT(phone) DO NOTHING makes registration race-free: when two
// requests register the same phone at once, exactly one insert wins and the
// loser reads back the winner's record.
func (db *DB) Create(ctx context.Context, player *model.Player) (bool, error) {
	if player.Scores == nil {
		player.Scores = []model.Score{}
	}
	scores, err := json.Marshal(player.Scores)
	if err != nil {
		return false, fmt.Errorf("sqlite: encoding scores: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO players (`+playerColumns+`)
		 VALUES (?, ?, ?, ?, ?, json(?), ?, ?)
		 ON CONFLICT(phone) DO NOTHING`,
		player.ID,
		player.ShortCode,
		player.Alias,
		player.Name,
		player.Phone,
		string(scores),
		player.TotalScore,
		player.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: creating player: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return true, nil
	}

	existing, err := db.GetByPhone(ctx, player.Phone)
	if err != nil {
		return false, err
	}
	*player = *existing
	return false, nil
}

// GetByPhone returns the player registered with phone.
func (db *DB) GetByPhone(ctx context.Context, phone string) (*model.Player, error) {
	p, err := scanPlayer(db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE phone = ?`, phone,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("player", phone)
		}
		return nil, fmt.Errorf("sqlite: getting player by phone: %w", err)
	}
	return p, nil
}

// Find evaluates an identity.Filter as a single query. When several rows
// match, the ORDER BY picks the highest-priority form: store id, then short
// code, then the raw fallback (short code, store id or alias compared as
// given).
func (db *DB) Find(ctx context.Context, f identity.Filter) (*model.Player, error) {
	p, err := scanPlayer(db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+`
		 FROM players
		 WHERE (?1 <> '' AND id = ?1)
		    OR short_code = ?2
		    OR short_code = ?3
		    OR id = ?3
		    OR (alias <> '' AND alias = ?3)
		 ORDER BY CASE
		            WHEN ?1 <> '' AND id = ?1 THEN 0
		            WHEN short_code = ?2 THEN 1
		            ELSE 2
		          END,
		          created_at, id
		 LIMIT 1`,
		f.NativeID, f.ShortCode, f.Raw,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("player", f.Raw)
		}
		return nil, fmt.Errorf("sqlite: finding player %s: %w", f.Raw, err)
	}
	return p, nil
}

// Leaderboard lists players by total score, highest first. Ties go to the
// earlier registration, then to the smaller id, so the order is stable.
func (db *DB) Leaderboard(ctx context.Context, opts repository.ListOptions) ([]model.Player, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+`
		 FROM players
		 ORDER BY total_score DESC, created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing leaderboard: %w", err)
	}
	defer rows.Close()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning player row: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating players: %w", err)
	}

	return players, nil
}

// errTotalOverflow is returned when a write would push total_score past the
// 64-bit integer range. SQLite would otherwise store the sum as a REAL.
var errTotalOverflow = apperror.ValidationFailed("score", "Score would overflow the player's total")

// AppendScore pushes score onto the player's history and bumps the total in
// one statement. The NOT EXISTS guard is evaluated against the row being
// updated, so two concurrent submissions for the same game cannot both
// append: SQLite serializes writers and the second sees the first's element.
// The typeof guard refuses a sum that no longer fits in an integer.
func (db *DB) AppendScore(ctx context.Context, playerID string, score model.Score) (int, bool, error) {
	doc, err := json.Marshal(score)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: encoding score: %w", err)
	}

	var total int
	err = db.conn.QueryRowContext(ctx,
		`UPDATE players
		 SET scores      = json_insert(scores, '$[#]', json(?1)),
		     total_score = total_score + ?2
		 WHERE id = ?3
		   AND typeof(total_score + ?2) = 'integer'
		   AND NOT EXISTS (
		         SELECT 1 FROM json_each(players.scores)
		         WHERE json_extract(value, '$.gameId') = ?4)
		 RETURNING total_score`,
		string(doc), score.Value, playerID, score.GameID,
	).Scan(&total)
	if err == nil {
		return total, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("sqlite: appending score for player %s: %w", playerID, err)
	}

	// Nothing matched: the game is already played, the player is gone, or
	// the total would overflow. Only the last one is the caller's error.
	var fits, played bool
	err = db.conn.QueryRowContext(ctx,
		`SELECT typeof(total_score + ?1) = 'integer',
		        EXISTS (SELECT 1 FROM json_each(players.scores)
		                WHERE json_extract(value, '$.gameId') = ?2)
		 FROM players WHERE id = ?3`,
		score.Value, score.GameID, playerID,
	).Scan(&fits, &played)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlite: checking score for player %s: %w", playerID, err)
	}
	if !played && !fits {
		return 0, false, errTotalOverflow
	}
	return 0, false, nil
}

// ReplaceScore overwrites the element for gameID in place and adjusts the
// total by the difference. It only applies while the stored value still
// equals oldValue (compare-and-swap), so a concurrent update cannot be lost.
// A new total outside the integer range is refused the same way.
func (db *DB) ReplaceScore(ctx context.Context, playerID, gameID string, oldValue, newValue int, playedAt time.Time) (int, bool, error) {
	doc, err := json.Marshal(model.Score{GameID: gameID, Value: newValue, PlayedAt: playedAt})
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: encoding score: %w", err)
	}

	var total int
	err = db.conn.QueryRowContext(ctx,
		`UPDATE players
		 SET scores = json_set(scores,
		                '$[' || (SELECT key FROM json_each(players.scores)
		                         WHERE json_extract(value, '$.gameId') = ?1
		                         ORDER BY key LIMIT 1) || ']',
		                json(?2)),
		     total_score = total_score - ?3 + ?4
		 WHERE id = ?5
		   AND typeof(total_score - ?3 + ?4) = 'integer'
		   AND EXISTS (
		         SELECT 1 FROM json_each(players.scores)
		         WHERE json_extract(value, '$.gameId') = ?1
		           AND json_extract(value, '$.score') = ?3)
		 RETURNING total_score`,
		gameID, string(doc), oldValue, newValue, playerID,
	).Scan(&total)
	if err == nil {
		return total, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("sqlite: replacing score for player %s: %w", playerID, err)
	}

	var fits, holdsOld bool
	err = db.conn.QueryRowContext(ctx,
		`SELECT typeof(total_score - ?1 + ?2) = 'integer',
		        EXISTS (SELECT 1 FROM json_each(players.scores)
		                WHERE json_extract(value, '$.gameId') = ?3
		                  AND json_extract(value, '$.score') = ?1)
		 FROM players WHERE id = ?4`,
		oldValue, newValue, gameID, playerID,
	).Scan(&fits, &holdsOld)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlite: checking score for player %s: %w", playerID, err)
	}
	if holdsOld && !fits {
		return 0, false, errTotalOverflow
	}
	return 0, false, nil
}
