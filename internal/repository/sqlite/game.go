package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/model"
	"github.com/sakif/arcade-leaderboard/internal/repository"
)

var _ repository.GameRepository = (*GameDB)(nil)

// GameDB is the games collection. It shares the connection pool of the DB it
// came from; players stay on DB itself.
type GameDB struct {
	conn *sql.DB
}

// Games returns the games collection backed by the same connection pool.
func (db *DB) Games() *GameDB {
	return &GameDB{conn: db.conn}
}

// Upsert writes the catalog in one transaction. Existing games keep their
// row but have every field overwritten; slice order becomes position.
func (g *GameDB) Upsert(ctx context.Context, games []model.Game) error {
	tx, err := g.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning catalog upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO games (id, position, data) VALUES (?, ?, json(?))
		 ON CONFLICT(id) DO UPDATE SET position = excluded.position, data = excluded.data`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing catalog upsert: %w", err)
	}
	defer stmt.Close()

	for i, game := range games {
		data, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("sqlite: encoding game %s: %w", game.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, game.ID, i, string(data)); err != nil {
			return fmt.Errorf("sqlite: upserting game %s: %w", game.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing catalog upsert: %w", err)
	}
	return nil
}

// Create appends a game at the end of the catalog. An existing id is a
// conflict, never an overwrite.
func (g *GameDB) Create(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("sqlite: encoding game %s: %w", game.ID, err)
	}

	result, err := g.conn.ExecContext(ctx,
		`INSERT INTO games (id, position, data)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM games), json(?))
		 ON CONFLICT(id) DO NOTHING`,
		game.ID, string(data),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating game %s: %w", game.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Conflict("game", game.ID)
	}
	return nil
}

// List returns the catalog in position order.
func (g *GameDB) List(ctx context.Context) ([]model.Game, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT data FROM games ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	games := []model.Game{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		var game model.Game
		if err := json.Unmarshal([]byte(data), &game); err != nil {
			return nil, fmt.Errorf("sqlite: decoding game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating games: %w", err)
	}

	return games, nil
}

// Count returns the number of games in the catalog.
func (g *GameDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := g.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting games: %w", err)
	}
	return n, nil
}
