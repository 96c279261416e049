// Package redis implements the leaderboard cache on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/arcade-leaderboard/internal/cache"
	"github.com/sakif/arcade-leaderboard/internal/model"
)

// Cache is a Redis-backed leaderboard cache
type Cache struct {
	client *redis.Client
	cfg    Config
}

// Ensure Cache implements the interface
var _ cache.Leaderboard = (*Cache)(nil)

// New connects to Redis and verifies the connection
func New(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parsing url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Cache{client: client, cfg: cfg}, nil
}

// NewWithClient creates a cache around an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Cache {
	return &Cache{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks Redis is reachable. Used by the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Get(ctx context.Context) ([]model.Player, int64, bool, error) {
	var genCmd, topCmd *redis.StringCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		genCmd = pipe.Get(ctx, generationKey())
		topCmd = pipe.Get(ctx, leaderboardKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("redis: reading leaderboard: %w", err)
	}

	gen, err := readGeneration(genCmd)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := topCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, false, nil
		}
		return nil, 0, false, fmt.Errorf("redis: reading leaderboard: %w", err)
	}

	var players []model.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, 0, false, fmt.Errorf("redis: decoding leaderboard: %w", err)
	}
	return players, gen, true, nil
}

// errStaleFill aborts a Set whose generation was overtaken.
var errStaleFill = errors.New("redis: leaderboard generation moved")

func (c *Cache) Set(ctx context.Context, gen int64, players []model.Player) error {
	data, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("redis: encoding leaderboard: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(ctx, generationKey()))
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, leaderboardKey(), data, c.cfg.LeaderboardTTL)
			return nil
		})
		return err
	}, generationKey())

	// An Invalidate got in first. Its DEL already won, so skipping is correct.
	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis: writing leaderboard: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey())
		pipe.Del(ctx, leaderboardKey())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: invalidating leaderboard: %w", err)
	}
	return nil
}

// readGeneration treats a missing generation key as 0.
func readGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis: reading leaderboard generation: %w", err)
	}
	return gen, nil
}
