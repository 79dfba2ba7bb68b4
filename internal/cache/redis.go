// Package cache holds the optional Redis copy of published leaderboard snapshots.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mewayz/progression/internal/model"
)

// DefaultTTL keeps a published snapshot readable across a few missed cycles
const DefaultTTL = 24 * time.Hour

// RedisRankingCache stores each snapshot as a sorted set of user IDs by rank,
// a hash of encoded entries and a count marker. A missing marker is a cache miss.
type RedisRankingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRankingCache creates a ranking cache; prefix namespaces every key
func NewRedisRankingCache(client *redis.Client, prefix string, ttl time.Duration) *RedisRankingCache {
	if prefix == "" {
		prefix = "progression"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRankingCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisRankingCache) ranksKey(leaderboardID string) string {
	return fmt.Sprintf("%s:lb:%s:ranks", c.prefix, leaderboardID)
}

func (c *RedisRankingCache) entriesKey(leaderboardID string) string {
	return fmt.Sprintf("%s:lb:%s:entries", c.prefix, leaderboardID)
}

func (c *RedisRankingCache) countKey(leaderboardID string) string {
	return fmt.Sprintf("%s:lb:%s:count", c.prefix, leaderboardID)
}

// Publish replaces the cached snapshot. The new keys are staged under temporary
// names and renamed over the live ones inside one MULTI/EXEC.
func (c *RedisRankingCache) Publish(ctx context.Context, leaderboardID string, entries []*model.LeaderboardEntry) error {
	ranks, hash := c.ranksKey(leaderboardID), c.entriesKey(leaderboardID)
	stagedRanks, stagedHash := ranks+":staged", hash+":staged"

	members := make([]redis.Z, 0, len(entries))
	fields := make([]interface{}, 0, 2*len(entries))
	for _, e := range entries {
		encoded, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", e.UserID, err)
		}
		members = append(members, redis.Z{Score: float64(e.Rank), Member: e.UserID})
		fields = append(fields, e.UserID, encoded)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, stagedRanks, stagedHash)
		if len(entries) == 0 {
			pipe.Del(ctx, ranks, hash)
		} else {
			pipe.ZAdd(ctx, stagedRanks, members...)
			pipe.HSet(ctx, stagedHash, fields...)
			pipe.Rename(ctx, stagedRanks, ranks)
			pipe.Rename(ctx, stagedHash, hash)
			pipe.Expire(ctx, ranks, c.ttl)
			pipe.Expire(ctx, hash, c.ttl)
		}
		pipe.Set(ctx, c.countKey(leaderboardID), len(entries), c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", leaderboardID, err)
	}
	return nil
}

// Count returns the cached snapshot size
func (c *RedisRankingCache) Count(ctx context.Context, leaderboardID string) (int, bool, error) {
	raw, err := c.client.Get(ctx, c.countKey(leaderboardID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt count for %s: %w", leaderboardID, err)
	}
	return n, true, nil
}

// Top returns the first limit entries by rank
func (c *RedisRankingCache) Top(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, bool, error) {
	n, hit, err := c.Count(ctx, leaderboardID)
	if err != nil || !hit {
		return nil, false, err
	}
	if n == 0 {
		return []*model.LeaderboardEntry{}, true, nil
	}

	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	userIDs, err := c.client.ZRange(ctx, c.ranksKey(leaderboardID), 0, stop).Result()
	if err != nil {
		return nil, false, err
	}
	if len(userIDs) == 0 {
		// count marker outlived the snapshot keys
		return nil, false, nil
	}

	values, err := c.client.HMGet(ctx, c.entriesKey(leaderboardID), userIDs...).Result()
	if err != nil {
		return nil, false, err
	}

	entries := make([]*model.LeaderboardEntry, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false, fmt.Errorf("missing cached entry %s/%s", leaderboardID, userIDs[i])
		}
		e, err := decodeEntry(s)
		if err != nil {
			return nil, false, err
		}
		entries = append(entries, e)
	}
	return entries, true, nil
}

// Entry returns one user's cached entry; a hit with a nil entry means the user is unranked
func (c *RedisRankingCache) Entry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, bool, error) {
	_, hit, err := c.Count(ctx, leaderboardID)
	if err != nil || !hit {
		return nil, false, err
	}

	raw, err := c.client.HGet(ctx, c.entriesKey(leaderboardID), userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// Invalidate drops the cached snapshot so reads fall back to the store
func (c *RedisRankingCache) Invalidate(ctx context.Context, leaderboardID string) error {
	return c.client.Del(ctx, c.countKey(leaderboardID), c.ranksKey(leaderboardID), c.entriesKey(leaderboardID)).Err()
}

func decodeEntry(raw string) (*model.LeaderboardEntry, error) {
	var e model.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("decode cached entry: %w", err)
	}
	return &e, nil
}
