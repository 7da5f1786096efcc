package statuscache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"doctrans/internal/apperrors"
	"doctrans/internal/task"
)

const keyPrefix = "file:translation:status"

// RedisCache stores snapshots in one Redis hash per user,
// field = task id, value = JSON snapshot.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an already-configured client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Ping verifies connectivity, for startup checks.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return apperrors.Cache(fmt.Errorf("redis ping: %w", err))
	}
	return nil
}

func userKey(user string) string {
	return keyPrefix + ":" + user
}

func (c *RedisCache) Set(ctx context.Context, user string, snap task.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperrors.Cache(fmt.Errorf("marshal snapshot %s: %w", snap.TaskID, err))
	}
	if err := c.rdb.HSet(ctx, userKey(user), snap.TaskID, data).Err(); err != nil {
		return apperrors.Cache(fmt.Errorf("hset %s: %w", snap.TaskID, err))
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, user, taskID string) (task.Snapshot, bool, error) {
	var snap task.Snapshot
	data, err := c.rdb.HGet(ctx, userKey(user), taskID).Bytes()
	if err == redis.Nil {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, apperrors.Cache(fmt.Errorf("hget %s: %w", taskID, err))
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, false, apperrors.Cache(fmt.Errorf("decode snapshot %s: %w", taskID, err))
	}
	return snap, true, nil
}

func (c *RedisCache) GetAll(ctx context.Context, user string) ([]task.Snapshot, error) {
	fields, err := c.rdb.HGetAll(ctx, userKey(user)).Result()
	if err != nil {
		return nil, apperrors.Cache(fmt.Errorf("hgetall: %w", err))
	}
	snaps := make([]task.Snapshot, 0, len(fields))
	for id, data := range fields {
		var snap task.Snapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return nil, apperrors.Cache(fmt.Errorf("decode snapshot %s: %w", id, err))
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (c *RedisCache) Exists(ctx context.Context, user, taskID string) (bool, error) {
	ok, err := c.rdb.HExists(ctx, userKey(user), taskID).Result()
	if err != nil {
		return false, apperrors.Cache(fmt.Errorf("hexists %s: %w", taskID, err))
	}
	return ok, nil
}

func (c *RedisCache) Delete(ctx context.Context, user, taskID string) error {
	if err := c.rdb.HDel(ctx, userKey(user), taskID).Err(); err != nil {
		return apperrors.Cache(fmt.Errorf("hdel %s: %w", taskID, err))
	}
	return nil
}
