package statuscache

import (
	"context"
	"sync"

	"doctrans/internal/task"
)

// MemoryCache is a process-local Cache. It backs tests and the
// cache-less development mode.
type MemoryCache struct {
	mu    sync.RWMutex
	users map[string]map[string]task.Snapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{users: make(map[string]map[string]task.Snapshot)}
}

func (c *MemoryCache) Set(_ context.Context, user string, snap task.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.users[user]
	if !ok {
		m = make(map[string]task.Snapshot)
		c.users[user] = m
	}
	m[snap.TaskID] = snap
	return nil
}

func (c *MemoryCache) Get(_ context.Context, user, taskID string) (task.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.users[user][taskID]
	return snap, ok, nil
}

func (c *MemoryCache) GetAll(_ context.Context, user string) ([]task.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.users[user]
	snaps := make([]task.Snapshot, 0, len(m))
	for _, snap := range m {
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (c *MemoryCache) Exists(_ context.Context, user, taskID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.users[user][taskID]
	return ok, nil
}

func (c *MemoryCache) Delete(_ context.Context, user, taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users[user], taskID)
	return nil
}
