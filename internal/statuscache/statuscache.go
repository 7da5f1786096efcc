// Package statuscache stores task snapshots per user so that status queries
// and recovery sweeps survive client disconnects. The canonical backend is a
// Redis hash per user; a process-local map backend exists for tests and for
// running without Redis.
package statuscache

import (
	"context"

	"doctrans/internal/task"
)

// Cache is the per-user task snapshot store.
//
// Entries live under the submitting user's namespace. A missing entry is
// reported through the bool returns, not through error; error is reserved
// for backend failures.
type Cache interface {
	// Set writes or overwrites the snapshot for its task id.
	Set(ctx context.Context, user string, snap task.Snapshot) error
	// Get fetches one snapshot. ok is false when the id is unknown.
	Get(ctx context.Context, user, taskID string) (snap task.Snapshot, ok bool, err error)
	// GetAll fetches every snapshot for the user, unordered.
	GetAll(ctx context.Context, user string) ([]task.Snapshot, error)
	// Exists reports whether the task id is present for the user.
	Exists(ctx context.Context, user, taskID string) (bool, error)
	// Delete removes one entry. Deleting an absent id is not an error.
	Delete(ctx context.Context, user, taskID string) error
}
