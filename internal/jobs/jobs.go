// Package jobs drives format handlers to completion: it is the single
// consumer of a handler's snapshot stream and the component that makes
// snapshots externally visible through the status cache.
package jobs

import (
	"context"
	"os"
	"time"

	"doctrans/internal/logger"
	"doctrans/internal/registry"
	"doctrans/internal/statuscache"
	"doctrans/internal/task"
)

// SnapshotSink receives every snapshot after it has been persisted.
// Streaming responses hang an SSE writer here.
type SnapshotSink func(task.Snapshot)

// Runner executes translation jobs against a status cache.
type Runner struct {
	cache statuscache.Cache
}

func NewRunner(cache statuscache.Cache) *Runner {
	return &Runner{cache: cache}
}

// Run drives one job until its terminal snapshot and returns it. Every
// snapshot is persisted before the sink sees it; a cache failure is logged
// and the job keeps running. The input file is removed once the job is
// terminal.
//
// The context is used as given: callers that must survive client
// disconnects pass a detached context.
func (r *Runner) Run(ctx context.Context, user string, t *task.Task, handler registry.FormatHandler, opts registry.Options, sink SnapshotSink) task.Snapshot {
	start := time.Now()
	var last task.Snapshot

	for snap := range handler.TranslateStream(ctx, t, opts) {
		r.persist(ctx, user, snap)
		if sink != nil {
			sink(snap)
		}
		last = snap
	}

	// A handler that closes its stream without a terminal snapshot has
	// abandoned the task. Surface that as an error instead of leaving the
	// task PROCESSING forever.
	if !last.Status.Terminal() {
		t.MarkError("translation ended unexpectedly", time.Since(start))
		last = t.Snapshot()
		r.persist(ctx, user, last)
		if sink != nil {
			sink(last)
		}
	}

	if err := os.Remove(last.InputFilePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove input file", "task_id", last.TaskID, "path", last.InputFilePath, "error", err)
	}

	logger.Info("Job finished",
		"task_id", last.TaskID, "user", user, "status", last.Status, "duration", last.Duration)
	return last
}

func (r *Runner) persist(ctx context.Context, user string, snap task.Snapshot) {
	if err := r.cache.Set(ctx, user, snap); err != nil {
		logger.Error("Failed to persist task snapshot", "task_id", snap.TaskID, "error", err)
	}
}
