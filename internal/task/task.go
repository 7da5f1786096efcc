// Package task holds the mutable state record of one translation job.
// A task has exactly one writer (the job executing it); everyone else
// observes JSON snapshots through the status cache.
package task

import (
	"fmt"
	"time"
)

// Status of a translation task. PROCESSING is the only non-terminal state.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Task is the mutable state of one in-flight translation job. The JSON shape
// is the wire snapshot served by the status endpoints and stored in the cache.
type Task struct {
	TaskID         string  `json:"task_id"`
	TaskName       string  `json:"task_name"`
	InputFilePath  string  `json:"input_file_path"`
	OutputFilePath string  `json:"output_file_path,omitempty"`
	Status         Status  `json:"status"`
	Progress       float64 `json:"progress"`
	Duration       float64 `json:"duration,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of a task.
type Snapshot = Task

// NewID builds a task id from the submission time and the original filename.
// The filename must already be sanitised (see files.SafeBaseName).
func NewID(now time.Time, filename string) string {
	return fmt.Sprintf("%d_%s", now.Unix(), filename)
}

// New creates a task in the initial PROCESSING state.
func New(id, name, inputPath string) *Task {
	return &Task{
		TaskID:        id,
		TaskName:      name,
		InputFilePath: inputPath,
		Status:        StatusProcessing,
		Progress:      0,
	}
}

// AdvanceProgress raises progress to p, clamped to [0,1]. Progress never
// decreases across the life of a task.
func (t *Task) AdvanceProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if p > t.Progress {
		t.Progress = p
	}
}

// RecordError notes a non-fatal failure (e.g. a single slide) without
// terminating the task.
func (t *Task) RecordError(msg string) {
	if msg == "" {
		return
	}
	if t.Error == "" {
		t.Error = msg
		return
	}
	t.Error = t.Error + "; " + msg
}

// MarkCompleted transitions to COMPLETED. Completed tasks always report
// full progress and an output path.
func (t *Task) MarkCompleted(outputPath string, duration time.Duration) {
	t.Status = StatusCompleted
	t.OutputFilePath = outputPath
	t.Progress = 1.0
	t.Duration = duration.Seconds()
}

// MarkError transitions to ERROR with the given message.
func (t *Task) MarkError(msg string, duration time.Duration) {
	t.Status = StatusError
	t.RecordError(msg)
	if t.Error == "" {
		t.Error = "unknown error"
	}
	t.Duration = duration.Seconds()
}

// Snapshot returns a copy safe to hand to other goroutines.
func (t *Task) Snapshot() Snapshot {
	return *t
}
