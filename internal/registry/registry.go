// Package registry maps file extensions to format handlers. Handlers register
// themselves from init, the way database/sql drivers do, so importing a
// format package is what enables it.
package registry

import (
	"context"
	"strings"
	"sync"

	"doctrans/internal/apperrors"
	"doctrans/internal/language"
	"doctrans/internal/task"
)

// Translator is the text translation capability handlers call per text unit.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Options carries everything a format handler needs for one job.
type Options struct {
	Translator     Translator
	TargetLanguage language.Language
	// OutputDir receives the translated file.
	OutputDir string
	// TargetPages restricts translation to these zero-based pages.
	// nil means all pages.
	TargetPages []int
	// TranslatePictures also translates picture alt text.
	TranslatePictures bool
	// Parallel switches to the extract/translate/replace pipeline with
	// bounded concurrency.
	Parallel bool
}

// FormatHandler executes one translation job, streaming task snapshots as it
// progresses. The channel closes after the terminal snapshot. The handler is
// the single writer of the task; consumers only read snapshots.
type FormatHandler interface {
	TranslateStream(ctx context.Context, t *task.Task, opts Options) <-chan task.Snapshot
}

var (
	mu        sync.RWMutex
	factories = map[string]func() FormatHandler{}
)

// Register installs a handler factory for an extension. Extensions are
// lowercase without the leading dot. Later registrations win.
func Register(ext string, factory func() FormatHandler) {
	mu.Lock()
	defer mu.Unlock()
	factories[normalize(ext)] = factory
}

// HandlerFor returns a fresh handler for the extension, or an
// unsupported_format error.
func HandlerFor(ext string) (FormatHandler, error) {
	mu.RLock()
	factory, ok := factories[normalize(ext)]
	mu.RUnlock()
	if !ok {
		return nil, apperrors.UnsupportedFormat(ext)
	}
	return factory(), nil
}

// Supported reports whether the extension has a registered handler.
func Supported(ext string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[normalize(ext)]
	return ok
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
