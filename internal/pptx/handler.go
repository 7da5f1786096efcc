// Package pptx translates PowerPoint files by rewriting the DrawingML text
// inside the OOXML package directly. Working on the raw parts keeps every
// shape, layout and relationship the source had.
package pptx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"doctrans/internal/files"
	"doctrans/internal/logger"
	"doctrans/internal/registry"
	"doctrans/internal/task"
)

// parallelSlideLimit bounds concurrent slide translation in parallel mode.
const parallelSlideLimit = 8

func init() {
	registry.Register("pptx", func() registry.FormatHandler { return New() })
}

// Handler is the pptx format handler. Zero-value construction via New; all
// per-job state lives on the stack of TranslateStream.
type Handler struct{}

func New() *Handler { return &Handler{} }

// slideUnit groups a slide part with the chart and notes parts reachable
// from its relationships. One unit is the fault boundary: a failing unit is
// recorded on the task and skipped, the job continues.
type slideUnit struct {
	index  int
	slide  string
	charts []string
	notes  []string
}

// TranslateStream runs the translation, emitting a snapshot after every
// slide and a terminal snapshot last. The channel closes when the job is
// done; the caller owns persisting the snapshots.
func (h *Handler) TranslateStream(ctx context.Context, t *task.Task, opts registry.Options) <-chan task.Snapshot {
	ch := make(chan task.Snapshot, 1)
	start := time.Now()
	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic during pptx translation", "task_id", t.TaskID, "panic", r)
				t.MarkError(fmt.Sprintf("internal error: %v", r), time.Since(start))
				ch <- t.Snapshot()
			}
		}()
		h.run(ctx, t, opts, ch, start)
	}()
	return ch
}

func (h *Handler) run(ctx context.Context, t *task.Task, opts registry.Options, ch chan<- task.Snapshot, start time.Time) {
	emit := func() { ch <- t.Snapshot() }

	logger.Info("Starting pptx translation",
		"task_id", t.TaskID, "input", t.InputFilePath, "parallel", opts.Parallel)

	a, err := openArchive(t.InputFilePath)
	if err != nil {
		t.MarkError(err.Error(), time.Since(start))
		emit()
		return
	}

	units, err := h.targetUnits(a, opts.TargetPages)
	if err != nil {
		t.MarkError(err.Error(), time.Since(start))
		emit()
		return
	}

	font := opts.TargetLanguage.DefaultFont()
	if opts.Parallel {
		h.runParallel(ctx, t, a, units, font, opts, emit)
	} else {
		h.runSequential(ctx, t, a, units, font, opts, emit)
	}

	outputPath, err := h.translatedOutputPath(ctx, t.InputFilePath, opts)
	if err != nil {
		t.MarkError(err.Error(), time.Since(start))
		emit()
		return
	}
	if err := a.save(outputPath); err != nil {
		t.MarkError(err.Error(), time.Since(start))
		emit()
		return
	}

	t.MarkCompleted(outputPath, time.Since(start))
	logger.Info("Finished pptx translation",
		"task_id", t.TaskID, "output", outputPath, "duration", t.Duration)
	emit()
}

// targetUnits builds the ordered unit list, restricted to the zero-based
// pages in targetPages when given.
func (h *Handler) targetUnits(a *archive, targetPages []int) ([]slideUnit, error) {
	slides := a.slides()
	if len(slides) == 0 {
		return nil, fmt.Errorf("pptx has no slides")
	}

	wanted := func(i int) bool { return true }
	if targetPages != nil {
		set := make(map[int]bool, len(targetPages))
		for _, p := range targetPages {
			set[p] = true
		}
		wanted = func(i int) bool { return set[i] }
	}

	var units []slideUnit
	for i, slide := range slides {
		if !wanted(i) {
			continue
		}
		charts, err := a.relatedParts(slide, "/chart")
		if err != nil {
			return nil, err
		}
		notes, err := a.relatedParts(slide, "/notesSlide")
		if err != nil {
			return nil, err
		}
		units = append(units, slideUnit{index: i, slide: slide, charts: charts, notes: notes})
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("target_pages selects no slides")
	}
	return units, nil
}

func (h *Handler) runSequential(ctx context.Context, t *task.Task, a *archive, units []slideUnit, font string, opts registry.Options, emit func()) {
	translate := func(text string) (string, error) {
		return opts.Translator.Translate(ctx, text)
	}
	for done, u := range units {
		if err := h.transformUnit(a, u, font, true, opts.TranslatePictures, translate); err != nil {
			logger.Error("Slide translation failed",
				"task_id", t.TaskID, "slide", u.slide, "error", err)
			t.RecordError(fmt.Sprintf("slide %d: %s", u.index+1, err))
		}
		t.AdvanceProgress(float64(done+1) / float64(len(units)))
		emit()
	}
}

// runParallel extracts every unit's texts, translates the units concurrently,
// then replaces in the original order. Extract and replace share one walker,
// so the text order of the two passes matches by construction.
func (h *Handler) runParallel(ctx context.Context, t *task.Task, a *archive, units []slideUnit, font string, opts registry.Options, emit func()) {
	extracted := make([][]string, len(units))
	for i, u := range units {
		texts := []string{}
		collect := func(text string) (string, error) {
			texts = append(texts, text)
			return text, nil
		}
		if err := h.transformUnit(a, u, font, false, opts.TranslatePictures, collect); err != nil {
			t.RecordError(fmt.Sprintf("slide %d: %s", u.index+1, err))
			extracted[i] = nil
			continue
		}
		extracted[i] = texts
	}

	translated := make([][]string, len(units))
	failed := make([]error, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelSlideLimit)
	for i := range units {
		if extracted[i] == nil {
			continue
		}
		g.Go(func() error {
			out := make([]string, len(extracted[i]))
			for j, text := range extracted[i] {
				res, err := opts.Translator.Translate(gctx, text)
				if err != nil {
					failed[i] = err
					return nil
				}
				out[j] = res
			}
			translated[i] = out
			return nil
		})
	}
	// Goroutines only report through their slots, Wait cannot fail.
	_ = g.Wait()

	for done, u := range units {
		switch {
		case failed[done] != nil:
			logger.Error("Slide translation failed",
				"task_id", t.TaskID, "slide", u.slide, "error", failed[done])
			t.RecordError(fmt.Sprintf("slide %d: %s", u.index+1, failed[done]))
		case translated[done] != nil:
			queue := translated[done]
			replace := func(string) (string, error) {
				if len(queue) == 0 {
					return "", fmt.Errorf("replacement text exhausted")
				}
				next := queue[0]
				queue = queue[1:]
				return next, nil
			}
			if err := h.transformUnit(a, u, font, true, opts.TranslatePictures, replace); err != nil {
				t.RecordError(fmt.Sprintf("slide %d: %s", u.index+1, err))
			}
		}
		t.AdvanceProgress(float64(done+1) / float64(len(units)))
		emit()
	}
}

// transformUnit walks one unit in a fixed order: picture alt texts, slide
// paragraphs, chart titles, then notes. Both walk modes follow the same
// order.
func (h *Handler) transformUnit(a *archive, u slideUnit, font string, mutate, pictures bool, tf transformFunc) error {
	data, ok := a.part(u.slide)
	if !ok {
		return fmt.Errorf("missing slide part %s", u.slide)
	}

	if pictures {
		out, err := walkPictureAlts(data, mutate, tf)
		if err != nil {
			return err
		}
		data = out
	}

	out, err := walkParagraphs(data, font, mutate, tf)
	if err != nil {
		return err
	}
	data = out

	if mutate {
		data = rewriteBodyPr(data)
		a.setPart(u.slide, data)
	}

	for _, chart := range u.charts {
		chartData, ok := a.part(chart)
		if !ok {
			continue
		}
		out, err := walkChartTitle(chartData, font, mutate, tf)
		if err != nil {
			return err
		}
		if mutate {
			a.setPart(chart, out)
		}
	}

	for _, notes := range u.notes {
		notesData, ok := a.part(notes)
		if !ok {
			continue
		}
		out, err := walkParagraphs(notesData, font, mutate, tf)
		if err != nil {
			return err
		}
		if mutate {
			a.setPart(notes, out)
		}
	}
	return nil
}

// translatedOutputPath translates the filename stem and keeps the extension.
// Translation failures fall back to the original name rather than failing
// the whole job at the finish line.
func (h *Handler) translatedOutputPath(ctx context.Context, inputPath string, opts registry.Options) (string, error) {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := base
	if translated, err := opts.Translator.Translate(ctx, stem); err != nil {
		logger.Warn("Filename translation failed, keeping original name", "name", base, "error", err)
	} else if s := files.SafeBaseName(translated); s != "" {
		name = s + ext
	}

	if err := files.EnsureDir(opts.OutputDir); err != nil {
		return "", err
	}
	outputPath, _, err := files.SafePath(filepath.Join(opts.OutputDir, name))
	return outputPath, err
}
