package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"doctrans/internal/files"
	"doctrans/internal/history"
	"doctrans/internal/language"
	"doctrans/internal/logger"
	"doctrans/internal/registry"
	"doctrans/internal/task"
	"doctrans/internal/translator"
)

// submitParams is the JSON carried in the multipart "params" field.
type submitParams struct {
	SourceLanguage language.Language `json:"source_language"`
	TargetLanguage language.Language `json:"target_language"`
	KeywordsMap    map[string]string `json:"keywords_map"`
	Kwargs         handlerKwargs     `json:"kwargs"`
	IsStream       bool              `json:"is_stream"`
}

type handlerKwargs struct {
	RunParallely      bool  `json:"run_parallely"`
	TargetPages       []int `json:"target_pages"`
	TranslatePictures bool  `json:"is_translate_picture"`
}

type textParams struct {
	Text           string            `json:"text"`
	SourceLanguage language.Language `json:"source_language"`
	TargetLanguage language.Language `json:"target_language"`
	KeywordsMap    map[string]string `json:"keywords_map"`
}

// submitFile accepts a multipart upload and either runs the job in the
// background (responding with the task id) or drives it in-request as an
// SSE stream of task snapshots.
func (s *Server) submitFile(c *gin.Context) {
	user := currentUser(c)

	var params submitParams
	if err := json.Unmarshal([]byte(c.PostForm("params")), &params); err != nil {
		respondDetail(c, 422, "invalid params: "+err.Error())
		return
	}
	if !params.SourceLanguage.Valid() || !params.TargetLanguage.Valid() {
		respondDetail(c, 422, "source_language and target_language are required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondDetail(c, 422, "file field is required")
		return
	}

	// Reject unsupported formats before any state is created.
	ext := filepath.Ext(fileHeader.Filename)
	handler, err := registry.HandlerFor(ext)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := files.SafeBaseName(fileHeader.Filename)
	if err := files.EnsureDir(s.originalDir); err != nil {
		respondError(c, err)
		return
	}
	inputPath, _, err := files.SafePath(filepath.Join(s.originalDir, filename))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.SaveUploadedFile(fileHeader, inputPath); err != nil {
		respondError(c, fmt.Errorf("save upload: %w", err))
		return
	}

	taskID := task.NewID(time.Now(), filename)
	taskName := fmt.Sprintf("%s➡︎%s", params.SourceLanguage, params.TargetLanguage)
	tk := task.New(taskID, taskName, inputPath)

	if err := s.cache.Set(c.Request.Context(), user, tk.Snapshot()); err != nil {
		respondError(c, err)
		return
	}
	logger.Info("Translation submitted",
		"task_id", taskID, "user", user, "stream", params.IsStream)

	opts := registry.Options{
		Translator:        translator.New(s.llm, params.SourceLanguage, params.TargetLanguage, params.KeywordsMap),
		TargetLanguage:    params.TargetLanguage,
		OutputDir:         s.translatedDir,
		TargetPages:       params.Kwargs.TargetPages,
		TranslatePictures: params.Kwargs.TranslatePictures,
		Parallel:          params.Kwargs.RunParallely,
	}

	// The job must survive the client going away in either mode.
	jobCtx := context.WithoutCancel(c.Request.Context())

	if !params.IsStream {
		go s.runner.Run(jobCtx, user, tk, handler, opts, nil)
		c.JSON(http.StatusOK, gin.H{"task_id": taskID})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	s.runner.Run(jobCtx, user, tk, handler, opts, func(snap task.Snapshot) {
		data, err := json.Marshal(snap)
		if err != nil {
			logger.Error("Failed to encode snapshot", "task_id", snap.TaskID, "error", err)
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		c.Writer.Flush()
	})
}

// translateText translates a single string without a file or a task.
func (s *Server) translateText(c *gin.Context) {
	var params textParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondDetail(c, 422, "invalid request body: "+err.Error())
		return
	}
	if !params.SourceLanguage.Valid() || !params.TargetLanguage.Valid() {
		respondDetail(c, 422, "source_language and target_language are required")
		return
	}

	tr := translator.New(s.llm, params.SourceLanguage, params.TargetLanguage, params.KeywordsMap)
	start := time.Now()
	translated, err := tr.Translate(c.Request.Context(), params.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"translated_text": translated,
		"duration":        time.Since(start).Seconds(),
	})
}

func (s *Server) taskStatus(c *gin.Context) {
	taskID := c.Query("task_id")
	snap, ok, err := s.cache.Get(c.Request.Context(), currentUser(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondDetail(c, 404, "Task not found")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) allTaskStatus(c *gin.Context) {
	snaps, err := s.cache.GetAll(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make(map[string]task.Snapshot, len(snaps))
	for _, snap := range snaps {
		out[snap.TaskID] = snap
	}
	c.JSON(http.StatusOK, out)
}

// download serves the translated file. The history row is authoritative;
// the cache entry covers tasks not yet promoted to history.
func (s *Server) download(c *gin.Context) {
	taskID := c.Query("task_id")

	path, name := "", ""
	if rec, ok, err := s.history.GetByTaskID(c.Request.Context(), taskID); err != nil {
		respondError(c, err)
		return
	} else if ok && rec.TranslatedFilePath != "" {
		path, name = rec.TranslatedFilePath, rec.TranslatedFileName
	} else if snap, ok, err := s.cache.Get(c.Request.Context(), currentUser(c), taskID); err != nil {
		respondError(c, err)
		return
	} else if ok && snap.OutputFilePath != "" {
		path, name = snap.OutputFilePath, filepath.Base(snap.OutputFilePath)
	}

	if path == "" {
		respondDetail(c, 404, "Translated file not found for task_id: "+taskID)
		return
	}
	if _, err := os.Stat(path); err != nil {
		respondDetail(c, 404, "Translated file not found for task_id: "+taskID)
		return
	}
	c.FileAttachment(path, name)
}

// createHistory promotes a cache snapshot into a durable history row and
// drops the cache entry once the task is terminal.
func (s *Server) createHistory(c *gin.Context) {
	user := currentUser(c)
	taskID := c.Query("task_id")

	snap, ok, err := s.cache.Get(c.Request.Context(), user, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondDetail(c, 404, "Translation status not found for task_id: "+taskID)
		return
	}

	rec := history.Record{
		UserID:         user,
		TaskID:         snap.TaskID,
		TaskName:       snap.TaskName,
		SourceFileName: filepath.Base(snap.InputFilePath),
		SourceFilePath: snap.InputFilePath,
		Status:         string(snap.Status),
		Duration:       snap.Duration,
		Error:          snap.Error,
	}
	if snap.OutputFilePath != "" {
		rec.TranslatedFileName = filepath.Base(snap.OutputFilePath)
		rec.TranslatedFilePath = snap.OutputFilePath
	}

	id, err := s.history.Insert(c.Request.Context(), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	rec.ID = id

	if snap.Status.Terminal() {
		if err := s.cache.Delete(c.Request.Context(), user, taskID); err != nil {
			logger.Warn("Failed to drop promoted cache entry", "task_id", taskID, "error", err)
		}
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listHistory(c *gin.Context) {
	recs, err := s.history.GetByUserID(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
