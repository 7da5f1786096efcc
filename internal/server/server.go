// Package server exposes the translation HTTP API.
package server

import (
	"github.com/gin-gonic/gin"

	"doctrans/internal/history"
	"doctrans/internal/jobs"
	"doctrans/internal/llm"
	"doctrans/internal/statuscache"
)

// Server wires the HTTP surface to the cache, history store and LLM client.
type Server struct {
	cache         statuscache.Cache
	history       *history.Store
	runner        *jobs.Runner
	llm           llm.Client
	originalDir   string
	translatedDir string
}

func New(cache statuscache.Cache, store *history.Store, client llm.Client, originalDir, translatedDir string) *Server {
	return &Server{
		cache:         cache,
		history:       store,
		runner:        jobs.NewRunner(cache),
		llm:           client,
		originalDir:   originalDir,
		translatedDir: translatedDir,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	t := r.Group("/translation", requireUser())
	{
		t.POST("/text", s.translateText)
		t.POST("/file", s.submitFile)
		t.GET("/status", s.taskStatus)
		t.GET("/status/all", s.allTaskStatus)
		t.GET("/download", s.download)
		t.POST("/file/history/create", s.createHistory)
		t.GET("/file/history", s.listHistory)
	}
	return r
}
