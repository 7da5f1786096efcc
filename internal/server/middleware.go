package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doctrans/internal/apperrors"
	"doctrans/internal/logger"
)

const userKey = "user"

// requireUser extracts the authenticated principal from X-User-Email. JWT
// validation happens at the gateway; by the time a request reaches this
// service the header is trusted.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("X-User-Email")
		if user == "" {
			c.AbortWithStatusJSON(401, gin.H{"detail": "Not authenticated"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.Info("Request handled",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// respondError maps an error to the HTTP envelope {"detail": msg}.
func respondError(c *gin.Context, err error) {
	status := 500
	switch kind, _ := apperrors.KindOf(err); kind {
	case apperrors.KindNotFound:
		status = 404
	case apperrors.KindBadRequest, apperrors.KindUnsupportedFormat:
		status = 400
	}
	if status == 500 {
		logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": apperrors.PublicMessage(err)})
}

func respondDetail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}
