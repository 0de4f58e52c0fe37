package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/shared/telemetry"
)

// Logging writes one structured line per request once the handler chain is
// done. Handlers enrich it by setting bidId, jobId and statusTransition on the
// context. Server errors log at error level, client errors at warn.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             c.FullPath(),
			"status":            status,
			"status_transition": c.GetString("statusTransition"),
			"duration_ms":       float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes":             c.Writer.Size(),
			"bid_id":            bidIDOf(c),
			"job_id":            c.GetString("jobId"),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if id, ok := IdentityFromContext(c); ok {
			fields["user_id"] = id.UserID
			fields["is_guest"] = id.Guest
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}

// bidIDOf prefers the id a handler recorded, then the :id route parameter.
func bidIDOf(c *gin.Context) string {
	if id := c.GetString("bidId"); id != "" {
		return id
	}
	return c.Param("id")
}
