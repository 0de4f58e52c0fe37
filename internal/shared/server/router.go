package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/audit"
	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/ingestion"
	"bidsflow-backend/internal/shared/config"
	"bidsflow-backend/internal/shared/metrics"
	"bidsflow-backend/internal/shared/server/middleware"
	"bidsflow-backend/internal/shared/server/respond"
	"bidsflow-backend/internal/uploads"
)

const (
	rateGroupIngest  = "INGEST"
	rateGroupPolling = "POLLING"
)

// RouterDeps holds the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config           config.Config
	BidHandler       *bids.Handler
	IngestionHandler *ingestion.Handler
	AuditHandler     *audit.Handler
	UploadsHandler   *uploads.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroupFor,
			Rules:    rateRules(deps.Config),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)
	if deps.BidHandler != nil {
		deps.BidHandler.RegisterRoutes(api)
	}
	if deps.IngestionHandler != nil {
		deps.IngestionHandler.RegisterRoutes(api)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.RegisterRoutes(api)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(api)
	}

	return r
}

func rateRules(cfg config.Config) map[string]middleware.RateLimitRule {
	perMin := cfg.IngestRatePerMin
	if perMin <= 0 {
		perMin = 30
	}
	burst := cfg.IngestBurst
	if burst <= 0 {
		burst = 10
	}
	return map[string]middleware.RateLimitRule{
		rateGroupIngest:  {Rate: perMin / 60, Burst: burst},
		rateGroupPolling: {Rate: 5, Burst: 20},
	}
}

// rateGroupFor limits uploads, which trigger collaborator calls, and job
// polling. Everything else falls into the unlimited default group.
func rateGroupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/bids/:id/documents", "/api/v1/bids/:id/archives":
		return rateGroupIngest
	case "/api/v1/bids/:id/ingestion-jobs":
		if c.Request.Method == http.MethodPost {
			return rateGroupIngest
		}
		return rateGroupPolling
	case "/api/v1/ingestion-jobs/:jobId":
		return rateGroupPolling
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
