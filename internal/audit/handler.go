package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/shared/server/respond"
)

const defaultActivityLimit = 50

// Handler serves the activity feed of a bid.
type Handler struct {
	Reader Reader
}

// NewHandler constructs a Handler.
func NewHandler(reader Reader) *Handler {
	return &Handler{Reader: reader}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bids/:id/activity", h.list)
}

func (h *Handler) list(c *gin.Context) {
	bidID := c.Param("id")
	c.Set("bidId", bidID)

	limit := defaultActivityLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	events, err := h.Reader.ListByBid(c.Request.Context(), bidID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list activity", nil)
		return
	}
	respond.OK(c, gin.H{"events": events})
}
