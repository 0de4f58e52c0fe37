package bids

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/shared/server/middleware"
	"bidsflow-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches bid routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bids", h.create)
	rg.GET("/bids", h.list)
	rg.GET("/bids/:id", h.get)
	rg.PATCH("/bids/:id", h.update)
	rg.DELETE("/bids/:id", h.delete)
	rg.POST("/bids/:id/advance", h.advance)
	rg.GET("/bids/:id/progress", h.progress)
	rg.POST("/bids/:id/status", h.setStatus)
	rg.PATCH("/bids/:id/checklist-items/:itemId", h.setChecklistItem)
	rg.PUT("/bids/:id/approval", h.setApproval)
	rg.PUT("/bids/:id/integrity-weights", h.setWeights)
	rg.DELETE("/bids/:id/documents/:docId", h.removeDocument)
}

func (h *Handler) create(c *gin.Context) {
	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	bid, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.toInput())
	if err != nil {
		writeError(c, err, "failed to create bid")
		return
	}
	c.Set("bidId", bid.ID)
	respond.JSON(c, http.StatusCreated, bid)
}

func (h *Handler) list(c *gin.Context) {
	filter := ListFilter{Limit: 50}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		status, err := ParseStatus(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", nil)
			return
		}
		filter.Status = status
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filter.Offset = parsed
		}
	}

	bids, err := h.Svc.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list bids", nil)
		return
	}
	now := time.Now().UTC()
	if h.Svc.Now != nil {
		now = h.Svc.Now().UTC()
	}
	resp := make([]bidSummary, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, bidSummary{
			ID:             b.ID,
			ProjectName:    b.ProjectName,
			CustomerName:   b.CustomerName,
			Status:         b.Status,
			CurrentStage:   b.CurrentStage,
			Deadline:       b.Deadline,
			EstimatedValue: b.EstimatedValue,
			Integrity:      Score(b),
			Priority:       PriorityOf(b, now),
		})
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	bid, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch bid")
		return
	}
	respond.OK(c, bid)
}

func (h *Handler) update(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	bid, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.toInput())
	if err != nil {
		writeError(c, err, "failed to update bid")
		return
	}
	respond.OK(c, bid)
}

func (h *Handler) delete(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete bid")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) advance(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	bid, event, err := h.Svc.Advance(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to advance bid")
		return
	}
	c.Set("statusTransition", string(event.From)+"->"+string(event.To))
	respond.OK(c, gin.H{"bid": bid, "transition": event})
}

func (h *Handler) progress(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	_, progress, err := h.Svc.View(c.Request.Context(), c.Param("id"), c.Query("viewing"))
	if err != nil {
		writeError(c, err, "failed to compute progress")
		return
	}
	respond.OK(c, progress)
}

func (h *Handler) setStatus(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", nil)
		return
	}
	bid, err := h.Svc.SetStatus(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), StatusChange{
		Status:              status,
		NoBidReasonCategory: req.NoBidReasonCategory,
		NoBidComments:       req.NoBidComments,
		CompetitionPricing:  req.CompetitionPricing,
		KeyLearnings:        req.KeyLearnings,
	})
	if err != nil {
		writeError(c, err, "failed to update status")
		return
	}
	respond.OK(c, bid)
}

func (h *Handler) setChecklistItem(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	var req checklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	bid, err := h.Svc.SetChecklistItemStatus(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), c.Param("itemId"), ChecklistStatus(req.Status))
	if err != nil {
		writeError(c, err, "failed to update checklist item")
		return
	}
	respond.OK(c, bid)
}

func (h *Handler) setApproval(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	bid, err := h.Svc.SetApproval(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err, "failed to update approval")
		return
	}
	respond.OK(c, bid)
}

func (h *Handler) setWeights(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	var req weightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	bid, err := h.Svc.SetIntegrityWeights(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Weights)
	if err != nil {
		writeError(c, err, "failed to update integrity weights")
		return
	}
	respond.OK(c, bid)
}

func (h *Handler) removeDocument(c *gin.Context) {
	c.Set("bidId", c.Param("id"))
	c.Set("documentId", c.Param("docId"))
	bid, _, err := h.Svc.RemoveDocument(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), c.Param("docId"))
	if err != nil {
		writeError(c, err, "failed to remove document")
		return
	}
	respond.OK(c, bid)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "bid not found", nil)
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrDocumentNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrUnknownStage), errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
