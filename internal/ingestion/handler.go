package ingestion

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/shared/server/middleware"
	"bidsflow-backend/internal/shared/server/respond"
)

const (
	maxUploadSize  = 25 << 20
	maxArchiveSize = 100 << 20
)

// Handler wires HTTP handlers to the ingestion service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches ingestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bids/:id/documents", h.uploadDocument)
	rg.POST("/bids/:id/archives", h.uploadArchive)
	rg.POST("/bids/:id/ingestion-jobs", h.createFromKey)
	rg.GET("/bids/:id/ingestion-jobs", h.listByBid)
	rg.GET("/ingestion-jobs/:jobId", h.get)
}

func (h *Handler) uploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	in := SubmitInput{
		BidID:       c.Param("id"),
		Kind:        KindDocument,
		Category:    c.PostForm("category"),
		FileName:    fileHeader.Filename,
		MimeType:    fileHeader.Header.Get("Content-Type"),
		RequestedBy: middleware.UserIDFromContext(c),
	}
	job, err := h.Svc.Submit(WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c)), in, file)
	if err != nil {
		writeError(c, err, "failed to submit document")
		return
	}
	tagJob(c, job)
	respond.Accepted(c, gin.H{"jobId": job.ID, "status": job.Status})
}

// uploadArchive expands the archive before accepting it so an archive without
// eligible files is rejected up front.
func (h *Handler) uploadArchive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxArchiveSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	files, err := ExpandArchive(data)
	if err != nil {
		writeError(c, err, "failed to read archive")
		return
	}

	in := SubmitInput{
		BidID:       c.Param("id"),
		Kind:        KindArchive,
		Category:    c.PostForm("category"),
		FileName:    fileHeader.Filename,
		MimeType:    "application/zip",
		RequestedBy: middleware.UserIDFromContext(c),
	}
	job, err := h.Svc.Submit(WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c)), in, bytes.NewReader(data))
	if err != nil {
		writeError(c, err, "failed to submit archive")
		return
	}
	tagJob(c, job)
	respond.Accepted(c, gin.H{"jobId": job.ID, "status": job.Status, "files": len(files)})
}

type createFromKeyRequest struct {
	StorageKey  string `json:"storageKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
}

func (h *Handler) createFromKey(c *gin.Context) {
	var req createFromKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	in := SubmitInput{
		BidID:       c.Param("id"),
		Kind:        strings.TrimSpace(req.Kind),
		Category:    req.Category,
		FileName:    req.FileName,
		MimeType:    strings.TrimSpace(req.ContentType),
		RequestedBy: middleware.UserIDFromContext(c),
	}
	job, err := h.Svc.SubmitFromKey(WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c)), in, req.StorageKey, req.SizeBytes)
	if err != nil {
		writeError(c, err, "failed to submit upload")
		return
	}
	tagJob(c, job)
	respond.Accepted(c, gin.H{"jobId": job.ID, "status": job.Status})
}

func (h *Handler) listByBid(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}
	if _, err := h.Svc.Pipeline.Bids.Get(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to list ingestion jobs")
		return
	}
	jobs, err := h.Svc.ListByBid(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err, "failed to list ingestion jobs")
		return
	}
	respond.Items(c, jobs)
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		writeError(c, err, "failed to fetch ingestion job")
		return
	}
	tagJob(c, job)
	respond.OK(c, job)
}

// tagJob exposes the job to the request logger.
func tagJob(c *gin.Context, job Job) {
	c.Set("bidId", job.BidID)
	c.Set("jobId", job.ID)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNoEligibleFiles):
		respond.Error(c, http.StatusUnprocessableEntity, "no_eligible_files", "archive contains no eligible documents", nil)
	case errors.Is(err, ErrInvalidArchive):
		respond.Error(c, http.StatusUnprocessableEntity, "invalid_archive", "file is not a readable zip archive", nil)
	case errors.Is(err, ErrPayloadTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error(), nil)
	case errors.Is(err, bids.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "bid not found", nil)
	case errors.Is(err, ErrJobNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "ingestion job not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
