package uploads

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/shared/server/middleware"
	"bidsflow-backend/internal/shared/server/respond"
	"bidsflow-backend/internal/shared/telemetry"
	"bidsflow-backend/internal/shared/util"
)

const (
	maxUploadBytes = 100 << 20
	presignExpires = 15 * time.Minute
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf":              {},
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
}

// BidLookup reports whether a bid exists.
type BidLookup interface {
	Get(ctx context.Context, bidID string) (bids.Bid, error)
}

// Handler issues presigned PUT URLs for bid documents. The returned storage
// key is relative to the object store prefix, so it can be passed straight to
// the ingestion-jobs endpoint once the upload finishes.
type Handler struct {
	Presign *s3.PresignClient
	Bucket  string
	Prefix  string
	Bids    BidLookup
}

// NewHandler constructs a Handler. A nil presign client disables the route.
func NewHandler(presign *s3.PresignClient, bucket, prefix string, lookup BidLookup) *Handler {
	return &Handler{Presign: presign, Bucket: bucket, Prefix: strings.Trim(prefix, "/"), Bids: lookup}
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	StorageKey       string `json:"storageKey"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bids/:id/uploads/presign", h.presign)
}

func (h *Handler) presign(c *gin.Context) {
	if h.Presign == nil || h.Bucket == "" {
		respond.Error(c, http.StatusServiceUnavailable, "uploads_disabled", "direct uploads are not configured", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if msg := validate(&req); msg != "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", msg, nil)
		return
	}

	bidID := c.Param("id")
	if h.Bids != nil {
		if _, err := h.Bids.Get(c.Request.Context(), bidID); err != nil {
			if errors.Is(err, bids.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "not_found", "bid not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load bid", nil)
			return
		}
	}

	sanitized, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}

	storageKey := StorageKey(bidID, uuid.NewString(), sanitized)
	objectKey := storageKey
	if h.Prefix != "" {
		objectKey = h.Prefix + "/" + storageKey
	}

	out, err := h.Presign.PresignPutObject(c.Request.Context(), presignInput(h.Bucket, objectKey), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"err":         err.Error(),
			"bucket":      h.Bucket,
			"key":         objectKey,
			"bid_id":      bidID,
			"user_id":     middleware.UserIDFromContext(c),
			"contentType": req.ContentType,
			"sizeBytes":   req.SizeBytes,
			"request_id":  middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        out.URL,
		StorageKey:       storageKey,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

func validate(req *presignRequest) string {
	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.FileName == "" {
		return "fileName is required"
	}
	if _, ok := allowedContentTypes[req.ContentType]; !ok {
		return "contentType is not allowed"
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		return "sizeBytes exceeds limit"
	}
	return ""
}

// StorageKey builds the object key for a direct upload of a bid document.
func StorageKey(bidID, uploadID, fileName string) string {
	return path.Join("bids_"+bidID+"_uploads", uploadID+"_"+fileName)
}

func presignInput(bucket, key string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
}
