package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/shared/auth"
	"bidsflow-backend/internal/shared/server/respond"
)

const (
	identityKey = "identity"
	userIDKey   = "userId"
	guestPrefix = "guest:"
	maxGuestID  = 64
)

var publicPaths = map[string]struct{}{
	"/api/v1/health": {},
	"/metrics":       {},
}

// Identity is the caller resolved by Auth. UserID becomes the actor recorded
// on bid audit events.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Guest  bool
}

// Auth resolves the caller from a bearer JWT or, failing that, an X-Guest-Id
// header. Requests with neither are rejected except on public paths.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if _, ok := publicPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		id, ok := resolveIdentity(c.Request)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		c.Set(identityKey, id)
		c.Set(userIDKey, id.UserID)
		c.Set("isGuest", id.Guest)
		c.Next()
	}
}

func resolveIdentity(r *http.Request) (Identity, bool) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return Identity{}, false
		}
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			return Identity{}, false
		}
		return Identity{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}, true
	}

	guestID := strings.TrimSpace(r.Header.Get("X-Guest-Id"))
	if guestID == "" || len(guestID) > maxGuestID || !validHeaderID(guestID) {
		return Identity{}, false
	}
	return Identity{UserID: guestPrefix + guestID, Guest: true}, true
}

// IdentityFromContext returns the identity set by Auth.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	if c == nil {
		return Identity{}, false
	}
	val, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok
}

// UserIDFromContext returns the caller's user id, or "" before Auth ran.
func UserIDFromContext(c *gin.Context) string {
	id, _ := IdentityFromContext(c)
	return id.UserID
}
