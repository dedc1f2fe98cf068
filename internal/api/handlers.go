package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asistencia/internal/account"
	"asistencia/internal/attendance"
	"asistencia/internal/auth"
)

// Accounts verifies credentials for token issuance.
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (account.User, error)
}

// Records is the read surface exposed by the API.
type Records interface {
	List(ctx context.Context, classID string, limit, offset int) ([]attendance.Record, error)
}

// Handler serves the bearer-token JSON API.
type Handler struct {
	accounts   Accounts
	records    Records
	issuer     string
	signingKey string
	accessTTL  time.Duration
}

// New creates the API handler set.
func New(accounts Accounts, records Records, issuer, signingKey string, accessTTL time.Duration) *Handler {
	return &Handler{
		accounts:   accounts,
		records:    records,
		issuer:     issuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
	}
}

// Register mounts the API routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/api/v1/token", h.Token)

	protected := r.Group("/api/v1", auth.BearerAuth(h.signingKey, h.issuer))
	protected.GET("/records", h.ListRecords)
}

// Token exchanges teacher credentials for a short-lived access token.
func (h *Handler) Token(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	token, exp, err := auth.Issue(user.ID, h.issuer, h.signingKey, h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
	})
}

// ListRecords returns attendance records, newest first, with basic filters.
func (h *Handler) ListRecords(c *gin.Context) {
	classID := c.Query("clase_id")
	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	records, err := h.records.List(c.Request.Context(), classID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
