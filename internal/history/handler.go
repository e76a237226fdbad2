package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ats-checker/internal/shared/server/respond"
)

type Handler struct {
	repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/history", h.list)
}

func (h *Handler) list(c *gin.Context) {
	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = v
	}
	entries, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to load history", nil)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	respond.OK(c, gin.H{"items": entries})
}
