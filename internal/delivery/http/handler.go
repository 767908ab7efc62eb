package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/backend/internal/domain"
	"github.com/shelfwatch/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookupService *usecase.LookupService
}

// NewHandler creates a new HTTP handler
func NewHandler(lookupService *usecase.LookupService) *Handler {
	return &Handler{
		lookupService: lookupService,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelfwatch-backend",
		"version": "1.0.0",
	})
}

// SearchPrice handles marketplace price lookups.
// GET /api/v1/prices/search?title=...&volume=...&format=...&binding=...&domain=...
func (h *Handler) SearchPrice(c *gin.Context) {
	params := map[string]string{
		"title":       c.Query("title"),
		"volume":      c.Query("volume"),
		"format":      c.Query("format"),
		"binding":     c.Query("binding"),
		"domain":      c.Query("domain"),
		"volumeTitle": c.Query("volumeTitle"),
		"kindle":      c.Query("kindle"),
	}
	includePrice := queryFlag(c, "includePrice", true)
	includeImage := queryFlag(c, "includeImage", true)

	result, err := h.lookupService.Lookup(c.Request.Context(), params, includePrice, includeImage)
	if err != nil {
		c.JSON(domain.StatusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// queryFlag parses an optional boolean query parameter
func queryFlag(c *gin.Context, name string, defaultValue bool) bool {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "0", "false", "no", "off":
		return false
	}
	return true
}
