package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/pkg/logger"
)

// respondError maps the engine's error kinds to HTTP statuses: validation
// 400, not-found 404, conflict 409. Store failures stay opaque.
func respondError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case models.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.WithError(err).Error("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
