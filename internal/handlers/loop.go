package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomatyss/knotter/internal/services"
)

type LoopHandler struct {
	loopService *services.LoopService
	policyPath  string
}

func NewLoopHandler(loopService *services.LoopService, policyPath string) *LoopHandler {
	return &LoopHandler{loopService: loopService, policyPath: policyPath}
}

// ApplyPolicy handles POST /loops/apply
func (h *LoopHandler) ApplyPolicy(c *gin.Context) {
	var req struct {
		Overwrite bool `json:"overwrite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	policy, err := services.LoadPolicy(h.policyPath)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.loopService.ApplyPolicy(policy, req.Overwrite)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
