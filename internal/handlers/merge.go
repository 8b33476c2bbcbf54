package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/services"
)

type MergeHandler struct {
	candidateService *services.MergeCandidateService
	mergeService     *services.MergeService
	scanService      *services.ScanService
}

func NewMergeHandler(candidateService *services.MergeCandidateService,
	mergeService *services.MergeService, scanService *services.ScanService) *MergeHandler {
	return &MergeHandler{
		candidateService: candidateService,
		mergeService:     mergeService,
		scanService:      scanService,
	}
}

// CreateCandidate handles POST /candidates
func (h *MergeHandler) CreateCandidate(c *gin.Context) {
	var req struct {
		ContactA    string  `json:"contact_a"`
		ContactB    string  `json:"contact_b"`
		Reason      string  `json:"reason"`
		Source      *string `json:"source"`
		PreferredID *string `json:"preferred_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Reason == "" {
		req.Reason = models.ReasonManual
	}

	candidate, created, err := h.candidateService.CreateCandidate(req.ContactA, req.ContactB, req.Reason, req.Source, req.PreferredID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"candidate": candidate, "created": created})
}

// ListCandidates handles GET /candidates?status=
func (h *MergeHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.candidateService.ListCandidates(c.DefaultQuery("status", models.CandidateOpen))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// DismissCandidate handles POST /candidates/:id/dismiss
func (h *MergeHandler) DismissCandidate(c *gin.Context) {
	candidate, err := h.candidateService.Dismiss(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// MergeContacts handles POST /merge
func (h *MergeHandler) MergeContacts(c *gin.Context) {
	var req struct {
		PrimaryID   string                `json:"primary_id"`
		SecondaryID string                `json:"secondary_id"`
		Options     services.MergeOptions `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	merged, err := h.mergeService.MergeContacts(req.PrimaryID, req.SecondaryID, req.Options)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, merged)
}

// ScanSameNames handles POST /scan/same-names
func (h *MergeHandler) ScanSameNames(c *gin.Context) {
	created, err := h.scanService.ScanSameNames()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "count": len(created)})
}
