package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/services"
)

type ContactHandler struct {
	contactService     *services.ContactService
	interactionService *services.InteractionService
	dateService        *services.ContactDateService
	exportService      *services.ExportService
}

func NewContactHandler(contactService *services.ContactService,
	interactionService *services.InteractionService,
	dateService *services.ContactDateService,
	exportService *services.ExportService) *ContactHandler {
	return &ContactHandler{
		contactService:     contactService,
		interactionService: interactionService,
		dateService:        dateService,
		exportService:      exportService,
	}
}

type contactRequest struct {
	Name        string   `json:"name"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	Handle      *string  `json:"handle"`
	Timezone    *string  `json:"timezone"`
	CadenceDays *int     `json:"cadence_days"`
	Tags        []string `json:"tags"`
}

// CreateContact handles POST /contacts
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	contact := models.NewContact(req.Name)
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Handle = req.Handle
	contact.Timezone = req.Timezone
	contact.CadenceDays = req.CadenceDays

	if err := h.contactService.CreateContact(contact, req.Tags); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// ListContacts handles GET /contacts?q=&soon=&limit=&offset=
func (h *ContactHandler) ListContacts(c *gin.Context) {
	soon, _ := strconv.Atoi(c.DefaultQuery("soon", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.contactService.ListContacts(c.Query("q"), soon, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": items})
}

// ListDueContacts handles GET /contacts/due
func (h *ContactHandler) ListDueContacts(c *gin.Context) {
	soon, _ := strconv.Atoi(c.DefaultQuery("soon", "0"))

	items, err := h.contactService.ListDueContacts(soon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": items})
}

// GetContact handles GET /contacts/:id
func (h *ContactHandler) GetContact(c *gin.Context) {
	detail, err := h.contactService.GetContactDetail(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateContact handles PUT /contacts/:id
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	contact, err := h.contactService.GetContact(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	contact.Name = req.Name
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Handle = req.Handle
	contact.Timezone = req.Timezone
	contact.CadenceDays = req.CadenceDays

	if err := h.contactService.UpdateContact(contact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// DeleteContact handles DELETE /contacts/:id
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	if err := h.contactService.DeleteContact(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetArchived handles POST /contacts/:id/archive and /unarchive
func (h *ContactHandler) SetArchived(archived bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		contact, err := h.contactService.SetArchived(c.Param("id"), archived)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contact)
	}
}

// AddTag handles POST /contacts/:id/tags
func (h *ContactHandler) AddTag(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tag, err := h.contactService.AddTag(c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// RemoveTag handles DELETE /contacts/:id/tags/:name
func (h *ContactHandler) RemoveTag(c *gin.Context) {
	if err := h.contactService.RemoveTag(c.Param("id"), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ScheduleTouchpoint handles POST /contacts/:id/touchpoint
func (h *ContactHandler) ScheduleTouchpoint(c *gin.Context) {
	var req struct {
		At        time.Time `json:"at"`
		Precision string    `json:"precision"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	precision, err := parsePrecision(req.Precision)
	if err != nil {
		respondError(c, err)
		return
	}

	contact, err := h.contactService.ScheduleTouchpoint(c.Param("id"), req.At, precision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// ScheduleByCadence handles POST /contacts/:id/touchpoint/cadence
func (h *ContactHandler) ScheduleByCadence(c *gin.Context) {
	contact, err := h.contactService.ScheduleByCadence(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// ClearTouchpoint handles DELETE /contacts/:id/touchpoint
func (h *ContactHandler) ClearTouchpoint(c *gin.Context) {
	contact, err := h.contactService.ClearTouchpoint(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// LogInteraction handles POST /contacts/:id/interactions
func (h *ContactHandler) LogInteraction(c *gin.Context) {
	var req struct {
		Kind       string     `json:"kind"`
		Note       string     `json:"note"`
		HappenedAt time.Time  `json:"happened_at"`
		FollowUp   *time.Time `json:"follow_up"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	interaction, err := h.interactionService.LogInteraction(c.Param("id"), req.Kind, req.Note, req.HappenedAt, req.FollowUp)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interaction)
}

// ListInteractions handles GET /contacts/:id/interactions
func (h *ContactHandler) ListInteractions(c *gin.Context) {
	interactions, err := h.interactionService.GetInteractions(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interactions": interactions})
}

// TouchContact handles POST /contacts/:id/touch
func (h *ContactHandler) TouchContact(c *gin.Context) {
	var req struct {
		Kind string `json:"kind"`
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	interaction, contact, err := h.interactionService.TouchContact(c.Param("id"), req.Kind, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interaction": interaction, "contact": contact})
}

// UpsertDate handles POST /contacts/:id/dates
func (h *ContactHandler) UpsertDate(c *gin.Context) {
	var req struct {
		Kind     string `json:"kind"`
		Label    string `json:"label"`
		Month    int    `json:"month"`
		Day      int    `json:"day"`
		Year     *int   `json:"year"`
		KeepYear bool   `json:"keep_year"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date := models.NewContactDate(c.Param("id"), req.Kind, req.Month, req.Day)
	date.Label = req.Label
	date.Year = req.Year

	policy := services.OverwriteYear
	if req.KeepYear {
		policy = services.KeepExistingYear
	}

	created, err := h.dateService.UpsertDate(date, policy)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, date)
}

// ListDates handles GET /contacts/:id/dates
func (h *ContactHandler) ListDates(c *gin.Context) {
	dates, err := h.dateService.GetDates(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// ListUpcomingDates handles GET /dates/upcoming?days=
func (h *ContactHandler) ListUpcomingDates(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))

	upcoming, err := h.dateService.ListUpcoming(days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming})
}

// ExportContacts handles POST /export
func (h *ContactHandler) ExportContacts(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	count, err := h.exportService.ExportContacts(req.Path)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exported": count, "path": req.Path})
}

func parsePrecision(value string) (services.Precision, error) {
	switch value {
	case "", "second":
		return services.PrecisionSecond, nil
	case "minute":
		return services.PrecisionMinute, nil
	case "date":
		return services.PrecisionDate, nil
	default:
		return 0, &models.ValidationError{Field: "precision", Message: "Precision must be second, minute or date"}
	}
}
