package handler

import (
	"github.com/gin-gonic/gin"

	appinv "github.com/stocktrack/backend/internal/application/inventory"
	"github.com/stocktrack/backend/internal/interfaces/http/dto"
)

// SectionHandler serves section CRUD.
type SectionHandler struct {
	BaseHandler
	sections *appinv.SectionService
}

// NewSectionHandler creates a new SectionHandler
func NewSectionHandler(sections *appinv.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// Create handles POST /sections
func (h *SectionHandler) Create(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	section, err := h.sections.CreateSection(c.Request.Context(), appinv.CreateSectionInput{
		Name:        req.Name,
		Description: req.Description,
		DeltaValue:  req.DeltaValue,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, section)
}

// List handles GET /sections
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.sections.ListSections(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sections)
}

// Get handles GET /sections/:id
func (h *SectionHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	section, err := h.sections.GetSection(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, section)
}

// Update handles PATCH /sections/:id
func (h *SectionHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	var req dto.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	section, err := h.sections.UpdateSection(c.Request.Context(), id, appinv.UpdateSectionInput{
		Name:        req.Name,
		Description: req.Description,
		DeltaValue:  req.DeltaValue,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, section)
}

// Delete handles DELETE /sections/:id
func (h *SectionHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	if err := h.sections.DeleteSection(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
