package handler

import (
	"github.com/gin-gonic/gin"

	appinv "github.com/stocktrack/backend/internal/application/inventory"
	"github.com/stocktrack/backend/internal/interfaces/http/dto"
)

// ItemHandler serves item creation, count mutation, bound changes, and
// deletion within a section.
type ItemHandler struct {
	BaseHandler
	items *appinv.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(items *appinv.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// Create handles POST /sections/:id/items
func (h *ItemHandler) Create(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), sectionID, appinv.CreateItemInput{
		Name:        req.Name,
		Description: req.Description,
		MaxQuantity: req.MaxQuantity,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, item)
}

// List handles GET /sections/:id/items
func (h *ItemHandler) List(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	items, err := h.items.ListItems(c.Request.Context(), sectionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, items)
}

// Get handles GET /sections/:id/items/:itemId
func (h *ItemHandler) Get(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	item, err := h.items.GetItem(c.Request.Context(), sectionID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, item)
}

// UpdateCount handles PATCH /sections/:id/items/:itemId. The body carries
// the requested absolute count; the accepted mutation and its audit entry
// commit atomically and the new state is broadcast to section subscribers.
func (h *ItemHandler) UpdateCount(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.UpdateCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	item, err := h.items.ChangeCount(c.Request.Context(), sectionID, itemID, userID, *req.Count)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, item)
}

// UpdateMaxQuantity handles PATCH /sections/:id/items/:itemId/max
func (h *ItemHandler) UpdateMaxQuantity(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req dto.UpdateMaxQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	item, err := h.items.ChangeMaxQuantity(c.Request.Context(), sectionID, itemID, *req.MaxQuantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /sections/:id/items/:itemId
func (h *ItemHandler) Delete(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	if err := h.items.DeleteItem(c.Request.Context(), sectionID, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
