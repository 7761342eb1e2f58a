package handler

import (
	"github.com/gin-gonic/gin"

	appinv "github.com/stocktrack/backend/internal/application/inventory"
	"github.com/stocktrack/backend/internal/interfaces/http/dto"
)

// AuditLogHandler serves the change history of items and remark edits.
type AuditLogHandler struct {
	BaseHandler
	logs *appinv.AuditLogService
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logs *appinv.AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{logs: logs}
}

// List handles GET /items/:itemId/logs
func (h *AuditLogHandler) List(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	entries, err := h.logs.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, entries)
}

// UpdateRemark handles PATCH /logs/:logId. Only the author of the log
// entry may change its remark.
func (h *AuditLogHandler) UpdateRemark(c *gin.Context) {
	logID, ok := parseUUIDParam(c, "logId")
	if !ok {
		h.BadRequest(c, "Invalid log ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.UpdateRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	entry, err := h.logs.UpdateRemark(c.Request.Context(), logID, userID, req.Remarks)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, entry)
}
