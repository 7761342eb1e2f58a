package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocktrack/backend/internal/domain/identity"
	"github.com/stocktrack/backend/internal/domain/inventory"
	"github.com/stocktrack/backend/internal/domain/shared"
)

// AuditLogService serves the audit trail read side and remark annotation.
type AuditLogService struct {
	logs   inventory.AuditLogRepository
	items  inventory.ItemRepository
	users  identity.UserRepository
	logger *zap.Logger
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(
	logs inventory.AuditLogRepository,
	items inventory.ItemRepository,
	users identity.UserRepository,
	logger *zap.Logger,
) *AuditLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogService{logs: logs, items: items, users: users, logger: logger}
}

// ListByItem returns the item's audit trail, most recent first, with user
// attribution resolved. A user deleted since the entry was written leaves
// the attribution empty rather than failing the read.
func (s *AuditLogService) ListByItem(ctx context.Context, itemID uuid.UUID) ([]AuditLogDTO, error) {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	entries, err := s.logs.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	// Resolve each distinct author once
	authors := make(map[uuid.UUID]*AuditLogUserDTO)
	dtos := make([]AuditLogDTO, len(entries))
	for i := range entries {
		author, ok := authors[entries[i].UserID]
		if !ok {
			user, err := s.users.FindByID(ctx, entries[i].UserID)
			switch {
			case err == nil:
				author = &AuditLogUserDTO{ID: user.ID, Name: user.Name}
			case errors.Is(err, shared.ErrNotFound):
				author = nil
			default:
				return nil, err
			}
			authors[entries[i].UserID] = author
		}
		dtos[i] = auditLogToDTO(&entries[i], author)
	}
	return dtos, nil
}

// UpdateRemark annotates a log entry. Only the entry's author may do so.
func (s *AuditLogService) UpdateRemark(ctx context.Context, logID, callerUserID uuid.UUID, remarks string) (*AuditLogDTO, error) {
	entry, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	if err := entry.UpdateRemarks(callerUserID, remarks); err != nil {
		return nil, err
	}
	if err := s.logs.UpdateRemarks(ctx, entry); err != nil {
		return nil, err
	}

	var author *AuditLogUserDTO
	if user, err := s.users.FindByID(ctx, entry.UserID); err == nil {
		author = &AuditLogUserDTO{ID: user.ID, Name: user.Name}
	}

	dto := auditLogToDTO(entry, author)
	return &dto, nil
}
