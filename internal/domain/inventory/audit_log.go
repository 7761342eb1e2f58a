package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/stocktrack/backend/internal/domain/shared"
)

// AuditLog is the immutable record of one accepted count mutation. It is
// created in the same transaction as the mutation itself and never
// standalone. After creation only the remarks field may change, and only by
// the user who authored the entry.
type AuditLog struct {
	shared.BaseEntity
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	OldCount  int       `gorm:"not null"`
	NewCount  int       `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	Remarks   *string   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog records a count transition attributed to the acting user.
func NewAuditLog(itemID, userID uuid.UUID, oldCount, newCount int) *AuditLog {
	return &AuditLog{
		BaseEntity: shared.NewBaseEntity(),
		ItemID:     itemID,
		UserID:     userID,
		OldCount:   oldCount,
		NewCount:   newCount,
		Timestamp:  time.Now(),
	}
}

// UpdateRemarks overwrites the free-text remark. Only the authoring user may
// annotate an entry; everything else about the entry is immutable.
func (l *AuditLog) UpdateRemarks(callerUserID uuid.UUID, remarks string) error {
	if callerUserID != l.UserID {
		return shared.ErrForbidden
	}
	l.Remarks = &remarks
	l.UpdatedAt = time.Now()
	return nil
}
