package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrack/backend/internal/domain/inventory"
	"github.com/stocktrack/backend/internal/domain/shared"
)

// GormAuditLogRepository implements inventory.AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// FindByID finds a log entry by its ID
func (r *GormAuditLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.AuditLog, error) {
	var entry inventory.AuditLog
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByItem returns all entries for an item, most recent first
func (r *GormAuditLogRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.AuditLog, error) {
	var entries []inventory.AuditLog
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("timestamp DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Append inserts a new entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *inventory.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// UpdateRemarks persists a remark change on an existing entry
func (r *GormAuditLogRepository) UpdateRemarks(ctx context.Context, entry *inventory.AuditLog) error {
	result := r.db.WithContext(ctx).
		Model(entry).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"remarks":    entry.Remarks,
			"updated_at": entry.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByItem deletes all entries for an item
func (r *GormAuditLogRepository) DeleteByItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&inventory.AuditLog{}, "item_id = ?", itemID).Error
}

// DeleteBySection deletes all entries for every item in a section
func (r *GormAuditLogRepository) DeleteBySection(ctx context.Context, sectionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("item_id IN (?)", r.db.Model(&inventory.Item{}).Select("id").Where("section_id = ?", sectionID)).
		Delete(&inventory.AuditLog{}).Error
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ inventory.AuditLogRepository = (*GormAuditLogRepository)(nil)
