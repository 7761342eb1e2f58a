package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrack/backend/internal/domain/inventory"
	"github.com/stocktrack/backend/internal/domain/shared"
)

// GormSectionRepository implements inventory.SectionRepository using GORM
type GormSectionRepository struct {
	db *gorm.DB
}

// NewGormSectionRepository creates a new GormSectionRepository
func NewGormSectionRepository(db *gorm.DB) *GormSectionRepository {
	return &GormSectionRepository{db: db}
}

// FindByID finds a section by its ID
func (r *GormSectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Section, error) {
	var section inventory.Section
	if err := r.db.WithContext(ctx).First(&section, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &section, nil
}

// FindByIDWithItems finds a section with its items preloaded
func (r *GormSectionRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*inventory.Section, error) {
	var section inventory.Section
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&section, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &section, nil
}

// FindAll returns all sections ordered by creation time
func (r *GormSectionRepository) FindAll(ctx context.Context) ([]inventory.Section, error) {
	var sections []inventory.Section
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

// CountItems counts the items belonging to a section
func (r *GormSectionRepository) CountItems(ctx context.Context, sectionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.Item{}).
		Where("section_id = ?", sectionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a section
func (r *GormSectionRepository) Save(ctx context.Context, section *inventory.Section) error {
	if err := r.db.WithContext(ctx).Omit("Items").Save(section).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a section row
func (r *GormSectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.Section{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// isUniqueViolation detects unique-index violations across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// Ensure GormSectionRepository implements SectionRepository
var _ inventory.SectionRepository = (*GormSectionRepository)(nil)
