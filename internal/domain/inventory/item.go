package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stocktrack/backend/internal/domain/shared"
)

// Item is a trackable stock unit with a bounded count. It is the aggregate
// root for count mutations: every accepted change goes through ChangeCount,
// which enforces 0 <= count <= maxQuantity and bumps the optimistic
// concurrency version by exactly one.
type Item struct {
	shared.VersionedAggregateRoot
	SectionID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"size:255;not null"`
	Description string    `gorm:"size:1024"`
	Count       int       `gorm:"not null;default:0"`
	MaxQuantity int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates an item with count zero at version zero.
func NewItem(sectionID uuid.UUID, name, description string, maxQuantity int) (*Item, error) {
	if sectionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SECTION", "Section ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if maxQuantity <= 0 {
		return nil, shared.NewDomainError("INVALID_BOUND", "Maximum quantity must be positive")
	}

	return &Item{
		VersionedAggregateRoot: shared.NewVersionedAggregateRoot(),
		SectionID:              sectionID,
		Name:                   name,
		Description:            description,
		Count:                  0,
		MaxQuantity:            maxQuantity,
	}, nil
}

// ChangeCount sets the count to the requested value. The caller persists the
// change with a version-checked conditional write; a concurrent mutation of
// the same item surfaces there as a concurrency conflict.
func (i *Item) ChangeCount(requested int) error {
	if requested < 0 || requested > i.MaxQuantity {
		return shared.ErrCountOutOfRange
	}
	i.Count = requested
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// ChangeMaxQuantity raises or lowers the bound. Lowering it below the current
// count is rejected so the count invariant keeps holding. The version is
// bumped so the write is serialized against concurrent count changes.
func (i *Item) ChangeMaxQuantity(newMax int) error {
	if newMax < 0 {
		return shared.ErrInvalidBound
	}
	if newMax < i.Count {
		return shared.ErrInvalidBound
	}
	i.MaxQuantity = newMax
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}
