package inventory

import (
	"strings"
	"time"

	"github.com/stocktrack/backend/internal/domain/shared"
)

// DefaultDeltaValue is the step applied by increment/decrement controls
// when a section does not configure its own.
const DefaultDeltaValue = 1

// Section is a named grouping of items. It owns its items: deleting a
// section cascades to the items and their audit trail in one transaction.
type Section struct {
	shared.BaseEntity
	Name        string `gorm:"size:255;not null;uniqueIndex"`
	Description string `gorm:"size:1024"`
	DeltaValue  int    `gorm:"not null;default:1"`

	// Loaded on demand
	Items []Item `gorm:"foreignKey:SectionID;references:ID"`
}

// TableName returns the table name for GORM
func (Section) TableName() string {
	return "sections"
}

// NewSection creates a section with a trimmed, non-empty name.
func NewSection(name, description string, deltaValue int) (*Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Section name cannot be empty")
	}
	if deltaValue <= 0 {
		deltaValue = DefaultDeltaValue
	}

	return &Section{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
		DeltaValue:  deltaValue,
	}, nil
}

// Rename changes the section name, keeping the non-empty invariant.
func (s *Section) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Section name cannot be empty")
	}
	s.Name = name
	s.UpdatedAt = time.Now()
	return nil
}
