package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocktrack/backend/internal/domain/inventory"
)

// SectionDTO is the list projection of a section.
type SectionDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DeltaValue  int       `json:"deltaValue"`
	ItemCount   int64     `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SectionDetailDTO is a section with its items loaded.
type SectionDetailDTO struct {
	SectionDTO
	Items []ItemDTO `json:"items"`
}

// ItemDTO is the projection of an item returned by every mutation and read.
type ItemDTO struct {
	ID          uuid.UUID `json:"id"`
	SectionID   uuid.UUID `json:"sectionId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Count       int       `json:"count"`
	MaxQuantity int       `json:"maxQuantity"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AuditLogUserDTO is the attribution attached to a log entry.
type AuditLogUserDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// AuditLogDTO is one audit trail entry with user attribution.
type AuditLogDTO struct {
	ID        uuid.UUID        `json:"id"`
	ItemID    uuid.UUID        `json:"itemId"`
	OldCount  int              `json:"oldCount"`
	NewCount  int              `json:"newCount"`
	Timestamp time.Time        `json:"timestamp"`
	Remarks   *string          `json:"remarks,omitempty"`
	User      *AuditLogUserDTO `json:"user,omitempty"`
}

// CreateSectionInput carries the fields for creating a section.
type CreateSectionInput struct {
	Name        string
	Description string
	DeltaValue  int
}

// UpdateSectionInput carries the mutable section fields. Nil means unchanged.
type UpdateSectionInput struct {
	Name        *string
	Description *string
	DeltaValue  *int
}

// CreateItemInput carries the fields for creating an item.
type CreateItemInput struct {
	Name        string
	Description string
	MaxQuantity int
}

func sectionToDTO(s *inventory.Section, itemCount int64) SectionDTO {
	return SectionDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		DeltaValue:  s.DeltaValue,
		ItemCount:   itemCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func itemToDTO(i *inventory.Item) ItemDTO {
	return ItemDTO{
		ID:          i.ID,
		SectionID:   i.SectionID,
		Name:        i.Name,
		Description: i.Description,
		Count:       i.Count,
		MaxQuantity: i.MaxQuantity,
		Version:     i.Version,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func auditLogToDTO(l *inventory.AuditLog, user *AuditLogUserDTO) AuditLogDTO {
	return AuditLogDTO{
		ID:        l.ID,
		ItemID:    l.ItemID,
		OldCount:  l.OldCount,
		NewCount:  l.NewCount,
		Timestamp: l.Timestamp,
		Remarks:   l.Remarks,
		User:      user,
	}
}
