package inventory

import (
	"context"

	"github.com/google/uuid"
)

// SectionRepository defines the interface for section persistence
type SectionRepository interface {
	// FindByID finds a section by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Section, error)

	// FindByIDWithItems finds a section with its items loaded
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*Section, error)

	// FindAll returns all sections
	FindAll(ctx context.Context) ([]Section, error)

	// CountItems counts the items belonging to a section
	CountItems(ctx context.Context, sectionID uuid.UUID) (int64, error)

	// Save creates or updates a section. A duplicate name surfaces as
	// shared.ErrAlreadyExists.
	Save(ctx context.Context, section *Section) error

	// Delete removes the section row only. Cascading deletion of items and
	// their audit trail is orchestrated by the transaction scope.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// FindByID finds an item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByIDInSection finds an item by ID scoped to a section
	FindByIDInSection(ctx context.Context, sectionID, id uuid.UUID) (*Item, error)

	// FindBySection returns all items in a section
	FindBySection(ctx context.Context, sectionID uuid.UUID) ([]Item, error)

	// Save creates or updates an item without a version check
	Save(ctx context.Context, item *Item) error

	// SaveWithLock persists the item only if the stored version still equals
	// item.Version-1 (the version read before the domain mutation). Zero rows
	// matched means a concurrent writer won; shared.ErrConcurrencyConflict is
	// returned and nothing is written.
	SaveWithLock(ctx context.Context, item *Item) error

	// Delete deletes an item
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteBySection deletes all items in a section
	DeleteBySection(ctx context.Context, sectionID uuid.UUID) error
}

// AuditLogRepository defines the interface for audit trail persistence
type AuditLogRepository interface {
	// FindByID finds a log entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*AuditLog, error)

	// FindByItem returns all entries for an item, most recent first
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]AuditLog, error)

	// Append inserts a new entry. Called only inside the transaction that
	// commits the count mutation the entry describes.
	Append(ctx context.Context, entry *AuditLog) error

	// UpdateRemarks persists a remark change on an existing entry
	UpdateRemarks(ctx context.Context, entry *AuditLog) error

	// DeleteByItem deletes all entries for an item
	DeleteByItem(ctx context.Context, itemID uuid.UUID) error

	// DeleteBySection deletes all entries for every item in a section
	DeleteBySection(ctx context.Context, sectionID uuid.UUID) error
}
