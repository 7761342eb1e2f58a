package shared

// AggregateRoot is the base interface for aggregate roots guarded by
// optimistic concurrency.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// VersionedAggregateRoot provides common fields for aggregate roots whose
// writes are serialized with a version-checked conditional update.
type VersionedAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:0"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *VersionedAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *VersionedAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewVersionedAggregateRoot creates a new aggregate root at version zero.
func NewVersionedAggregateRoot() VersionedAggregateRoot {
	return VersionedAggregateRoot{
		BaseEntity: NewBaseEntity(),
	}
}
