package inventory

import (
	"context"

	"github.com/stocktrack/backend/internal/domain/inventory"
)

// TransactionalRepositories provides access to repositories that share one
// transaction. A count mutation and its audit entry go through the same
// instance so they commit or roll back together.
type TransactionalRepositories interface {
	SectionRepo() inventory.SectionRepository
	ItemRepo() inventory.ItemRepository
	AuditLogRepo() inventory.AuditLogRepository
}

// TransactionScope executes a function within a database transaction. The
// function's error rolls everything back; nil commits.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
