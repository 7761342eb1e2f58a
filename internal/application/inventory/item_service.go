package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocktrack/backend/internal/domain/inventory"
	"github.com/stocktrack/backend/internal/infrastructure/broadcast"
)

// Stream event names delivered to section subscribers.
const (
	EventItemUpdate = "itemUpdate"
	EventItemDelete = "itemDelete"
)

const defaultTxnTimeout = 5 * time.Second

// ItemService implements the item operations. Count mutations follow one
// protocol: read the item inside a transaction, apply the bounded change,
// persist it with a version-checked write, append the audit entry, and only
// after the transaction commits broadcast the new state to section
// subscribers.
type ItemService struct {
	scope       TransactionScope
	items       inventory.ItemRepository
	sections    inventory.SectionRepository
	broadcaster broadcast.Broadcaster
	logger      *zap.Logger
	txnTimeout  time.Duration
}

// ItemServiceOption is a functional option for configuring the service
type ItemServiceOption func(*ItemService)

// WithItemLogger sets the logger for the service
func WithItemLogger(logger *zap.Logger) ItemServiceOption {
	return func(s *ItemService) {
		s.logger = logger
	}
}

// WithTxnTimeout bounds the time a mutation transaction may take
func WithTxnTimeout(d time.Duration) ItemServiceOption {
	return func(s *ItemService) {
		if d > 0 {
			s.txnTimeout = d
		}
	}
}

// NewItemService creates a new ItemService
func NewItemService(
	scope TransactionScope,
	items inventory.ItemRepository,
	sections inventory.SectionRepository,
	broadcaster broadcast.Broadcaster,
	opts ...ItemServiceOption,
) *ItemService {
	s := &ItemService{
		scope:       scope,
		items:       items,
		sections:    sections,
		broadcaster: broadcaster,
		logger:      zap.NewNop(),
		txnTimeout:  defaultTxnTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItem adds an item to a section with count zero.
func (s *ItemService) CreateItem(ctx context.Context, sectionID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, err
	}

	item, err := inventory.NewItem(sectionID, input.Name, input.Description, input.MaxQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}

	dto := itemToDTO(item)
	s.publish(sectionID, EventItemUpdate, dto)
	return &dto, nil
}

// GetItem returns an item scoped to its section.
func (s *ItemService) GetItem(ctx context.Context, sectionID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.items.FindByIDInSection(ctx, sectionID, itemID)
	if err != nil {
		return nil, err
	}
	dto := itemToDTO(item)
	return &dto, nil
}

// ListItems returns all items in a section.
func (s *ItemService) ListItems(ctx context.Context, sectionID uuid.UUID) ([]ItemDTO, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, err
	}
	items, err := s.items.FindBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	dtos := make([]ItemDTO, len(items))
	for i := range items {
		dtos[i] = itemToDTO(&items[i])
	}
	return dtos, nil
}

// ChangeCount sets the item's count to the requested absolute value. The
// mutation and its audit entry commit atomically; a concurrent writer
// surfaces as a concurrency conflict with nothing written.
func (s *ItemService) ChangeCount(ctx context.Context, sectionID, itemID, userID uuid.UUID, newCount int) (*ItemDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txnTimeout)
	defer cancel()

	var dto ItemDTO
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDInSection(ctx, sectionID, itemID)
		if err != nil {
			return err
		}

		oldCount := item.Count
		if err := item.ChangeCount(newCount); err != nil {
			return err
		}
		if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
			return err
		}

		entry := inventory.NewAuditLog(item.ID, userID, oldCount, item.Count)
		if err := repos.AuditLogRepo().Append(ctx, entry); err != nil {
			return err
		}

		dto = itemToDTO(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(sectionID, EventItemUpdate, dto)
	return &dto, nil
}

// ChangeMaxQuantity updates the item's upper bound. The write is version
// checked so it serializes against concurrent count changes, but no audit
// entry is recorded; the trail tracks counts only.
func (s *ItemService) ChangeMaxQuantity(ctx context.Context, sectionID, itemID uuid.UUID, newMax int) (*ItemDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txnTimeout)
	defer cancel()

	var dto ItemDTO
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDInSection(ctx, sectionID, itemID)
		if err != nil {
			return err
		}
		if err := item.ChangeMaxQuantity(newMax); err != nil {
			return err
		}
		if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
			return err
		}
		dto = itemToDTO(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(sectionID, EventItemUpdate, dto)
	return &dto, nil
}

// DeleteItem removes an item and its audit trail in one transaction.
func (s *ItemService) DeleteItem(ctx context.Context, sectionID, itemID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.txnTimeout)
	defer cancel()

	var dto ItemDTO
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDInSection(ctx, sectionID, itemID)
		if err != nil {
			return err
		}
		dto = itemToDTO(item)

		if err := repos.AuditLogRepo().DeleteByItem(ctx, itemID); err != nil {
			return err
		}
		return repos.ItemRepo().Delete(ctx, itemID)
	})
	if err != nil {
		return err
	}

	s.publish(sectionID, EventItemDelete, dto)
	return nil
}

// publish broadcasts the item state after a committed mutation. Delivery is
// best effort; a broadcast failure never fails the mutation.
func (s *ItemService) publish(sectionID uuid.UUID, event string, dto ItemDTO) {
	if s.broadcaster == nil {
		return
	}

	data, err := json.Marshal(dto)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast payload",
			zap.String("item_id", dto.ID.String()),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.broadcaster.Publish(ctx, sectionID, broadcast.Event{Name: event, Data: data}); err != nil {
		s.logger.Warn("Failed to broadcast item event",
			zap.String("section_id", sectionID.String()),
			zap.String("item_id", dto.ID.String()),
			zap.String("event", event),
			zap.Error(err))
	}
}
