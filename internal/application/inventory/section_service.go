package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocktrack/backend/internal/domain/inventory"
)

// SectionService implements section CRUD. Deleting a section cascades to its
// items and their audit trail in one transaction, audit entries first so no
// orphaned rows survive a partial failure.
type SectionService struct {
	scope      TransactionScope
	sections   inventory.SectionRepository
	logger     *zap.Logger
	txnTimeout time.Duration
}

// SectionServiceOption is a functional option for configuring the service
type SectionServiceOption func(*SectionService)

// WithSectionLogger sets the logger for the service
func WithSectionLogger(logger *zap.Logger) SectionServiceOption {
	return func(s *SectionService) {
		s.logger = logger
	}
}

// WithSectionTxnTimeout bounds the time a cascade delete may take
func WithSectionTxnTimeout(d time.Duration) SectionServiceOption {
	return func(s *SectionService) {
		if d > 0 {
			s.txnTimeout = d
		}
	}
}

// NewSectionService creates a new SectionService
func NewSectionService(scope TransactionScope, sections inventory.SectionRepository, opts ...SectionServiceOption) *SectionService {
	s := &SectionService{
		scope:      scope,
		sections:   sections,
		logger:     zap.NewNop(),
		txnTimeout: defaultTxnTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSection creates a new section.
func (s *SectionService) CreateSection(ctx context.Context, input CreateSectionInput) (*SectionDTO, error) {
	section, err := inventory.NewSection(input.Name, input.Description, input.DeltaValue)
	if err != nil {
		return nil, err
	}
	if err := s.sections.Save(ctx, section); err != nil {
		return nil, err
	}
	dto := sectionToDTO(section, 0)
	return &dto, nil
}

// UpdateSection applies the provided changes to a section.
func (s *SectionService) UpdateSection(ctx context.Context, id uuid.UUID, input UpdateSectionInput) (*SectionDTO, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := section.Rename(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		section.Description = *input.Description
		section.UpdatedAt = time.Now()
	}
	if input.DeltaValue != nil && *input.DeltaValue > 0 {
		section.DeltaValue = *input.DeltaValue
		section.UpdatedAt = time.Now()
	}

	if err := s.sections.Save(ctx, section); err != nil {
		return nil, err
	}

	count, err := s.sections.CountItems(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := sectionToDTO(section, count)
	return &dto, nil
}

// ListSections returns all sections with their item counts.
func (s *SectionService) ListSections(ctx context.Context) ([]SectionDTO, error) {
	sections, err := s.sections.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]SectionDTO, len(sections))
	for i := range sections {
		count, err := s.sections.CountItems(ctx, sections[i].ID)
		if err != nil {
			return nil, err
		}
		dtos[i] = sectionToDTO(&sections[i], count)
	}
	return dtos, nil
}

// SectionExists reports whether the section is present, returning the
// repository's not-found error when it is missing.
func (s *SectionService) SectionExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.sections.FindByID(ctx, id)
	return err
}

// GetSection returns a section with its items.
func (s *SectionService) GetSection(ctx context.Context, id uuid.UUID) (*SectionDetailDTO, error) {
	section, err := s.sections.FindByIDWithItems(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]ItemDTO, len(section.Items))
	for i := range section.Items {
		items[i] = itemToDTO(&section.Items[i])
	}

	return &SectionDetailDTO{
		SectionDTO: sectionToDTO(section, int64(len(section.Items))),
		Items:      items,
	}, nil
}

// DeleteSection removes a section, its items, and their audit trail
// atomically.
func (s *SectionService) DeleteSection(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.txnTimeout)
	defer cancel()

	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.SectionRepo().FindByID(ctx, id); err != nil {
			return err
		}
		if err := repos.AuditLogRepo().DeleteBySection(ctx, id); err != nil {
			return err
		}
		if err := repos.ItemRepo().DeleteBySection(ctx, id); err != nil {
			return err
		}
		return repos.SectionRepo().Delete(ctx, id)
	})
}
