package inventory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrack/backend/internal/domain/inventory"
	"github.com/stocktrack/backend/internal/domain/shared"
	"github.com/stocktrack/backend/internal/infrastructure/broadcast"
)

// memStore is a shared in-memory backing store for the fake repositories.
// Reads hand out copies so a mutation only becomes visible through Save,
// mirroring how a real database behaves.
type memStore struct {
	sections map[uuid.UUID]*inventory.Section
	items    map[uuid.UUID]*inventory.Item
	logs     map[uuid.UUID]*inventory.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		sections: make(map[uuid.UUID]*inventory.Section),
		items:    make(map[uuid.UUID]*inventory.Item),
		logs:     make(map[uuid.UUID]*inventory.AuditLog),
	}
}

type memSectionRepo struct{ store *memStore }

func (r *memSectionRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Section, error) {
	s, ok := r.store.sections[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *memSectionRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*inventory.Section, error) {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, item := range r.store.items {
		if item.SectionID == id {
			s.Items = append(s.Items, *item)
		}
	}
	return s, nil
}

func (r *memSectionRepo) FindAll(context.Context) ([]inventory.Section, error) {
	sections := make([]inventory.Section, 0, len(r.store.sections))
	for _, s := range r.store.sections {
		sections = append(sections, *s)
	}
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].CreatedAt.Before(sections[j].CreatedAt)
	})
	return sections, nil
}

func (r *memSectionRepo) CountItems(_ context.Context, sectionID uuid.UUID) (int64, error) {
	var count int64
	for _, item := range r.store.items {
		if item.SectionID == sectionID {
			count++
		}
	}
	return count, nil
}

func (r *memSectionRepo) Save(_ context.Context, section *inventory.Section) error {
	for id, existing := range r.store.sections {
		if id != section.ID && existing.Name == section.Name {
			return shared.ErrAlreadyExists
		}
	}
	clone := *section
	clone.Items = nil
	r.store.sections[section.ID] = &clone
	return nil
}

func (r *memSectionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.sections[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.sections, id)
	return nil
}

type memItemRepo struct{ store *memStore }

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Item, error) {
	item, ok := r.store.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *memItemRepo) FindByIDInSection(ctx context.Context, sectionID, id uuid.UUID) (*inventory.Item, error) {
	item, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SectionID != sectionID {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *memItemRepo) FindBySection(_ context.Context, sectionID uuid.UUID) ([]inventory.Item, error) {
	var items []inventory.Item
	for _, item := range r.store.items {
		if item.SectionID == sectionID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *memItemRepo) Save(_ context.Context, item *inventory.Item) error {
	clone := *item
	r.store.items[item.ID] = &clone
	return nil
}

func (r *memItemRepo) SaveWithLock(_ context.Context, item *inventory.Item) error {
	stored, ok := r.store.items[item.ID]
	if !ok || stored.Version != item.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	clone := *item
	r.store.items[item.ID] = &clone
	return nil
}

func (r *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store.items, id)
	return nil
}

func (r *memItemRepo) DeleteBySection(_ context.Context, sectionID uuid.UUID) error {
	for id, item := range r.store.items {
		if item.SectionID == sectionID {
			delete(r.store.items, id)
		}
	}
	return nil
}

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.AuditLog, error) {
	entry, ok := r.store.logs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (r *memAuditRepo) FindByItem(_ context.Context, itemID uuid.UUID) ([]inventory.AuditLog, error) {
	var entries []inventory.AuditLog
	for _, entry := range r.store.logs {
		if entry.ItemID == itemID {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (r *memAuditRepo) Append(_ context.Context, entry *inventory.AuditLog) error {
	clone := *entry
	r.store.logs[entry.ID] = &clone
	return nil
}

func (r *memAuditRepo) UpdateRemarks(_ context.Context, entry *inventory.AuditLog) error {
	if _, ok := r.store.logs[entry.ID]; !ok {
		return shared.ErrNotFound
	}
	clone := *entry
	r.store.logs[entry.ID] = &clone
	return nil
}

func (r *memAuditRepo) DeleteByItem(_ context.Context, itemID uuid.UUID) error {
	for id, entry := range r.store.logs {
		if entry.ItemID == itemID {
			delete(r.store.logs, id)
		}
	}
	return nil
}

func (r *memAuditRepo) DeleteBySection(_ context.Context, sectionID uuid.UUID) error {
	for id, entry := range r.store.logs {
		if item, ok := r.store.items[entry.ItemID]; ok && item.SectionID == sectionID {
			delete(r.store.logs, id)
		}
	}
	return nil
}

type memScope struct{ store *memStore }

func (s *memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(&memRepos{store: s.store})
}

type memRepos struct{ store *memStore }

func (r *memRepos) SectionRepo() inventory.SectionRepository   { return &memSectionRepo{store: r.store} }
func (r *memRepos) ItemRepo() inventory.ItemRepository         { return &memItemRepo{store: r.store} }
func (r *memRepos) AuditLogRepo() inventory.AuditLogRepository { return &memAuditRepo{store: r.store} }

type fixture struct {
	store       *memStore
	broadcaster *broadcast.MemoryBroadcaster
	items       *ItemService
	sections    *SectionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	b := broadcast.NewMemoryBroadcaster()
	t.Cleanup(func() { _ = b.Close() })

	scope := &memScope{store: store}
	return &fixture{
		store:       store,
		broadcaster: b,
		items:       NewItemService(scope, &memItemRepo{store: store}, &memSectionRepo{store: store}, b),
		sections:    NewSectionService(scope, &memSectionRepo{store: store}),
	}
}

func (f *fixture) seedSection(t *testing.T, name string) *inventory.Section {
	t.Helper()
	section, err := inventory.NewSection(name, "", 1)
	require.NoError(t, err)
	require.NoError(t, (&memSectionRepo{store: f.store}).Save(context.Background(), section))
	return section
}

func (f *fixture) seedItem(t *testing.T, sectionID uuid.UUID, name string, maxQuantity int) *inventory.Item {
	t.Helper()
	item, err := inventory.NewItem(sectionID, name, "", maxQuantity)
	require.NoError(t, err)
	require.NoError(t, (&memItemRepo{store: f.store}).Save(context.Background(), item))
	return item
}

func expectEvent(t *testing.T, sub *broadcast.Subscription, name string) broadcast.Event {
	t.Helper()
	select {
	case event := <-sub.Events:
		assert.Equal(t, name, event.Name)
		return event
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q event", name)
		return broadcast.Event{}
	}
}

func expectNoEvent(t *testing.T, sub *broadcast.Subscription) {
	t.Helper()
	select {
	case event := <-sub.Events:
		t.Fatalf("unexpected event %q", event.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChangeCount(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("accepted change commits count, audit entry, and broadcast", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)

		sub, err := f.broadcaster.Subscribe(ctx, section.ID)
		require.NoError(t, err)
		defer sub.Cancel()

		dto, err := f.items.ChangeCount(ctx, section.ID, item.ID, userID, 17)
		require.NoError(t, err)
		assert.Equal(t, 17, dto.Count)
		assert.Equal(t, 1, dto.Version)

		stored := f.store.items[item.ID]
		assert.Equal(t, 17, stored.Count)
		assert.Equal(t, 1, stored.Version)

		logs, err := (&memAuditRepo{store: f.store}).FindByItem(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, 0, logs[0].OldCount)
		assert.Equal(t, 17, logs[0].NewCount)
		assert.Equal(t, userID, logs[0].UserID)
		assert.Nil(t, logs[0].Remarks)

		event := expectEvent(t, sub, EventItemUpdate)
		assert.Contains(t, string(event.Data), `"count":17`)
	})

	t.Run("boundary values are accepted", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)

		dto, err := f.items.ChangeCount(ctx, section.ID, item.ID, userID, 50)
		require.NoError(t, err)
		assert.Equal(t, 50, dto.Count)

		dto, err = f.items.ChangeCount(ctx, section.ID, item.ID, userID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, dto.Count)
		assert.Equal(t, 2, dto.Version)
	})

	t.Run("out of range value is rejected without side effects", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)

		sub, err := f.broadcaster.Subscribe(ctx, section.ID)
		require.NoError(t, err)
		defer sub.Cancel()

		for _, requested := range []int{-1, 51} {
			_, err := f.items.ChangeCount(ctx, section.ID, item.ID, userID, requested)
			assert.ErrorIs(t, err, shared.ErrCountOutOfRange)
		}

		stored := f.store.items[item.ID]
		assert.Equal(t, 0, stored.Count)
		assert.Equal(t, 0, stored.Version)
		assert.Empty(t, f.store.logs)
		expectNoEvent(t, sub)
	})

	t.Run("concurrent writer wins and the loser sees a conflict", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)

		sub, err := f.broadcaster.Subscribe(ctx, section.ID)
		require.NoError(t, err)
		defer sub.Cancel()

		repo := &memItemRepo{store: f.store}
		stale, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)

		// Another writer commits between the stale read and our write
		_, err = f.items.ChangeCount(ctx, section.ID, item.ID, userID, 10)
		require.NoError(t, err)
		expectEvent(t, sub, EventItemUpdate)

		require.NoError(t, stale.ChangeCount(20))
		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		// The winner's state stands
		assert.Equal(t, 10, f.store.items[item.ID].Count)
		assert.Equal(t, 1, f.store.items[item.ID].Version)
		expectNoEvent(t, sub)
	})

	t.Run("missing item maps to not found", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")

		_, err := f.items.ChangeCount(ctx, section.ID, uuid.New(), userID, 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("item in another section is not visible", func(t *testing.T) {
		f := newFixture(t)
		home := f.seedSection(t, "Warehouse A")
		other := f.seedSection(t, "Warehouse B")
		item := f.seedItem(t, home.ID, "bolts", 50)

		_, err := f.items.ChangeCount(ctx, other.ID, item.ID, userID, 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestChangeMaxQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("lowering below current count is rejected", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)
		_, err := f.items.ChangeCount(ctx, section.ID, item.ID, uuid.New(), 30)
		require.NoError(t, err)

		_, err = f.items.ChangeMaxQuantity(ctx, section.ID, item.ID, 29)
		assert.ErrorIs(t, err, shared.ErrInvalidBound)
		assert.Equal(t, 50, f.store.items[item.ID].MaxQuantity)
	})

	t.Run("valid change bumps the version without an audit entry", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)

		sub, err := f.broadcaster.Subscribe(ctx, section.ID)
		require.NoError(t, err)
		defer sub.Cancel()

		dto, err := f.items.ChangeMaxQuantity(ctx, section.ID, item.ID, 80)
		require.NoError(t, err)
		assert.Equal(t, 80, dto.MaxQuantity)
		assert.Equal(t, 1, dto.Version)
		assert.Empty(t, f.store.logs)

		expectEvent(t, sub, EventItemUpdate)
	})
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("new item starts at count zero version zero", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")

		dto, err := f.items.CreateItem(ctx, section.ID, CreateItemInput{Name: "bolts", MaxQuantity: 50})
		require.NoError(t, err)
		assert.Equal(t, 0, dto.Count)
		assert.Equal(t, 0, dto.Version)
		assert.Equal(t, section.ID, dto.SectionID)
	})

	t.Run("missing section maps to not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.items.CreateItem(ctx, uuid.New(), CreateItemInput{Name: "bolts", MaxQuantity: 50})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	section := f.seedSection(t, "Warehouse A")
	item := f.seedItem(t, section.ID, "bolts", 50)
	_, err := f.items.ChangeCount(ctx, section.ID, item.ID, uuid.New(), 5)
	require.NoError(t, err)
	require.Len(t, f.store.logs, 1)

	sub, err := f.broadcaster.Subscribe(ctx, section.ID)
	require.NoError(t, err)
	defer sub.Cancel()

	require.NoError(t, f.items.DeleteItem(ctx, section.ID, item.ID))

	assert.Empty(t, f.store.items)
	assert.Empty(t, f.store.logs)
	expectEvent(t, sub, EventItemDelete)
}

func TestSectionService(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list with item counts", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.sections.CreateSection(ctx, CreateSectionInput{Name: "Warehouse A", DeltaValue: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, created.DeltaValue)

		f.seedItem(t, created.ID, "bolts", 50)
		f.seedItem(t, created.ID, "nuts", 50)

		sections, err := f.sections.ListSections(ctx)
		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.EqualValues(t, 2, sections[0].ItemCount)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.sections.CreateSection(ctx, CreateSectionInput{Name: "Warehouse A"})
		require.NoError(t, err)
		_, err = f.sections.CreateSection(ctx, CreateSectionInput{Name: "Warehouse A"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("get returns items", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		f.seedItem(t, section.ID, "bolts", 50)

		detail, err := f.sections.GetSection(ctx, section.ID)
		require.NoError(t, err)
		require.Len(t, detail.Items, 1)
		assert.Equal(t, "bolts", detail.Items[0].Name)
	})

	t.Run("delete cascades to items and their trail", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")
		item := f.seedItem(t, section.ID, "bolts", 50)
		_, err := f.items.ChangeCount(ctx, section.ID, item.ID, uuid.New(), 5)
		require.NoError(t, err)

		require.NoError(t, f.sections.DeleteSection(ctx, section.ID))

		assert.Empty(t, f.store.sections)
		assert.Empty(t, f.store.items)
		assert.Empty(t, f.store.logs)
	})

	t.Run("update applies partial changes", func(t *testing.T) {
		f := newFixture(t)
		section := f.seedSection(t, "Warehouse A")

		name := "Warehouse B"
		delta := 10
		dto, err := f.sections.UpdateSection(ctx, section.ID, UpdateSectionInput{Name: &name, DeltaValue: &delta})
		require.NoError(t, err)
		assert.Equal(t, "Warehouse B", dto.Name)
		assert.Equal(t, 10, dto.DeltaValue)
	})
}
