package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stocktrack/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	sectionID := uuid.New()

	t.Run("creates item with count zero at version zero", func(t *testing.T) {
		item, err := NewItem(sectionID, "Gauze pads", "sterile, 10x10", 50)

		require.NoError(t, err)
		assert.Equal(t, sectionID, item.SectionID)
		assert.Equal(t, 0, item.Count)
		assert.Equal(t, 0, item.Version)
		assert.Equal(t, 50, item.MaxQuantity)
	})

	t.Run("rejects empty section", func(t *testing.T) {
		_, err := NewItem(uuid.Nil, "Gauze pads", "", 50)
		assert.Error(t, err)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewItem(sectionID, "   ", "", 50)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive maximum", func(t *testing.T) {
		_, err := NewItem(sectionID, "Gauze pads", "", 0)
		assert.Error(t, err)
	})
}

func TestItem_ChangeCount(t *testing.T) {
	newItem := func(count, max, version int) *Item {
		item, err := NewItem(uuid.New(), "Saline", "", max)
		require.NoError(t, err)
		item.Count = count
		item.Version = version
		return item
	}

	t.Run("accepts in-range count and bumps version by one", func(t *testing.T) {
		item := newItem(3, 5, 7)

		err := item.ChangeCount(4)

		require.NoError(t, err)
		assert.Equal(t, 4, item.Count)
		assert.Equal(t, 8, item.Version)
	})

	t.Run("accepts the boundary values", func(t *testing.T) {
		item := newItem(3, 5, 0)
		require.NoError(t, item.ChangeCount(0))
		require.NoError(t, item.ChangeCount(5))
		assert.Equal(t, 5, item.Count)
		assert.Equal(t, 2, item.Version)
	})

	t.Run("rejects count above maximum without state change", func(t *testing.T) {
		item := newItem(3, 5, 7)

		err := item.ChangeCount(6)

		assert.ErrorIs(t, err, shared.ErrCountOutOfRange)
		assert.Equal(t, 3, item.Count)
		assert.Equal(t, 7, item.Version)
	})

	t.Run("rejects negative count", func(t *testing.T) {
		item := newItem(3, 5, 7)

		err := item.ChangeCount(-1)

		assert.ErrorIs(t, err, shared.ErrCountOutOfRange)
		assert.Equal(t, 3, item.Count)
	})
}

func TestItem_ChangeMaxQuantity(t *testing.T) {
	t.Run("raises the bound", func(t *testing.T) {
		item, err := NewItem(uuid.New(), "Saline", "", 5)
		require.NoError(t, err)
		item.Count = 4

		require.NoError(t, item.ChangeMaxQuantity(10))
		assert.Equal(t, 10, item.MaxQuantity)
		assert.Equal(t, 1, item.Version)
	})

	t.Run("rejects bound below current count", func(t *testing.T) {
		item, err := NewItem(uuid.New(), "Saline", "", 5)
		require.NoError(t, err)
		item.Count = 4

		err = item.ChangeMaxQuantity(3)

		assert.ErrorIs(t, err, shared.ErrInvalidBound)
		assert.Equal(t, 5, item.MaxQuantity)
		assert.Equal(t, 0, item.Version)
	})

	t.Run("rejects negative bound", func(t *testing.T) {
		item, err := NewItem(uuid.New(), "Saline", "", 5)
		require.NoError(t, err)

		assert.Error(t, item.ChangeMaxQuantity(-1))
	})

	t.Run("allows lowering to exactly the current count", func(t *testing.T) {
		item, err := NewItem(uuid.New(), "Saline", "", 5)
		require.NoError(t, err)
		item.Count = 4

		require.NoError(t, item.ChangeMaxQuantity(4))
		assert.Equal(t, 4, item.MaxQuantity)
	})
}
