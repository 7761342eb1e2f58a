package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stocktrack/backend/internal/domain/inventory"
	"github.com/stocktrack/backend/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func createTestItem(t *testing.T) *inventory.Item {
	t.Helper()

	item, err := inventory.NewItem(uuid.New(), "9mm test plugs", "", 50)
	require.NoError(t, err)
	return item
}

func TestSaveWithLock(t *testing.T) {
	t.Run("writes when stored version matches", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item := createTestItem(t)
		require.NoError(t, item.ChangeCount(7)) // version 0 -> 1

		mock.ExpectExec(`UPDATE "items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), item)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when another writer committed first", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item := createTestItem(t)
		require.NoError(t, item.ChangeCount(7))

		// Version predicate matches no rows
		mock.ExpectExec(`UPDATE "items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), item)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		item := createTestItem(t)
		require.NoError(t, item.ChangeCount(7))

		mock.ExpectExec(`UPDATE "items" SET`).
			WillReturnError(assert.AnError)

		err := repo.SaveWithLock(context.Background(), item)

		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestItemFindByID(t *testing.T) {
	t.Run("maps missing row to not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		id := uuid.New()
		mock.ExpectQuery(`SELECT .* FROM "items"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the stored item", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		id := uuid.New()
		sectionID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version", "section_id", "name", "description", "count", "max_quantity"}).
			AddRow(id, now, now, 3, sectionID, "shelf brackets", "", 12, 40)
		mock.ExpectQuery(`SELECT .* FROM "items"`).
			WillReturnRows(rows)

		item, err := repo.FindByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, item.ID)
		assert.Equal(t, sectionID, item.SectionID)
		assert.Equal(t, 12, item.Count)
		assert.Equal(t, 40, item.MaxQuantity)
		assert.Equal(t, 3, item.Version)
	})
}

func TestItemDelete(t *testing.T) {
	t.Run("deletes existing item", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		mock.ExpectExec(`DELETE FROM "items"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), uuid.New()))
	})

	t.Run("reports not found when nothing matched", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(db)

		mock.ExpectExec(`DELETE FROM "items"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), shared.ErrNotFound)
	})
}
