package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/henrika2/spreadsheet/contracts"
	"github.com/henrika2/spreadsheet/engine"
	"github.com/henrika2/spreadsheet/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func _createTmpDb() (*bbolt.DB, func()) {
	f, _ := os.CreateTemp("", "db_*.db")
	os.Remove(f.Name())

	db, dbErr := bbolt.Open(f.Name(), 0600, nil)
	if dbErr != nil {
		panic(dbErr)
	}

	return db, func() {
		db.Close()
		os.Remove(f.Name())
	}
}

func _discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func _cellNames(cells []*contracts.CellView) []string {
	names := make([]string, 0, len(cells))
	for _, cell := range cells {
		names = append(names, cell.Name)
	}
	return names
}

type failingSheetStorage struct {
	contracts.SheetStorage
}

func (s failingSheetStorage) Write(string, []byte) error {
	return errors.Join(contracts.ReadWriteError, errors.New("disk full"))
}

func TestSheetRepository_SetCell(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, dbClose := _createTmpDb()
		defer dbClose()

		webhookDispatcher := mocks.NewWebhookDispatcher(t)
		webhookDispatcher.On("Notify", "sheet1", mock.Anything).Return()

		sheetRepository := NewSheetRepository(engine.NewBoltSheetStorage(db), webhookDispatcher, _discardLogger())

		cell, affected, err := sheetRepository.SetCell("Sheet1", "a1", "2")
		require.NoError(t, err)
		assert.Equal(t, &contracts.CellView{Name: "A1", Value: "2", Result: "2"}, cell)
		assert.Len(t, affected, 1)

		cell, _, err = sheetRepository.SetCell("sheet1", "b1", "=a1*3")
		require.NoError(t, err)
		assert.Equal(t, "B1", cell.Name)
		assert.Equal(t, "6", cell.Result)

		cell, affected, err = sheetRepository.SetCell("sheet1", "A1", "5")
		require.NoError(t, err)
		assert.Equal(t, "5", cell.Result)
		assert.Equal(t, []string{"A1", "B1"}, _cellNames(affected))
		assert.Equal(t, "15", affected[1].Result)

		webhookDispatcher.AssertNumberOfCalls(t, "Notify", 3)
	})

	t.Run("rejected change is not saved", func(t *testing.T) {
		db, dbClose := _createTmpDb()
		defer dbClose()

		webhookDispatcher := mocks.NewWebhookDispatcher(t)
		webhookDispatcher.On("Notify", "sheet1", mock.Anything).Return()

		sheetRepository := NewSheetRepository(engine.NewBoltSheetStorage(db), webhookDispatcher, _discardLogger())

		_, _, err := sheetRepository.SetCell("sheet1", "A1", "=B1")
		require.NoError(t, err)

		_, _, err = sheetRepository.SetCell("sheet1", "B1", "=A1")
		assert.ErrorIs(t, err, contracts.CircularDependencyError)
		assert.Contains(t, err.Error(), "cell_id `B1`")

		_, _, err = sheetRepository.SetCell("sheet1", "B1", "=A1 +")
		assert.ErrorIs(t, err, contracts.FormulaFormatError)

		_, _, err = sheetRepository.SetCell("sheet1", "1B", "1")
		assert.ErrorIs(t, err, contracts.InvalidNameError)

		webhookDispatcher.AssertNumberOfCalls(t, "Notify", 1)

		cellList, err := sheetRepository.GetCellList("sheet1")
		require.NoError(t, err)
		assert.Len(t, cellList, 1)
		assert.Contains(t, cellList, "A1")
	})

	t.Run("rejected first change does not create the sheet", func(t *testing.T) {
		db, dbClose := _createTmpDb()
		defer dbClose()

		sheetRepository := NewSheetRepository(engine.NewBoltSheetStorage(db), nil, _discardLogger())

		_, _, err := sheetRepository.SetCell("sheet1", "A1", "=A1")
		assert.ErrorIs(t, err, contracts.CircularDependencyError)

		_, err = sheetRepository.GetCellList("sheet1")
		assert.ErrorIs(t, err, contracts.SheetNotFoundError)

		_, err = sheetRepository.GetCell("sheet1", "A1")
		assert.ErrorIs(t, err, contracts.SheetNotFoundError)

		_, _, err = sheetRepository.SetCell("sheet1", "A1", "1")
		require.NoError(t, err)

		cellList, err := sheetRepository.GetCellList("sheet1")
		require.NoError(t, err)
		assert.Len(t, cellList, 1)
	})

	t.Run("storage failure evicts the cached sheet", func(t *testing.T) {
		db, dbClose := _createTmpDb()
		defer dbClose()

		storage := engine.NewBoltSheetStorage(db)
		sheetRepository := NewSheetRepository(storage, nil, _discardLogger())

		_, _, err := sheetRepository.SetCell("sheet1", "A1", "1")
		require.NoError(t, err)

		sheetRepository.storage = failingSheetStorage{SheetStorage: storage}
		_, _, err = sheetRepository.SetCell("sheet1", "A1", "2")
		assert.ErrorIs(t, err, contracts.ReadWriteError)
		assert.NotContains(t, sheetRepository.sheets, "sheet1")

		sheetRepository.storage = storage
		cell, err := sheetRepository.GetCell("sheet1", "A1")
		require.NoError(t, err)
		assert.Equal(t, "1", cell.Result)
	})
}

func TestSheetRepository_GetCell(t *testing.T) {
	db, dbClose := _createTmpDb()
	defer dbClose()

	storage := engine.NewBoltSheetStorage(db)
	sheetRepository := NewSheetRepository(storage, nil, _discardLogger())

	t.Run("sheet not found", func(t *testing.T) {
		_, err := sheetRepository.GetCell("sheet1", "A1")
		assert.ErrorIs(t, err, contracts.SheetNotFoundError)

		_, err = sheetRepository.GetCellList("sheet1")
		assert.ErrorIs(t, err, contracts.SheetNotFoundError)
	})

	_, _, err := sheetRepository.SetCell("sheet1", "A1", "hello")
	require.NoError(t, err)

	t.Run("stored cell", func(t *testing.T) {
		cell, err := sheetRepository.GetCell("SHEET1", "a1")
		assert.NoError(t, err)
		assert.Equal(t, &contracts.CellView{Name: "A1", Value: "hello", Result: "hello"}, cell)
	})

	t.Run("empty cell", func(t *testing.T) {
		cell, err := sheetRepository.GetCell("sheet1", "Z9")
		assert.NoError(t, err)
		assert.Equal(t, &contracts.CellView{Name: "Z9"}, cell)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := sheetRepository.GetCell("sheet1", "A1B")
		assert.ErrorIs(t, err, contracts.InvalidNameError)
	})

	t.Run("loaded from storage", func(t *testing.T) {
		reopened := NewSheetRepository(storage, nil, _discardLogger())

		cell, err := reopened.GetCell("sheet1", "A1")
		assert.NoError(t, err)
		assert.Equal(t, "hello", cell.Result)
	})
}
