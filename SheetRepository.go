package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/henrika2/spreadsheet/contracts"
	"github.com/henrika2/spreadsheet/engine"
)

// SheetRepository keeps loaded sheets in memory and persists each one after every accepted change.
// All calls are serialized by one mutex, a Sheet itself is not safe for concurrent use.
type SheetRepository struct {
	mutex             sync.Mutex
	storage           contracts.SheetStorage
	sheets            map[string]*engine.Sheet
	webhookDispatcher contracts.WebhookDispatcher
	logger            *slog.Logger
}

func NewSheetRepository(storage contracts.SheetStorage, webhookDispatcher contracts.WebhookDispatcher, logger *slog.Logger) *SheetRepository {
	return &SheetRepository{
		storage:           storage,
		sheets:            map[string]*engine.Sheet{},
		webhookDispatcher: webhookDispatcher,
		logger:            logger,
	}
}

func (s *SheetRepository) SetCell(sheetId string, cellId string, value string) (cell *contracts.CellView, affected []*contracts.CellView, err error) {
	sheetId = strings.ToLower(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, true)
	if err != nil {
		return
	}

	order, err := sheet.SetContents(cellId, value)
	if err != nil {
		err = fmt.Errorf("cell_id `%s`: %w", cellId, err)
		return
	}

	if err = sheet.Save(s.storage, sheetId); err != nil {
		// the stored copy is the source of truth, reload it on next access
		delete(s.sheets, sheetId)
		return
	}
	s.sheets[sheetId] = sheet

	affected = make([]*contracts.CellView, 0, len(order))
	for _, name := range order {
		affected = append(affected, s.makeCellView(sheet, name))
	}

	if s.webhookDispatcher != nil {
		s.webhookDispatcher.Notify(sheetId, affected)
	}

	return affected[0], affected, nil
}

func (s *SheetRepository) GetCell(sheetId string, cellId string) (*contracts.CellView, error) {
	sheetId = strings.ToLower(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, false)
	if err != nil {
		return nil, err
	}

	canonicalName, err := engine.NewNameCanonicalizer().Canonicalize(cellId)
	if err != nil {
		return nil, fmt.Errorf("cell_id `%s`: %w", cellId, err)
	}

	return s.makeCellView(sheet, canonicalName), nil
}

func (s *SheetRepository) GetCellList(sheetId string) (contracts.CellList, error) {
	sheetId = strings.ToLower(sheetId)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	sheet, err := s.getSheet(sheetId, false)
	if err != nil {
		return nil, err
	}

	cellList := contracts.CellList{}
	for _, name := range sheet.NonEmptyCellNames() {
		cellList[name] = s.makeCellView(sheet, name)
	}
	return cellList, nil
}

// getSheet returns the cached or stored sheet. With `create` a missing sheet comes back empty
// and is cached only once SetCell has saved it.
func (s *SheetRepository) getSheet(sheetId string, create bool) (*engine.Sheet, error) {
	if sheet, ok := s.sheets[sheetId]; ok {
		return sheet, nil
	}

	sheet := engine.NewSheet(engine.WithLogger(s.logger.With("sheet", sheetId)))
	err := sheet.Load(s.storage, sheetId)
	if errors.Is(err, contracts.SheetNotFoundError) {
		if !create {
			return nil, fmt.Errorf("%s: %w", sheetId, contracts.SheetNotFoundError)
		}
		return sheet, nil
	} else if err != nil {
		return nil, err
	}

	s.sheets[sheetId] = sheet
	return sheet, nil
}

// makeCellView expects a canonical name
func (s *SheetRepository) makeCellView(sheet *engine.Sheet, name string) *contracts.CellView {
	contents, _ := sheet.GetContents(name)
	value, _ := sheet.GetValue(name)

	return &contracts.CellView{
		Name:   name,
		Value:  engine.StringForm(contents),
		Result: engine.ValueString(value),
	}
}
