package engine

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/henrika2/spreadsheet/contracts"
)

// SheetDocument is the persisted form of a sheet: {"Cells":{"A1":{"StringForm":"=B1+2"}}}
type SheetDocument struct {
	Cells map[string]CellDocument `json:"Cells"`
}

type CellDocument struct {
	StringForm string `json:"StringForm"`
}

type SheetSerializer struct {
	api sonic.API
}

func NewSheetSerializer() *SheetSerializer {
	// ConfigStd sorts map keys, so equal sheets serialize to equal bytes
	return &SheetSerializer{api: sonic.ConfigStd}
}

func (s *SheetSerializer) Marshal(sheet *Sheet) ([]byte, error) {
	document := SheetDocument{Cells: make(map[string]CellDocument, len(sheet.cells))}
	for name, cell := range sheet.cells {
		document.Cells[name] = CellDocument{StringForm: cell.StringForm()}
	}

	data, err := s.api.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w: encode sheet: %w", contracts.ReadWriteError, err)
	}
	return data, nil
}

func (s *SheetSerializer) Unmarshal(data []byte) (*SheetDocument, error) {
	document := &SheetDocument{}
	if err := s.api.Unmarshal(data, document); err != nil {
		return nil, fmt.Errorf("%w: decode sheet: %w", contracts.ReadWriteError, err)
	}

	if document.Cells == nil {
		return nil, fmt.Errorf("%w: decode sheet: field `Cells` is missing", contracts.ReadWriteError)
	}
	return document, nil
}
