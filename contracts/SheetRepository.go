package contracts

type SheetRepository interface {
	SetCell(sheetId string, cellId string, value string) (cell *CellView, affected []*CellView, err error)
	GetCell(sheetId string, cellId string) (*CellView, error)
	GetCellList(sheetId string) (CellList, error)
}
