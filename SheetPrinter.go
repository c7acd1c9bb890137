package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/henrika2/spreadsheet/contracts"
	"github.com/henrika2/spreadsheet/engine"
)

// SheetPrinter renders one line per stored cell: name, contents, value
type SheetPrinter struct {
	out        io.Writer
	nameStyle  lipgloss.Style
	textStyle  lipgloss.Style
	valueStyle lipgloss.Style
	errorStyle lipgloss.Style
}

func NewSheetPrinter(out io.Writer) *SheetPrinter {
	renderer := lipgloss.NewRenderer(out)

	return &SheetPrinter{
		out:        out,
		nameStyle:  renderer.NewStyle().Bold(true).Width(8),
		textStyle:  renderer.NewStyle().Width(24),
		valueStyle: renderer.NewStyle().Foreground(lipgloss.Color("10")),
		errorStyle: renderer.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (p *SheetPrinter) Print(sheet *engine.Sheet) error {
	for _, name := range sheet.CellNames() {
		contents, err := sheet.GetContents(name)
		if err != nil {
			return err
		}
		value, err := sheet.GetValue(name)
		if err != nil {
			return err
		}

		valueStyle := p.valueStyle
		if _, isError := value.(contracts.FormulaError); isError {
			valueStyle = p.errorStyle
		}

		_, err = fmt.Fprintln(p.out, p.nameStyle.Render(name)+p.textStyle.Render(engine.StringForm(contents))+valueStyle.Render(engine.ValueString(value)))
		if err != nil {
			return err
		}
	}
	return nil
}
