package engine

import (
	"strconv"

	"github.com/henrika2/spreadsheet/contracts"
)

// Cell holds immutable contents and the value derived from them.
// Changing contents means replacing the Cell; only formula values are recalculated in place.
type Cell struct {
	contents contracts.Contents
	value    contracts.Value
}

func NewTextCell(text string) *Cell {
	return &Cell{
		contents: contracts.TextContents(text),
		value:    contracts.TextValue(text),
	}
}

func NewNumberCell(number float64) *Cell {
	return &Cell{
		contents: contracts.NumberContents(number),
		value:    contracts.NumberValue(number),
	}
}

func NewFormulaCell(formula contracts.Formula, lookup contracts.Lookup) *Cell {
	return &Cell{
		contents: contracts.FormulaContents{Formula: formula},
		value:    formula.Evaluate(lookup),
	}
}

func (c *Cell) Contents() contracts.Contents {
	return c.contents
}

func (c *Cell) Value() contracts.Value {
	return c.value
}

func (c *Cell) Recalculate(lookup contracts.Lookup) {
	if formulaContents, ok := c.contents.(contracts.FormulaContents); ok {
		c.value = formulaContents.Formula.Evaluate(lookup)
	}
}

func (c *Cell) StringForm() string {
	return StringForm(c.contents)
}

// StringForm renders contents the way they are typed in and persisted
func StringForm(contents contracts.Contents) string {
	switch typed := contents.(type) {
	case contracts.TextContents:
		return string(typed)
	case contracts.NumberContents:
		return FormatNumber(float64(typed))
	case contracts.FormulaContents:
		return contracts.FormulaPrefix + typed.Formula.String()
	default:
		return ""
	}
}

func ValueString(value contracts.Value) string {
	switch typed := value.(type) {
	case contracts.TextValue:
		return string(typed)
	case contracts.NumberValue:
		return FormatNumber(float64(typed))
	case contracts.FormulaError:
		return typed.String()
	default:
		return ""
	}
}

func FormatNumber(number float64) string {
	return strconv.FormatFloat(number, 'f', -1, 64)
}
