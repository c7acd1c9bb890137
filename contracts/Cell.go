package contracts

import (
	"errors"
	"fmt"
)

// Contents is the authored content of a cell: TextContents, NumberContents or FormulaContents.
type Contents interface {
	isContents()
}

type TextContents string

type NumberContents float64

type FormulaContents struct {
	Formula Formula
}

func (TextContents) isContents()    {}
func (NumberContents) isContents()  {}
func (FormulaContents) isContents() {}

// Value is the derived result of a cell: TextValue, NumberValue or FormulaError.
type Value interface {
	isValue()
}

type TextValue string

type NumberValue float64

// FormulaError is the value of a formula cell which could not produce a number.
// It is data, not a failure of the operation that computed it.
type FormulaError struct {
	Reason string
}

func (TextValue) isValue()    {}
func (NumberValue) isValue()  {}
func (FormulaError) isValue() {}

func (e FormulaError) String() string {
	return "ERROR: " + e.Reason
}

// CellView is the wire representation of a cell.
type CellView struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Result string `json:"result"`
}

type CellList map[string]*CellView

// FormulaPrefix marks contents which should be parsed as a formula
const FormulaPrefix = "="

var InvalidNameError = errors.New("invalid cell name")

var FormulaFormatError = errors.New("invalid formula")

var CircularDependencyError = errors.New("circular dependency")

var ReadWriteError = errors.New("spreadsheet read/write error")

// CellNamePattern is the human-readable form of the cell name rule
const CellNamePattern = "one or more letters followed by one or more digits"

func NewInvalidNameError(name string) error {
	return fmt.Errorf("`%s` (expected %s): %w", name, CellNamePattern, InvalidNameError)
}
