package engine

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/henrika2/spreadsheet/contracts"
)

var decimalNumberPattern = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// Sheet owns the cell store and the reference graph and keeps every value consistent with the contents.
// It is not safe for concurrent use.
type Sheet struct {
	cells         map[string]*Cell
	graph         *ReferenceGraph
	planner       *RecalculationPlanner
	canonicalizer *NameCanonicalizer
	parser        contracts.FormulaParser
	serializer    *SheetSerializer
	logger        *slog.Logger
	changed       bool
}

type SheetOption func(*Sheet)

func WithFormulaParser(parser contracts.FormulaParser) SheetOption {
	return func(s *Sheet) {
		s.parser = parser
	}
}

func WithLogger(logger *slog.Logger) SheetOption {
	return func(s *Sheet) {
		s.logger = logger
	}
}

func NewSheet(options ...SheetOption) *Sheet {
	canonicalizer := NewNameCanonicalizer()
	graph := NewReferenceGraph()

	s := &Sheet{
		cells:         make(map[string]*Cell),
		graph:         graph,
		planner:       NewRecalculationPlanner(graph),
		canonicalizer: canonicalizer,
		serializer:    NewSheetSerializer(),
		logger:        slog.Default(),
	}
	for _, option := range options {
		option(s)
	}
	if s.parser == nil {
		s.parser = NewExpressionFormulaParser(canonicalizer)
	}

	return s
}

// Changed reports whether the sheet was modified since it was created, loaded or saved
func (s *Sheet) Changed() bool {
	return s.changed
}

// NonEmptyCellNames returns the canonical names of all stored cells in no particular order
func (s *Sheet) NonEmptyCellNames() []string {
	names := make([]string, 0, len(s.cells))
	for name := range s.cells {
		names = append(names, name)
	}
	return names
}

func (s *Sheet) CellNames() []string {
	names := s.NonEmptyCellNames()
	sort.Strings(names)
	return names
}

func (s *Sheet) GetContents(name string) (contracts.Contents, error) {
	canonicalName, err := s.canonicalizer.Canonicalize(name)
	if err != nil {
		return nil, err
	}

	if cell, ok := s.cells[canonicalName]; ok {
		return cell.Contents(), nil
	}
	return contracts.TextContents(""), nil
}

func (s *Sheet) GetValue(name string) (contracts.Value, error) {
	canonicalName, err := s.canonicalizer.Canonicalize(name)
	if err != nil {
		return nil, err
	}

	if cell, ok := s.cells[canonicalName]; ok {
		return cell.Value(), nil
	}
	return contracts.TextValue(""), nil
}

// SetContents stores `content` into the cell and recalculates every cell depending on it.
// A number becomes a number cell, a FormulaPrefix starts a formula, anything else is text;
// empty text removes the cell.
// It returns the changed cell's canonical name followed by its direct and indirect dependents
// in evaluation order. On any error nothing is changed.
// Invalid UTF-8 sequences in content are replaced with U+FFFD.
func (s *Sheet) SetContents(name string, content string) ([]string, error) {
	canonicalName, err := s.canonicalizer.Canonicalize(name)
	if err != nil {
		return nil, err
	}

	// the serialized form is JSON, which cannot carry invalid UTF-8
	content = strings.ToValidUTF8(content, "\uFFFD")

	var order []string

	if number, ok := parseNumber(content); ok {
		order, err = s.setCell(canonicalName, NewNumberCell(number))
	} else if strings.HasPrefix(content, contracts.FormulaPrefix) {
		order, err = s.setFormula(canonicalName, strings.TrimPrefix(content, contracts.FormulaPrefix))
	} else if content == "" {
		order, err = s.setCell(canonicalName, nil)
	} else {
		order, err = s.setCell(canonicalName, NewTextCell(content))
	}

	if err != nil {
		return nil, err
	}

	for _, affectedName := range order[1:] {
		if cell, ok := s.cells[affectedName]; ok {
			cell.Recalculate(s.lookup)
		}
	}

	s.changed = true
	s.logger.Debug("cell contents set", "cell", canonicalName, "affected", len(order))

	return order, nil
}

// setCell stores a text or number cell, nil removes the cell
func (s *Sheet) setCell(name string, cell *Cell) ([]string, error) {
	s.graph.ReplaceDependees(name, nil)

	order, err := s.planner.Plan(name)
	if err != nil {
		return nil, err
	}

	if cell == nil {
		delete(s.cells, name)
	} else {
		s.cells[name] = cell
	}
	return order, nil
}

func (s *Sheet) setFormula(name string, text string) ([]string, error) {
	formula, err := s.parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", name, err)
	}

	previousDependees := s.graph.GetDependees(name)
	s.graph.ReplaceDependees(name, formula.Variables())

	order, err := s.planner.Plan(name)
	if err != nil {
		s.graph.ReplaceDependees(name, previousDependees)
		s.logger.Info("circular dependency rejected", "cell", name, "formula", formula.String())
		return nil, err
	}

	s.cells[name] = NewFormulaCell(formula, s.lookup)
	return order, nil
}

func (s *Sheet) lookup(name string) (float64, error) {
	cell, ok := s.cells[name]
	if !ok {
		return 0, fmt.Errorf("cell %s is empty", name)
	}

	if number, ok := cell.Value().(contracts.NumberValue); ok {
		return float64(number), nil
	}
	return 0, fmt.Errorf("cell %s does not hold a number", name)
}

// parseNumber accepts finite numbers in plain decimal notation only
func parseNumber(content string) (float64, bool) {
	if !decimalNumberPattern.MatchString(content) {
		return 0, false
	}

	number, err := strconv.ParseFloat(content, 64)
	if err != nil || math.IsInf(number, 0) || math.IsNaN(number) {
		return 0, false
	}
	return number, true
}

// Save writes the serialized sheet and clears the changed flag
func (s *Sheet) Save(storage contracts.SheetStorage, key string) error {
	data, err := s.serializer.Marshal(s)
	if err != nil {
		return err
	}

	if err = storage.Write(key, data); err != nil {
		return err
	}

	s.changed = false
	return nil
}

// Load replaces the whole sheet with the stored one.
// Cells are replayed through SetContents into a fresh sheet, which is swapped in only when every cell is accepted.
func (s *Sheet) Load(storage contracts.SheetStorage, key string) error {
	data, err := storage.Read(key)
	if err != nil {
		return err
	}

	document, err := s.serializer.Unmarshal(data)
	if err != nil {
		return err
	}

	loaded := NewSheet(WithFormulaParser(s.parser), WithLogger(s.logger))
	names := make([]string, 0, len(document.Cells))
	for name := range document.Cells {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err = loaded.SetContents(name, document.Cells[name].StringForm); err != nil {
			return fmt.Errorf("%w: %w", contracts.ReadWriteError, err)
		}
	}

	s.cells = loaded.cells
	s.graph = loaded.graph
	s.planner = loaded.planner
	s.changed = false
	return nil
}
