package engine

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/henrika2/spreadsheet/contracts"
)

var vmPool = sync.Pool{
	New: func() any {
		return new(vm.VM)
	},
}

// ExpressionFormulaParser parses arithmetic formulas with expr.
// Cell names are case-insensitive and canonicalized to uppercase, function names to lowercase.
// The program is compiled from the canonical text, so a saved formula evaluates exactly as the live one.
type ExpressionFormulaParser struct {
	canonicalizer   *NameCanonicalizer
	parserConfig    *conf.Config
	compilerOptions []expr.Option
}

func NewExpressionFormulaParser(canonicalizer *NameCanonicalizer) *ExpressionFormulaParser {
	options := append([]expr.Option{
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.Optimize(false),
		expr.DisableAllBuiltins(),
	}, mathFunctionOptions()...)

	// math functions override expr builtins of the same name (sum, min, max) while parsing too
	parserConfig := conf.CreateNew()
	for _, option := range options {
		option(parserConfig)
	}

	return &ExpressionFormulaParser{
		canonicalizer:   canonicalizer,
		parserConfig:    parserConfig,
		compilerOptions: append(options, expr.Patch(floatLiteralPatcher{})),
	}
}

// floatLiteralPatcher turns integer literals into floats, cell values are float64 and int arithmetic would wrap around
type floatLiteralPatcher struct{}

func (floatLiteralPatcher) Visit(node *ast.Node) {
	if integer, ok := (*node).(*ast.IntegerNode); ok {
		ast.Patch(node, &ast.FloatNode{Value: float64(integer.Value)})
	}
}

func (p *ExpressionFormulaParser) Parse(text string) (contracts.Formula, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty formula: %w", contracts.FormulaFormatError)
	}

	tree, err := parser.ParseWithConfig(text, p.parserConfig)
	if err != nil {
		return nil, fmt.Errorf("`%s`: %s: %w", text, err.Error(), contracts.FormulaFormatError)
	}

	visitor := NewFindVariablesVisitor()
	ast.Walk(&tree.Node, visitor)
	if visitor.Err() != nil {
		return nil, fmt.Errorf("`%s`: %s: %w", text, visitor.Err().Error(), contracts.FormulaFormatError)
	}

	for _, callee := range visitor.Callees() {
		callee.Value = strings.ToLower(callee.Value)
		if _, ok := mathFunctions[callee.Value]; !ok {
			return nil, fmt.Errorf("`%s`: unknown function `%s`: %w", text, callee.Value, contracts.FormulaFormatError)
		}
	}
	for _, name := range visitor.BuiltinNames() {
		if _, ok := mathFunctions[name]; !ok {
			return nil, fmt.Errorf("`%s`: unknown function `%s`: %w", text, name, contracts.FormulaFormatError)
		}
	}

	variables := make([]string, 0, len(visitor.Variables()))
	seen := map[string]bool{}
	for _, identifier := range visitor.Variables() {
		name, err := p.canonicalizer.Canonicalize(identifier.Value)
		if err != nil {
			return nil, fmt.Errorf("`%s`: %s: %w", text, err.Error(), contracts.FormulaFormatError)
		}
		identifier.Value = name
		if !seen[name] {
			seen[name] = true
			variables = append(variables, name)
		}
	}

	canonicalText := printFormula(tree.Node)
	program, err := expr.Compile(canonicalText, p.compilerOptions...)
	if err != nil {
		return nil, fmt.Errorf("`%s`: %s: %w", text, err.Error(), contracts.FormulaFormatError)
	}

	return &ExpressionFormula{
		text:      canonicalText,
		variables: variables,
		program:   program,
	}, nil
}

type ExpressionFormula struct {
	text      string
	variables []string
	program   *vm.Program
}

func (f *ExpressionFormula) Variables() []string {
	return append([]string(nil), f.variables...)
}

func (f *ExpressionFormula) String() string {
	return f.text
}

func (f *ExpressionFormula) Evaluate(lookup contracts.Lookup) contracts.Value {
	env := make(map[string]any, len(f.variables))
	for _, name := range f.variables {
		value, err := lookup(name)
		if err != nil {
			return contracts.FormulaError{Reason: err.Error()}
		}
		env[name] = value
	}

	v := vmPool.Get().(*vm.VM)
	out, err := v.Run(f.program, env)
	vmPool.Put(v)
	if err != nil {
		return contracts.FormulaError{Reason: err.Error()}
	}

	number, ok := toNumber(out)
	if !ok {
		return contracts.FormulaError{Reason: fmt.Sprintf("result `%v` is not a number", out)}
	}
	if math.IsInf(number, 0) || math.IsNaN(number) {
		return contracts.FormulaError{Reason: "division by zero or numeric overflow"}
	}

	return contracts.NumberValue(number)
}

func toNumber(input any) (float64, bool) {
	switch typed := input.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}
