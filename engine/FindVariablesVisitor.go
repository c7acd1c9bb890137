package engine

import (
	"fmt"

	"github.com/expr-lang/expr/ast"
)

var allowedUnaryOperators = map[string]bool{"+": true, "-": true}

var allowedBinaryOperators = map[string]bool{"+": true, "-": true, "*": true, "/": true, "^": true, "**": true}

// FindVariablesVisitor collects identifiers of an arithmetic formula and rejects anything else
type FindVariablesVisitor struct {
	identifiers []*ast.IdentifierNode
	callees     map[*ast.IdentifierNode]bool
	functions   []string
	err         error
}

func NewFindVariablesVisitor() *FindVariablesVisitor {
	return &FindVariablesVisitor{callees: map[*ast.IdentifierNode]bool{}}
}

func (v *FindVariablesVisitor) Visit(node *ast.Node) {
	if v.err != nil {
		return
	}

	switch typed := (*node).(type) {
	case *ast.IdentifierNode:
		v.identifiers = append(v.identifiers, typed)
	case *ast.IntegerNode, *ast.FloatNode:
	case *ast.UnaryNode:
		if !allowedUnaryOperators[typed.Operator] {
			v.err = fmt.Errorf("operator `%s` is not supported", typed.Operator)
		}
	case *ast.BinaryNode:
		if !allowedBinaryOperators[typed.Operator] {
			v.err = fmt.Errorf("operator `%s` is not supported", typed.Operator)
		}
	case *ast.CallNode:
		callee, ok := typed.Callee.(*ast.IdentifierNode)
		if !ok {
			v.err = fmt.Errorf("only named functions can be called")
			return
		}
		v.callees[callee] = true
	case *ast.BuiltinNode:
		v.functions = append(v.functions, typed.Name)
	default:
		v.err = fmt.Errorf("`%s` is not an arithmetic expression", (*node).String())
	}
}

// Variables returns the identifiers which are read as cells, in first-seen order
func (v *FindVariablesVisitor) Variables() []*ast.IdentifierNode {
	variables := make([]*ast.IdentifierNode, 0, len(v.identifiers))
	for _, identifier := range v.identifiers {
		if !v.callees[identifier] {
			variables = append(variables, identifier)
		}
	}
	return variables
}

// Callees returns the identifiers used as function names
func (v *FindVariablesVisitor) Callees() []*ast.IdentifierNode {
	callees := make([]*ast.IdentifierNode, 0, len(v.callees))
	for _, identifier := range v.identifiers {
		if v.callees[identifier] {
			callees = append(callees, identifier)
		}
	}
	return callees
}

// BuiltinNames returns names of calls the parser resolved as expr builtins
func (v *FindVariablesVisitor) BuiltinNames() []string {
	return v.functions
}

func (v *FindVariablesVisitor) Err() error {
	return v.err
}
