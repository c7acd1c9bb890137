package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
)

// binding strength of formula operators, loosest first
const (
	additivePrecedence = iota + 1
	multiplicativePrecedence
	unaryPrecedence
	powerPrecedence
	primaryPrecedence
)

var binaryPrecedence = map[string]int{
	"+":  additivePrecedence,
	"-":  additivePrecedence,
	"*":  multiplicativePrecedence,
	"/":  multiplicativePrecedence,
	"^":  powerPrecedence,
	"**": powerPrecedence,
}

// printFormula renders an arithmetic tree so that parsing the text again yields the same tree.
// Parentheses are written only where precedence or associativity needs them.
func printFormula(node ast.Node) string {
	text, _ := printNode(node)
	return text
}

func printNode(node ast.Node) (string, int) {
	switch typed := node.(type) {
	case *ast.IdentifierNode:
		return typed.Value, primaryPrecedence
	case *ast.IntegerNode:
		return formatLiteral(float64(typed.Value)), primaryPrecedence
	case *ast.FloatNode:
		return formatLiteral(typed.Value), primaryPrecedence

	case *ast.UnaryNode:
		operand, precedence := printNode(typed.Node)
		if precedence <= unaryPrecedence {
			operand = "(" + operand + ")"
		}
		return typed.Operator + operand, unaryPrecedence

	case *ast.BinaryNode:
		precedence := binaryPrecedence[typed.Operator]
		rightAssociative := precedence == powerPrecedence

		left, leftPrecedence := printNode(typed.Left)
		if leftPrecedence < precedence || (rightAssociative && leftPrecedence == precedence) {
			left = "(" + left + ")"
		}

		right, rightPrecedence := printNode(typed.Right)
		if rightPrecedence < precedence || (!rightAssociative && rightPrecedence == precedence) || rightPrecedence == unaryPrecedence {
			right = "(" + right + ")"
		}

		operator := typed.Operator
		if operator == "**" {
			operator = "^"
		}
		return left + " " + operator + " " + right, precedence

	case *ast.CallNode:
		name := typed.Callee.String()
		if callee, ok := typed.Callee.(*ast.IdentifierNode); ok {
			name = callee.Value
		}
		return name + "(" + printArguments(typed.Arguments) + ")", primaryPrecedence
	case *ast.BuiltinNode:
		return typed.Name + "(" + printArguments(typed.Arguments) + ")", primaryPrecedence

	default:
		return node.String(), primaryPrecedence
	}
}

func printArguments(arguments []ast.Node) string {
	texts := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		text, _ := printNode(argument)
		texts = append(texts, text)
	}
	return strings.Join(texts, ", ")
}

// formatLiteral keeps large literals in exponent form, a long digit string would not parse back as an integer
func formatLiteral(number float64) string {
	if math.Abs(number) >= 1e15 {
		return strconv.FormatFloat(number, 'g', -1, 64)
	}
	return FormatNumber(number)
}
