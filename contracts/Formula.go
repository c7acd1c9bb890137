package contracts

// Lookup resolves a canonical cell name to its numeric value.
// It fails when the cell is empty or does not hold a number.
type Lookup func(name string) (float64, error)

type Formula interface {
	// Variables returns the distinct canonical cell names the formula reads, in first-seen order
	Variables() []string

	// Evaluate returns NumberValue or FormulaError. Lookup failures are absorbed into FormulaError.
	Evaluate(lookup Lookup) Value

	// String renders the canonical formula text, without FormulaPrefix
	String() string
}

type FormulaParser interface {
	// Parse fails with an error wrapping FormulaFormatError
	Parse(text string) (Formula, error)
}
