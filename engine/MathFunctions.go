package engine

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
)

type aggregateFunction func(args ...any) (any, error)

// aggregate adapts a reduction over at least one number into an expr function
func aggregate(name string, reduce func(numbers []float64) float64) aggregateFunction {
	return func(args ...any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: at least one argument is required", name)
		}

		numbers := make([]float64, 0, len(args))
		for i, arg := range args {
			number, ok := toNumber(arg)
			if !ok {
				return nil, fmt.Errorf("%s: argument %d is not a number", name, i+1)
			}
			numbers = append(numbers, number)
		}
		return reduce(numbers), nil
	}
}

func sum(numbers []float64) float64 {
	var total float64
	for _, number := range numbers {
		total += number
	}
	return total
}

var mathFunctions = map[string]aggregateFunction{
	"max": aggregate("max", slices.Max[[]float64]),
	"min": aggregate("min", slices.Min[[]float64]),
	"sum": aggregate("sum", sum),
	"avg": aggregate("avg", func(numbers []float64) float64 {
		return sum(numbers) / float64(len(numbers))
	}),
}

func mathFunctionOptions() []expr.Option {
	options := make([]expr.Option, 0, len(mathFunctions))
	for name, fn := range mathFunctions {
		options = append(options, expr.Function(name, fn))
	}
	return options
}
