package engine

import (
	"fmt"

	"github.com/henrika2/spreadsheet/contracts"
)

type RecalculationPlanner struct {
	graph contracts.ReferenceGraph
}

func NewRecalculationPlanner(graph contracts.ReferenceGraph) *RecalculationPlanner {
	return &RecalculationPlanner{graph: graph}
}

type planFrame struct {
	name       string
	dependents []string
	next       int
}

// Plan returns `changedName` followed by every cell which transitively depends on it,
// each cell placed before all of its dependents.
// It fails with CircularDependencyError when the walk reaches `changedName` again.
// The graph is never modified, so Plan may be called speculatively.
func (p *RecalculationPlanner) Plan(changedName string) ([]string, error) {
	visited := map[string]bool{changedName: true}
	stack := []planFrame{{name: changedName, dependents: p.graph.GetDependents(changedName)}}
	finished := make([]string, 0, 8)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next < len(top.dependents) {
			dependent := top.dependents[top.next]
			top.next++

			if dependent == changedName {
				return nil, fmt.Errorf("%s is reachable from itself via %s: %w", changedName, top.name, contracts.CircularDependencyError)
			}

			if !visited[dependent] {
				visited[dependent] = true
				stack = append(stack, planFrame{name: dependent, dependents: p.graph.GetDependents(dependent)})
			}
			continue
		}

		// all dependents are already placed, so this cell goes in front of them
		finished = append(finished, top.name)
		stack = stack[:len(stack)-1]
	}

	order := make([]string, len(finished))
	for i, name := range finished {
		order[len(finished)-1-i] = name
	}

	return order, nil
}
