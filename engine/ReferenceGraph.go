package engine

import (
	"slices"
)

// ReferenceGraph keeps "A depends on B" edges between cells in both directions.
// Names are interned into dense node indices; a name without a node has no edges.
type ReferenceGraph struct {
	index map[string]int
	nodes []referenceNode
	size  int
}

type referenceNode struct {
	name string
	// in the order the formula mentions them
	dependees []int
	// sorted by node index
	dependents []int
}

func NewReferenceGraph() *ReferenceGraph {
	return &ReferenceGraph{
		index: make(map[string]int),
	}
}

// Size is the number of dependency edges
func (g *ReferenceGraph) Size() int {
	return g.size
}

func (g *ReferenceGraph) ReplaceDependees(name string, dependees []string) {
	id, ok := g.index[name]
	if !ok && len(dependees) == 0 {
		return
	}
	if !ok {
		id = g.intern(name)
	}

	newDependees := make([]int, 0, len(dependees))
	for _, dependeeName := range dependees {
		dependeeId := g.intern(dependeeName)
		if !slices.Contains(newDependees, dependeeId) {
			newDependees = append(newDependees, dependeeId)
		}
	}

	for _, oldDependeeId := range g.nodes[id].dependees {
		if !slices.Contains(newDependees, oldDependeeId) {
			g.nodes[oldDependeeId].dependents = removeSorted(g.nodes[oldDependeeId].dependents, id)
			g.size--
		}
	}

	for _, newDependeeId := range newDependees {
		if !slices.Contains(g.nodes[id].dependees, newDependeeId) {
			g.nodes[newDependeeId].dependents = insertSorted(g.nodes[newDependeeId].dependents, id)
			g.size++
		}
	}

	g.nodes[id].dependees = newDependees
}

func (g *ReferenceGraph) GetDependents(name string) []string {
	id, ok := g.index[name]
	if !ok {
		return []string{}
	}

	return g.names(g.nodes[id].dependents)
}

func (g *ReferenceGraph) GetDependees(name string) []string {
	id, ok := g.index[name]
	if !ok {
		return []string{}
	}

	return g.names(g.nodes[id].dependees)
}

func (g *ReferenceGraph) HasDependents(name string) bool {
	id, ok := g.index[name]
	return ok && len(g.nodes[id].dependents) > 0
}

func (g *ReferenceGraph) HasDependees(name string) bool {
	id, ok := g.index[name]
	return ok && len(g.nodes[id].dependees) > 0
}

func (g *ReferenceGraph) intern(name string) int {
	if id, ok := g.index[name]; ok {
		return id
	}

	id := len(g.nodes)
	g.nodes = append(g.nodes, referenceNode{name: name})
	g.index[name] = id
	return id
}

func (g *ReferenceGraph) names(ids []int) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = g.nodes[id].name
	}
	return names
}

func insertSorted(ids []int, id int) []int {
	position, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, position, id)
}

func removeSorted(ids []int, id int) []int {
	position, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, position, position+1)
}
