package contracts

type ReferenceGraph interface {
	// ReplaceDependees
	/**
	 * Example, for formula `A1 = B1 + C1`:
	 *   ReplaceDependees("A1", []string{"B1", "C1"})
	 * A1 depends on B1 and C1; B1 and C1 each get A1 as a dependent.
	 * Previous dependees of A1 are dropped, an empty list clears them all.
	 */
	ReplaceDependees(name string, dependees []string)

	// GetDependents returns the cells which directly read `name`
	GetDependents(name string) []string

	// GetDependees returns the cells `name` directly reads
	GetDependees(name string) []string
}
