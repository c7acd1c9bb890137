package engine

import (
	"regexp"
	"strings"

	"github.com/henrika2/spreadsheet/contracts"
)

type NameCanonicalizer struct {
	cellNameRegex *regexp.Regexp
}

func NewNameCanonicalizer() *NameCanonicalizer {
	return &NameCanonicalizer{
		cellNameRegex: regexp.MustCompile(`^[A-Za-z]+[0-9]+$`),
	}
}

func (c *NameCanonicalizer) IsValid(name string) bool {
	return c.cellNameRegex.MatchString(name)
}

// Canonicalize returns the uppercase form of a valid cell name
func (c *NameCanonicalizer) Canonicalize(name string) (string, error) {
	if !c.IsValid(name) {
		return "", contracts.NewInvalidNameError(name)
	}

	return strings.ToUpper(name), nil
}
