// Package edgecases varies the identifying fields of sample files so that
// de-identification is exercised against awkward real-world values.
package edgecases

import (
	"fmt"
	"strings"
)

// Kind is a category of edge case.
type Kind string

const (
	SpecialChars Kind = "special-chars"
	LongNames    Kind = "long-names"
	MissingTags  Kind = "missing-tags"
	OldDates     Kind = "old-dates"
	VariedIDs    Kind = "varied-ids"
	NestedNames  Kind = "nested-names"
)

// AllKinds returns all valid kinds.
func AllKinds() []Kind {
	return []Kind{SpecialChars, LongNames, MissingTags, OldDates, VariedIDs, NestedNames}
}

// Config holds edge case generation settings.
type Config struct {
	Percentage int    // 0-100, share of files that get an edge case
	Kinds      []Kind // enabled kinds
}

// ParseKinds parses comma-separated kinds. "all" selects every kind.
func ParseKinds(input string) ([]Kind, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	valid := make(map[Kind]bool)
	for _, k := range AllKinds() {
		valid[k] = true
	}

	parts := strings.Split(input, ",")
	result := make([]Kind, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "all" {
			return AllKinds(), nil
		}
		k := Kind(p)
		if !valid[k] {
			return nil, fmt.Errorf("unknown edge case %q, valid kinds: %v (or 'all')", p, AllKinds())
		}
		result = append(result, k)
	}
	return result, nil
}

// Validate checks if config is valid.
func (c *Config) Validate() error {
	if c.Percentage < 0 || c.Percentage > 100 {
		return fmt.Errorf("edge-cases percentage must be 0-100, got %d", c.Percentage)
	}
	if c.Percentage > 0 && len(c.Kinds) == 0 {
		return fmt.Errorf("edge-cases enabled but no kinds specified")
	}
	return nil
}

// IsEnabled returns true if edge cases are enabled.
func (c *Config) IsEnabled() bool {
	return c.Percentage > 0 && len(c.Kinds) > 0
}

// Has checks if a specific kind is enabled.
func (c *Config) Has(k Kind) bool {
	for _, ck := range c.Kinds {
		if ck == k {
			return true
		}
	}
	return false
}
