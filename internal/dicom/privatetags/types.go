// Package privatetags builds the vendor private elements that real MR scanners
// attach to their images, and reproduces the malformed lengths some of them
// write. Sample files carry them so that anonymization and conversion are
// exercised against realistic vendor data.
package privatetags

import (
	"fmt"
	"strings"
)

// Kind is a category of vendor data.
type Kind string

const (
	SiemensCSA       Kind = "siemens-csa"
	GEPrivate        Kind = "ge-private"
	PhilipsPrivate   Kind = "philips-private"
	MalformedLengths Kind = "malformed-lengths"
)

// AllKinds returns all valid kinds.
func AllKinds() []Kind {
	return []Kind{SiemensCSA, GEPrivate, PhilipsPrivate, MalformedLengths}
}

// Config selects which kinds are generated.
type Config struct {
	Kinds []Kind
}

// ParseKinds parses comma-separated kinds.
// The special value "all" enables every kind.
func ParseKinds(input string) ([]Kind, error) {
	if input == "" {
		return nil, nil
	}

	parts := strings.Split(input, ",")
	valid := make(map[Kind]bool)
	for _, k := range AllKinds() {
		valid[k] = true
	}

	result := make([]Kind, 0, len(parts))
	seen := make(map[Kind]bool)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "all" {
			return AllKinds(), nil
		}
		k := Kind(p)
		if !valid[k] {
			return nil, fmt.Errorf("unknown private tag kind %q, valid kinds: %v (or 'all')", p, AllKinds())
		}
		if !seen[k] {
			result = append(result, k)
			seen[k] = true
		}
	}
	return result, nil
}

// IsEnabled returns true if any kind is selected.
func (c *Config) IsEnabled() bool {
	return len(c.Kinds) > 0
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

// ForManufacturer returns the private element kind a scanner of the given
// manufacturer writes.
func ForManufacturer(manufacturer string) (Kind, bool) {
	m := strings.ToUpper(manufacturer)
	switch {
	case strings.Contains(m, "SIEMENS"):
		return SiemensCSA, true
	case strings.Contains(m, "GE"):
		return GEPrivate, true
	case strings.Contains(m, "PHILIPS"):
		return PhilipsPrivate, true
	default:
		return "", false
	}
}
