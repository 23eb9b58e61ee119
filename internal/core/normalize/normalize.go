// Package normalize derives name keys under the two supported modes
// Exact keeps the raw value as grouping key
// Normalized trims surrounding whitespace and applies Unicode case folding
package normalize

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
)

// Mode selects how a name is turned into a grouping key
type Mode uint8

const (
	// Exact groups by the raw stored value, case and whitespace sensitive
	Exact Mode = iota
	// Normalized groups by the trimmed, case folded value
	Normalized
)

// String returns the wire name of the mode
func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Normalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// ParseMode maps a wire name back to a Mode, empty means Exact
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return Exact, true
	case "normalized", "normalised":
		return Normalized, true
	default:
		return Exact, false
	}
}

// folders are not safe for concurrent use so each call borrows one
var foldPool = sync.Pool{
	New: func() any { return cases.Fold() },
}

// Key returns the grouping key for s under m
// an empty key means the value is absent for aggregation purposes
func Key(s string, m Mode) string {
	if m == Exact {
		return s
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	c := foldPool.Get().(cases.Caser)
	out, _, _ := transform.String(c, s)
	c.Reset()
	foldPool.Put(c)
	return out
}

// Keyer binds a mode so callers can pass a single func around
type Keyer func(string) string

// For returns the Keyer for m
func For(m Mode) Keyer {
	return func(s string) string { return Key(s, m) }
}
