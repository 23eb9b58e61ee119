// Package strings holds the string assertions module wiring relies on
package strings

import std "strings"

// MustString returns s unless it is blank, in which case it panics naming what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a mount path like " periods/ " to "/periods"
// it panics when nothing but slashes and spaces remain
func MustPrefix(s string) string {
	s = "/" + std.Trim(s, " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}
