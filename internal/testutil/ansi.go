// Package testutil provides helpers shared by the test suites.
package testutil

import (
	"math/big"
	"regexp"
	"testing"
)

// ansiRegex matches CSI escape sequences: ESC [ parameters, final letter.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape codes from s, so that CLI output can be
// compared independently of the active color theme.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// MustBigInt parses a decimal integer or fails the test.
func MustBigInt(tb testing.TB, s string) *big.Int {
	tb.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		tb.Fatalf("testutil: invalid decimal integer %q", s)
	}
	return v
}
