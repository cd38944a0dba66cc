// Package version implements dotted-numeric version comparison.
package version

import (
	"strconv"
	"strings"
)

// Result is the outcome of comparing two versions.
type Result int

const (
	// Older means the first version is lower than the second.
	Older Result = -1
	// Equal means both versions denote the same release.
	Equal Result = 0
	// Newer means the first version is higher than the second.
	Newer Result = 1
)

// String returns a human readable name for the result.
func (r Result) String() string {
	switch r {
	case Older:
		return "older"
	case Newer:
		return "newer"
	default:
		return "equal"
	}
}

// Parse splits a dotted version string into its numeric segments.
// Non-numeric segments degrade to 0 rather than failing, so an empty
// or garbage string parses as a zero version.
func Parse(s string) []int {
	parts := strings.Split(strings.TrimSpace(s), ".")
	segs := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			n = 0
		}
		segs[i] = n
	}
	return segs
}

// Compare compares two dotted version strings segment by segment.
// Shorter versions are right-padded with zeros, so "1.2" equals "1.2.0".
// Compare never fails; unparsable input compares as zero.
func Compare(a, b string) Result {
	as := Parse(a)
	bs := Parse(b)

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av > bv {
			return Newer
		}
		if av < bv {
			return Older
		}
	}
	return Equal
}
