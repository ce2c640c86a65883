// Package nutrition holds the estimation core: range-string arithmetic,
// daily targets, log folding and the warning rules. Everything in here is a
// pure function of its inputs.
package nutrition

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unavailable is the sentinel emitted whenever a quantity could not be
// estimated. It is absorbing under aggregation.
const Unavailable = "unavailable"

// unavailableKR is the sentinel older logs carry.
const unavailableKR = "추정 불가"

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseRange extracts a numeric interval from a range string or arbitrary
// text. A single number is treated as a degenerate interval; with two or
// more numbers the first and last are taken. Empty input, either
// unavailability sentinel, or text with no numbers yields ok=false.
// Malformed input never panics.
func ParseRange(s string) (min, max float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	if strings.Contains(strings.ToLower(s), Unavailable) || strings.Contains(s, unavailableKR) {
		return 0, 0, false
	}
	nums := numberPattern.FindAllString(s, -1)
	if len(nums) == 0 {
		return 0, 0, false
	}
	min, _ = strconv.ParseFloat(nums[0], 64)
	max = min
	if len(nums) > 1 {
		max, _ = strconv.ParseFloat(nums[len(nums)-1], 64)
	}
	return min, max, true
}

// FormatRange renders an interval as "min~max" with both bounds rounded to
// the nearest integer.
func FormatRange(min, max float64) string {
	return fmt.Sprintf("%d~%d", int(math.Round(min)), int(math.Round(max)))
}

// AddRanges sums two range strings. If either side fails to parse the
// result is Unavailable, so one unparseable meal poisons the daily sum for
// that macro. In the numeric case the operation is associative and
// commutative: well-formed inputs carry integer bounds, so per-step
// rounding never drifts.
func AddRanges(a, b string) string {
	minA, maxA, okA := ParseRange(a)
	if !okA {
		return Unavailable
	}
	minB, maxB, okB := ParseRange(b)
	if !okB {
		return Unavailable
	}
	return FormatRange(minA+minB, maxA+maxB)
}
