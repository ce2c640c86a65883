package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		min   float64
		max   float64
		ok    bool
	}{
		{"plain range", "25~40", 25, 40, true},
		{"single number", "30", 30, 30, true},
		{"decimals", "12.5~20.5", 12.5, 20.5, true},
		{"interior numbers ignored", "10~15~30", 10, 30, true},
		{"number in prose", "about 300 kcal", 300, 300, true},
		{"english sentinel", "unavailable", 0, 0, false},
		{"korean sentinel", "추정 불가", 0, 0, false},
		{"empty", "", 0, 0, false},
		{"no numbers", "not a range", 0, 0, false},
		{"whitespace only", "   ", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, ok := ParseRange(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.min, min)
				assert.Equal(t, tt.max, max)
			}
		})
	}
}

func TestParseRangeSentinelEmbedded(t *testing.T) {
	// Sentinel wins even when the text around it contains numbers.
	_, _, ok := ParseRange("unavailable (was 300 kcal)")
	assert.False(t, ok)
}

func TestAddRanges(t *testing.T) {
	assert.Equal(t, "10~20", AddRanges("0~0", "10~20"))
	assert.Equal(t, "90~130", AddRanges("40~60", "50~70"))
	assert.Equal(t, Unavailable, AddRanges("5~10", "unavailable"))
	assert.Equal(t, Unavailable, AddRanges("unavailable", "5~10"))
	assert.Equal(t, Unavailable, AddRanges("unavailable", "unavailable"))
	assert.Equal(t, Unavailable, AddRanges("garbage", "5~10"))
}

func TestAddRangesCommutative(t *testing.T) {
	assert.Equal(t, AddRanges("3~7", "11~13"), AddRanges("11~13", "3~7"))
}

func TestAddRangesAssociative(t *testing.T) {
	triples := [][3]string{
		{"0~0", "10~20", "5~8"},
		{"400~500", "300~350", "250~300"},
		{"1~1", "2~2", "3~3"},
	}
	for _, tr := range triples {
		left := AddRanges(AddRanges(tr[0], tr[1]), tr[2])
		right := AddRanges(tr[0], AddRanges(tr[1], tr[2]))
		require.Equal(t, left, right, "fold order must not matter for %v", tr)
	}
}

func TestFormatRangeRounds(t *testing.T) {
	assert.Equal(t, "13~20", FormatRange(12.5, 20.4))
}
