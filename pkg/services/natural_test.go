package services

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"img2", "img10", -1},
		{"img10", "imgomega", -1},
		{"img2", "imgomega", -1},
		{"a", "ab", -1},
		{"ab", "a", 1},
		{"clip 2", "clip 10", -1},
		{"same", "same", 0},
		{"", "", 0},
		{"", "a", -1},
		{"file007", "file7", 1},
		{"v99999999999999999999999", "v100000000000000000000000", -1},
		{"Season 1 Episode 9", "Season 1 Episode 10", -1},
		{"B", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, naturalCompare(tt.a, tt.b))
			assert.Equal(t, -tt.want, naturalCompare(tt.b, tt.a))
		})
	}
}

func TestNaturalCompareWhitespacePaddedNumbers(t *testing.T) {
	// Padding is skipped, so the digit runs compare equal and only the
	// overall length breaks the tie.
	assert.Equal(t, 0, compareDigits("10", "10"))
	assert.Equal(t, -1, naturalCompare("10", "  10"))
	assert.Equal(t, -1, naturalCompare(" 9", "  10"))
	assert.Equal(t, 0, naturalCompare(" 10", " 10"))
}

func TestNaturalLessSortsNames(t *testing.T) {
	names := []string{"clip 10", "clip 2", "clip 1", "intro", "clip 20", "Clip 3"}
	sort.Slice(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})

	assert.Equal(t, []string{"Clip 3", "clip 1", "clip 2", "clip 10", "clip 20", "intro"}, names)
}
