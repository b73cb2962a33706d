package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-1, 0, 5))
	assert.Equal(t, 5, clamp(9, 0, 5))
	assert.Equal(t, 3, clamp(3, 0, 5))
	assert.Equal(t, 0, clamp(3, 0, -1), "empty range")
}

func TestScrollTo(t *testing.T) {
	tests := []struct {
		name                   string
		cursor, offset, height int
		want                   int
	}{
		{name: "inside", cursor: 3, offset: 0, height: 10, want: 0},
		{name: "above", cursor: 2, offset: 5, height: 10, want: 2},
		{name: "below", cursor: 12, offset: 0, height: 10, want: 3},
		{name: "no height", cursor: 12, offset: 4, height: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrollTo(tt.cursor, tt.offset, tt.height))
		})
	}
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab   ", fit("ab", 5))
	assert.Equal(t, 3, lipgloss.Width(fit("abcdef", 3)))
	assert.Empty(t, fit("abc", 0))
}

func TestFitLines(t *testing.T) {
	out := strings.Split(fitLines([]string{"one", "two", "three"}, 4, 2), "\n")
	assert.Equal(t, []string{"one ", "two "}, out)

	out = strings.Split(fitLines([]string{"x"}, 2, 3), "\n")
	assert.Equal(t, []string{"x ", "  ", "  "}, out)
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "        inc     _counter", expandTabs("\tinc\t_counter"))
	assert.Equal(t, "ab      c", expandTabs("ab\tc"))
	assert.Equal(t, "plain", expandTabs("plain"))
}

func TestOverlayBottomRight(t *testing.T) {
	bg := strings.Join([]string{"..........", "..........", "..........", ".........."}, "\n")

	out := strings.Split(overlayBottomRight(bg, "XX", 10), "\n")

	assert.Equal(t, "..........", out[0])
	assert.Equal(t, ".......XX", out[2])
	assert.Equal(t, "..........", out[3], "the last row stays clear")
	assert.Equal(t, bg, overlayBottomRight(bg, "", 10))
}
