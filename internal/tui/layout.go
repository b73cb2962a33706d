package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// scrollTo returns the first visible row keeping cursor inside a window
// of height rows that currently starts at offset.
func scrollTo(cursor, offset, height int) int {
	if height <= 0 {
		return 0
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+height {
		return cursor - height + 1
	}
	return max(offset, 0)
}

// fit truncates s to width cells and pads it with spaces to exactly width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = lipgloss.NewStyle().MaxWidth(width).Render(s)
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// fitLines fits every line to width and pads or cuts the list to height.
func fitLines(lines []string, width, height int) string {
	out := make([]string, height)
	for i := range out {
		if i < len(lines) {
			out[i] = fit(lines[i], width)
		} else {
			out[i] = strings.Repeat(" ", max(width, 0))
		}
	}
	return strings.Join(out, "\n")
}

// overlayBottomRight draws fg over the last lines of bg, right aligned.
func overlayBottomRight(bg, fg string, width int) string {
	if fg == "" {
		return bg
	}
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	start := max(len(bgLines)-len(fgLines)-1, 0)

	for i, fl := range fgLines {
		row := start + i
		if row >= len(bgLines) {
			break
		}
		fw := lipgloss.Width(fl)
		left := max(width-fw-1, 0)
		bgLines[row] = fit(bgLines[row], left) + fl
	}
	return strings.Join(bgLines, "\n")
}

// expandTabs replaces tabs with spaces to the next multiple of 8 so width
// math holds.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := 8 - col%8
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
