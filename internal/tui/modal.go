package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

// modal captures key input until it reports done.
type modal interface {
	Update(msg tea.KeyMsg) (done bool, cmd tea.Cmd)
	View() string
}

// overlay centers a modal over the full screen area.
func overlay(m modal, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styles.ModalStyle.Render(m.View()))
}

// confirmModal is a yes/no dialog.
type confirmModal struct {
	title           string
	message         string
	confirmSelected bool
	onConfirm       func() tea.Cmd
}

func newConfirmModal(title, message string, onConfirm func() tea.Cmd) *confirmModal {
	return &confirmModal{title: title, message: message, confirmSelected: true, onConfirm: onConfirm}
}

func (m *confirmModal) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "h", "l", "tab":
		m.confirmSelected = !m.confirmSelected
	case "y":
		return true, m.onConfirm()
	case "n", "esc", "q":
		return true, nil
	case "enter":
		if m.confirmSelected {
			return true, m.onConfirm()
		}
		return true, nil
	}
	return false, nil
}

func (m *confirmModal) View() string {
	confirm, cancel := "[ Confirm ]", "  Cancel  "
	if !m.confirmSelected {
		confirm, cancel = "  Confirm  ", "[ Cancel ]"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(m.title),
		"",
		m.message,
		"",
		confirm+"  "+cancel,
		styles.HelpStyle.Render("y/n  ←/→ select  enter confirm  esc cancel"),
	)
}

// kindModal picks a section kind, by number or by cursor.
type kindModal struct {
	span   section.Span
	cursor int
	onPick func(section.Kind) tea.Cmd
}

func newKindModal(span section.Span, onPick func(section.Kind) tea.Cmd) *kindModal {
	return &kindModal{span: span, onPick: onPick}
}

func (m *kindModal) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	kinds := section.Kinds()
	switch s := msg.String(); s {
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(kinds)) % len(kinds)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(kinds)
	case "enter":
		return true, m.onPick(kinds[m.cursor])
	case "esc", "q":
		return true, nil
	default:
		if k, err := section.ParseKind(s); err == nil && len(s) == 1 {
			return true, m.onPick(k)
		}
	}
	return false, nil
}

func (m *kindModal) View() string {
	var b strings.Builder
	for i, k := range section.Kinds() {
		line := fmt.Sprintf("%d. %s", i+1, k)
		if i == m.cursor {
			line = styles.TreeSelectedStyle.Render(line)
		} else {
			line = styles.SectionStyle(k).Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(fmt.Sprintf("Tag lines %d-%d", m.span.Start, m.span.End)),
		"",
		strings.TrimSuffix(b.String(), "\n"),
		"",
		styles.HelpStyle.Render("1-5 pick  ↑/↓ move  enter confirm  esc cancel"),
	)
}

// inputModal reads one line of text.
type inputModal struct {
	title    string
	input    textinput.Model
	onSubmit func(string) tea.Cmd
}

func newInputModal(title, placeholder string, onSubmit func(string) tea.Cmd) *inputModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()
	return &inputModal{title: title, input: ti, onSubmit: onSubmit}
}

func (m *inputModal) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return true, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return true, nil
		}
		return true, m.onSubmit(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return false, cmd
}

func (m *inputModal) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(m.title),
		"",
		m.input.View(),
		"",
		styles.HelpStyle.Render("enter submit  esc cancel"),
	)
}
