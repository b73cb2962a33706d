package tui

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/asmbench/internal/core/config"
)

// Action represents a resolved keybinding action ready for execution.
type Action struct {
	Name    string // one of the config.Action* names
	Key     string
	Help    string
	Confirm string // Non-empty if confirmation required
}

// NeedsConfirm returns true if the action requires user confirmation.
func (a Action) NeedsConfirm() bool {
	return a.Confirm != ""
}

// KeybindingHandler resolves configured keys to workbench actions.
type KeybindingHandler struct {
	keybindings map[string]config.Keybinding
}

// NewKeybindingHandler creates a handler for the merged keybindings.
func NewKeybindingHandler(keybindings map[string]config.Keybinding) *KeybindingHandler {
	return &KeybindingHandler{keybindings: keybindings}
}

// Resolve maps a key name to its action.
func (h *KeybindingHandler) Resolve(key string) (Action, bool) {
	kb, ok := h.keybindings[key]
	if !ok || kb.Action == "" {
		return Action{}, false
	}

	action := Action{Name: kb.Action, Key: key, Help: kb.Help, Confirm: kb.Confirm}
	if action.Help == "" {
		action.Help = kb.Action
	}
	return action, true
}

// Bindings returns help entries for every configured key, sorted by key.
func (h *KeybindingHandler) Bindings() []key.Binding {
	keys := make([]string, 0, len(h.keybindings))
	for k := range h.keybindings {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]key.Binding, 0, len(keys))
	for _, k := range keys {
		a, ok := h.Resolve(k)
		if !ok {
			continue
		}
		out = append(out, key.NewBinding(key.WithKeys(k), key.WithHelp(k, a.Help)))
	}
	return out
}

// keyName returns the name a key press is configured under.
func keyName(msg tea.KeyMsg) string {
	if msg.Type == tea.KeySpace || msg.String() == " " {
		return "space"
	}
	return msg.String()
}

// KeyMap holds the fixed navigation keys.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	NextPane  key.Binding
	PrevPane  key.Binding
	Select    key.Binding
	AddFolder key.Binding
	AddRoot   key.Binding
	AddFile   key.Binding
	Delete    key.Binding
	Mark      key.Binding
	Tag       key.Binding
	Split     key.Binding
	Suggest   key.Binding
	Reload    key.Binding
	Escape    key.Binding
	Help      key.Binding
	Quit      key.Binding

	actions []key.Binding
}

// DefaultKeyMap returns the navigation keys plus help for the configured
// action keys.
func DefaultKeyMap(h *KeybindingHandler) KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:       key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "top")),
		Bottom:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "bottom")),
		NextPane:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		PrevPane:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		AddFolder: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add folder")),
		AddRoot:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add root folder")),
		AddFile:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload file")),
		Delete:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Mark:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "mark lines")),
		Tag:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "tag section")),
		Split:     key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "split file")),
		Suggest:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "apply suggestions")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		actions:   h.Bindings(),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPane, k.Select, k.Mark, k.Tag, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.NextPane, k.PrevPane, k.Select, k.Escape, k.Reload, k.Help, k.Quit},
		{k.AddFolder, k.AddRoot, k.AddFile, k.Delete},
		{k.Mark, k.Tag, k.Split, k.Suggest},
		k.actions,
	}
}
