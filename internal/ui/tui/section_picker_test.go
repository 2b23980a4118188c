package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func testItems() []SectionItem {
	return []SectionItem{
		{Name: "pacman", Detail: "git, neovim"},
		{Name: "cargo", Detail: "ripgrep"},
		{Name: "pip_tools", Detail: "black"},
	}
}

func press(t *testing.T, m SectionPickerModel, msgs ...tea.KeyMsg) (SectionPickerModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(SectionPickerModel)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyAll   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	keyHelp  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}}
)

func TestNewSectionPickerModel(t *testing.T) {
	m := NewSectionPickerModel("Install", testItems())

	if len(m.items) != 3 {
		t.Errorf("expected 3 items, got %d", len(m.items))
	}
	if m.cursor != 0 {
		t.Errorf("expected cursor to be 0, got %d", m.cursor)
	}
	if m.countSelected() != 0 {
		t.Errorf("expected nothing selected, got %d", m.countSelected())
	}
	if m.Init() != nil {
		t.Error("expected Init to return nil")
	}
}

func TestSectionPicker_Navigation(t *testing.T) {
	m := NewSectionPickerModel("Install", testItems())

	m, _ = press(t, m, keyDown, keyDown, keyDown)
	if m.cursor != 2 {
		t.Errorf("expected cursor to stop at 2, got %d", m.cursor)
	}

	m, _ = press(t, m, keyUp, keyUp, keyUp)
	if m.cursor != 0 {
		t.Errorf("expected cursor to stop at 0, got %d", m.cursor)
	}
}

func TestSectionPicker_SelectAndConfirm(t *testing.T) {
	m := NewSectionPickerModel("Install", testItems())

	m, _ = press(t, m, keyDown, keyDown, keySpace, keyUp, keyUp, keySpace)
	m, cmd := press(t, m, keyEnter)

	if cmd == nil {
		t.Fatal("expected quit command after confirm")
	}
	got := m.Result()
	if got.Action != SectionPickerActionSelect {
		t.Errorf("expected select action, got %d", got.Action)
	}
	if strings.Join(got.Selected, ",") != "pacman,pip_tools" {
		t.Errorf("expected list order selection, got %v", got.Selected)
	}
}

func TestSectionPicker_ConfirmRequiresSelection(t *testing.T) {
	m := NewSectionPickerModel("Install", testItems())

	m, cmd := press(t, m, keyEnter)
	if cmd != nil {
		t.Error("expected no command when nothing is selected")
	}
	if m.Result().Action != SectionPickerActionNone {
		t.Error("expected no action")
	}
}

func TestSectionPicker_ToggleAll(t *testing.T) {
	m := NewSectionPickerModel("Install", testItems())

	m, _ = press(t, m, keySpace, keyAll)
	if m.countSelected() != 3 {
		t.Errorf("expected all selected, got %d", m.countSelected())
	}

	m, _ = press(t, m, keyAll)
	if m.countSelected() != 0 {
		t.Errorf("expected none selected, got %d", m.countSelected())
	}
}

func TestSectionPicker_Quit(t *testing.T) {
	m := NewSectionPickerModel("Install", testItems())
	m, _ = press(t, m, keySpace)

	m, cmd := press(t, m, keyQuit)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.Result().Action != SectionPickerActionNone {
		t.Error("expected no action after quit")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestSectionPicker_View(t *testing.T) {
	m := NewSectionPickerModel("Select sections", testItems())
	m, _ = press(t, m, keySpace)

	view := m.View()
	for _, want := range []string{"Select sections", "[x] Pacman", "[ ] Pip Tools", "git, neovim", "1 of 3 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, _ = press(t, m, keyHelp)
	if !strings.Contains(m.View(), "Toggle all sections") {
		t.Error("expected full help after ?")
	}
}

func TestTruncateText(t *testing.T) {
	tests := map[string]struct {
		text  string
		width int
		want  string
	}{
		"fits":       {text: "git", width: 5, want: "git"},
		"ellipsis":   {text: "ripgrep fd bat", width: 8, want: "ripgr..."},
		"tiny width": {text: "neovim", width: 2, want: "ne"},
		"zero width": {text: "neovim", width: 0, want: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := truncateText(tt.text, tt.width); got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}
