// Package tui holds the BubbleTea section picker used by install --pick.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/punto/internal/ui"
)

// SectionPickerAction represents the action to perform after selection.
type SectionPickerAction int

const (
	// SectionPickerActionNone means no action was taken (user quit).
	SectionPickerActionNone SectionPickerAction = iota
	// SectionPickerActionSelect means the user confirmed a selection.
	SectionPickerActionSelect
)

// SectionItem is one selectable section.
type SectionItem struct {
	Name   string
	Detail string
}

// SectionPickerResult contains the result of the picker interaction.
type SectionPickerResult struct {
	Action SectionPickerAction
	// Selected holds the chosen section names in list order.
	Selected []string
}

// sectionPickerKeyMap defines the key bindings for the section picker.
type sectionPickerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	Confirm key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultSectionPickerKeyMap() sectionPickerKeyMap {
	return sectionPickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
		All: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// SectionPickerModel is the BubbleTea model for choosing installer sections.
type SectionPickerModel struct {
	title    string
	items    []SectionItem
	selected map[int]bool
	cursor   int
	keys     sectionPickerKeyMap
	result   SectionPickerResult
	showHelp bool
	width    int
	quitting bool
}

// Styles for the section picker TUI.
var sectionPickerStyles = struct {
	Title    lipgloss.Style
	Help     lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Detail   lipgloss.Style
	Status   lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Item:     lipgloss.NewStyle().Padding(0, 2),
	Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 2),
	Detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 4),
	Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// NewSectionPickerModel creates a picker over items with nothing selected.
func NewSectionPickerModel(title string, items []SectionItem) SectionPickerModel {
	return SectionPickerModel{
		title:    title,
		items:    items,
		selected: make(map[int]bool),
		keys:     defaultSectionPickerKeyMap(),
	}
}

// Init implements tea.Model.
func (m SectionPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SectionPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			if len(m.items) > 0 {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}

		case key.Matches(msg, m.keys.All):
			all := m.countSelected() < len(m.items)
			for i := range m.items {
				m.selected[i] = all
			}

		case key.Matches(msg, m.keys.Confirm):
			if m.countSelected() == 0 {
				return m, nil
			}
			m.result = SectionPickerResult{Action: SectionPickerActionSelect}
			for i, item := range m.items {
				if m.selected[i] {
					m.result.Selected = append(m.result.Selected, item.Name)
				}
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m SectionPickerModel) countSelected() int {
	n := 0
	for i := range m.items {
		if m.selected[i] {
			n++
		}
	}
	return n
}

// View implements tea.Model.
func (m SectionPickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(sectionPickerStyles.Title.Render(m.title))
	b.WriteString("\n\n")

	for i, item := range m.items {
		check := "[ ]"
		if m.selected[i] {
			check = "[x]"
		}
		label := fmt.Sprintf("%s %s", check, ui.Title(item.Name))
		if i == m.cursor {
			b.WriteString(sectionPickerStyles.Selected.Render("> " + label))
		} else {
			b.WriteString(sectionPickerStyles.Item.Render("  " + label))
		}
		b.WriteString("\n")
	}

	if m.cursor < len(m.items) && m.items[m.cursor].Detail != "" {
		width := m.width - 4
		if width <= 0 {
			width = 76
		}
		b.WriteString("\n")
		b.WriteString(sectionPickerStyles.Detail.Render(formatDetail("Packages: ", m.items[m.cursor].Detail, width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionPickerStyles.Status.Render(fmt.Sprintf("%d of %d selected", m.countSelected(), len(m.items))))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func (m SectionPickerModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ navigate",
		"space toggle",
		"enter confirm",
		"? help",
		"q quit",
	}
	return sectionPickerStyles.Help.Render(strings.Join(keys, " • "))
}

func (m SectionPickerModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down

Selection:
  Space/x  Toggle section
  a        Toggle all sections
  Enter    Install selected sections

General:
  ?        Toggle full help
  q/Esc    Quit`
	return sectionPickerStyles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m SectionPickerModel) Result() SectionPickerResult {
	return m.result
}

// RunSectionPicker runs the interactive section picker and returns the result.
func RunSectionPicker(title string, items []SectionItem) (SectionPickerResult, error) {
	finalModel, err := tea.NewProgram(NewSectionPickerModel(title, items), tea.WithAltScreen()).Run()
	if err != nil {
		return SectionPickerResult{}, err
	}

	if m, ok := finalModel.(SectionPickerModel); ok {
		return m.Result(), nil
	}

	return SectionPickerResult{}, nil
}
