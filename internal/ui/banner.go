package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("6")).
	Border(lipgloss.NormalBorder(), false, false, true, false).
	BorderForeground(lipgloss.Color("8"))

// Title title-cases a section or block name, turning "_" and "-" into spaces.
func Title(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return cases.Title(language.English).String(name)
}

// Banner renders a heading with an underline, used before each shell block
// and installer section.
func Banner(title string) string {
	if !IsColorEnabled() {
		return title + "\n" + strings.Repeat("=", lipgloss.Width(title))
	}
	return bannerStyle.Render(title)
}
