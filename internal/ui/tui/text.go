package tui

import "strings"

func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	if width <= 3 {
		return text[:width]
	}
	return text[:width-3] + "..."
}

// formatDetail prefixes text with label and truncates each line to width.
func formatDetail(label, text string, width int) string {
	if width <= len(label) {
		return label + text
	}
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			b.WriteString(label)
		} else {
			b.WriteString("\n")
			b.WriteString(strings.Repeat(" ", len(label)))
		}
		b.WriteString(truncateText(line, width-len(label)))
	}
	return b.String()
}
