package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/p-n-ai/pai-quiz/internal/play"
)

// renderHeader renders the title, page and countdown line.
func renderHeader(state play.State, noColor bool) string {
	line := fmt.Sprintf("%s | Question %d/%d", state.Title, state.Page, state.Total)
	if state.Timer != "" {
		line += " | " + state.Timer
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderChoices draws the redacted answer block with the current selections
// filled in and the cursor on the focused choice. Lines that are not choices
// are shown unchanged.
func renderChoices(choices string, selected []bool, cursor int, noColor bool) string {
	var b strings.Builder
	idx := 0
	for _, line := range strings.Split(choices, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "* [") || idx >= len(selected) {
			b.WriteString("    " + line + "\n")
			continue
		}

		mark := "[ ]"
		if selected[idx] {
			mark = "[x]"
		}
		text := strings.TrimSpace(trimmed[min(len(trimmed), 5):])
		row := fmt.Sprintf("%s %s", mark, text)

		if idx == cursor {
			b.WriteString("  > " + stylize(row, noColor, lipgloss.Color("42")) + "\n")
		} else {
			b.WriteString("    " + row + "\n")
		}
		idx++
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderFooter renders the page number being typed, the last command error
// or the key help.
func renderFooter(lastErr, jump string, noColor bool) string {
	if jump != "" {
		return stylize("go to page "+jump+"_  (enter to jump)", noColor, lipgloss.Color("33"))
	}
	if lastErr != "" {
		return stylize("error: "+lastErr, noColor, lipgloss.Color("196"))
	}
	return stylize("↑/↓ move  space toggle  ←/→ prev/next  page number jump  f finish  q quit", noColor, lipgloss.Color("244"))
}

// renderResult renders the final verdict.
func renderResult(state play.State, noColor bool) string {
	prefix := ""
	if state.Expired {
		prefix = "Time is up. "
	}
	if state.Passed {
		return stylize(prefix+"Passed!", noColor, lipgloss.Color("42"))
	}
	return stylize(fmt.Sprintf("%sYou made %d errors.", prefix, state.Errors), noColor, lipgloss.Color("220"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
