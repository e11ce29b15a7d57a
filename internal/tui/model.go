// Package tui is a terminal front end for a quiz, built on Bubble Tea.
package tui

import (
	"context"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/p-n-ai/pai-quiz/internal/play"
)

// Options configures the terminal model.
type Options struct {
	NoColor      bool
	TickInterval time.Duration
}

// Model renders one quiz and maps key presses to driver commands.
type Model struct {
	ctx          context.Context
	driver       *play.Driver
	state        play.State
	selected     []bool
	cursor       int
	jump         string
	lastErr      string
	tickInterval time.Duration
	noColor      bool
}

// NewModel constructs a model for a started driver.
func NewModel(ctx context.Context, driver *play.Driver, opts Options) Model {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	m := Model{
		ctx:          ctx,
		driver:       driver,
		tickInterval: tickInterval,
		noColor:      opts.NoColor,
	}
	return m.refresh()
}

// State returns the last state shown.
func (m Model) State() play.State { return m.state }

// Init starts the countdown ticker.
func (m Model) Init() tea.Cmd {
	return tick(m.tickInterval)
}

// Update applies key presses and timer ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tickMsg:
		if m.state.Finished {
			return m, nil
		}
		if !m.driver.Deadline().IsZero() && m.driver.Remaining() == 0 {
			m = m.apply(m.driver.Expire(m.ctx))
			if m.state.Finished {
				return m, nil
			}
			return m, tick(m.tickInterval)
		}
		m.state = m.driver.State()
		return m, tick(m.tickInterval)
	}
	return m, nil
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	}
	if m.state.Finished {
		return m, nil
	}
	if k := key.String(); len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		return m.typeDigit(k), nil
	}

	pending := m.jump
	m.jump = ""
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.selected)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.selected) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
			m = m.apply(m.driver.Select(m.selected))
		}
	case "right", "l", "n":
		m = m.apply(m.driver.Next(m.selected))
	case "left", "h", "p":
		m = m.apply(m.driver.Prev(m.selected))
	case "home":
		m = m.apply(m.driver.Goto(1, m.selected))
	case "end":
		m = m.apply(m.driver.Goto(m.state.Total, m.selected))
	case "f":
		m = m.apply(m.driver.Finish(m.ctx, m.selected))
	case "enter":
		if pending != "" {
			page, _ := strconv.Atoi(pending)
			m = m.apply(m.driver.Goto(page, m.selected))
		}
	}
	return m, nil
}

// typeDigit extends the page number being typed. The jump happens as soon as
// no further digit could name a page, otherwise on enter.
func (m Model) typeDigit(d string) Model {
	if m.jump == "" && d == "0" {
		return m
	}
	m.jump += d
	page, _ := strconv.Atoi(m.jump)
	if page*10 > m.state.Total {
		m.jump = ""
		m = m.apply(m.driver.Goto(page, m.selected))
	}
	return m
}

// apply records the outcome of a driver command and reloads the state.
func (m Model) apply(err error) Model {
	m.lastErr = ""
	if err != nil {
		m.lastErr = err.Error()
	}
	return m.refresh()
}

func (m Model) refresh() Model {
	prev := m.state.Position
	m.state = m.driver.State()
	m.selected = m.state.Selected
	if m.state.Position != prev || m.cursor >= len(m.selected) {
		m.cursor = 0
	}
	return m
}

// View renders the quiz.
func (m Model) View() string {
	if m.state.Finished {
		return lipgloss.JoinVertical(lipgloss.Left,
			renderHeader(m.state, m.noColor),
			renderResult(m.state, m.noColor),
			stylize("press q to quit", m.noColor, lipgloss.Color("244")),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m.state, m.noColor),
		"",
		m.state.Prompt,
		"",
		renderChoices(m.state.Choices, m.selected, m.cursor, m.noColor),
		"",
		renderFooter(m.lastErr, m.jump, m.noColor),
	)
}

// tickMsg carries a clock tick for the countdown.
type tickMsg time.Time

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
