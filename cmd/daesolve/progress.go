package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerFrames = []string{"|", "/", "-", "\\"}
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

type tickMsg time.Time
type doneMsg struct {
	err error
}

// spinnerModel drives a one-line "solving..." spinner in the terminal
// while a solve runs on a background goroutine, animated via tea.Tick.
type spinnerModel struct {
	label  string
	frame  int
	result chan doneMsg
	done   bool
	err    error
}

func newSpinnerModel(label string, result chan doneMsg) spinnerModel {
	return spinnerModel{label: label, result: result}
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForResult(result chan doneMsg) tea.Cmd {
	return func() tea.Msg { return <-result }
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(tick(), waitForResult(m.result))
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return spinnerStyle.Render(spinnerFrames[m.frame]) + " " + labelStyle.Render(m.label) + "\n"
}
