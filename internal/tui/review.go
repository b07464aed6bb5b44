// Package tui provides the interactive review screen for rule proposals.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ewhitmore/ledgible/internal/model"
)

// Outcome is the result of a completed review session.
type Outcome struct {
	SelectedIDs []string
	Accepted    bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4E9F6B")).
			MarginBottom(1)

	patternStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFE66D"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4E9F6B"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// ReviewModel is a bubbletea model that lets the user confirm a proposed rule
// and pick which candidate transactions it should also be applied to.
type ReviewModel struct {
	proposal     *model.Proposal
	businessName string
	candidates   []model.Transaction
	selected     map[string]bool
	keys         KeyMap
	help         help.Model
	cursor       int
	width        int
	accepted     bool
	done         bool
}

// NewReviewModel creates a review model with all candidates selected.
func NewReviewModel(proposal *model.Proposal, businessName string, candidates []model.Transaction) ReviewModel {
	selected := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		selected[c.ID] = true
	}

	return ReviewModel{
		proposal:     proposal,
		businessName: businessName,
		candidates:   candidates,
		selected:     selected,
		keys:         DefaultKeyMap(),
		help:         help.New(),
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			if len(m.candidates) > 0 {
				id := m.candidates[m.cursor].ID
				m.selected[id] = !m.selected[id]
			}

		case key.Matches(msg, m.keys.SelectAll):
			for _, c := range m.candidates {
				m.selected[c.ID] = true
			}

		case key.Matches(msg, m.keys.DeselectAll):
			for _, c := range m.candidates {
				m.selected[c.ID] = false
			}

		case key.Matches(msg, m.keys.Accept):
			m.accepted = true
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.RuleOnly):
			for _, c := range m.candidates {
				m.selected[c.ID] = false
			}
			m.accepted = true
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Cancel):
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Review Proposed Rule"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Pattern %s will assign matching transactions to %s.\n\n",
		patternStyle.Render(fmt.Sprintf("%q", m.proposal.Pattern)),
		selectedStyle.Render(m.businessName)))

	if len(m.candidates) == 0 {
		b.WriteString(dimStyle.Render("No other transactions match this pattern.\n"))
	} else {
		b.WriteString("Also matches:\n")
		for i, c := range m.candidates {
			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}

			check := dimStyle.Render("[ ]")
			if m.selected[c.ID] {
				check = selectedStyle.Render("[x]")
			}

			b.WriteString(fmt.Sprintf("%s%s %s  %-40s %10.2f\n",
				cursor, check, c.Date.Format("2006-01-02"), truncate(c.Description, 40), c.Amount))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// Outcome reports the review result. Only meaningful once the program has quit.
func (m ReviewModel) Outcome() Outcome {
	if !m.accepted {
		return Outcome{}
	}

	outcome := Outcome{Accepted: true, SelectedIDs: make([]string, 0, len(m.candidates))}
	for _, c := range m.candidates {
		if m.selected[c.ID] {
			outcome.SelectedIDs = append(outcome.SelectedIDs, c.ID)
		}
	}
	return outcome
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
