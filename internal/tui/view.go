package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/models"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("✔ Task Management System"))
	b.WriteString(" ")
	b.WriteString(SubtitleStyle.Render("Terminal Desktop Interface"))
	b.WriteString("\n\n")
	b.WriteString(m.statsView())
	b.WriteString("\n")

	switch m.mode {
	case formMode:
		b.WriteString(m.form.view())
	case detailMode:
		b.WriteString(m.detail)
	default:
		b.WriteString(m.filterView())
		b.WriteString("\n")
		if len(m.tasks) == 0 {
			b.WriteString(SubtitleStyle.Render("No tasks match the selected filters"))
			b.WriteString("\n")
		} else {
			b.WriteString(m.table.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.mode == confirmDeleteMode:
		if task, ok := m.selected(); ok {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("Delete task #%d %q? (y/N)", task.ID, task.Title)))
		}
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("❌ Ошибка: " + m.err.Error()))
	case m.notice != "":
		b.WriteString(NoticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.help()))
	return b.String()
}

func (m Model) statsView() string {
	card := func(label, value string, style lipgloss.Style) string {
		return StatCardStyle.Render(StatLabelStyle.Render(label) + "\n" + style.Render(value))
	}
	s := m.stats
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Tasks", fmt.Sprint(s.Total), StatValueStyle),
		card("Completed", fmt.Sprint(s.Completed), statusStyle(string(models.StatusCompleted)).Bold(true)),
		card("In Progress", fmt.Sprint(s.InProgress), statusStyle(string(models.StatusInProgress)).Bold(true)),
		card("Pending", fmt.Sprint(s.Pending), statusStyle(string(models.StatusPending)).Bold(true)),
		card("Overdue", fmt.Sprint(s.Overdue), ErrorStyle),
		card("Completion", fmt.Sprintf("%.2f%%", s.CompletionPercent()), StatValueStyle),
	)
}

func (m Model) filterView() string {
	items := []string{FilterStyle.Render("Filter:")}
	options := append([]models.Status{""}, models.Statuses...)
	for _, st := range options {
		label := "All"
		if st != "" {
			label = st.Label()
		}
		if st == m.filter {
			items = append(items, ActiveFilterStyle.Render(label))
		} else {
			items = append(items, FilterStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func (m Model) help() string {
	switch m.mode {
	case formMode:
		return "tab/↑↓ field • ←→ choose • enter next/submit • ctrl+s submit • esc cancel"
	case detailMode:
		return "s cycle status • esc back"
	case confirmDeleteMode:
		return "y confirm • any key cancel"
	}
	return "↑↓ move • enter details • n new • s cycle status • d delete • f filter • r refresh • q quit"
}
