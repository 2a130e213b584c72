package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary   = lipgloss.Color("#667eea")
	secondary = lipgloss.Color("#764ba2")
	accent    = lipgloss.Color("#48bb78")
	danger    = lipgloss.Color("#e53e3e")
	muted     = lipgloss.Color("241")

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primary).
			Padding(0, 2)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	// StatCardStyle - карточка статистики в шапке
	StatCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1).
			Width(16)

	StatLabelStyle = lipgloss.NewStyle().Foreground(muted)
	StatValueStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)

	FilterStyle       = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)
	ActiveFilterStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(secondary).Padding(0, 1)

	FormStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2)

	FormLabelStyle        = lipgloss.NewStyle().Width(14).Foreground(muted)
	FocusedFormLabelStyle = FormLabelStyle.Foreground(primary).Bold(true)

	NoticeStyle = lipgloss.NewStyle().Foreground(accent)
	ErrorStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	HelpStyle   = lipgloss.NewStyle().Foreground(muted)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return lipgloss.NewStyle().Foreground(accent)
	case "in_progress":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#4299e1"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#ed8936"))
}
