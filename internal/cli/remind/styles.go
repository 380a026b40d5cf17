package remind

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/remindr/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	repeatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Italic(true)

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func priorityBadge(p models.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(string(p))
}
