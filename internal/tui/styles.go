package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/stempel/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)

	timerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("11")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(10)
)

var companyColors = map[domain.Company]lipgloss.Color{
	domain.CompanyMerchandising: lipgloss.Color("13"),
	domain.CompanySalescrew:     lipgloss.Color("14"),
	domain.CompanyInkognito:     lipgloss.Color("11"),
}

func companyStyle(c domain.Company) lipgloss.Style {
	color, ok := companyColors[c]
	if !ok {
		color = lipgloss.Color("8")
	}
	return lipgloss.NewStyle().Foreground(color)
}

var priorityStyles = map[domain.TodoPriority]lipgloss.Style{
	domain.PriorityHigh:   errorStyle,
	domain.PriorityMedium: warningStyle,
	domain.PriorityLow:    dimStyle,
}
