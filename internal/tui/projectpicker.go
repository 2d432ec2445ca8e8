package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/stempel/internal/domain"
)

const projectPickerVisible = 12

type projectPicker struct {
	title    string
	projects []domain.Project
	filtered []int // indices into projects
	cursor   int
	filter   textinput.Model
	done     bool
	canceled bool
}

func newProjectPicker(title string, projects []domain.Project, preselect string) projectPicker {
	ti := textinput.New()
	ti.Placeholder = "Filter projects..."
	ti.Focus()

	m := projectPicker{
		title:    title,
		projects: projects,
		filter:   ti,
	}
	m.applyFilter()
	for vi, idx := range m.filtered {
		if projects[idx].ID == preselect {
			m.cursor = vi
		}
	}
	return m
}

func (m projectPicker) Init() tea.Cmd {
	return textinput.Blink
}

func (m projectPicker) Update(msg tea.Msg) (projectPicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, nil
		case "enter":
			if len(m.filtered) > 0 {
				m.done = true
			}
			return m, nil
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prevFilter := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != prevFilter {
		m.applyFilter()
	}
	return m, cmd
}

// applyFilter matches the query against project and company names.
func (m *projectPicker) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.filtered = m.filtered[:0]
	for i, p := range m.projects {
		if query == "" ||
			strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Company.DisplayName()), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// Selected returns the highlighted project, or nil when nothing matches.
func (m projectPicker) Selected() *domain.Project {
	if len(m.filtered) == 0 {
		return nil
	}
	p := m.projects[m.filtered[m.cursor]]
	return &p
}

func (m projectPicker) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		if len(m.projects) == 0 {
			b.WriteString(dimStyle.Render("  No projects yet. Add one with: stempel projects add"))
		} else {
			b.WriteString(dimStyle.Render("  No projects match filter"))
		}
		b.WriteString("\n")
	} else {
		start := 0
		if m.cursor >= projectPickerVisible {
			start = m.cursor - projectPickerVisible + 1
		}
		end := min(start+projectPickerVisible, len(m.filtered))

		for vi := start; vi < end; vi++ {
			p := m.projects[m.filtered[vi]]
			company := companyStyle(p.Company).Render(p.Company.DisplayName())
			if vi == m.cursor {
				b.WriteString(highlightStyle.Render("> "+p.Name) + "  " + company)
			} else {
				b.WriteString("  " + p.Name + "  " + company)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"%d of %d • ↑/↓: move • Enter: select • Esc: cancel", len(m.filtered), len(m.projects))))
	return b.String()
}

// ProjectPickerApp wraps the picker for standalone use with tea.NewProgram.
type ProjectPickerApp struct {
	picker projectPicker
	result *domain.Project
}

func NewProjectPickerApp(title string, projects []domain.Project, preselect string) *ProjectPickerApp {
	return &ProjectPickerApp{picker: newProjectPicker(title, projects, preselect)}
}

func (a *ProjectPickerApp) Init() tea.Cmd {
	return a.picker.Init()
}

func (a *ProjectPickerApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)

	if a.picker.done {
		a.result = a.picker.Selected()
		return a, tea.Quit
	}
	if a.picker.canceled {
		return a, tea.Quit
	}
	return a, cmd
}

func (a *ProjectPickerApp) View() string {
	return a.picker.View()
}

// Selected is nil when the picker was canceled.
func (a *ProjectPickerApp) Selected() *domain.Project {
	return a.result
}
