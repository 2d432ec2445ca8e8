package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

const (
	requestTimeout = 15 * time.Second
	refreshEvery   = time.Minute
)

// Controller is the part of the tracker the dashboard drives.
type Controller interface {
	Snapshot(ctx context.Context) (*tracker.Snapshot, error)
	Start(ctx context.Context, project domain.Project, homeOffice bool) (*domain.TimeEntry, error)
	Stop(ctx context.Context) (*domain.TimeEntry, error)
	Switch(ctx context.Context, project domain.Project) (*domain.TimeEntry, error)
	ToggleTodo(ctx context.Context, todo domain.Todo) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

type pickerPurpose int

const (
	pickToStart pickerPurpose = iota
	pickToSwitch
)

type snapshotMsg struct {
	snap *tracker.Snapshot
	err  error
}

type tickMsg time.Time

type actionMsg struct {
	status string
	err    error
}

// Dashboard shows the running timer, the weekly numbers and open todos.
type Dashboard struct {
	ctrl Controller
	now  func() time.Time

	snap     *tracker.Snapshot
	live     stats.Summary
	elapsed  int64
	loadedAt time.Time
	loading  bool

	cursor     int
	homeOffice bool

	picking bool
	purpose pickerPurpose
	picker  projectPicker

	status string
	errMsg string
	width  int
}

type DashboardOption func(*Dashboard)

// WithNow overrides the clock used for the live timer.
func WithNow(now func() time.Time) DashboardOption {
	return func(d *Dashboard) { d.now = now }
}

func NewDashboard(ctrl Controller, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		ctrl:    ctrl,
		now:     time.Now,
		loading: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d *Dashboard) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := d.ctrl.Snapshot(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// run executes a tracker action off the update loop.
func (d *Dashboard) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := fn(ctx)
		return actionMsg{status: status, err: err}
	}
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		return d, nil
	case tickMsg:
		d.recompute()
		var cmd tea.Cmd
		if !d.loading && d.now().Sub(d.loadedAt) >= refreshEvery {
			d.loading = true
			cmd = d.load()
		}
		return d, tea.Batch(tick(), cmd)
	case snapshotMsg:
		d.loading = false
		d.loadedAt = d.now()
		if msg.err != nil {
			d.errMsg = msg.err.Error()
			return d, nil
		}
		d.errMsg = ""
		d.snap = msg.snap
		if d.cursor >= len(d.snap.OpenTodos) {
			d.cursor = max(0, len(d.snap.OpenTodos)-1)
		}
		d.recompute()
		return d, nil
	case actionMsg:
		if msg.err != nil {
			d.errMsg = msg.err.Error()
			d.status = ""
		} else {
			d.errMsg = ""
			d.status = msg.status
		}
		d.loading = true
		return d, d.load()
	}

	if d.picking {
		return d.updatePicker(msg)
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return d.handleKey(keyMsg)
	}
	return d, nil
}

// recompute advances the live timer without reloading the snapshot.
func (d *Dashboard) recompute() {
	if d.snap == nil {
		return
	}
	now := d.now()
	d.elapsed = 0
	if d.snap.Running != nil {
		d.elapsed = d.snap.Running.Seconds(now)
	}
	d.live = stats.Compute(d.snap.Entries, now, d.elapsed)
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return d, tea.Quit
	case "r":
		d.loading = true
		return d, d.load()
	}
	if d.snap == nil {
		return d, nil
	}

	switch msg.String() {
	case "s":
		if d.snap.Running != nil {
			return d, d.run(func(ctx context.Context) (string, error) {
				stopped, err := d.ctrl.Stop(ctx)
				if err != nil {
					return "", err
				}
				return "Stopped after " + stats.FormatShort(stopped.Seconds(d.now())), nil
			})
		}
		if last := d.snap.Project(d.snap.LastProjectID); last != nil && !last.Archived {
			return d, d.start(*last)
		}
		return d, d.openPicker(pickToStart)
	case "p":
		if d.snap.Running != nil {
			return d, d.openPicker(pickToSwitch)
		}
		return d, d.openPicker(pickToStart)
	case "h":
		d.homeOffice = !d.homeOffice
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j":
		if d.cursor < len(d.snap.OpenTodos)-1 {
			d.cursor++
		}
	case "x", " ":
		if todo, ok := d.selectedTodo(); ok {
			return d, d.run(func(ctx context.Context) (string, error) {
				if _, err := d.ctrl.ToggleTodo(ctx, todo); err != nil {
					return "", err
				}
				return "Done: " + todo.Title, nil
			})
		}
	case "d":
		if todo, ok := d.selectedTodo(); ok {
			return d, d.run(func(ctx context.Context) (string, error) {
				if err := d.ctrl.DeleteTodo(ctx, todo.ID); err != nil {
					return "", err
				}
				return "Deleted: " + todo.Title, nil
			})
		}
	}
	return d, nil
}

func (d *Dashboard) selectedTodo() (domain.Todo, bool) {
	if d.cursor < 0 || d.cursor >= len(d.snap.OpenTodos) {
		return domain.Todo{}, false
	}
	return d.snap.OpenTodos[d.cursor], true
}

func (d *Dashboard) start(project domain.Project) tea.Cmd {
	homeOffice := d.homeOffice
	return d.run(func(ctx context.Context) (string, error) {
		if _, err := d.ctrl.Start(ctx, project, homeOffice); err != nil {
			return "", err
		}
		return "Started " + project.Name, nil
	})
}

func (d *Dashboard) openPicker(purpose pickerPurpose) tea.Cmd {
	title := "Start timer"
	if purpose == pickToSwitch {
		title = "Switch project"
	}
	d.picking = true
	d.purpose = purpose
	d.picker = newProjectPicker(title, d.snap.ActiveProjects(), d.snap.LastProjectID)
	return d.picker.Init()
}

func (d *Dashboard) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	d.picker, cmd = d.picker.Update(msg)

	if d.picker.canceled {
		d.picking = false
		return d, nil
	}
	if !d.picker.done {
		return d, cmd
	}

	d.picking = false
	project := d.picker.Selected()
	if project == nil {
		return d, nil
	}
	if d.purpose == pickToStart {
		return d, d.start(*project)
	}
	p := *project
	return d, d.run(func(ctx context.Context) (string, error) {
		entry, err := d.ctrl.Switch(ctx, p)
		if err != nil {
			return "", err
		}
		if entry == nil {
			return "Selected " + p.Name, nil
		}
		return "Switched to " + p.Name, nil
	})
}

func (d *Dashboard) View() string {
	if d.picking {
		return d.picker.View()
	}

	var b strings.Builder
	header := titleStyle.Render("stempel")
	if d.snap != nil && d.snap.Offline {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", offlineStyle.Render("OFFLINE – local store"))
	}
	b.WriteString(header)
	b.WriteString("\n")

	if d.snap == nil {
		if d.errMsg != "" {
			b.WriteString(errorStyle.Render("Error: ") + d.errMsg + "\n")
			b.WriteString(helpStyle.Render("r: retry • q: quit"))
			return b.String()
		}
		return b.String() + dimStyle.Render("Loading...")
	}

	b.WriteString(boxStyle.Render(d.timerView() + "\n\n" + d.statsView()))
	b.WriteString("\n\n")
	b.WriteString(d.todosView())

	if d.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render("Error: ") + d.errMsg)
	} else if d.status != "" {
		b.WriteString("\n" + successStyle.Render(d.status))
	}

	help := helpStyle
	if d.width > 0 {
		help = help.Width(d.width)
	}
	b.WriteString("\n")
	b.WriteString(help.Render("s: start/stop • p: project • h: home office • j/k: move • x: done • d: delete • r: refresh • q: quit"))
	return b.String()
}

func (d *Dashboard) timerView() string {
	if d.snap.Running == nil {
		line := dimStyle.Render("○ Idle")
		if last := d.snap.Project(d.snap.LastProjectID); last != nil && !last.Archived {
			line += dimStyle.Render("   next: ") + last.Name + "  " + companyStyle(last.Company).Render(last.Company.DisplayName())
		}
		if d.homeOffice {
			line += "  " + warningStyle.Render("[home office]")
		}
		return line
	}

	running := d.snap.Running
	name := "(no project)"
	if d.snap.RunningProject != nil {
		name = d.snap.RunningProject.Name
	}
	line := timerStyle.Render("● "+stats.FormatClock(d.elapsed)) + "  " +
		companyStyle(running.Company).Render(running.Company.DisplayName()) + " / " + name
	if running.IsHomeOffice {
		line += "  " + warningStyle.Render("[home office]")
	}
	return line
}

func (d *Dashboard) statsView() string {
	s := d.live
	rows := []struct{ label, value string }{
		{"Week", fmt.Sprintf("KW %d  %s – %s", s.ISOWeek, s.WeekStart.Format("02.01."), s.WeekEnd.Format("02.01."))},
		{"Tracked", stats.FormatShort(s.KWSeconds)},
		{"To go", stats.FormatShort(s.ToGoSeconds)},
		{"Avg/day", stats.FormatShort(s.AvgPerDaySeconds)},
		{"Overtime", stats.FormatSigned(s.OvertimeBalanceSeconds)},
		{"Total", stats.FormatShort(s.TotalSeconds)},
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		value := r.value
		if r.label == "Overtime" && s.OvertimeBalanceSeconds < 0 {
			value = errorStyle.Render(value)
		}
		lines[i] = labelStyle.Render(r.label) + value
	}
	return strings.Join(lines, "\n")
}

func (d *Dashboard) todosView() string {
	var b strings.Builder
	b.WriteString(highlightStyle.Render(fmt.Sprintf("Todos (%d open)", len(d.snap.OpenTodos))))
	b.WriteString("\n")

	if len(d.snap.OpenTodos) == 0 {
		b.WriteString(dimStyle.Render("  Nothing to do. Run stempel triage to pull in mail."))
		return b.String()
	}
	for i, t := range d.snap.OpenTodos {
		prefix := "  "
		title := t.Title
		if i == d.cursor {
			prefix = "> "
			title = selectedStyle.Render(title)
		}
		priority := priorityStyles[t.Priority].Render(fmt.Sprintf("%-6s", t.Priority))
		b.WriteString(fmt.Sprintf("%s[ ] %s %s  %s\n", prefix, priority, title, dimStyle.Render(t.Project)))
	}
	return strings.TrimRight(b.String(), "\n")
}
