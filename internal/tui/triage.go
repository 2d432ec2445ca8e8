package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/stempel/internal/ai"
	"github.com/christopherklint97/stempel/internal/domain"
)

const triageTimeout = 90 * time.Second

type viewState int

const (
	inputView viewState = iota
	loadingView
	proposalView
	doneView
)

// TodoAdder stores accepted todos.
type TodoAdder interface {
	AddTodo(ctx context.Context, todo *domain.Todo) error
}

// TriageResult reports what happened to each mail.
type TriageResult struct {
	Added   []domain.Todo
	Skipped int
	// Handled lists ids of mails that were accepted or skipped.
	Handled []string
}

type draftMsg struct {
	draft *ai.TodoDraft
	err   error
}

type savedMsg struct {
	todo domain.Todo
	err  error
}

// TriageApp walks a queue of mails through the provider. With an empty
// queue it asks for a pasted mail instead and loops until quit.
type TriageApp struct {
	state    viewState
	input    inputModel
	spinner  spinner.Model
	proposal proposalModel

	provider ai.Provider
	todos    TodoAdder
	queue    []ai.Mail
	pasted   bool
	current  ai.Mail

	result TriageResult
	status string
	errMsg string
}

func NewTriageApp(provider ai.Provider, todos TodoAdder, mails []ai.Mail) *TriageApp {
	s := spinner.New()
	s.Spinner = spinner.Dot

	a := &TriageApp{
		state:    inputView,
		input:    newInputModel(""),
		spinner:  s,
		provider: provider,
		todos:    todos,
		queue:    mails,
		pasted:   len(mails) == 0,
	}
	if !a.pasted {
		a.state = loadingView
		a.current = a.queue[0]
		a.queue = a.queue[1:]
	}
	return a
}

func (a *TriageApp) Init() tea.Cmd {
	if a.state == loadingView {
		return tea.Batch(a.spinner.Tick, a.triage(a.current))
	}
	return tea.Batch(a.input.textarea.Focus(), a.spinner.Tick)
}

func (a *TriageApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case draftMsg:
		return a.handleDraft(msg)
	case savedMsg:
		return a.handleSaved(msg)
	}

	switch a.state {
	case inputView:
		return a.updateInput(msg)
	case loadingView:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case proposalView:
		return a.updateProposal(msg)
	case doneView:
		if _, ok := msg.(tea.KeyMsg); ok {
			return a, tea.Quit
		}
	}
	return a, nil
}

func (a *TriageApp) View() string {
	var view string
	switch a.state {
	case inputView:
		view = a.input.View()
	case loadingView:
		label := "Reading mail..."
		if a.current.Subject != "" {
			label = "Reading " + a.current.Subject + "..."
		}
		view = a.spinner.View() + " " + label
		if remaining := len(a.queue); remaining > 0 {
			view += dimStyle.Render(fmt.Sprintf("  (%d more queued)", remaining))
		}
	case proposalView:
		view = a.proposal.View()
	case doneView:
		view = a.summary() + "\n\n" + helpStyle.Render("Press any key to exit")
	}

	if a.errMsg != "" {
		view += "\n" + errorStyle.Render("Error: ") + a.errMsg
	} else if a.status != "" && a.state != doneView {
		view += "\n" + successStyle.Render(a.status)
	}
	return view
}

func (a *TriageApp) summary() string {
	if len(a.result.Added) == 0 && a.result.Skipped == 0 {
		return dimStyle.Render("No mails triaged.")
	}
	var sb strings.Builder
	sb.WriteString(successStyle.Render(fmt.Sprintf("%d todo(s) added, %d skipped", len(a.result.Added), a.result.Skipped)))
	for _, t := range a.result.Added {
		sb.WriteString("\n  • " + t.Title)
	}
	return sb.String()
}

func (a *TriageApp) Result() TriageResult {
	return a.result
}

func (a *TriageApp) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+s":
			text := strings.TrimSpace(a.input.Value())
			if text == "" {
				return a, nil
			}
			a.current = parsePastedMail(text)
			a.errMsg, a.status = "", ""
			a.state = loadingView
			return a, tea.Batch(a.spinner.Tick, a.triage(a.current))
		case "esc":
			a.state = doneView
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *TriageApp) updateProposal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch keyMsg.String() {
	case "a":
		todo := a.proposal.draft.Todo(a.current)
		return a, a.save(todo)
	case "r":
		a.state = loadingView
		a.errMsg = ""
		return a, tea.Batch(a.spinner.Tick, a.triage(a.current))
	case "s":
		a.result.Skipped++
		a.markHandled()
		return a, a.next("Skipped")
	case "q", "esc":
		a.state = doneView
	}
	return a, nil
}

func (a *TriageApp) handleDraft(msg draftMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		if a.pasted {
			a.state = inputView
			return a, a.input.textarea.Focus()
		}
		// Leave the mail untriaged so the next run picks it up again.
		return a, a.next("")
	}
	a.errMsg = ""
	a.proposal = proposalModel{mail: a.current, draft: msg.draft}
	a.state = proposalView
	return a, nil
}

func (a *TriageApp) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		a.state = proposalView
		return a, nil
	}
	a.result.Added = append(a.result.Added, msg.todo)
	a.markHandled()
	return a, a.next("Added: " + msg.todo.Title)
}

func (a *TriageApp) markHandled() {
	if a.current.ID != "" {
		a.result.Handled = append(a.result.Handled, a.current.ID)
	}
}

// next moves on to the following queued mail, back to the paste box, or
// to the summary once the queue is drained.
func (a *TriageApp) next(status string) tea.Cmd {
	a.status = status
	if a.pasted {
		w, h := a.input.width, a.input.height
		a.state = inputView
		a.input = newInputModel("")
		if w > 0 {
			a.input, _ = a.input.Update(tea.WindowSizeMsg{Width: w, Height: h})
		}
		return a.input.textarea.Focus()
	}
	if len(a.queue) == 0 {
		a.state = doneView
		return nil
	}
	a.current = a.queue[0]
	a.queue = a.queue[1:]
	a.state = loadingView
	return tea.Batch(a.spinner.Tick, a.triage(a.current))
}

func (a *TriageApp) triage(mail ai.Mail) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), triageTimeout)
		defer cancel()

		draft, err := a.provider.Triage(ctx, mail)
		return draftMsg{draft: draft, err: err}
	}
}

func (a *TriageApp) save(todo domain.Todo) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := a.todos.AddTodo(ctx, &todo)
		return savedMsg{todo: todo, err: err}
	}
}
