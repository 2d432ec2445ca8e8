package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/stempel/internal/ai"
	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/store"
	"github.com/christopherklint97/stempel/internal/testutil"
	"github.com/christopherklint97/stempel/internal/tracker"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func testProjects() []domain.Project {
	return []domain.Project{
		*testutil.NewTestProject("Website", testutil.WithCompany(domain.CompanySalescrew)),
		*testutil.NewTestProject("Warehouse", testutil.WithCompany(domain.CompanyMerchandising)),
		*testutil.NewTestProject("Campaign", testutil.WithCompany(domain.CompanyInkognito)),
	}
}

func TestProjectPicker_FiltersByNameAndCompany(t *testing.T) {
	m := newProjectPicker("Start", testProjects(), "")
	assert.Len(t, m.filtered, 3)

	m, _ = m.Update(runes("w"))
	m, _ = m.Update(runes("e"))
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "Website", m.Selected().Name)

	m = newProjectPicker("Start", testProjects(), "")
	for _, r := range "inko" {
		m, _ = m.Update(runes(string(r)))
	}
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "Campaign", m.Selected().Name)
}

func TestProjectPicker_NoMatch(t *testing.T) {
	m := newProjectPicker("Start", testProjects(), "")
	m, _ = m.Update(runes("z"))
	assert.Nil(t, m.Selected())

	m, _ = m.Update(enter)
	assert.False(t, m.done)
	assert.Contains(t, m.View(), "No projects match filter")
}

func TestProjectPicker_PreselectAndConfirm(t *testing.T) {
	projects := testProjects()
	m := newProjectPicker("Start", projects, projects[2].ID)
	assert.Equal(t, 2, m.cursor)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(enter)
	assert.True(t, m.done)
	assert.Equal(t, "Warehouse", m.Selected().Name)
}

func TestProjectPickerApp_Cancel(t *testing.T) {
	app := NewProjectPickerApp("Start", testProjects(), "")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Nil(t, app.Selected())
}

// Wednesday 4 March 2026, 09:00 Vienna.
var wednesday = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func newTestDashboard(t *testing.T, offset time.Duration) (*Dashboard, *store.DB) {
	t.Helper()
	db := testutil.NewTestStore(t)
	tr := tracker.New(db, db, nil, tracker.WithClock(func() time.Time { return wednesday }))
	d := NewDashboard(tr, WithNow(func() time.Time { return wednesday.Add(offset) }))
	return d, db
}

// send feeds msg to the dashboard and runs any returned command once,
// feeding its result back. Commands batching the ticker are not followed.
func send(t *testing.T, d *Dashboard, msg tea.Msg) {
	t.Helper()
	_, cmd := d.Update(msg)
	for cmd != nil {
		next := cmd()
		switch next.(type) {
		case snapshotMsg, actionMsg:
			_, cmd = d.Update(next)
		default:
			return
		}
	}
}

func TestDashboard_StartFromPickerAndStop(t *testing.T) {
	d, db := newTestDashboard(t, 90*time.Second)
	ctx := context.Background()
	p := testutil.NewTestProject("Website", testutil.WithCompany(domain.CompanySalescrew))
	require.NoError(t, db.CreateProject(ctx, p))

	send(t, d, d.load()())
	require.NotNil(t, d.snap)
	assert.Nil(t, d.snap.Running)
	assert.Contains(t, d.View(), "Idle")

	send(t, d, runes("h"))
	send(t, d, runes("s"))
	require.True(t, d.picking, "no remembered project opens the picker")

	send(t, d, enter)
	assert.False(t, d.picking)
	require.NotNil(t, d.snap.Running)
	assert.True(t, d.snap.Running.IsHomeOffice)
	assert.Equal(t, "Started Website", d.status)

	view := d.View()
	assert.Contains(t, view, "00:01:30")
	assert.Contains(t, view, "Salescrew")
	assert.Contains(t, view, "Website")

	send(t, d, runes("s"))
	assert.Nil(t, d.snap.Running)
	assert.Equal(t, p.ID, d.snap.LastProjectID)
	assert.Contains(t, d.View(), "next:")
}

func TestDashboard_TodoToggleAndDelete(t *testing.T) {
	d, db := newTestDashboard(t, 0)
	ctx := context.Background()
	older := testutil.NewTestTodo("Send invoice")
	older.CreatedAt = wednesday.Add(-time.Hour)
	newer := testutil.NewTestTodo("Call supplier", testutil.WithPriority(domain.PriorityHigh))
	newer.CreatedAt = wednesday
	require.NoError(t, db.CreateTodo(ctx, older))
	require.NoError(t, db.CreateTodo(ctx, newer))

	send(t, d, d.load()())
	require.Len(t, d.snap.OpenTodos, 2)
	assert.Contains(t, d.View(), "Todos (2 open)")

	send(t, d, runes("j"))
	assert.Equal(t, 1, d.cursor)
	send(t, d, runes("x"))
	require.Len(t, d.snap.OpenTodos, 1)
	assert.Equal(t, "Call supplier", d.snap.OpenTodos[0].Title)
	assert.Equal(t, 0, d.cursor)
	require.Len(t, d.snap.DoneTodos, 1)

	send(t, d, runes("d"))
	assert.Empty(t, d.snap.OpenTodos)
	assert.Equal(t, "Deleted: Call supplier", d.status)
}

func TestDashboard_ShowsLoadError(t *testing.T) {
	d, _ := newTestDashboard(t, 0)
	send(t, d, snapshotMsg{err: errors.New("remote down")})
	assert.Nil(t, d.snap)
	assert.Contains(t, d.View(), "remote down")
}

func TestDashboard_OfflineBanner(t *testing.T) {
	d, _ := newTestDashboard(t, 0)
	send(t, d, snapshotMsg{snap: &tracker.Snapshot{Now: wednesday, Offline: true}})
	assert.Contains(t, d.View(), "OFFLINE")
}

func TestParsePastedMail(t *testing.T) {
	m := parsePastedMail("From: Anna <anna@example.com>\r\nSubject: Q3 report\r\nDate: Mon, 2 Mar 2026\r\n\r\nPlease send the figures.\r\nThanks")
	assert.Equal(t, "Anna <anna@example.com>", m.From)
	assert.Equal(t, "Q3 report", m.Subject)
	assert.Equal(t, "Please send the figures.\nThanks", m.Body)

	plain := parsePastedMail("Hi team: the numbers are late.\nCan you check?")
	assert.Empty(t, plain.From)
	assert.Equal(t, "Hi team: the numbers are late.\nCan you check?", plain.Body)
}

type stubProvider struct {
	drafts map[string]*ai.TodoDraft
	calls  int
}

func (p *stubProvider) Triage(_ context.Context, m ai.Mail) (*ai.TodoDraft, error) {
	p.calls++
	d, ok := p.drafts[m.ID]
	if !ok {
		return nil, errors.New("no draft")
	}
	return d, nil
}

type recordingAdder struct {
	todos []domain.Todo
}

func (r *recordingAdder) AddTodo(_ context.Context, t *domain.Todo) error {
	r.todos = append(r.todos, *t)
	return nil
}

func TestTriageApp_QueueAcceptAndSkip(t *testing.T) {
	provider := &stubProvider{drafts: map[string]*ai.TodoDraft{
		"m1": {Actionable: true, Title: "Send Q3 figures", Priority: "high", Project: "salescrew"},
		"m2": {Actionable: false},
	}}
	adder := &recordingAdder{}
	mails := []ai.Mail{
		{ID: "m1", From: "anna@example.com", Subject: "Q3 report"},
		{ID: "m2", From: "news@example.com", Subject: "Newsletter"},
	}
	app := NewTriageApp(provider, adder, mails)
	require.Equal(t, loadingView, app.state)

	app.Update(app.triage(app.current)())
	require.Equal(t, proposalView, app.state)
	assert.Contains(t, app.View(), "Send Q3 figures")

	_, cmd := app.Update(runes("a"))
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, loadingView, app.state)
	assert.Equal(t, "m2", app.current.ID)

	app.Update(app.triage(app.current)())
	assert.Contains(t, app.View(), "Nothing actionable")
	app.Update(runes("s"))
	assert.Equal(t, doneView, app.state)

	res := app.Result()
	require.Len(t, res.Added, 1)
	assert.Equal(t, domain.PriorityHigh, res.Added[0].Priority)
	assert.Equal(t, "salescrew", res.Added[0].Project)
	assert.Equal(t, "Q3 report", res.Added[0].SourceEmailSubject)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"m1", "m2"}, res.Handled)
	require.Len(t, adder.todos, 1)
}

func TestTriageApp_ProviderErrorLeavesMailUnhandled(t *testing.T) {
	provider := &stubProvider{drafts: map[string]*ai.TodoDraft{}}
	app := NewTriageApp(provider, &recordingAdder{}, []ai.Mail{{ID: "m1", Subject: "Hello"}})

	app.Update(app.triage(app.current)())
	assert.Equal(t, doneView, app.state)
	assert.Empty(t, app.Result().Handled)
	assert.Contains(t, app.View(), "no draft")
}

func TestTriageApp_PastedMailLoop(t *testing.T) {
	provider := &stubProvider{drafts: map[string]*ai.TodoDraft{
		"": {Actionable: true, Title: "Reply to Anna", Priority: "low", Project: "other"},
	}}
	adder := &recordingAdder{}
	app := NewTriageApp(provider, adder, nil)
	require.Equal(t, inputView, app.state)

	app.input.textarea.SetValue("Subject: Lunch\n\nAre you free Friday?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Equal(t, loadingView, app.state)
	assert.Equal(t, "Lunch", app.current.Subject)

	app.Update(app.triage(app.current)())
	_, cmd = app.Update(runes("a"))
	app.Update(cmd())

	assert.Equal(t, inputView, app.state)
	assert.Empty(t, app.input.Value())
	assert.Equal(t, "Added: Reply to Anna", app.status)
	assert.Empty(t, app.Result().Handled)
	require.Len(t, adder.todos, 1)
}
