package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/stempel/internal/ai"
)

type inputModel struct {
	textarea textarea.Model
	width    int
	height   int
}

func newInputModel(prefill string) inputModel {
	ta := textarea.New()
	ta.Placeholder = "Paste an email here (From:/Subject: header lines are picked up)..."
	ta.Focus()
	ta.CharLimit = 20000
	ta.SetWidth(80)
	ta.SetHeight(12)
	ta.ShowLineNumbers = false

	if prefill != "" {
		ta.SetValue(prefill)
	}

	return inputModel{textarea: ta}
}

func (m inputModel) Update(msg tea.Msg) (inputModel, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.textarea.SetWidth(max(20, min(ws.Width-2, 100)))
		m.textarea.SetHeight(max(5, min(ws.Height-8, 20)))
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	header := titleStyle.Render("stempel — Triage")
	help := helpStyle.Render("Ctrl+S: triage • Ctrl+C: quit")
	return header + "\n" + m.textarea.View() + "\n" + help
}

func (m inputModel) Value() string {
	return m.textarea.Value()
}

// parsePastedMail reads leading header lines such as "From:" and "Subject:";
// everything after them is the body.
func parsePastedMail(text string) ai.Mail {
	var m ai.Mail
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			if i > 0 {
				i++
			}
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || !isHeader(key) {
			break
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "from", "von":
			m.From = strings.TrimSpace(value)
		case "subject", "betreff":
			m.Subject = strings.TrimSpace(value)
		}
	}

	m.Body = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	return m
}

var mailHeaders = map[string]bool{
	"from": true, "von": true,
	"subject": true, "betreff": true,
	"to": true, "an": true, "cc": true,
	"date": true, "datum": true, "sent": true, "gesendet": true,
}

func isHeader(key string) bool {
	return mailHeaders[strings.ToLower(strings.TrimSpace(key))]
}
