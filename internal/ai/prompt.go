package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// maxBodyChars bounds the mail body sent to the model.
const maxBodyChars = 8000

var (
	schemaOnce sync.Once
	schemaJSON string
)

// DraftSchema is the JSON schema for TodoDraft.
func DraftSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&TodoDraft{})
}

func draftSchemaJSON() string {
	schemaOnce.Do(func() {
		data, err := json.Marshal(DraftSchema())
		if err != nil {
			panic(fmt.Sprintf("marshaling todo schema: %v", err))
		}
		schemaJSON = string(data)
	})
	return schemaJSON
}

func buildSystemPrompt() string {
	return `You triage my work email into todos. I work for three companies: merchandising, salescrew and inkognito.

Rules:
- Set actionable to false for newsletters, notifications, receipts and anything that needs no action from me
- The title is a short imperative ("Send Q3 report to Anna"), at most 80 characters
- Priority is high only for explicit deadlines within two days or direct requests from management
- Pick the company the mail concerns as project, or other when unclear
- The prompt field holds concrete instructions an assistant could follow to complete the task, including names, dates and deliverables from the mail

Return valid JSON matching the required schema.`
}

func buildUserPrompt(m Mail) string {
	body := strings.TrimSpace(m.Body)
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars] + "\n[truncated]"
	}

	var b strings.Builder
	if m.From != "" {
		fmt.Fprintf(&b, "From: %s\n", m.From)
	}
	if m.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	}
	if !m.ReceivedAt.IsZero() {
		fmt.Fprintf(&b, "Received: %s\n", m.ReceivedAt.Format("2006-01-02 15:04"))
	}
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func parseDraft(raw string) (*TodoDraft, error) {
	var draft TodoDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &draft); err != nil {
		return nil, fmt.Errorf("parsing todo draft: %w (raw: %s)", err, truncateStr(raw, 1000))
	}
	if draft.Actionable && strings.TrimSpace(draft.Title) == "" {
		return nil, fmt.Errorf("model proposed an actionable todo without a title")
	}
	return &draft, nil
}
