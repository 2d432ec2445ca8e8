package tracker

import (
	"context"
	"encoding/json"
	"fmt"
)

// StateTriagedMail holds the JSON list of mail ids already triaged.
const StateTriagedMail = "triaged_mail_ids"

// maxTriaged bounds the remembered ids; the oldest are dropped first.
const maxTriaged = 1000

// TriagedMail returns the set of mail ids handled by earlier triage runs.
func (t *Tracker) TriagedMail(ctx context.Context) (map[string]bool, error) {
	ids, err := t.triagedList(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

// MarkTriaged appends ids to the remembered set.
func (t *Tracker) MarkTriaged(ctx context.Context, ids []string) error {
	if t.state == nil || len(ids) == 0 {
		return nil
	}
	current, err := t.triagedList(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	for _, id := range ids {
		if id != "" && !seen[id] {
			current = append(current, id)
			seen[id] = true
		}
	}
	if len(current) > maxTriaged {
		current = current[len(current)-maxTriaged:]
	}

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encoding triaged mail ids: %w", err)
	}
	if err := t.state.SetState(ctx, StateTriagedMail, string(data)); err != nil {
		return fmt.Errorf("saving triaged mail ids: %w", err)
	}
	return nil
}

func (t *Tracker) triagedList(ctx context.Context) ([]string, error) {
	if t.state == nil {
		return nil, nil
	}
	raw, err := t.state.GetState(ctx, StateTriagedMail)
	if err != nil {
		return nil, fmt.Errorf("reading triaged mail ids: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		t.logger.Warn("discarding unreadable triaged mail ids", "error", err)
		return nil, nil
	}
	return ids, nil
}
