package ai

import (
	"context"
	"fmt"
	"log/slog"
)

type Provider interface {
	Triage(ctx context.Context, mail Mail) (*TodoDraft, error)
}

// NewProvider picks the configured backend: "claude-cli" (default) or "openai".
func NewProvider(name, model, openAIKey string, logger *slog.Logger) (Provider, error) {
	switch name {
	case "", "claude-cli":
		return NewClaudeCLI(model, logger), nil
	case "openai":
		if openAIKey == "" {
			return nil, fmt.Errorf("openai provider needs openai.api_key or OPENAI_API_KEY")
		}
		return NewOpenAI(openAIKey, model, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q (expected claude-cli or openai)", name)
	}
}
