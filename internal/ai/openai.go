package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI triages through the Chat Completions API with a strict JSON schema.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *OpenAI {
	// The claude-cli aliases mean nothing to OpenAI.
	if model == "" || model == "sonnet" || model == "haiku" || model == "opus" {
		model = defaultOpenAIModel
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (o *OpenAI) Triage(ctx context.Context, mail Mail) (*TodoDraft, error) {
	schema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "todo_draft",
		Description: openai.String("A todo proposed from an email"),
		Schema:      DraftSchema(),
		Strict:      openai.Bool(true),
	}

	o.logger.Debug("invoking OpenAI", "model", o.model, "subject", mail.Subject)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt()),
			openai.UserMessage(buildUserPrompt(mail)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		},
	})
	if err != nil {
		o.logger.Error("OpenAI request failed", "error", err)
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	draft, err := parseDraft(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("parsed todo draft", "actionable", draft.Actionable, "title", draft.Title)
	return draft, nil
}
