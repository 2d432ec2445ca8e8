package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// cleanEnv returns os.Environ() with Claude Code session vars removed
// so the subprocess doesn't get blocked by the nested-session check.
func cleanEnv() []string {
	blocked := map[string]bool{
		"CLAUDECODE":                           true,
		"CLAUDE_CODE_ENTRYPOINT":               true,
		"CLAUDE_CODE_EXPERIMENTAL_AGENT_TEAMS": true,
	}
	var env []string
	for _, e := range os.Environ() {
		key, _, _ := strings.Cut(e, "=")
		if !blocked[key] {
			env = append(env, e)
		}
	}
	return env
}

// ClaudeCLI shells out to the claude CLI with a JSON schema.
type ClaudeCLI struct {
	Model      string
	logger     *slog.Logger
	OnThinking func(text string) // optional: called with streaming text chunks
}

func NewClaudeCLI(model string, logger *slog.Logger) *ClaudeCLI {
	if model == "" {
		model = "sonnet"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ClaudeCLI{Model: model, logger: logger}
}

func (c *ClaudeCLI) Triage(ctx context.Context, mail Mail) (*TodoDraft, error) {
	systemPrompt := buildSystemPrompt()
	userPrompt := buildUserPrompt(mail)
	schema := draftSchemaJSON()

	args := []string{
		"-p", userPrompt,
		"--output-format", "json",
		"--model", c.Model,
		"--system-prompt", systemPrompt,
		"--json-schema", schema,
		"--no-session-persistence",
		"--effort", "low",
		"--no-thinking",
	}

	c.logger.Debug("invoking claude CLI",
		"model", c.Model,
		"subject", mail.Subject,
		"system_prompt_len", len(systemPrompt),
		"user_prompt_len", len(userPrompt),
		"schema_len", len(schema),
	)

	result, err := c.runCLI(ctx, args)
	if err != nil {
		return nil, err
	}

	draft, err := parseDraft(result)
	if err != nil {
		c.logger.Error("failed to parse todo draft", "error", err, "raw", truncateStr(result, 2000))
		return nil, err
	}

	c.logger.Debug("parsed todo draft",
		"actionable", draft.Actionable,
		"title", draft.Title,
		"priority", draft.Priority,
		"project", draft.Project,
	)
	return draft, nil
}

// runCLI executes the claude CLI, streaming when OnThinking is set.
func (c *ClaudeCLI) runCLI(ctx context.Context, args []string) (string, error) {
	if c.OnThinking != nil {
		return c.runStreamingCLI(ctx, args)
	}
	return c.runBufferedCLI(ctx, args)
}

func (c *ClaudeCLI) runBufferedCLI(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "claude", args...)
	cmd.Env = cleanEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	c.logger.Debug("claude CLI finished", "elapsed", elapsed, "stdout_bytes", stdout.Len(), "error", err)

	if err != nil {
		return "", c.cliError(ctx, err, elapsed, stderr.String())
	}
	return unwrapEnvelope(stdout.Bytes()), nil
}

// envelope is the --output-format json wrapper and the final stream-json event.
type envelope struct {
	Type             string          `json:"type"`
	Result           json.RawMessage `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output"`
}

// unwrapEnvelope extracts the model output from a CLI envelope. The typed
// structured_output wins over result, which may be a JSON string or a raw
// object. Anything else is returned as-is.
func unwrapEnvelope(data []byte) string {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return string(data)
	}
	if out := bytes.TrimSpace(env.StructuredOutput); len(out) > 0 && out[0] == '{' {
		return string(out)
	}
	if res := bytes.TrimSpace(env.Result); len(res) > 0 {
		var text string
		if json.Unmarshal(res, &text) == nil && text != "" {
			return text
		}
		if res[0] == '{' || res[0] == '[' {
			return string(res)
		}
	}
	return string(data)
}

type streamEvent struct {
	envelope
	Delta struct {
		Text string `json:"text,omitempty"`
	} `json:"delta"`
	Message struct {
		Content []struct {
			Type string `json:"type,omitempty"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"message"`
}

// runStreamingCLI switches to stream-json and forwards text chunks to OnThinking.
func (c *ClaudeCLI) runStreamingCLI(ctx context.Context, args []string) (string, error) {
	streamArgs := make([]string, 0, len(args)+1)
	for i, a := range args {
		if a == "json" && i > 0 && args[i-1] == "--output-format" {
			a = "stream-json"
		}
		streamArgs = append(streamArgs, a)
	}
	// stream-json with -p requires --verbose.
	streamArgs = append(streamArgs, "--verbose")

	cmd := exec.CommandContext(ctx, "claude", streamArgs...)
	cmd.Env = cleanEnv()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("creating stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting claude CLI: %w", err)
	}

	var result []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var ev streamEvent
		if len(line) == 0 || json.Unmarshal(line, &ev) != nil {
			continue
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Text != "" {
				c.OnThinking(ev.Delta.Text)
			}
		case "assistant":
			for _, block := range ev.Message.Content {
				if block.Type == "text" && block.Text != "" {
					c.OnThinking(block.Text)
				}
			}
		case "result":
			result = append([]byte(nil), line...)
		}
	}

	elapsed := time.Since(start)
	if err := cmd.Wait(); err != nil {
		return "", c.cliError(ctx, err, elapsed, stderr.String())
	}
	c.logger.Debug("claude CLI streaming finished", "elapsed", elapsed, "result_len", len(result))

	if result == nil {
		return "", fmt.Errorf("no result received from claude CLI stream")
	}
	return unwrapEnvelope(result), nil
}

func (c *ClaudeCLI) cliError(ctx context.Context, err error, elapsed time.Duration, stderr string) error {
	c.logger.Error("claude CLI failed", "error", err, "elapsed", elapsed, "stderr", stderr)
	if ctx.Err() != nil {
		return fmt.Errorf("claude CLI timed out after %s", elapsed.Truncate(time.Second))
	}
	return fmt.Errorf("running claude CLI: %w (stderr: %s)", err, stderr)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
