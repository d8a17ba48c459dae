package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"logview/internal/model"
)

// Client wraps the chat-completion API for the explain action. A nil
// client or an empty key disables the feature.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout}
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

// maxExplainEntries bounds how much of the visible selection is sent out.
const maxExplainEntries = 80

// Explain summarizes the given entries: what is happening, notable errors
// and likely causes. Entries are redacted before leaving the process.
func (c *Client) Explain(ctx context.Context, entries []model.LogEntry) (string, error) {
	if !c.Enabled() {
		return "", errors.New("openai disabled")
	}
	if len(entries) == 0 {
		return "", errors.New("no entries to explain")
	}
	prompt := buildExplainPrompt(entries)
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cli := openai.NewClientWithConfig(cfg)
	resp, err := cli.CreateChatCompletion(ctx2, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a log analysis assistant. Summarize plainly: what the stream shows, notable errors or anomalies, and likely causes. Be concise."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("explain request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildExplainPrompt(entries []model.LogEntry) string {
	n := len(entries)
	if n > maxExplainEntries {
		// Keep the newest slice of the selection
		entries = entries[n-maxExplainEntries:]
	}
	var b strings.Builder
	b.WriteString("Explain the following log entries:\n")
	for _, e := range entries {
		line := fmt.Sprintf("%s %s %s/%s %s",
			e.Timestamp.Format("15:04:05"), e.Level, e.Source, e.Type, e.Message)
		b.WriteString(RedactPII(line))
		b.WriteByte('\n')
	}
	return b.String()
}
