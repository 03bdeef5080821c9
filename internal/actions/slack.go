package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/resilience"
)

const TypeSlackPostMessage = "slack.post_message"

type slackMetadata struct {
	WebhookURL string `json:"webhookUrl"`
	Text       string `json:"text"`
}

// SlackHandler posts a message to an incoming webhook. Provider specific
// family, double brace {{key}} placeholders.
type SlackHandler struct {
	client *http.Client
	exec   *resilience.Executor
	clock  core.Clock
}

func NewSlackHandler(client *http.Client, exec *resilience.Executor, clock core.Clock) *SlackHandler {
	return &SlackHandler{client: client, exec: exec, clock: clock}
}

func (h *SlackHandler) Execute(ctx context.Context, metadataTemplate string, payload map[string]any) (*Result, error) {
	rendered := ApplyDouble(metadataTemplate, Flatten(payload))

	var meta slackMetadata
	if err := json.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, fmt.Errorf("slack metadata is not valid json: %w", err)
	}
	if meta.WebhookURL == "" {
		return nil, fmt.Errorf("slack action requires a webhookUrl")
	}

	reqBody, err := json.Marshal(map[string]string{"text": meta.Text})
	if err != nil {
		return nil, err
	}

	_, err = h.exec.Execute(ctx, 1, func(ctx context.Context) (any, error) {
		req, err := http.NewRequest(http.MethodPost, meta.WebhookURL, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return resilience.DoRequest(ctx, h.client, req, h.clock)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Output: map[string]any{"posted": true}}, nil
}
