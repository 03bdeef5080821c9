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

const TypeEmailSend = "email.send"

type emailMetadata struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailHandler sends mail through the configured relay API. It belongs to
// the generic action family and uses single brace {key} placeholders.
type EmailHandler struct {
	relayURL string
	apiKey   string
	client   *http.Client
	exec     *resilience.Executor
	clock    core.Clock
}

func NewEmailHandler(relayURL, apiKey string, client *http.Client, exec *resilience.Executor, clock core.Clock) *EmailHandler {
	return &EmailHandler{relayURL: relayURL, apiKey: apiKey, client: client, exec: exec, clock: clock}
}

func (h *EmailHandler) Execute(ctx context.Context, metadataTemplate string, payload map[string]any) (*Result, error) {
	rendered := ApplySingle(metadataTemplate, Flatten(payload))

	var meta emailMetadata
	if err := json.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, fmt.Errorf("email metadata is not valid json: %w", err)
	}
	if meta.To == "" {
		return nil, fmt.Errorf("email action requires a to address")
	}

	reqBody, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	_, err = h.exec.Execute(ctx, 1, func(ctx context.Context) (any, error) {
		req, err := http.NewRequest(http.MethodPost, h.relayURL, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
		return resilience.DoRequest(ctx, h.client, req, h.clock)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Output: map[string]any{"to": meta.To, "subject": meta.Subject}}, nil
}
