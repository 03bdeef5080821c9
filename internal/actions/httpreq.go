package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/resilience"
)

const TypeHTTPRequest = "http.request"

type httpMetadata struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// HTTPRequestHandler fires an arbitrary outbound request. Generic action
// family, single brace {key} placeholders.
type HTTPRequestHandler struct {
	client *http.Client
	exec   *resilience.Executor
	clock  core.Clock
}

func NewHTTPRequestHandler(client *http.Client, exec *resilience.Executor, clock core.Clock) *HTTPRequestHandler {
	return &HTTPRequestHandler{client: client, exec: exec, clock: clock}
}

func (h *HTTPRequestHandler) Execute(ctx context.Context, metadataTemplate string, payload map[string]any) (*Result, error) {
	rendered := ApplySingle(metadataTemplate, Flatten(payload))

	var meta httpMetadata
	if err := json.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, fmt.Errorf("http metadata is not valid json: %w", err)
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("http action requires a url")
	}
	method := strings.ToUpper(meta.Method)
	if method == "" {
		method = http.MethodPost
	}

	raw, err := h.exec.Execute(ctx, 1, func(ctx context.Context) (any, error) {
		var body *strings.Reader
		if meta.Body != "" {
			body = strings.NewReader(meta.Body)
		} else {
			body = strings.NewReader("")
		}
		req, err := http.NewRequest(method, meta.URL, body)
		if err != nil {
			return nil, err
		}
		for k, v := range meta.Headers {
			req.Header.Set(k, v)
		}
		return resilience.DoRequest(ctx, h.client, req, h.clock)
	})
	if err != nil {
		return nil, err
	}

	output := map[string]any{"url": meta.URL, "method": method}
	if body, ok := raw.([]byte); ok {
		output["responseBytes"] = len(body)
	}
	return &Result{Output: output}, nil
}
