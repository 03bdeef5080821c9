package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/resilience"
)

const TypeSolanaTransfer = "solana.transfer"

type solanaMetadata struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// SolanaHandler submits a SOL transfer to the platform's wallet signing
// service, which owns the hot wallet key and performs the on chain send.
// Generic action family, single brace {key} placeholders.
type SolanaHandler struct {
	walletServiceURL string
	client           *http.Client
	exec             *resilience.Executor
	clock            core.Clock
}

func NewSolanaHandler(walletServiceURL string, client *http.Client, exec *resilience.Executor, clock core.Clock) *SolanaHandler {
	return &SolanaHandler{walletServiceURL: walletServiceURL, client: client, exec: exec, clock: clock}
}

func (h *SolanaHandler) Execute(ctx context.Context, metadataTemplate string, payload map[string]any) (*Result, error) {
	rendered := ApplySingle(metadataTemplate, Flatten(payload))

	var meta solanaMetadata
	if err := json.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, fmt.Errorf("solana metadata is not valid json: %w", err)
	}
	if meta.To == "" {
		return nil, fmt.Errorf("solana action requires a destination address")
	}
	lamports, err := strconv.ParseUint(meta.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("solana amount %q is not a lamport count: %w", meta.Amount, err)
	}

	reqBody, err := json.Marshal(map[string]any{"to": meta.To, "lamports": lamports})
	if err != nil {
		return nil, err
	}

	raw, err := h.exec.Execute(ctx, 1, func(ctx context.Context) (any, error) {
		req, err := http.NewRequest(http.MethodPost, h.walletServiceURL+"/v1/transfers", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return resilience.DoRequest(ctx, h.client, req, h.clock)
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Signature string `json:"signature"`
	}
	if body, ok := raw.([]byte); ok {
		_ = json.Unmarshal(body, &resp)
	}

	return &Result{Output: map[string]any{"to": meta.To, "lamports": lamports, "signature": resp.Signature}}, nil
}
