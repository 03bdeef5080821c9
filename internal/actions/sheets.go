package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/resilience"
)

const TypeSheetsAppendRow = "sheets.append_row"

type sheetsMetadata struct {
	SpreadsheetID string   `json:"spreadsheetId"`
	Range         string   `json:"range"`
	Values        []string `json:"values"`
}

// SheetsHandler appends one row to a spreadsheet. Provider specific family,
// double brace {{key}} placeholders.
type SheetsHandler struct {
	apiBaseURL string
	token      string
	client     *http.Client
	exec       *resilience.Executor
	clock      core.Clock
}

func NewSheetsHandler(apiBaseURL, token string, client *http.Client, exec *resilience.Executor, clock core.Clock) *SheetsHandler {
	return &SheetsHandler{apiBaseURL: apiBaseURL, token: token, client: client, exec: exec, clock: clock}
}

func (h *SheetsHandler) Execute(ctx context.Context, metadataTemplate string, payload map[string]any) (*Result, error) {
	rendered := ApplyDouble(metadataTemplate, Flatten(payload))

	var meta sheetsMetadata
	if err := json.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, fmt.Errorf("sheets metadata is not valid json: %w", err)
	}
	if meta.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets action requires a spreadsheetId")
	}
	if meta.Range == "" {
		meta.Range = "A1"
	}

	row := make([]any, len(meta.Values))
	for i, v := range meta.Values {
		row[i] = v
	}
	reqBody, err := json.Marshal(map[string]any{"values": [][]any{row}})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		h.apiBaseURL, url.PathEscape(meta.SpreadsheetID), url.PathEscape(meta.Range))

	// Append counts as a write against the sheets quota, weight it higher
	// than a read.
	_, err = h.exec.Execute(ctx, 2, func(ctx context.Context) (any, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+h.token)
		return resilience.DoRequest(ctx, h.client, req, h.clock)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Output: map[string]any{"spreadsheetId": meta.SpreadsheetID, "appended": len(meta.Values)}}, nil
}
