package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/resilience"
)

// SourceTypeSheetRows identifies the spreadsheet rows source in a poll
// trigger's source_type column.
const SourceTypeSheetRows = "sheet.rows"

type sheetRowsConfig struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Range         string `json:"range"`
	KeyColumn     int    `json:"keyColumn"`
}

type sheetValuesResponse struct {
	Values [][]string `json:"values"`
}

// SheetRowsSource fetches a spreadsheet range and exposes it as a snapshot.
// The first row is the header schema, every following row is keyed by the
// configured key column (default the first).
type SheetRowsSource struct {
	apiBaseURL string
	token      string
	client     *http.Client
	exec       *resilience.Executor
	clock      core.Clock
}

func NewSheetRowsSource(apiBaseURL, token string, client *http.Client, exec *resilience.Executor, clock core.Clock) *SheetRowsSource {
	return &SheetRowsSource{apiBaseURL: apiBaseURL, token: token, client: client, exec: exec, clock: clock}
}

func (s *SheetRowsSource) Fetch(ctx context.Context, config string) (*Snapshot, error) {
	var cfg sheetRowsConfig
	if err := json.Unmarshal([]byte(config), &cfg); err != nil {
		return nil, fmt.Errorf("sheet rows config is not valid json: %w", err)
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheet rows source requires a spreadsheetId")
	}
	if cfg.Range == "" {
		cfg.Range = "A1:Z1000"
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.apiBaseURL, url.PathEscape(cfg.SpreadsheetID), url.PathEscape(cfg.Range))

	body, err := s.exec.Execute(ctx, 1, func(ctx context.Context) (any, error) {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		return resilience.DoRequest(ctx, s.client, req, s.clock)
	})
	if err != nil {
		return nil, err
	}

	var resp sheetValuesResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return nil, fmt.Errorf("sheet rows response is not valid json: %w", err)
	}
	if len(resp.Values) == 0 {
		return &Snapshot{}, nil
	}

	snapshot := &Snapshot{Headers: resp.Values[0]}
	for i, values := range resp.Values[1:] {
		key := ""
		if cfg.KeyColumn < len(values) {
			key = values[cfg.KeyColumn]
		}
		if key == "" {
			// Rows without a key column value fall back to their position so
			// they still participate in change detection.
			key = fmt.Sprintf("row_%d", i+2)
		}
		snapshot.Rows = append(snapshot.Rows, Row{Key: key, Values: values})
	}
	return snapshot, nil
}
