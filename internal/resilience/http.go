package resilience

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hookloop/hookloop/internal/core"
)

// DoRequest performs one HTTP request and returns the response body, or a
// classified error for non 2xx statuses and transport failures. A
// Retry-After header on 429 responses overrides the default retry delay.
func DoRequest(ctx context.Context, client *http.Client, req *http.Request, clock core.Clock) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &ClassifiedError{
			Type:      ErrorNetwork,
			Message:   err.Error(),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClassifiedError{
			Type:      ErrorNetwork,
			Message:   "reading response body: " + err.Error(),
			Retryable: true,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	cerr := ClassifyStatus(resp.StatusCode, string(body), clock.Now())
	if resp.StatusCode == 429 {
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, parseErr := strconv.Atoi(after); parseErr == nil && secs > 0 {
				cerr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
	}
	return nil, cerr
}
