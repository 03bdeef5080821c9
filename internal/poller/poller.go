package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Poller detects content changes for sources without push notifications by
// diffing row hashes against the previous poll.
type Poller struct {
	store HashStore
	ttl   time.Duration
}

func NewPoller(store HashStore, ttl time.Duration) *Poller {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Poller{store: store, ttl: ttl}
}

// Poll fetches the source's current state and reports rows whose hash
// differs from the stored one. Rows seen for the first time establish a
// baseline and are not reported. The new hash map is written back
// unconditionally before returning, so a missed cycle self corrects on the
// next poll.
func (p *Poller) Poll(ctx context.Context, triggerID int64, config string, source Source) ([]UpdatedRecord, error) {
	snapshot, err := source.Fetch(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("fetching source state: %w", err)
	}

	previous, err := p.store.Load(ctx, triggerID)
	if err != nil {
		return nil, fmt.Errorf("loading row hashes: %w", err)
	}

	next := make(map[string]string, len(snapshot.Rows))
	var updated []UpdatedRecord

	for _, row := range snapshot.Rows {
		hash := RowHash(row.Values)
		next[row.Key] = hash

		prevHash, seen := previous[row.Key]
		if !seen {
			// first sight establishes the baseline, reporting here would
			// fire on every row of a newly watched source
			continue
		}
		if prevHash != hash {
			updated = append(updated, UpdatedRecord{
				RowKey: row.Key,
				Fields: zipFields(snapshot.Headers, row.Values),
			})
		}
	}

	if err := p.store.Save(ctx, triggerID, next, p.ttl); err != nil {
		return nil, fmt.Errorf("saving row hashes: %w", err)
	}

	slog.DebugContext(ctx, "Poll cycle complete", "trigger_id", triggerID, "rows", len(snapshot.Rows), "updated", len(updated))
	return updated, nil
}

func zipFields(headers []string, values []string) map[string]string {
	fields := make(map[string]string, len(values))
	for i, v := range values {
		if i < len(headers) && headers[i] != "" {
			fields[headers[i]] = v
		} else {
			fields[fmt.Sprintf("column_%d", i)] = v
		}
	}
	return fields
}
