package poller

import "context"

// Row is one record from a watched source. Values are positional and line up
// with the snapshot's header schema. Nil entries in Values stand for null
// fields and normalize to the empty string.
type Row struct {
	Key    string
	Values []string
}

// Snapshot is the full current record set of a source.
type Snapshot struct {
	Headers []string
	Rows    []Row
}

// Source fetches the current state of one watched dataset, eg a sheet's
// rows. Implementations make their API calls through a resilience executor.
type Source interface {
	Fetch(ctx context.Context, config string) (*Snapshot, error)
}

// UpdatedRecord is a row whose content hash changed since the previous poll.
type UpdatedRecord struct {
	RowKey string
	Fields map[string]string
}
