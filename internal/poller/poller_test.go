package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHashStore struct {
	hashes map[int64]map[string]string
	ttl    time.Duration
}

func newMemoryHashStore() *memoryHashStore {
	return &memoryHashStore{hashes: make(map[int64]map[string]string)}
}

func (m *memoryHashStore) Load(ctx context.Context, triggerID int64) (map[string]string, error) {
	stored := m.hashes[triggerID]
	out := make(map[string]string, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

func (m *memoryHashStore) Save(ctx context.Context, triggerID int64, hashes map[string]string, ttl time.Duration) error {
	m.hashes[triggerID] = hashes
	m.ttl = ttl
	return nil
}

type fakeSource struct {
	snapshot *Snapshot
	err      error
}

func (f *fakeSource) Fetch(ctx context.Context, config string) (*Snapshot, error) {
	return f.snapshot, f.err
}

func sheet(rows ...Row) *Snapshot {
	return &Snapshot{Headers: []string{"name", "amount"}, Rows: rows}
}

func TestFirstPollEstablishesBaseline(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, time.Hour)
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}

	updated, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)
	assert.Empty(t, updated, "previously unseen rows are baselined, not reported")
	assert.Len(t, store.hashes[7], 1, "baseline hash must be persisted")
}

func TestUnchangedRowNotReported(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, time.Hour)
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}

	_, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)

	updated, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestChangedRowReportedExactly(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, time.Hour)
	source := &fakeSource{snapshot: sheet(
		Row{Key: "1", Values: []string{"Ada", "100"}},
		Row{Key: "2", Values: []string{"Bob", "50"}},
	)}

	_, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)

	source.snapshot = sheet(
		Row{Key: "1", Values: []string{"Ada", "100"}},
		Row{Key: "2", Values: []string{"Bob", "75"}},
	)
	updated, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)

	require.Len(t, updated, 1)
	assert.Equal(t, "2", updated[0].RowKey)
	assert.Equal(t, map[string]string{"name": "Bob", "amount": "75"}, updated[0].Fields)
}

func TestWhitespaceOnlyChangeNotReported(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, time.Hour)
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}

	_, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)

	source.snapshot = sheet(Row{Key: "1", Values: []string{"  Ada ", "100"}})
	updated, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestNewRowDuringSecondPollIsBaselined(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, time.Hour)
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}

	_, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)

	source.snapshot = sheet(
		Row{Key: "1", Values: []string{"Ada", "100"}},
		Row{Key: "3", Values: []string{"Eve", "10"}},
	)
	updated, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)
	assert.Empty(t, updated, "new rows baseline silently")
	assert.Len(t, store.hashes[7], 2)
}

func TestFetchErrorSurfacesWithoutTouchingHashes(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, time.Hour)
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}

	_, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)
	before := store.hashes[7]

	source.err = errors.New("sheet unavailable")
	source.snapshot = nil
	_, err = p.Poll(context.Background(), 7, "{}", source)
	require.Error(t, err)
	assert.Equal(t, before, store.hashes[7], "failed polls must not clobber stored hashes")
}

func TestPollWritesRetentionTTL(t *testing.T) {
	store := newMemoryHashStore()
	p := NewPoller(store, 48*time.Hour)
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}

	_, err := p.Poll(context.Background(), 7, "{}", source)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, store.ttl)
}
