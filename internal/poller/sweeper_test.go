package poller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookloop/hookloop/internal/domain"
)

// MockTriggerRepo implements TriggerRepo for testing
type MockTriggerRepo struct {
	FindActivePollTriggersFunc func() (*[]domain.PollTrigger, error)
}

func (m *MockTriggerRepo) FindActivePollTriggers() (*[]domain.PollTrigger, error) {
	if m.FindActivePollTriggersFunc != nil {
		return m.FindActivePollTriggersFunc()
	}
	return &[]domain.PollTrigger{}, nil
}

// MockRunCreator implements RunCreator for testing
type MockRunCreator struct {
	CreateRunFunc func(ctx context.Context, workflowID int64, payload json.RawMessage, source string) (*domain.Run, error)
	created       []domain.Run
}

func (m *MockRunCreator) CreateRun(ctx context.Context, workflowID int64, payload json.RawMessage, source string) (*domain.Run, error) {
	if m.CreateRunFunc != nil {
		return m.CreateRunFunc(ctx, workflowID, payload, source)
	}
	run := domain.Run{ID: "run", WorkflowID: workflowID, Payload: string(payload), Source: source}
	m.created = append(m.created, run)
	return &run, nil
}

func TestSweepCreatesRunsForUpdatedRows(t *testing.T) {
	store := newMemoryHashStore()
	source := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}
	triggers := []domain.PollTrigger{{ID: 7, WorkflowID: 42, SourceType: "sheets", Config: "{}", Active: true}}

	runCreator := &MockRunCreator{}
	sweeper := NewSweeper(
		&MockTriggerRepo{FindActivePollTriggersFunc: func() (*[]domain.PollTrigger, error) { return &triggers, nil }},
		runCreator,
		NewPoller(store, time.Hour),
		nil, // lock is optional, external serialization assumed in tests
		map[string]Source{"sheets": source},
		time.Minute,
	)

	// baseline sweep
	sweeper.Sweep(context.Background())
	assert.Empty(t, runCreator.created)

	source.snapshot = sheet(Row{Key: "1", Values: []string{"Ada", "250"}})
	sweeper.Sweep(context.Background())

	require.Len(t, runCreator.created, 1)
	run := runCreator.created[0]
	assert.Equal(t, int64(42), run.WorkflowID)
	assert.Equal(t, domain.RunSourcePoller, run.Source)

	var payload struct {
		TriggerID int64             `json:"triggerId"`
		RowKey    string            `json:"rowKey"`
		Fields    map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(run.Payload), &payload))
	assert.Equal(t, int64(7), payload.TriggerID)
	assert.Equal(t, "1", payload.RowKey)
	assert.Equal(t, "250", payload.Fields["amount"])
}

func TestSweepIsolatesFailingTriggers(t *testing.T) {
	store := newMemoryHashStore()
	okSource := &fakeSource{snapshot: sheet(Row{Key: "1", Values: []string{"Ada", "100"}})}
	badSource := &fakeSource{err: errors.New("upstream down")}
	triggers := []domain.PollTrigger{
		{ID: 1, WorkflowID: 10, SourceType: "broken", Config: "{}", Active: true},
		{ID: 2, WorkflowID: 20, SourceType: "sheets", Config: "{}", Active: true},
	}

	runCreator := &MockRunCreator{}
	sweeper := NewSweeper(
		&MockTriggerRepo{FindActivePollTriggersFunc: func() (*[]domain.PollTrigger, error) { return &triggers, nil }},
		runCreator,
		NewPoller(store, time.Hour),
		nil,
		map[string]Source{"sheets": okSource, "broken": badSource},
		time.Minute,
	)

	sweeper.Sweep(context.Background())
	assert.Len(t, store.hashes[2], 1, "healthy trigger still polled after the broken one failed")
}
