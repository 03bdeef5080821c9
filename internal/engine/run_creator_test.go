package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
	"github.com/hookloop/hookloop/internal/models"
)

func TestCreateRunPersistsRunWithOutbox(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	var saved *domain.Run
	runRepo := &MockRunRepo{
		SaveWithOutboxFunc: func(run *domain.Run) error {
			saved = run
			return nil
		},
	}

	rc := NewRunCreator(runRepo, clock)
	run, err := rc.CreateRun(context.Background(), 42, json.RawMessage(`{"comment":{"amount":5}}`), domain.RunSourceWebhook)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved == nil {
		t.Fatal("expected run to be saved")
	}
	if run.ID == "" {
		t.Error("expected a generated run id")
	}
	if saved.WorkflowID != 42 {
		t.Errorf("expected workflow id 42, got %d", saved.WorkflowID)
	}
	if saved.Payload != `{"comment":{"amount":5}}` {
		t.Errorf("unexpected payload: %s", saved.Payload)
	}
	if saved.Source != domain.RunSourceWebhook {
		t.Errorf("unexpected source: %s", saved.Source)
	}
	if !saved.Created.Equal(clock.Now()) {
		t.Errorf("expected created %v, got %v", clock.Now(), saved.Created)
	}
}

func TestCreateFromEvent(t *testing.T) {
	clock := core.NewFakeClock(time.Now())

	var saved *domain.Run
	runRepo := &MockRunRepo{
		SaveWithOutboxFunc: func(run *domain.Run) error {
			saved = run
			return nil
		},
	}

	receivedAt := clock.Now().Add(-2 * time.Minute)
	rc := NewRunCreator(runRepo, clock)
	_, err := rc.CreateFromEvent(context.Background(), models.TriggerEvent{
		WorkflowID: 7,
		Payload:    json.RawMessage(`{"rowKey":"c1"}`),
		Source:     domain.RunSourcePoller,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved.WorkflowID != 7 || saved.Source != domain.RunSourcePoller {
		t.Errorf("unexpected run: %+v", saved)
	}
	if !saved.Created.Equal(receivedAt) {
		t.Errorf("expected created to match receipt time %v, got %v", receivedAt, saved.Created)
	}
}

func TestCreateRunGeneratesUniqueIDs(t *testing.T) {
	clock := core.NewFakeClock(time.Now())
	rc := NewRunCreator(&MockRunRepo{}, clock)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		run, err := rc.CreateRun(context.Background(), 1, json.RawMessage(`{}`), domain.RunSourcePoller)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if seen[run.ID] {
			t.Fatalf("duplicate run id %s", run.ID)
		}
		seen[run.ID] = true
	}
}

func TestCreateRunPropagatesSaveError(t *testing.T) {
	clock := core.NewFakeClock(time.Now())
	runRepo := &MockRunRepo{
		SaveWithOutboxFunc: func(run *domain.Run) error {
			return errors.New("database is down")
		},
	}

	rc := NewRunCreator(runRepo, clock)
	_, err := rc.CreateRun(context.Background(), 1, json.RawMessage(`{}`), domain.RunSourceSchedule)
	if err == nil {
		t.Fatal("expected error")
	}
}
