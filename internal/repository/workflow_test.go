package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/domain"
)

func TestWorkflowSaveAndFindByID(t *testing.T) {
	db := newTestDB(t)
	clock := core.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := NewWorkflowRepository(db, clock)

	id, err := repo.Save(&domain.Workflow{
		Name:        "new-comment-alert",
		UserID:      7,
		Active:      true,
		TriggerType: domain.TriggerTypeWebhook,
		SecretHash:  sql.NullString{String: "$2a$04$hash", Valid: true},
	})
	if err != nil {
		t.Fatalf("saving workflow: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a generated id")
	}

	wf, err := repo.FindByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Name != "new-comment-alert" || wf.UserID != 7 || !wf.Active {
		t.Errorf("unexpected workflow: %+v", wf)
	}
	if !wf.SecretHash.Valid || wf.SecretHash.String != "$2a$04$hash" {
		t.Errorf("unexpected secret hash: %+v", wf.SecretHash)
	}
	if !wf.Created.Equal(clock.Now()) {
		t.Errorf("expected created %v, got %v", clock.Now(), wf.Created)
	}
}

func TestWorkflowSaveNullSecretHash(t *testing.T) {
	db := newTestDB(t)
	clock := core.NewFakeClock(time.Now())
	repo := NewWorkflowRepository(db, clock)

	id, err := repo.Save(&domain.Workflow{Name: "open-hook", UserID: 1, Active: true, TriggerType: domain.TriggerTypeWebhook})
	if err != nil {
		t.Fatal(err)
	}
	wf, err := repo.FindByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if wf.SecretHash.Valid {
		t.Errorf("expected null secret hash, got %+v", wf.SecretHash)
	}
}

func TestActionStepsOrderedBySortOrderThenID(t *testing.T) {
	db := newTestDB(t)
	clock := core.NewFakeClock(time.Now())
	repo := NewWorkflowRepository(db, clock)

	wfID, err := repo.Save(&domain.Workflow{Name: "chain", UserID: 1, Active: true, TriggerType: domain.TriggerTypeWebhook})
	if err != nil {
		t.Fatal(err)
	}

	// inserted out of order on purpose
	steps := []domain.ActionStep{
		{WorkflowID: wfID, SortOrder: 2, ActionType: "slack.post_message", Metadata: `{"text":"{{comment.text}}"}`},
		{WorkflowID: wfID, SortOrder: 1, ActionType: "email.send", Metadata: `{"to":"{user}"}`},
		{WorkflowID: wfID, SortOrder: 2, ActionType: "http.request", Metadata: `{"url":"https://example.com"}`},
	}
	for i := range steps {
		if _, err := repo.SaveActionStep(&steps[i]); err != nil {
			t.Fatalf("saving step %d: %v", i, err)
		}
	}

	got, err := repo.FindActionSteps(wfID)
	if err != nil {
		t.Fatal(err)
	}
	if len(*got) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(*got))
	}
	if (*got)[0].ActionType != "email.send" {
		t.Errorf("expected sort_order 1 first, got %s", (*got)[0].ActionType)
	}
	// equal sort_order resolves by insertion id
	if (*got)[1].ActionType != "slack.post_message" || (*got)[2].ActionType != "http.request" {
		t.Errorf("unexpected tie-break order: %s then %s", (*got)[1].ActionType, (*got)[2].ActionType)
	}
}

func TestFindActivePollTriggersFiltersInactive(t *testing.T) {
	db := newTestDB(t)
	clock := core.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := NewWorkflowRepository(db, clock)

	wfID, err := repo.Save(&domain.Workflow{Name: "sheet-watch", UserID: 1, Active: true, TriggerType: domain.TriggerTypePoll})
	if err != nil {
		t.Fatal(err)
	}

	active := domain.PollTrigger{WorkflowID: wfID, SourceType: "sheet.rows", Config: `{"spreadsheetId":"s1"}`, Active: true}
	inactive := domain.PollTrigger{WorkflowID: wfID, SourceType: "sheet.rows", Config: `{"spreadsheetId":"s2"}`, Active: false}
	if _, err := repo.SavePollTrigger(&active); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.SavePollTrigger(&inactive); err != nil {
		t.Fatal(err)
	}

	triggers, err := repo.FindActivePollTriggers()
	if err != nil {
		t.Fatal(err)
	}
	if len(*triggers) != 1 {
		t.Fatalf("expected 1 active trigger, got %d", len(*triggers))
	}
	if (*triggers)[0].Config != `{"spreadsheetId":"s1"}` {
		t.Errorf("unexpected trigger: %+v", (*triggers)[0])
	}
}
