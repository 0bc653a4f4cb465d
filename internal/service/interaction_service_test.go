package service

import (
	"errors"
	"testing"
	"time"

	"github.com/citadel/internal/db"
)

func TestInteractionCreateTriggersRecalculate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	contactSvc := NewContactService(db.DB, "US")
	svc := NewInteractionService(db.DB, contactSvc)

	contact, err := contactSvc.Create(ContactInput{FirstName: "伟", LastName: "张", Cadence: CadenceBiweekly})
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	occurredAt := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	if _, err := svc.Create(InteractionInput{
		ContactID:  contact.ID,
		Type:       db.InteractionCallOutbound,
		OccurredAt: occurredAt,
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	reloaded, _ := contactSvc.Get(contact.ID)
	if reloaded.LastContactedAt == nil || !reloaded.LastContactedAt.UTC().Equal(occurredAt) {
		t.Fatalf("expected LastContactedAt updated on create, got %v", reloaded.LastContactedAt)
	}
	wantDue := occurredAt.AddDate(0, 0, 14)
	if reloaded.ContactDueAt == nil || !reloaded.ContactDueAt.UTC().Equal(wantDue) {
		t.Fatalf("expected ContactDueAt updated on create, got %v", reloaded.ContactDueAt)
	}
}

func TestInteractionUpdateTypeRetriggersRecalculate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	contactSvc := NewContactService(db.DB, "US")
	svc := NewInteractionService(db.DB, contactSvc)

	contact, err := contactSvc.Create(ContactInput{FirstName: "敏", LastName: "李"})
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	occurredAt := time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC)
	interaction, err := svc.Create(InteractionInput{
		ContactID:  contact.ID,
		Type:       db.InteractionTextOutbound,
		OccurredAt: occurredAt,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	reloaded, _ := contactSvc.Get(contact.ID)
	if reloaded.LastContactedAt == nil {
		t.Fatal("expected LastContactedAt after outbound text")
	}

	// 改成未接来电后不再计入主动联系
	if _, err := svc.Update(interaction.ID, InteractionInput{
		ContactID:  contact.ID,
		Type:       db.InteractionCallMissed,
		OccurredAt: occurredAt,
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	reloaded, _ = contactSvc.Get(contact.ID)
	if reloaded.LastContactedAt != nil {
		t.Fatalf("expected nil LastContactedAt after type change, got %v", reloaded.LastContactedAt)
	}
}

func TestInteractionDeleteFallsBackToPreviousOutbound(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	contactSvc := NewContactService(db.DB, "US")
	svc := NewInteractionService(db.DB, contactSvc)

	contact, err := contactSvc.Create(ContactInput{FirstName: "Sam", LastName: "Rivera"})
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	older := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Create(InteractionInput{ContactID: contact.ID, Type: db.InteractionEmailOutbound, OccurredAt: older}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	latest, err := svc.Create(InteractionInput{ContactID: contact.ID, Type: db.InteractionCallOutbound, OccurredAt: newer})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 删除最近一次主动联系，应回退到上一个
	if err := svc.Delete(latest.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	reloaded, _ := contactSvc.Get(contact.ID)
	if reloaded.LastContactedAt == nil || !reloaded.LastContactedAt.UTC().Equal(older) {
		t.Fatalf("expected fallback to older outbound, got %v", reloaded.LastContactedAt)
	}

	// 删光后回到 NULL
	remaining, _, err := svc.ListByContact(InteractionFilter{ContactID: contact.ID})
	if err != nil {
		t.Fatalf("ListByContact returned error: %v", err)
	}
	for _, interaction := range remaining {
		if err := svc.Delete(interaction.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
	}

	reloaded, _ = contactSvc.Get(contact.ID)
	if reloaded.LastContactedAt != nil {
		t.Fatalf("expected nil LastContactedAt with no interactions, got %v", reloaded.LastContactedAt)
	}
}

func TestInteractionValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	contactSvc := NewContactService(db.DB, "US")
	svc := NewInteractionService(db.DB, contactSvc)

	contact, err := contactSvc.Create(ContactInput{FirstName: "伟"})
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	occurredAt := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Create(InteractionInput{ContactID: contact.ID, Type: "CARRIER_PIGEON", OccurredAt: occurredAt}); !errors.Is(err, ErrInteractionInvalid) {
		t.Fatalf("expected ErrInteractionInvalid for unknown type, got %v", err)
	}

	negative := -5
	if _, err := svc.Create(InteractionInput{ContactID: contact.ID, Type: db.InteractionCallInbound, OccurredAt: occurredAt, DurationSeconds: &negative}); !errors.Is(err, ErrInteractionInvalid) {
		t.Fatalf("expected ErrInteractionInvalid for negative duration, got %v", err)
	}

	if _, err := svc.Create(InteractionInput{ContactID: contact.ID, Type: db.InteractionCallInbound}); !errors.Is(err, ErrInteractionInvalid) {
		t.Fatalf("expected ErrInteractionInvalid for zero occurred_at, got %v", err)
	}

	if _, err := svc.Create(InteractionInput{ContactID: 9999, Type: db.InteractionCallInbound, OccurredAt: occurredAt}); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}
