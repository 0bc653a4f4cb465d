package service

import (
	"errors"
	"testing"
	"time"

	"github.com/citadel/internal/db"
)

func createTestContact(t *testing.T, firstName, lastName string) *db.Contact {
	t.Helper()
	contact := db.Contact{FirstName: firstName, LastName: lastName}
	if err := db.DB.Create(&contact).Error; err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}
	return &contact
}

func TestUpcomingWrapsYearEnd(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	contact := createTestContact(t, "伟", "张")

	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableBirthday, Month: 1, Day: 5, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableCustom, Label: "毕业纪念", Month: 6, Day: 1, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 12-28 起看 14 天，1-5 落在窗口内（距离 8），6-1 不在
	upcoming, err := svc.Upcoming(14, date(2026, time.December, 28))
	if err != nil {
		t.Fatalf("Upcoming returned error: %v", err)
	}

	if len(upcoming) != 1 {
		t.Fatalf("expected 1 upcoming date, got %d", len(upcoming))
	}
	if upcoming[0].Month != 1 || upcoming[0].Day != 5 {
		t.Fatalf("expected Jan 5 entry, got %d-%d", upcoming[0].Month, upcoming[0].Day)
	}
	if upcoming[0].DistanceDays != 8 {
		t.Fatalf("expected distance 8, got %d", upcoming[0].DistanceDays)
	}
}

func TestUpcomingTodayCountsAsDue(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	contact := createTestContact(t, "敏", "李")

	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableBirthday, Month: 6, Day: 15, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	upcoming, err := svc.Upcoming(0, date(2026, time.June, 15))
	if err != nil {
		t.Fatalf("Upcoming returned error: %v", err)
	}

	if len(upcoming) != 1 || upcoming[0].DistanceDays != 0 {
		t.Fatalf("expected today to count with distance 0, got %+v", upcoming)
	}
}

func TestUpcomingExcludesExpiredOneTimeDates(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	contact := createTestContact(t, "Sam", "Rivera")

	past := 2020
	future := 2030
	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableElection, Month: 7, Day: 1, Year: &past}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableElection, Month: 7, Day: 2, Year: &future}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	upcoming, err := svc.Upcoming(30, date(2026, time.June, 20))
	if err != nil {
		t.Fatalf("Upcoming returned error: %v", err)
	}

	// 2020 年的一次性记录已过期，2030 年的仍然有效
	if len(upcoming) != 1 {
		t.Fatalf("expected 1 upcoming date, got %d", len(upcoming))
	}
	if upcoming[0].Year == nil || *upcoming[0].Year != future {
		t.Fatalf("expected the 2030 entry, got %+v", upcoming[0])
	}
}

func TestUpcomingDeterministicOrdering(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	first := createTestContact(t, "一", "陈")
	second := createTestContact(t, "二", "王")

	// 同一天的两条记录按联系人 ID 再按纪念日 ID 排序
	if _, err := svc.Create(NotableDateInput{ContactID: second.ID, Type: db.NotableBirthday, Month: 8, Day: 10, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: first.ID, Type: db.NotableBirthday, Month: 8, Day: 10, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: second.ID, Type: db.NotableAnniversary, Month: 8, Day: 8, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	upcoming, err := svc.Upcoming(30, date(2026, time.August, 1))
	if err != nil {
		t.Fatalf("Upcoming returned error: %v", err)
	}

	if len(upcoming) != 3 {
		t.Fatalf("expected 3 upcoming dates, got %d", len(upcoming))
	}
	if upcoming[0].Day != 8 {
		t.Fatalf("expected closest date first, got day %d", upcoming[0].Day)
	}
	if upcoming[1].ContactID != first.ID || upcoming[2].ContactID != second.ID {
		t.Fatalf("expected tie broken by contact id, got %d then %d", upcoming[1].ContactID, upcoming[2].ContactID)
	}
}

func TestUpcomingEnrichedWithContactName(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	contact := createTestContact(t, "伟", "张")

	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableBirthday, Month: 9, Day: 9, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	upcoming, err := svc.Upcoming(30, date(2026, time.September, 1))
	if err != nil {
		t.Fatalf("Upcoming returned error: %v", err)
	}

	if len(upcoming) != 1 || upcoming[0].ContactName != "伟 张" {
		t.Fatalf("expected contact display name, got %+v", upcoming)
	}
}

func TestUpcomingForContactScopesAndValidates(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	mine := createTestContact(t, "敏", "李")
	other := createTestContact(t, "伟", "张")

	if _, err := svc.Create(NotableDateInput{ContactID: mine.ID, Type: db.NotableBirthday, Month: 10, Day: 1, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: other.ID, Type: db.NotableBirthday, Month: 10, Day: 2, Recurring: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	upcoming, err := svc.UpcomingForContact(mine.ID, 30, date(2026, time.September, 25))
	if err != nil {
		t.Fatalf("UpcomingForContact returned error: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ContactID != mine.ID {
		t.Fatalf("expected only own dates, got %+v", upcoming)
	}

	if _, err := svc.UpcomingForContact(9999, 30, date(2026, time.September, 25)); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}

	if _, err := svc.Upcoming(-1, date(2026, time.September, 25)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}

	// 窗口校验先于联系人存在性检查
	if _, err := svc.UpcomingForContact(9999, -1, date(2026, time.September, 25)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow before contact lookup, got %v", err)
	}
}

func TestNotableDateValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewNotableDateService(db.DB)
	contact := createTestContact(t, "伟", "张")

	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableBirthday, Month: 13, Day: 1, Recurring: true}); !errors.Is(err, ErrNotableDateInvalid) {
		t.Fatalf("expected ErrNotableDateInvalid for month 13, got %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableBirthday, Month: 1, Day: 32, Recurring: true}); !errors.Is(err, ErrNotableDateInvalid) {
		t.Fatalf("expected ErrNotableDateInvalid for day 32, got %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: "HOLIDAY", Month: 1, Day: 1, Recurring: true}); !errors.Is(err, ErrNotableDateInvalid) {
		t.Fatalf("expected ErrNotableDateInvalid for unknown type, got %v", err)
	}
	if _, err := svc.Create(NotableDateInput{ContactID: contact.ID, Type: db.NotableCustom, Month: 1, Day: 1}); !errors.Is(err, ErrNotableDateInvalid) {
		t.Fatalf("expected ErrNotableDateInvalid for missing year, got %v", err)
	}
}
