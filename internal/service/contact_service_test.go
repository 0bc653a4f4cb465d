package service

import (
	"errors"
	"testing"
	"time"

	"github.com/citadel/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Contact{}, &db.Interaction{}, &db.Reminder{}, &db.NotableDate{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// addInteraction 直接落库，不经过 InteractionService，便于单独验证重算逻辑
func addInteraction(t *testing.T, contactID uint, interactionType string, occurredAt time.Time) db.Interaction {
	t.Helper()
	interaction := db.Interaction{
		ContactID:  contactID,
		Type:       interactionType,
		OccurredAt: occurredAt,
		Source:     db.SourceManual,
	}
	if err := db.DB.Create(&interaction).Error; err != nil {
		t.Fatalf("failed to create interaction: %v", err)
	}
	return interaction
}

func TestContactServiceCreateWithCadenceSetsDueDate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	svc := NewContactService(db.DB, "US").WithClock(fixedClock(now))

	contact, err := svc.Create(ContactInput{FirstName: "伟", LastName: "张", Cadence: "monthly"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if contact.Cadence == nil || *contact.Cadence != CadenceMonthly {
		t.Fatalf("expected cadence MONTHLY, got %v", contact.Cadence)
	}
	if contact.LastContactedAt != nil {
		t.Fatalf("expected nil LastContactedAt, got %v", contact.LastContactedAt)
	}
	if contact.ContactDueAt == nil || !contact.ContactDueAt.UTC().Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expected due date now+30d, got %v", contact.ContactDueAt)
	}
}

func TestContactServiceCreateWithoutCadence(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewContactService(db.DB, "US")

	contact, err := svc.Create(ContactInput{Nickname: "老王"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if contact.Cadence != nil || contact.ContactDueAt != nil {
		t.Fatalf("expected nil cadence and due date, got %v / %v", contact.Cadence, contact.ContactDueAt)
	}

	// 名字全空应拒绝
	if _, err := svc.Create(ContactInput{}); !errors.Is(err, ErrContactInvalid) {
		t.Fatalf("expected ErrContactInvalid, got %v", err)
	}

	// 未知节奏应拒绝
	if _, err := svc.Create(ContactInput{FirstName: "敏", Cadence: "FORTNIGHTLY"}); !errors.Is(err, ErrInvalidCadence) {
		t.Fatalf("expected ErrInvalidCadence, got %v", err)
	}
}

func TestContactServicePhoneNormalization(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewContactService(db.DB, "US")

	contact, err := svc.Create(ContactInput{FirstName: "Sam", Phone: "(902) 555-1234"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if contact.Phone != "+19025551234" {
		t.Fatalf("expected E.164 phone, got %s", contact.Phone)
	}

	if _, err := svc.Create(ContactInput{FirstName: "Sam", Phone: "not-a-number"}); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestRecalculateOutboundOnlyLastContacted(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	svc := NewContactService(db.DB, "US").WithClock(fixedClock(now))

	contact, err := svc.Create(ContactInput{FirstName: "伟", LastName: "张", Cadence: CadenceBiweekly})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	day1 := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	day5 := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	day10 := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	addInteraction(t, contact.ID, db.InteractionCallInbound, day1)
	addInteraction(t, contact.ID, db.InteractionTextOutbound, day5)
	addInteraction(t, contact.ID, db.InteractionNote, day10)

	if err := svc.Recalculate(contact.ID); err != nil {
		t.Fatalf("Recalculate returned error: %v", err)
	}

	reloaded, err := svc.Get(contact.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	// 主动联系只看 outbound 集合：note 和 inbound 不算
	if reloaded.LastContactedAt == nil || !reloaded.LastContactedAt.UTC().Equal(day5) {
		t.Fatalf("expected LastContactedAt = day5, got %v", reloaded.LastContactedAt)
	}

	// 到期基线看任意类型：最近的是 day10 的 note
	wantDue := day10.AddDate(0, 0, 14)
	if reloaded.ContactDueAt == nil || !reloaded.ContactDueAt.UTC().Equal(wantDue) {
		t.Fatalf("expected ContactDueAt = day10+14d, got %v", reloaded.ContactDueAt)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	svc := NewContactService(db.DB, "US").WithClock(fixedClock(now))

	contact, err := svc.Create(ContactInput{FirstName: "敏", LastName: "李", Cadence: CadenceWeekly})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	addInteraction(t, contact.ID, db.InteractionMeeting, time.Date(2026, time.February, 20, 15, 0, 0, 0, time.UTC))

	if err := svc.Recalculate(contact.ID); err != nil {
		t.Fatalf("first Recalculate returned error: %v", err)
	}
	first, _ := svc.Get(contact.ID)

	if err := svc.Recalculate(contact.ID); err != nil {
		t.Fatalf("second Recalculate returned error: %v", err)
	}
	second, _ := svc.Get(contact.ID)

	if !first.LastContactedAt.Equal(*second.LastContactedAt) || !first.ContactDueAt.Equal(*second.ContactDueAt) {
		t.Fatalf("expected identical derived fields, got %v/%v then %v/%v",
			first.LastContactedAt, first.ContactDueAt, second.LastContactedAt, second.ContactDueAt)
	}
}

func TestRecalculateNullCadenceAlwaysNullDue(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewContactService(db.DB, "US")

	contact, err := svc.Create(ContactInput{FirstName: "Sam"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	addInteraction(t, contact.ID, db.InteractionCallOutbound, time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC))

	if err := svc.Recalculate(contact.ID); err != nil {
		t.Fatalf("Recalculate returned error: %v", err)
	}

	reloaded, _ := svc.Get(contact.ID)
	if reloaded.ContactDueAt != nil {
		t.Fatalf("expected nil ContactDueAt without cadence, got %v", reloaded.ContactDueAt)
	}
	if reloaded.LastContactedAt == nil {
		t.Fatal("expected LastContactedAt to be set")
	}
}

func TestRecalculateNotFound(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewContactService(db.DB, "US")
	if err := svc.Recalculate(9999); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestSetCadenceRecomputesFromExistingInteractions(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	svc := NewContactService(db.DB, "US").WithClock(fixedClock(now))

	contact, err := svc.Create(ContactInput{FirstName: "伟", LastName: "张"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	lastSeen := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	addInteraction(t, contact.ID, db.InteractionEmailInbound, lastSeen)

	updated, err := svc.SetCadence(contact.ID, CadenceMonthly)
	if err != nil {
		t.Fatalf("SetCadence returned error: %v", err)
	}

	wantDue := lastSeen.AddDate(0, 0, 30)
	if updated.ContactDueAt == nil || !updated.ContactDueAt.UTC().Equal(wantDue) {
		t.Fatalf("expected due from existing interaction baseline, got %v", updated.ContactDueAt)
	}

	// 清除节奏后到期日同步清空
	cleared, err := svc.SetCadence(contact.ID, "")
	if err != nil {
		t.Fatalf("SetCadence clear returned error: %v", err)
	}
	if cleared.Cadence != nil || cleared.ContactDueAt != nil {
		t.Fatalf("expected cleared cadence and due date, got %v / %v", cleared.Cadence, cleared.ContactDueAt)
	}
}

func TestContactListStaleFilter(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc := NewContactService(db.DB, "US").WithClock(fixedClock(now))

	fresh, err := svc.Create(ContactInput{FirstName: "Fresh", LastName: "Liu"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	stale, err := svc.Create(ContactInput{FirstName: "Stale", LastName: "Chen"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ContactInput{FirstName: "Never", LastName: "Wu"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	addInteraction(t, fresh.ID, db.InteractionCallOutbound, now.AddDate(0, 0, -10))
	addInteraction(t, stale.ID, db.InteractionCallOutbound, now.AddDate(0, 0, -120))
	if err := svc.Recalculate(fresh.ID); err != nil {
		t.Fatalf("Recalculate returned error: %v", err)
	}
	if err := svc.Recalculate(stale.ID); err != nil {
		t.Fatalf("Recalculate returned error: %v", err)
	}

	contacts, total, err := svc.List(ContactFilter{StaleDays: 90})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	// 过期联系 + 从未联系都算需要关注
	if total != 2 || len(contacts) != 2 {
		t.Fatalf("expected 2 stale contacts, got total=%d len=%d", total, len(contacts))
	}
	for _, contact := range contacts {
		if contact.FirstName == "Fresh" {
			t.Fatal("fresh contact should not appear in stale list")
		}
	}
}

func TestContactDeleteCascades(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewContactService(db.DB, "US")

	contact, err := svc.Create(ContactInput{FirstName: "敏", LastName: "李"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	addInteraction(t, contact.ID, db.InteractionNote, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err := db.DB.Create(&db.Reminder{ContactID: contact.ID, DueAt: time.Now().UTC()}).Error; err != nil {
		t.Fatalf("failed to create reminder: %v", err)
	}
	if err := db.DB.Create(&db.NotableDate{ContactID: contact.ID, Type: db.NotableBirthday, Month: 5, Day: 5, Recurring: true}).Error; err != nil {
		t.Fatalf("failed to create notable date: %v", err)
	}

	if err := svc.Delete(contact.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var interactionCount, reminderCount, dateCount int64
	db.DB.Model(&db.Interaction{}).Where("contact_id = ?", contact.ID).Count(&interactionCount)
	db.DB.Model(&db.Reminder{}).Where("contact_id = ?", contact.ID).Count(&reminderCount)
	db.DB.Model(&db.NotableDate{}).Where("contact_id = ?", contact.ID).Count(&dateCount)

	if interactionCount != 0 || reminderCount != 0 || dateCount != 0 {
		t.Fatalf("expected cascade delete, leftovers: %d/%d/%d", interactionCount, reminderCount, dateCount)
	}

	if _, err := svc.Get(contact.ID); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound after delete, got %v", err)
	}
}
