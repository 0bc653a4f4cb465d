package main

import (
	"fmt"
	"log"
	"time"

	"github.com/citadel/internal/config"
	"github.com/citadel/internal/db"
	"github.com/citadel/internal/service"
)

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	contactService := service.NewContactService(db.DB, cfg.PhoneRegion)
	interactionService := service.NewInteractionService(db.DB, contactService)
	reminderService := service.NewReminderService(db.DB)
	notableService := service.NewNotableDateService(db.DB)

	contacts := seedContacts(contactService)
	seedInteractions(interactionService, contacts)
	seedReminders(reminderService, contacts)
	seedNotableDates(notableService, contacts)

	fmt.Println("测试数据生成完成！")
	fmt.Printf("联系人: %d 位\n", len(contacts))
}

func seedContacts(svc *service.ContactService) []*db.Contact {
	inputs := []service.ContactInput{
		{FirstName: "伟", LastName: "张", Phone: "+14155552671", Email: "wei.zhang@example.com", Organization: "远景科技", Cadence: service.CadenceBiweekly, Notes: "大学同学，**每两周**见一次面"},
		{FirstName: "敏", LastName: "李", Email: "min.li@example.com", Organization: "青山设计", Cadence: service.CadenceMonthly},
		{FirstName: "Sam", LastName: "Rivera", Phone: "+19025551234", Cadence: service.CadenceQuarterly, Notes: "前同事，现居 Halifax"},
		{Nickname: "老王", Organization: "社区棋社"},
	}

	contacts := make([]*db.Contact, 0, len(inputs))
	for _, input := range inputs {
		contact, err := svc.Create(input)
		if err != nil {
			log.Fatalf("创建联系人失败: %v", err)
		}
		contacts = append(contacts, contact)
	}
	return contacts
}

func seedInteractions(svc *service.InteractionService, contacts []*db.Contact) {
	now := time.Now().UTC()
	duration := 540

	rows := []service.InteractionInput{
		{ContactID: contacts[0].ID, Type: db.InteractionCallOutbound, OccurredAt: now.AddDate(0, 0, -3), DurationSeconds: &duration, Content: "约了周末爬山"},
		{ContactID: contacts[0].ID, Type: db.InteractionTextInbound, OccurredAt: now.AddDate(0, 0, -1)},
		{ContactID: contacts[1].ID, Type: db.InteractionMeeting, OccurredAt: now.AddDate(0, 0, -20), Content: "季度设计评审"},
		{ContactID: contacts[2].ID, Type: db.InteractionEmailOutbound, OccurredAt: now.AddDate(0, -2, 0)},
		{ContactID: contacts[3].ID, Type: db.InteractionNote, OccurredAt: now.AddDate(0, 0, -7), Content: "棋社活动改到周四晚"},
	}

	for _, row := range rows {
		if _, err := svc.Create(row); err != nil {
			log.Fatalf("创建互动失败: %v", err)
		}
	}
}

func seedReminders(svc *service.ReminderService, contacts []*db.Contact) {
	now := time.Now().UTC()

	rows := []service.ReminderInput{
		{ContactID: contacts[0].ID, DueAt: now.AddDate(0, 0, 7), Note: "生日礼物"},
		{ContactID: contacts[1].ID, DueAt: now.AddDate(0, 0, -2), Note: "回复设计稿意见"},
	}

	for _, row := range rows {
		if _, err := svc.Create(row); err != nil {
			log.Fatalf("创建提醒失败: %v", err)
		}
	}
}

func seedNotableDates(svc *service.NotableDateService, contacts []*db.Contact) {
	year := 2018

	rows := []service.NotableDateInput{
		{ContactID: contacts[0].ID, Type: db.NotableBirthday, Month: 3, Day: 14, Recurring: true},
		{ContactID: contacts[1].ID, Type: db.NotableAnniversary, Label: "入职纪念", Month: 9, Day: 1, Recurring: true},
		{ContactID: contacts[2].ID, Type: db.NotableFirstMet, Month: 6, Day: 20, Year: &year, Recurring: true},
	}

	for _, row := range rows {
		if _, err := svc.Create(row); err != nil {
			log.Fatalf("创建纪念日失败: %v", err)
		}
	}
}
