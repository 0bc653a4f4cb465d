package db

import (
	"time"

	"gorm.io/gorm"
)

// Reminder 记录针对联系人的提醒事项
// 是否逾期由读取方按 (未完成 && DueAt < now) 现算，不落库
type Reminder struct {
	gorm.Model
	ContactID   uint      `gorm:"index"`
	Contact     Contact   `gorm:"constraint:OnDelete:CASCADE"`
	DueAt       time.Time `gorm:"index"`
	Note        string
	Completed   bool
	CompletedAt *time.Time
}
