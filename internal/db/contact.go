package db

import (
	"time"

	"gorm.io/gorm"
)

// Contact 定义联系人模型
// Phone 统一存储 E.164 格式，展示格式由前端处理
// Notes 存储 Markdown 原文，渲染在 handler 层完成
// LastContactedAt/ContactDueAt 为派生字段，由 ContactService.Recalculate 维护，
// 不允许 handler 直接写入
// Cadence 为空表示不设联系节奏，此时 ContactDueAt 必须为 NULL
type Contact struct {
	gorm.Model
	FirstName       string `gorm:"index"`
	LastName        string `gorm:"index"`
	Nickname        string
	Phone           string `gorm:"index"`
	Email           string `gorm:"index"`
	Organization    string
	Notes           string
	AvatarURL       string
	Cadence         *string
	LastContactedAt *time.Time
	ContactDueAt    *time.Time `gorm:"index"`

	Interactions []Interaction `gorm:"constraint:OnDelete:CASCADE"`
	Reminders    []Reminder    `gorm:"constraint:OnDelete:CASCADE"`
	NotableDates []NotableDate `gorm:"constraint:OnDelete:CASCADE"`
}

// DisplayName 返回用于列表展示的名称，昵称优先级最低
func (c Contact) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	default:
		return c.Nickname
	}
}
