package db

import "gorm.io/gorm"

// 纪念日类型
const (
	NotableBirthday    = "BIRTHDAY"
	NotableAnniversary = "ANNIVERSARY"
	NotableFirstMet    = "FIRST_MET"
	NotableElection    = "ELECTION"
	NotableCustom      = "CUSTOM"
)

var notableTypes = map[string]struct{}{
	NotableBirthday:    {},
	NotableAnniversary: {},
	NotableFirstMet:    {},
	NotableElection:    {},
	NotableCustom:      {},
}

// ValidNotableType 判断纪念日类型是否合法
func ValidNotableType(t string) bool {
	_, ok := notableTypes[t]
	return ok
}

// NotableDate 记录联系人的纪念日
// Month/Day 只校验 1-12 / 1-31，不校验 Day 是否超出当月天数
// Recurring 为真表示每年重复；否则需给定 Year，仅在 Year 未过期时参与窗口查询
type NotableDate struct {
	gorm.Model
	ContactID uint    `gorm:"index"`
	Contact   Contact `gorm:"constraint:OnDelete:CASCADE"`
	Type      string
	Label     string
	Month     int `gorm:"index"`
	Day       int `gorm:"index"`
	Year      *int
	Recurring bool
	Notes     string
}
