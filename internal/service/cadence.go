package service

import "strings"

// 联系节奏的闭合枚举
const (
	CadenceWeekly    = "WEEKLY"
	CadenceBiweekly  = "BIWEEKLY"
	CadenceMonthly   = "MONTHLY"
	CadenceQuarterly = "QUARTERLY"
	CadenceBiannual  = "BIANNUAL"
	CadenceAnnual    = "ANNUAL"
)

// cadenceDays 静态映射节奏名到天数，不落库
var cadenceDays = map[string]int{
	CadenceWeekly:    7,
	CadenceBiweekly:  14,
	CadenceMonthly:   30,
	CadenceQuarterly: 90,
	CadenceBiannual:  180,
	CadenceAnnual:    365,
}

// CadenceDays 返回节奏对应的天数，未知节奏时 ok 为 false
func CadenceDays(name string) (int, bool) {
	days, ok := cadenceDays[name]
	return days, ok
}

// NormalizeCadence 规整节奏名称（去空白、转大写）
func NormalizeCadence(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
