package service

import "time"

// NormalizeToDate 截断到 UTC 日历日零点
func NormalizeToDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays 返回 date 之后 n 天的日期，n 可为负数，跨月跨年由标准库处理
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// DaysUntilNextOccurrence 计算从 reference 到下一次 (month, day) 出现的天数。
// 当天算 0 天。跨年通过候选年（当年、次年）逐一构造，不做朴素的月日数值比较。
// time.Date 会对不存在的日期做规整：非闰年的 2 月 29 日落到 3 月 1 日，
// 这里把该规整行为作为既定策略（顺延而非跳过）。
func DaysUntilNextOccurrence(month, day int, reference time.Time) int {
	ref := NormalizeToDate(reference)

	// 次年的候选日期必然不早于 ref，循环至多走两轮
	candidate := time.Date(ref.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if candidate.Before(ref) {
		candidate = time.Date(ref.Year()+1, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}

	return int(candidate.Sub(ref).Hours() / 24)
}
