package service

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/citadel/internal/db"
	"gorm.io/gorm"
)

const dateFormat = "2006-01-02"

// HeatmapService 负责联系人活跃度热力图聚合
// 窗口固定为截止日（含）往前 365 天，按 UTC 日历日分桶
type HeatmapService struct {
	db *gorm.DB
}

// HeatmapDay 表示窗口内有互动的单日计数
type HeatmapDay struct {
	Date  string
	Count int
}

// Heatmap 是稀疏的逐日计数列表加汇总元信息，无互动的日期不出现在 Days 中
type Heatmap struct {
	Days              []HeatmapDay
	TotalInteractions int
	ActiveDays        int
	StartDate         string
	EndDate           string
}

// NewHeatmapService 构造 HeatmapService
func NewHeatmapService(gdb *gorm.DB) *HeatmapService {
	return &HeatmapService{db: gdb}
}

// ForContact 聚合联系人截止 asOf 的 365 天互动热力图。
// 晚于 asOf 当日或早于窗口起点的互动一律排除。
// 纯读操作，无副作用；结果按日期升序。
func (s *HeatmapService) ForContact(contactID uint, asOf time.Time) (*Heatmap, error) {
	var count int64
	if err := s.db.Model(&db.Contact{}).Where("id = ?", contactID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check contact: %w", err)
	}
	if count == 0 {
		return nil, ErrContactNotFound
	}

	endDate := NormalizeToDate(asOf)
	startDate := AddDays(endDate, -364)
	// 窗口终点含 asOf 整天，上界取次日零点开区间
	windowEnd := AddDays(endDate, 1)

	var interactions []db.Interaction
	if err := s.db.Select("occurred_at").
		Where("contact_id = ?", contactID).
		Where("occurred_at >= ? AND occurred_at < ?", startDate, windowEnd).
		Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}

	buckets := make(map[string]int)
	for _, interaction := range interactions {
		key := NormalizeToDate(interaction.OccurredAt).Format(dateFormat)
		buckets[key]++
	}

	days := make([]HeatmapDay, 0, len(buckets))
	total := 0
	for date, dayCount := range buckets {
		days = append(days, HeatmapDay{Date: date, Count: dayCount})
		total += dayCount
	}

	slices.SortFunc(days, func(a, b HeatmapDay) int {
		return cmp.Compare(a.Date, b.Date)
	})

	return &Heatmap{
		Days:              days,
		TotalInteractions: total,
		ActiveDays:        len(days),
		StartDate:         startDate.Format(dateFormat),
		EndDate:           endDate.Format(dateFormat),
	}, nil
}
