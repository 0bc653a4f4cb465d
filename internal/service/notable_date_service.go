package service

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/citadel/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrNotableDateNotFound 在指定纪念日不存在时返回
	ErrNotableDateNotFound = errors.New("notable date not found")
	// ErrNotableDateInvalid 当纪念日输入不合法时返回
	ErrNotableDateInvalid = errors.New("invalid notable date input")
	// ErrInvalidWindow 当窗口天数为负时返回
	ErrInvalidWindow = errors.New("invalid window days")
)

// NotableDateService 负责纪念日的增删改查与前瞻窗口查询
// 跨年回绕的距离计算放在 Go 侧（DaysUntilNextOccurrence），
// SQL 只做"有效记录"的粗筛与联系人名称关联
type NotableDateService struct {
	db *gorm.DB
}

// NotableDateInput 定义创建/更新纪念日时可配置字段
type NotableDateInput struct {
	ContactID uint
	Type      string
	Label     string
	Month     int
	Day       int
	Year      *int
	Recurring bool
	Notes     string
}

// UpcomingNotableDate 是窗口查询的结果行，附带所属联系人展示名
type UpcomingNotableDate struct {
	NotableDateID uint
	ContactID     uint
	ContactName   string
	Type          string
	Label         string
	Month         int
	Day           int
	Year          *int
	Recurring     bool
	Notes         string
	DistanceDays  int
}

// NewNotableDateService 构造 NotableDateService
func NewNotableDateService(gdb *gorm.DB) *NotableDateService {
	return &NotableDateService{db: gdb}
}

// ListByContact 返回联系人的全部纪念日，按月日排序
func (s *NotableDateService) ListByContact(contactID uint) ([]db.NotableDate, error) {
	var dates []db.NotableDate
	if err := s.db.Where("contact_id = ?", contactID).
		Order("month ASC, day ASC, id ASC").
		Find(&dates).Error; err != nil {
		return nil, fmt.Errorf("list notable dates: %w", err)
	}
	return dates, nil
}

// Get 根据 ID 获取纪念日
func (s *NotableDateService) Get(id uint) (*db.NotableDate, error) {
	var date db.NotableDate
	if err := s.db.First(&date, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotableDateNotFound
		}
		return nil, fmt.Errorf("get notable date: %w", err)
	}
	return &date, nil
}

// Create 新建纪念日
func (s *NotableDateService) Create(input NotableDateInput) (*db.NotableDate, error) {
	if err := validateNotableDateInput(input); err != nil {
		return nil, err
	}

	date := db.NotableDate{
		ContactID: input.ContactID,
		Type:      input.Type,
		Label:     strings.TrimSpace(input.Label),
		Month:     input.Month,
		Day:       input.Day,
		Year:      input.Year,
		Recurring: input.Recurring,
		Notes:     strings.TrimSpace(input.Notes),
	}

	if err := s.db.Create(&date).Error; err != nil {
		return nil, fmt.Errorf("create notable date: %w", err)
	}
	return &date, nil
}

// Update 更新纪念日
func (s *NotableDateService) Update(id uint, input NotableDateInput) (*db.NotableDate, error) {
	if err := validateNotableDateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	existing.Type = input.Type
	existing.Label = strings.TrimSpace(input.Label)
	existing.Month = input.Month
	existing.Day = input.Day
	existing.Year = input.Year
	existing.Recurring = input.Recurring
	existing.Notes = strings.TrimSpace(input.Notes)

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update notable date: %w", err)
	}
	return existing, nil
}

// Delete 删除纪念日
func (s *NotableDateService) Delete(id uint) error {
	if err := s.db.Delete(&db.NotableDate{}, id).Error; err != nil {
		return fmt.Errorf("delete notable date: %w", err)
	}
	return nil
}

// Upcoming 返回全部联系人中落入前瞻窗口的纪念日，按距离升序。
// 有效记录指 recurring 为真，或给定 Year 且 Year 不早于参考年份。
// 窗口跨年（如 12-28 起看 14 天）时 1 月初的记录同样命中。
func (s *NotableDateService) Upcoming(windowDays int, reference time.Time) ([]UpcomingNotableDate, error) {
	return s.upcoming(0, windowDays, reference)
}

// UpcomingForContact 是 Upcoming 面向单个联系人的版本，用于详情页
func (s *NotableDateService) UpcomingForContact(contactID uint, windowDays int, reference time.Time) ([]UpcomingNotableDate, error) {
	if contactID == 0 {
		return nil, fmt.Errorf("%w: contact id is required", ErrNotableDateInvalid)
	}
	if windowDays < 0 {
		return nil, ErrInvalidWindow
	}

	var count int64
	if err := s.db.Model(&db.Contact{}).Where("id = ?", contactID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check contact: %w", err)
	}
	if count == 0 {
		return nil, ErrContactNotFound
	}

	return s.upcoming(contactID, windowDays, reference)
}

type upcomingRow struct {
	db.NotableDate
	FirstName string
	LastName  string
	Nickname  string
}

func (s *NotableDateService) upcoming(contactID uint, windowDays int, reference time.Time) ([]UpcomingNotableDate, error) {
	if windowDays < 0 {
		return nil, ErrInvalidWindow
	}

	ref := NormalizeToDate(reference)

	query := s.db.Model(&db.NotableDate{}).
		Select("notable_dates.*, contacts.first_name AS first_name, contacts.last_name AS last_name, contacts.nickname AS nickname").
		Joins("JOIN contacts ON contacts.id = notable_dates.contact_id AND contacts.deleted_at IS NULL").
		Where("notable_dates.recurring = ? OR (notable_dates.year IS NOT NULL AND notable_dates.year >= ?)", true, ref.Year())

	if contactID != 0 {
		query = query.Where("notable_dates.contact_id = ?", contactID)
	}

	var rows []upcomingRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query notable dates: %w", err)
	}

	results := make([]UpcomingNotableDate, 0, len(rows))
	for _, row := range rows {
		distance := DaysUntilNextOccurrence(row.Month, row.Day, ref)
		if distance > windowDays {
			continue
		}

		contact := db.Contact{FirstName: row.FirstName, LastName: row.LastName, Nickname: row.Nickname}
		results = append(results, UpcomingNotableDate{
			NotableDateID: row.ID,
			ContactID:     row.ContactID,
			ContactName:   contact.DisplayName(),
			Type:          row.Type,
			Label:         row.Label,
			Month:         row.Month,
			Day:           row.Day,
			Year:          row.Year,
			Recurring:     row.Recurring,
			Notes:         row.Notes,
			DistanceDays:  distance,
		})
	}

	// 距离升序，平局按联系人 ID、纪念日 ID，保证输出确定
	slices.SortFunc(results, func(a, b UpcomingNotableDate) int {
		if diff := cmp.Compare(a.DistanceDays, b.DistanceDays); diff != 0 {
			return diff
		}
		if diff := cmp.Compare(a.ContactID, b.ContactID); diff != 0 {
			return diff
		}
		return cmp.Compare(a.NotableDateID, b.NotableDateID)
	})

	return results, nil
}

func validateNotableDateInput(input NotableDateInput) error {
	if input.ContactID == 0 {
		return fmt.Errorf("%w: contact id is required", ErrNotableDateInvalid)
	}
	if !db.ValidNotableType(input.Type) {
		return fmt.Errorf("%w: unknown type %s", ErrNotableDateInvalid, input.Type)
	}
	if input.Month < 1 || input.Month > 12 {
		return fmt.Errorf("%w: month out of range", ErrNotableDateInvalid)
	}
	if input.Day < 1 || input.Day > 31 {
		return fmt.Errorf("%w: day out of range", ErrNotableDateInvalid)
	}
	if !input.Recurring && input.Year == nil {
		return fmt.Errorf("%w: non-recurring date requires a year", ErrNotableDateInvalid)
	}
	return nil
}
