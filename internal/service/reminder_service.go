package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citadel/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrReminderNotFound 在指定提醒不存在时返回
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrReminderInvalid 当提醒输入不合法时返回
	ErrReminderInvalid = errors.New("invalid reminder input")
)

// ReminderService 负责提醒事项的增删改查
// 提醒与派生字段无耦合，纯 CRUD
type ReminderService struct {
	db  *gorm.DB
	now func() time.Time
}

// ReminderInput 定义创建/更新提醒时可配置字段
type ReminderInput struct {
	ContactID uint
	DueAt     time.Time
	Note      string
}

// ReminderFilter 描述提醒列表过滤条件
// Pending 仅保留未完成，Overdue 仅保留未完成且已过期
type ReminderFilter struct {
	ContactID uint
	Pending   bool
	Overdue   bool
}

// NewReminderService 构造 ReminderService
func NewReminderService(gdb *gorm.DB) *ReminderService {
	return &ReminderService{db: gdb, now: time.Now}
}

// WithClock 允许测试注入固定时钟
func (s *ReminderService) WithClock(now func() time.Time) *ReminderService {
	if now != nil {
		s.now = now
	}
	return s
}

// List 返回提醒集合，按到期时间升序
func (s *ReminderService) List(filter ReminderFilter) ([]db.Reminder, error) {
	query := s.db.Model(&db.Reminder{})

	if filter.ContactID != 0 {
		query = query.Where("contact_id = ?", filter.ContactID)
	}
	if filter.Pending || filter.Overdue {
		query = query.Where("completed = ?", false)
	}
	if filter.Overdue {
		query = query.Where("due_at < ?", s.now().UTC())
	}

	var reminders []db.Reminder
	if err := query.Order("due_at ASC, id ASC").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// Get 根据 ID 获取提醒
func (s *ReminderService) Get(id uint) (*db.Reminder, error) {
	var reminder db.Reminder
	if err := s.db.First(&reminder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return &reminder, nil
}

// Create 新建提醒，所属联系人必须存在
func (s *ReminderService) Create(input ReminderInput) (*db.Reminder, error) {
	if err := validateReminderInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureContactExists(input.ContactID); err != nil {
		return nil, err
	}

	reminder := db.Reminder{
		ContactID: input.ContactID,
		DueAt:     input.DueAt.UTC(),
		Note:      strings.TrimSpace(input.Note),
	}

	if err := s.db.Create(&reminder).Error; err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return &reminder, nil
}

// Update 更新提醒
func (s *ReminderService) Update(id uint, input ReminderInput) (*db.Reminder, error) {
	if err := validateReminderInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureContactExists(input.ContactID); err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	existing.ContactID = input.ContactID
	existing.DueAt = input.DueAt.UTC()
	existing.Note = strings.TrimSpace(input.Note)

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return existing, nil
}

// Complete 将提醒标记为已完成，幂等
func (s *ReminderService) Complete(id uint) (*db.Reminder, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if existing.Completed {
		return existing, nil
	}

	completedAt := s.now().UTC()
	existing.Completed = true
	existing.CompletedAt = &completedAt

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("complete reminder: %w", err)
	}
	return existing, nil
}

// Reopen 撤销完成标记
func (s *ReminderService) Reopen(id uint) (*db.Reminder, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	existing.Completed = false
	existing.CompletedAt = nil

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("reopen reminder: %w", err)
	}
	return existing, nil
}

// Delete 删除提醒
func (s *ReminderService) Delete(id uint) error {
	if err := s.db.Delete(&db.Reminder{}, id).Error; err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// IsOverdue 判断提醒在 now 时点是否逾期
func (s *ReminderService) IsOverdue(reminder db.Reminder) bool {
	return !reminder.Completed && reminder.DueAt.Before(s.now().UTC())
}

func (s *ReminderService) ensureContactExists(contactID uint) error {
	var count int64
	if err := s.db.Model(&db.Contact{}).Where("id = ?", contactID).Count(&count).Error; err != nil {
		return fmt.Errorf("check contact: %w", err)
	}
	if count == 0 {
		return ErrContactNotFound
	}
	return nil
}

func validateReminderInput(input ReminderInput) error {
	if input.ContactID == 0 {
		return fmt.Errorf("%w: contact id is required", ErrReminderInvalid)
	}
	if input.DueAt.IsZero() {
		return fmt.Errorf("%w: due_at is required", ErrReminderInvalid)
	}
	return nil
}
