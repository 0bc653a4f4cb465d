package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citadel/internal/db"
	"github.com/nyaruka/phonenumbers"
	"gorm.io/gorm"
)

var (
	// ErrContactNotFound 在指定联系人不存在时返回
	ErrContactNotFound = errors.New("contact not found")
	// ErrContactInvalid 当联系人输入不合法时返回
	ErrContactInvalid = errors.New("invalid contact input")
	// ErrInvalidCadence 当联系节奏不在枚举内时返回
	ErrInvalidCadence = errors.New("invalid cadence")
	// ErrInvalidPhone 当电话号码无法规整为 E.164 时返回
	ErrInvalidPhone = errors.New("invalid phone number")
)

const (
	defaultContactPageSize = 25
	maxContactPageSize     = 100
)

// ContactService 负责联系人数据的增删改查与派生字段重算
// LastContactedAt/ContactDueAt 始终由 Recalculate 全量重算，
// 不做增量维护，换取可验证的正确性
type ContactService struct {
	db          *gorm.DB
	phoneRegion string
	now         func() time.Time
}

// ContactInput 定义创建/更新联系人时可配置字段
// Cadence 为空字符串表示不设节奏
type ContactInput struct {
	FirstName    string
	LastName     string
	Nickname     string
	Phone        string
	Email        string
	Organization string
	Notes        string
	Cadence      string
}

// ContactFilter 描述列表过滤条件
// StaleDays > 0 时仅返回"需要关注"的联系人：最近一次主动联系早于
// now - StaleDays，或从未主动联系过
type ContactFilter struct {
	Search    string
	StaleDays int
	DueOnly   bool
	Page      int
	Limit     int
}

// NewContactService 构造 ContactService，phoneRegion 为无国家码号码的默认区域
func NewContactService(gdb *gorm.DB, phoneRegion string) *ContactService {
	region := strings.TrimSpace(strings.ToUpper(phoneRegion))
	if region == "" {
		region = "US"
	}
	return &ContactService{db: gdb, phoneRegion: region, now: time.Now}
}

// WithClock 允许测试注入固定时钟
func (s *ContactService) WithClock(now func() time.Time) *ContactService {
	if now != nil {
		s.now = now
	}
	return s
}

// List 返回联系人分页集合及总数
func (s *ContactService) List(filter ContactFilter) ([]db.Contact, int64, error) {
	query := s.db.Model(&db.Contact{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR nickname LIKE ? OR organization LIKE ? OR email LIKE ?",
			like, like, like, like, like,
		)
	}

	if filter.StaleDays > 0 {
		cutoff := AddDays(s.now().UTC(), -filter.StaleDays)
		query = query.Where("last_contacted_at IS NULL OR last_contacted_at < ?", cutoff)
	}

	if filter.DueOnly {
		query = query.Where("contact_due_at IS NOT NULL AND contact_due_at <= ?", s.now().UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultContactPageSize
	}
	if limit > maxContactPageSize {
		limit = maxContactPageSize
	}

	var contacts []db.Contact
	if err := query.
		Order("last_name ASC, first_name ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&contacts).Error; err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}

	return contacts, total, nil
}

// Get 根据 ID 获取联系人
func (s *ContactService) Get(id uint) (*db.Contact, error) {
	var contact db.Contact
	if err := s.db.First(&contact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &contact, nil
}

// Create 新建联系人，随后重算派生字段（设有节奏时 ContactDueAt = now + 节奏天数）
func (s *ContactService) Create(input ContactInput) (*db.Contact, error) {
	contact, err := s.buildContact(input)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	if err := s.Recalculate(contact.ID); err != nil {
		return nil, err
	}

	return s.Get(contact.ID)
}

// Update 更新联系人基础字段并重算派生字段
func (s *ContactService) Update(id uint, input ContactInput) (*db.Contact, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updated, err := s.buildContact(input)
	if err != nil {
		return nil, err
	}

	existing.FirstName = updated.FirstName
	existing.LastName = updated.LastName
	existing.Nickname = updated.Nickname
	existing.Phone = updated.Phone
	existing.Email = updated.Email
	existing.Organization = updated.Organization
	existing.Notes = updated.Notes
	existing.Cadence = updated.Cadence

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}

	if err := s.Recalculate(id); err != nil {
		return nil, err
	}

	return s.Get(id)
}

// SetCadence 单独调整联系节奏并重算 ContactDueAt，cadence 为空表示清除
func (s *ContactService) SetCadence(id uint, cadence string) (*db.Contact, error) {
	contact, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	cadencePtr, err := normalizeCadencePtr(cadence)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(contact).Update("cadence", cadencePtr).Error; err != nil {
		return nil, fmt.Errorf("update cadence: %w", err)
	}

	if err := s.Recalculate(id); err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Delete 删除联系人并级联删除其互动、提醒与纪念日
func (s *ContactService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", id).Delete(&db.Interaction{}).Error; err != nil {
			return fmt.Errorf("delete interactions: %w", err)
		}
		if err := tx.Where("contact_id = ?", id).Delete(&db.Reminder{}).Error; err != nil {
			return fmt.Errorf("delete reminders: %w", err)
		}
		if err := tx.Where("contact_id = ?", id).Delete(&db.NotableDate{}).Error; err != nil {
			return fmt.Errorf("delete notable dates: %w", err)
		}
		if err := tx.Delete(&db.Contact{}, id).Error; err != nil {
			return fmt.Errorf("delete contact: %w", err)
		}
		return nil
	})
}

// Recalculate 全量重算联系人的 LastContactedAt 与 ContactDueAt。
// 幂等：互动数据不变时重复调用产出相同结果。
// 两个派生字段在同一条 UPDATE 中落库，NULL 也会写穿。
func (s *ContactService) Recalculate(contactID uint) error {
	var contact db.Contact
	if err := s.db.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("find contact: %w", err)
	}

	mostRecentAny, err := s.latestInteractionAt(contactID, nil)
	if err != nil {
		return err
	}

	lastContactedAt, err := s.latestInteractionAt(contactID, db.OutboundTypes())
	if err != nil {
		return err
	}

	var contactDueAt *time.Time
	if contact.Cadence != nil {
		days, ok := CadenceDays(*contact.Cadence)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidCadence, *contact.Cadence)
		}

		baseline := s.now().UTC()
		if mostRecentAny != nil {
			baseline = *mostRecentAny
		}
		due := AddDays(baseline, days)
		contactDueAt = &due
	}

	if err := s.db.Model(&db.Contact{}).
		Where("id = ?", contactID).
		Updates(map[string]interface{}{
			"last_contacted_at": lastContactedAt,
			"contact_due_at":    contactDueAt,
		}).Error; err != nil {
		return fmt.Errorf("update contact dates: %w", err)
	}

	return nil
}

// latestInteractionAt 取最近一次互动的发生时间，types 非空时限定类型集合
func (s *ContactService) latestInteractionAt(contactID uint, types []string) (*time.Time, error) {
	query := s.db.Where("contact_id = ?", contactID)
	if len(types) > 0 {
		query = query.Where("type IN ?", types)
	}

	var interaction db.Interaction
	err := query.Order("occurred_at DESC, id DESC").First(&interaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest interaction: %w", err)
	}

	occurredAt := interaction.OccurredAt
	return &occurredAt, nil
}

func (s *ContactService) buildContact(input ContactInput) (*db.Contact, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	nickname := strings.TrimSpace(input.Nickname)

	if firstName == "" && lastName == "" && nickname == "" {
		return nil, fmt.Errorf("%w: name is required", ErrContactInvalid)
	}

	phone, err := s.normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	cadencePtr, err := normalizeCadencePtr(input.Cadence)
	if err != nil {
		return nil, err
	}

	return &db.Contact{
		FirstName:    firstName,
		LastName:     lastName,
		Nickname:     nickname,
		Phone:        phone,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Organization: strings.TrimSpace(input.Organization),
		Notes:        input.Notes,
		Cadence:      cadencePtr,
	}, nil
}

// normalizePhone 将电话号码规整为 E.164，空号码原样放行
func (s *ContactService) normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(raw, s.phoneRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, raw)
	}

	// 校验失败但"可能成立"的号码仍然放行，与导入脚本口径一致
	if !phonenumbers.IsValidNumber(parsed) && !phonenumbers.IsPossibleNumber(parsed) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, raw)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func normalizeCadencePtr(cadence string) (*string, error) {
	normalized := NormalizeCadence(cadence)
	if normalized == "" {
		return nil, nil
	}
	if _, ok := CadenceDays(normalized); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCadence, cadence)
	}
	return &normalized, nil
}
