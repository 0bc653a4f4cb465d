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
	// ErrInteractionNotFound 在指定互动不存在时返回
	ErrInteractionNotFound = errors.New("interaction not found")
	// ErrInteractionInvalid 当互动输入不合法时返回
	ErrInteractionInvalid = errors.New("invalid interaction input")
)

// InteractionService 负责互动记录的增删改查
// 每次写操作成功后都会触发所属联系人的派生字段重算；
// 互动本身先行落库，重算失败不回滚（派生字段留待下次触发修正）
type InteractionService struct {
	db       *gorm.DB
	contacts *ContactService
}

// InteractionInput 定义创建/更新互动时可配置字段
type InteractionInput struct {
	ContactID       uint
	Type            string
	Content         string
	DurationSeconds *int
	OccurredAt      time.Time
	Source          string
	ImportBatchID   string
}

// InteractionFilter 描述互动列表过滤条件
type InteractionFilter struct {
	ContactID uint
	Type      string
	Page      int
	Limit     int
}

// NewInteractionService 构造 InteractionService
func NewInteractionService(gdb *gorm.DB, contacts *ContactService) *InteractionService {
	return &InteractionService{db: gdb, contacts: contacts}
}

// ListByContact 返回联系人的互动分页集合，按发生时间倒序
func (s *InteractionService) ListByContact(filter InteractionFilter) ([]db.Interaction, int64, error) {
	if filter.ContactID == 0 {
		return nil, 0, fmt.Errorf("%w: contact id is required", ErrInteractionInvalid)
	}

	if _, err := s.contacts.Get(filter.ContactID); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&db.Interaction{}).Where("contact_id = ?", filter.ContactID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count interactions: %w", err)
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

	var interactions []db.Interaction
	if err := query.
		Order("occurred_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&interactions).Error; err != nil {
		return nil, 0, fmt.Errorf("list interactions: %w", err)
	}

	return interactions, total, nil
}

// Get 根据 ID 获取互动
func (s *InteractionService) Get(id uint) (*db.Interaction, error) {
	var interaction db.Interaction
	if err := s.db.First(&interaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInteractionNotFound
		}
		return nil, fmt.Errorf("get interaction: %w", err)
	}
	return &interaction, nil
}

// Create 新建互动并触发所属联系人重算
func (s *InteractionService) Create(input InteractionInput) (*db.Interaction, error) {
	if err := validateInteractionInput(input); err != nil {
		return nil, err
	}

	if _, err := s.contacts.Get(input.ContactID); err != nil {
		return nil, err
	}

	interaction := db.Interaction{
		ContactID:       input.ContactID,
		Type:            input.Type,
		Content:         strings.TrimSpace(input.Content),
		DurationSeconds: input.DurationSeconds,
		OccurredAt:      input.OccurredAt.UTC(),
		Source:          interactionSourceOrManual(input.Source),
		ImportBatchID:   strings.TrimSpace(input.ImportBatchID),
	}

	if err := s.db.Create(&interaction).Error; err != nil {
		return nil, fmt.Errorf("create interaction: %w", err)
	}

	if err := s.contacts.Recalculate(interaction.ContactID); err != nil {
		return nil, err
	}

	return &interaction, nil
}

// Update 更新互动并触发重算；互动改挂到其它联系人时旧联系人也要重算
func (s *InteractionService) Update(id uint, input InteractionInput) (*db.Interaction, error) {
	if err := validateInteractionInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if _, err := s.contacts.Get(input.ContactID); err != nil {
		return nil, err
	}

	previousContactID := existing.ContactID

	existing.ContactID = input.ContactID
	existing.Type = input.Type
	existing.Content = strings.TrimSpace(input.Content)
	existing.DurationSeconds = input.DurationSeconds
	existing.OccurredAt = input.OccurredAt.UTC()
	existing.Source = interactionSourceOrManual(input.Source)

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update interaction: %w", err)
	}

	if err := s.contacts.Recalculate(existing.ContactID); err != nil {
		return nil, err
	}
	if previousContactID != existing.ContactID {
		if err := s.contacts.Recalculate(previousContactID); err != nil {
			return nil, err
		}
	}

	return existing, nil
}

// Delete 删除互动并触发所属联系人重算
func (s *InteractionService) Delete(id uint) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&db.Interaction{}, id).Error; err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}

	return s.contacts.Recalculate(existing.ContactID)
}

func validateInteractionInput(input InteractionInput) error {
	if input.ContactID == 0 {
		return fmt.Errorf("%w: contact id is required", ErrInteractionInvalid)
	}
	if !db.ValidInteractionType(input.Type) {
		return fmt.Errorf("%w: unknown type %s", ErrInteractionInvalid, input.Type)
	}
	if input.Source != "" && !db.ValidInteractionSource(input.Source) {
		return fmt.Errorf("%w: unknown source %s", ErrInteractionInvalid, input.Source)
	}
	if input.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", ErrInteractionInvalid)
	}
	if input.DurationSeconds != nil && *input.DurationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInteractionInvalid)
	}
	return nil
}

func interactionSourceOrManual(source string) string {
	if source == "" {
		return db.SourceManual
	}
	return source
}
