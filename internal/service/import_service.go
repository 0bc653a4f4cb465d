package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citadel/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrImportEmpty 当导入载荷为空时返回
var ErrImportEmpty = errors.New("import payload is empty")

// ImportService 负责联系人与互动的批量导入
// 每个批次分配一个 UUID 写入记录做溯源；重复数据跳过而不报错，
// 与桌面侧同步脚本的约定保持一致
type ImportService struct {
	db           *gorm.DB
	contacts     *ContactService
	interactions *InteractionService
}

// ContactImport 是批量导入联系人的单行载荷
type ContactImport struct {
	FirstName    string
	LastName     string
	Phone        string
	Email        string
	Organization string
	Notes        string
}

// InteractionImport 是批量导入互动的单行载荷
type InteractionImport struct {
	ContactID       uint
	Type            string
	Content         string
	DurationSeconds *int
	OccurredAt      time.Time
	Source          string
}

// ImportResult 汇总单个批次的导入结果
type ImportResult struct {
	BatchID  string
	Imported int
	Skipped  int
	Errors   []string
}

// NewImportService 构造 ImportService
func NewImportService(gdb *gorm.DB, contacts *ContactService, interactions *InteractionService) *ImportService {
	return &ImportService{db: gdb, contacts: contacts, interactions: interactions}
}

// ImportContacts 批量导入联系人。
// 已有联系人按规整后的电话或小写邮箱匹配，命中即跳过。
func (s *ImportService) ImportContacts(rows []ContactImport) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, ErrImportEmpty
	}

	result := &ImportResult{BatchID: uuid.New().String()}

	for i, row := range rows {
		phone, err := s.contacts.normalizePhone(row.Phone)
		if err != nil {
			// 号码无法规整时按原样跳过号码，不影响整行
			phone = ""
		}
		email := strings.ToLower(strings.TrimSpace(row.Email))

		exists, err := s.contactExists(phone, email)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		if _, err := s.contacts.Create(ContactInput{
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Phone:        phone,
			Email:        email,
			Organization: row.Organization,
			Notes:        row.Notes,
		}); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportInteractions 批量导入互动。
// 同一联系人同类型同时刻的记录视为重复并跳过；
// 受影响的联系人在批次末尾各重算一次，而不是逐行重算。
func (s *ImportService) ImportInteractions(rows []InteractionImport) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, ErrImportEmpty
	}

	result := &ImportResult{BatchID: uuid.New().String()}
	affected := make(map[uint]struct{})

	for i, row := range rows {
		input := InteractionInput{
			ContactID:       row.ContactID,
			Type:            row.Type,
			Content:         row.Content,
			DurationSeconds: row.DurationSeconds,
			OccurredAt:      row.OccurredAt,
			Source:          importSourceOrDefault(row.Source),
			ImportBatchID:   result.BatchID,
		}

		if err := validateInteractionInput(input); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}

		if _, err := s.contacts.Get(input.ContactID); err != nil {
			result.Skipped++
			if !errors.Is(err, ErrContactNotFound) {
				return nil, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: contact %d not found", i, input.ContactID))
			continue
		}

		duplicate, err := s.interactionExists(input.ContactID, input.Type, input.OccurredAt.UTC())
		if err != nil {
			return nil, err
		}
		if duplicate {
			result.Skipped++
			continue
		}

		interaction := db.Interaction{
			ContactID:       input.ContactID,
			Type:            input.Type,
			Content:         strings.TrimSpace(input.Content),
			DurationSeconds: input.DurationSeconds,
			OccurredAt:      input.OccurredAt.UTC(),
			Source:          input.Source,
			ImportBatchID:   input.ImportBatchID,
		}
		if err := s.db.Create(&interaction).Error; err != nil {
			return nil, fmt.Errorf("create interaction: %w", err)
		}

		affected[input.ContactID] = struct{}{}
		result.Imported++
	}

	for contactID := range affected {
		if err := s.contacts.Recalculate(contactID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *ImportService) contactExists(phone, email string) (bool, error) {
	if phone == "" && email == "" {
		return false, nil
	}

	query := s.db.Model(&db.Contact{})
	switch {
	case phone != "" && email != "":
		query = query.Where("phone = ? OR email = ?", phone, email)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		query = query.Where("email = ?", email)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("match contact: %w", err)
	}
	return count > 0, nil
}

func (s *ImportService) interactionExists(contactID uint, interactionType string, occurredAt time.Time) (bool, error) {
	var count int64
	if err := s.db.Model(&db.Interaction{}).
		Where("contact_id = ? AND type = ? AND occurred_at = ?", contactID, interactionType, occurredAt).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("match interaction: %w", err)
	}
	return count > 0, nil
}

func importSourceOrDefault(source string) string {
	if strings.TrimSpace(source) == "" {
		return db.SourceImportJSON
	}
	return source
}
