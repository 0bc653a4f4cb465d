package db

import (
	"time"

	"gorm.io/gorm"
)

// 互动类型的闭合枚举，与前端标注逻辑共用同一张表
const (
	InteractionCallInbound   = "CALL_INBOUND"
	InteractionCallOutbound  = "CALL_OUTBOUND"
	InteractionCallMissed    = "CALL_MISSED"
	InteractionTextInbound   = "TEXT_INBOUND"
	InteractionTextOutbound  = "TEXT_OUTBOUND"
	InteractionEmailInbound  = "EMAIL_INBOUND"
	InteractionEmailOutbound = "EMAIL_OUTBOUND"
	InteractionMeeting       = "MEETING"
	InteractionMailSent      = "MAIL_SENT"
	InteractionMailReceived  = "MAIL_RECEIVED"
	InteractionNote          = "NOTE"
	InteractionOther         = "OTHER"
)

// 互动来源标记，手动录入或若干导入渠道之一
const (
	SourceManual     = "MANUAL"
	SourceImportIOS  = "IMPORT_IOS"
	SourceImportCSV  = "IMPORT_CSV"
	SourceImportJSON = "IMPORT_JSON"
)

// interactionTypes 列出全部合法互动类型，value 标记是否计入"主动联系"
// MEETING 与 MAIL_SENT 视为主动发起，未接来电等均不计入
var interactionTypes = map[string]bool{
	InteractionCallInbound:   false,
	InteractionCallOutbound:  true,
	InteractionCallMissed:    false,
	InteractionTextInbound:   false,
	InteractionTextOutbound:  true,
	InteractionEmailInbound:  false,
	InteractionEmailOutbound: true,
	InteractionMeeting:       true,
	InteractionMailSent:      true,
	InteractionMailReceived:  false,
	InteractionNote:          false,
	InteractionOther:         false,
}

var interactionSources = map[string]struct{}{
	SourceManual:     {},
	SourceImportIOS:  {},
	SourceImportCSV:  {},
	SourceImportJSON: {},
}

// ValidInteractionType 判断互动类型是否属于闭合枚举
func ValidInteractionType(t string) bool {
	_, ok := interactionTypes[t]
	return ok
}

// IsOutboundType 判断互动类型是否计入 LastContactedAt
// 写路径（重算）与读路径（标注）必须共用本函数，避免两处口径偏离
func IsOutboundType(t string) bool {
	return interactionTypes[t]
}

// OutboundTypes 返回全部主动类型，供 SQL IN 查询使用
func OutboundTypes() []string {
	types := make([]string, 0, len(interactionTypes))
	for t, outbound := range interactionTypes {
		if outbound {
			types = append(types, t)
		}
	}
	return types
}

// ValidInteractionSource 判断来源标记是否合法
func ValidInteractionSource(source string) bool {
	_, ok := interactionSources[source]
	return ok
}

// Interaction 记录一次联系人互动
// OccurredAt 由调用方给定，允许是过去或未来时间；热力图读取时再按"今天"截断
// ImportBatchID 标记批量导入批次，手动录入时为空
type Interaction struct {
	gorm.Model
	ContactID       uint    `gorm:"index"`
	Contact         Contact `gorm:"constraint:OnDelete:CASCADE"`
	Type            string  `gorm:"index"`
	Content         string
	DurationSeconds *int
	OccurredAt      time.Time `gorm:"index"`
	Source          string
	ImportBatchID   string
}
