package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/citadel/internal/service"
	"github.com/gin-gonic/gin"
)

type contactImportRow struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Notes        string `json:"notes"`
}

type interactionImportRow struct {
	ContactID       uint   `json:"contactId"`
	Type            string `json:"type"`
	Content         string `json:"content"`
	DurationSeconds *int   `json:"durationSeconds"`
	OccurredAt      string `json:"occurredAt"` // RFC3339
	Source          string `json:"source"`
}

// ImportContacts 批量导入联系人，载荷为 JSON 数组
// 字段名沿用桌面同步脚本的 snake_case 约定
func (a *API) ImportContacts(c *gin.Context) {
	var rows []contactImportRow
	if !bindJSON(c, &rows, "请求参数不合法") {
		return
	}

	imports := make([]service.ContactImport, 0, len(rows))
	for _, row := range rows {
		imports = append(imports, service.ContactImport{
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Phone:        row.Phone,
			Email:        row.Email,
			Organization: row.Organization,
			Notes:        row.Notes,
		})
	}

	result, err := a.imports.ImportContacts(imports)
	if err != nil {
		handleImportError(c, err)
		return
	}

	respondData(c, http.StatusOK, importResultToPayload(result))
}

// ImportInteractions 批量导入互动，载荷为 JSON 数组
func (a *API) ImportInteractions(c *gin.Context) {
	var rows []interactionImportRow
	if !bindJSON(c, &rows, "请求参数不合法") {
		return
	}

	imports := make([]service.InteractionImport, 0, len(rows))
	for _, row := range rows {
		occurredAt, err := time.Parse(time.RFC3339, row.OccurredAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的发生时间")
			return
		}
		imports = append(imports, service.InteractionImport{
			ContactID:       row.ContactID,
			Type:            row.Type,
			Content:         row.Content,
			DurationSeconds: row.DurationSeconds,
			OccurredAt:      occurredAt,
			Source:          row.Source,
		})
	}

	result, err := a.imports.ImportInteractions(imports)
	if err != nil {
		handleImportError(c, err)
		return
	}

	respondData(c, http.StatusOK, importResultToPayload(result))
}

func importResultToPayload(result *service.ImportResult) gin.H {
	payload := gin.H{
		"batchId":  result.BatchID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}
	if len(result.Errors) > 0 {
		payload["errors"] = result.Errors
	}
	return payload
}

func handleImportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrImportEmpty) {
		respondError(c, http.StatusBadRequest, "导入内容为空")
		return
	}
	respondError(c, http.StatusInternalServerError, "导入失败")
}
