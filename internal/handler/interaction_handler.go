package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/citadel/internal/db"
	"github.com/citadel/internal/service"
	"github.com/gin-gonic/gin"
)

type interactionPayload struct {
	Type            string `json:"type"`
	Content         string `json:"content"`
	DurationSeconds *int   `json:"durationSeconds"`
	OccurredAt      string `json:"occurredAt"` // RFC3339
	Source          string `json:"source"`
}

// ListContactInteractions 返回联系人的互动分页列表，按发生时间倒序
func (a *API) ListContactInteractions(c *gin.Context) {
	contactID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	page, ok := parseIntQuery(c, "page", 1)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的页码")
		return
	}
	limit, ok := parseIntQuery(c, "limit", 25)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的分页大小")
		return
	}

	interactions, total, err := a.interactions.ListByContact(service.InteractionFilter{
		ContactID: contactID,
		Type:      c.Query("type"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	items := make([]gin.H, 0, len(interactions))
	for _, interaction := range interactions {
		items = append(items, interactionToPayload(interaction))
	}

	respondList(c, items, total, page, limit)
}

// CreateContactInteraction 为联系人记录一次互动并触发重算
func (a *API) CreateContactInteraction(c *gin.Context) {
	contactID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	input, ok := a.parseInteractionInput(c, contactID)
	if !ok {
		return
	}

	interaction, err := a.interactions.Create(input)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	respondData(c, http.StatusCreated, interactionToPayload(*interaction))
}

// GetInteraction 返回单条互动
func (a *API) GetInteraction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的互动ID")
		return
	}

	interaction, err := a.interactions.Get(id)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	respondData(c, http.StatusOK, interactionToPayload(*interaction))
}

// UpdateInteraction 更新互动并触发重算
func (a *API) UpdateInteraction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的互动ID")
		return
	}

	existing, err := a.interactions.Get(id)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	input, ok := a.parseInteractionInput(c, existing.ContactID)
	if !ok {
		return
	}

	interaction, err := a.interactions.Update(id, input)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	respondData(c, http.StatusOK, interactionToPayload(*interaction))
}

// DeleteInteraction 删除互动并触发重算
func (a *API) DeleteInteraction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的互动ID")
		return
	}

	if err := a.interactions.Delete(id); err != nil {
		handleInteractionError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

func (a *API) parseInteractionInput(c *gin.Context, contactID uint) (service.InteractionInput, bool) {
	var payload interactionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.InteractionInput{}, false
	}

	if payload.OccurredAt == "" {
		respondError(c, http.StatusBadRequest, "请填写发生时间")
		return service.InteractionInput{}, false
	}

	occurredAt, err := time.Parse(time.RFC3339, payload.OccurredAt)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的发生时间")
		return service.InteractionInput{}, false
	}

	return service.InteractionInput{
		ContactID:       contactID,
		Type:            payload.Type,
		Content:         payload.Content,
		DurationSeconds: payload.DurationSeconds,
		OccurredAt:      occurredAt,
		Source:          payload.Source,
	}, true
}

func interactionToPayload(interaction db.Interaction) gin.H {
	item := gin.H{
		"id":         interaction.ID,
		"contactId":  interaction.ContactID,
		"type":       interaction.Type,
		"content":    interaction.Content,
		"occurredAt": interaction.OccurredAt.UTC().Format(time.RFC3339),
		"source":     interaction.Source,
		// 标注口径复用写路径的同一张类型表
		"outbound": db.IsOutboundType(interaction.Type),
	}

	if interaction.DurationSeconds != nil {
		item["durationSeconds"] = *interaction.DurationSeconds
	}
	if interaction.ImportBatchID != "" {
		item["importBatchId"] = interaction.ImportBatchID
	}

	return item
}

func handleInteractionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInteractionNotFound):
		respondError(c, http.StatusNotFound, "互动记录不存在")
	case errors.Is(err, service.ErrContactNotFound):
		respondError(c, http.StatusNotFound, "联系人不存在")
	case errors.Is(err, service.ErrInteractionInvalid):
		respondError(c, http.StatusUnprocessableEntity, "互动信息不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
