package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/citadel/internal/db"
	"github.com/citadel/internal/service"
	"github.com/gin-gonic/gin"
)

type contactPayload struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Nickname     string `json:"nickname"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Notes        string `json:"notes"`
	Cadence      string `json:"cadence"`
}

// ListContacts 返回联系人分页列表
// stale=1 时按 staleDays（默认取服务配置）过滤出需要关注的联系人，
// due=1 时仅返回已到联系期的联系人
func (a *API) ListContacts(c *gin.Context) {
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

	filter := service.ContactFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	if c.Query("due") == "1" {
		filter.DueOnly = true
	}
	if c.Query("stale") == "1" {
		staleDays, ok := parseIntQuery(c, "staleDays", a.staleDays)
		if !ok || staleDays < 1 {
			respondError(c, http.StatusBadRequest, "无效的关注阈值")
			return
		}
		filter.StaleDays = staleDays
	}

	contacts, total, err := a.contacts.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取联系人列表失败")
		return
	}

	items := make([]gin.H, 0, len(contacts))
	for _, contact := range contacts {
		items = append(items, contactToPayload(contact))
	}

	respondList(c, items, total, page, limit)
}

// GetContact 返回联系人详情，Notes 的 Markdown 渲染结果随 notesHtml 一并返回
func (a *API) GetContact(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	contact, err := a.contacts.Get(id)
	if err != nil {
		handleContactError(c, err)
		return
	}

	payload := contactToPayload(*contact)
	if notesHTML, err := renderMarkdown(contact.Notes); err == nil {
		payload["notesHtml"] = notesHTML
	} else {
		// 渲染失败不阻塞详情返回，但要留痕
		_ = c.Error(err)
	}

	respondData(c, http.StatusOK, payload)
}

// CreateContact 创建联系人
func (a *API) CreateContact(c *gin.Context) {
	var payload contactPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	contact, err := a.contacts.Create(contactInputFromPayload(payload))
	if err != nil {
		handleContactError(c, err)
		return
	}

	respondData(c, http.StatusCreated, contactToPayload(*contact))
}

// UpdateContact 更新联系人
func (a *API) UpdateContact(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	var payload contactPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	contact, err := a.contacts.Update(id, contactInputFromPayload(payload))
	if err != nil {
		handleContactError(c, err)
		return
	}

	respondData(c, http.StatusOK, contactToPayload(*contact))
}

// SetContactCadence 单独调整联系节奏
func (a *API) SetContactCadence(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	var payload struct {
		Cadence string `json:"cadence"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	contact, err := a.contacts.SetCadence(id, payload.Cadence)
	if err != nil {
		handleContactError(c, err)
		return
	}

	respondData(c, http.StatusOK, contactToPayload(*contact))
}

// RecalculateContact 手动触发派生字段重算
func (a *API) RecalculateContact(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	if err := a.contacts.Recalculate(id); err != nil {
		handleContactError(c, err)
		return
	}

	contact, err := a.contacts.Get(id)
	if err != nil {
		handleContactError(c, err)
		return
	}

	respondData(c, http.StatusOK, contactToPayload(*contact))
}

// DeleteContact 删除联系人及其全部附属记录
func (a *API) DeleteContact(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	if err := a.contacts.Delete(id); err != nil {
		handleContactError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// GetContactHeatmap 返回联系人过去一年的互动热力图
func (a *API) GetContactHeatmap(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	asOf, ok := parseDateQuery(c, "asOf", time.Now().UTC())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的截止日期")
		return
	}

	heatmap, err := a.heatmaps.ForContact(id, asOf)
	if err != nil {
		handleContactError(c, err)
		return
	}

	data := make([]gin.H, 0, len(heatmap.Days))
	for _, day := range heatmap.Days {
		data = append(data, gin.H{"date": day.Date, "count": day.Count})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"totalInteractions": heatmap.TotalInteractions,
			"activeDays":        heatmap.ActiveDays,
			"startDate":         heatmap.StartDate,
			"endDate":           heatmap.EndDate,
		},
	})
}

// GetContactNotableDatesDue 返回联系人落入前瞻窗口的纪念日
func (a *API) GetContactNotableDatesDue(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	windowDays, ok := parseIntQuery(c, "days", 30)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的窗口天数")
		return
	}
	reference, ok := parseDateQuery(c, "date", time.Now().UTC())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的参考日期")
		return
	}

	upcoming, err := a.notableDates.UpcomingForContact(id, windowDays, reference)
	if err != nil {
		handleNotableDateError(c, err)
		return
	}

	respondData(c, http.StatusOK, upcomingToPayload(upcoming))
}

func contactInputFromPayload(payload contactPayload) service.ContactInput {
	return service.ContactInput{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Nickname:     payload.Nickname,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Organization: payload.Organization,
		Notes:        payload.Notes,
		Cadence:      payload.Cadence,
	}
}

func contactToPayload(contact db.Contact) gin.H {
	item := gin.H{
		"id":           contact.ID,
		"firstName":    contact.FirstName,
		"lastName":     contact.LastName,
		"nickname":     contact.Nickname,
		"displayName":  contact.DisplayName(),
		"phone":        contact.Phone,
		"email":        contact.Email,
		"organization": contact.Organization,
		"notes":        contact.Notes,
		"avatarUrl":    contact.AvatarURL,
	}

	if contact.Cadence != nil {
		item["cadence"] = *contact.Cadence
	}
	if contact.LastContactedAt != nil {
		item["lastContactedAt"] = contact.LastContactedAt.UTC().Format(time.RFC3339)
	}
	if contact.ContactDueAt != nil {
		item["contactDueAt"] = contact.ContactDueAt.UTC().Format(time.RFC3339)
	}

	return item
}

func handleContactError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContactNotFound):
		respondError(c, http.StatusNotFound, "联系人不存在")
	case errors.Is(err, service.ErrContactInvalid),
		errors.Is(err, service.ErrInvalidCadence),
		errors.Is(err, service.ErrInvalidPhone):
		respondError(c, http.StatusUnprocessableEntity, "联系人信息不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
