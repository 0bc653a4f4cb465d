package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/citadel/internal/db"
	"github.com/citadel/internal/service"
	"github.com/gin-gonic/gin"
)

type reminderPayload struct {
	ContactID uint   `json:"contactId"`
	DueAt     string `json:"dueAt"` // RFC3339
	Note      string `json:"note"`
}

// ListReminders 返回提醒列表，支持 pending=1 / overdue=1 过滤
func (a *API) ListReminders(c *gin.Context) {
	filter := service.ReminderFilter{
		Pending: c.Query("pending") == "1",
		Overdue: c.Query("overdue") == "1",
	}

	if raw := c.Query("contactId"); raw != "" {
		contactID, ok := parseIntQuery(c, "contactId", 0)
		if !ok || contactID < 1 {
			respondError(c, http.StatusBadRequest, "无效的联系人ID")
			return
		}
		filter.ContactID = uint(contactID)
	}

	reminders, err := a.reminders.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取提醒列表失败")
		return
	}

	items := make([]gin.H, 0, len(reminders))
	for _, reminder := range reminders {
		items = append(items, a.reminderToPayload(reminder))
	}

	respondData(c, http.StatusOK, items)
}

// CreateReminder 创建提醒
func (a *API) CreateReminder(c *gin.Context) {
	input, ok := parseReminderInput(c)
	if !ok {
		return
	}

	reminder, err := a.reminders.Create(input)
	if err != nil {
		handleReminderError(c, err)
		return
	}

	respondData(c, http.StatusCreated, a.reminderToPayload(*reminder))
}

// UpdateReminder 更新提醒
func (a *API) UpdateReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return
	}

	input, ok := parseReminderInput(c)
	if !ok {
		return
	}

	reminder, err := a.reminders.Update(id, input)
	if err != nil {
		handleReminderError(c, err)
		return
	}

	respondData(c, http.StatusOK, a.reminderToPayload(*reminder))
}

// CompleteReminder 标记提醒完成
func (a *API) CompleteReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return
	}

	reminder, err := a.reminders.Complete(id)
	if err != nil {
		handleReminderError(c, err)
		return
	}

	respondData(c, http.StatusOK, a.reminderToPayload(*reminder))
}

// ReopenReminder 撤销提醒的完成标记
func (a *API) ReopenReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return
	}

	reminder, err := a.reminders.Reopen(id)
	if err != nil {
		handleReminderError(c, err)
		return
	}

	respondData(c, http.StatusOK, a.reminderToPayload(*reminder))
}

// DeleteReminder 删除提醒
func (a *API) DeleteReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return
	}

	if err := a.reminders.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除提醒失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

func parseReminderInput(c *gin.Context) (service.ReminderInput, bool) {
	var payload reminderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.ReminderInput{}, false
	}

	if payload.DueAt == "" {
		respondError(c, http.StatusBadRequest, "请填写到期时间")
		return service.ReminderInput{}, false
	}

	dueAt, err := time.Parse(time.RFC3339, payload.DueAt)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的到期时间")
		return service.ReminderInput{}, false
	}

	return service.ReminderInput{
		ContactID: payload.ContactID,
		DueAt:     dueAt,
		Note:      payload.Note,
	}, true
}

func (a *API) reminderToPayload(reminder db.Reminder) gin.H {
	item := gin.H{
		"id":        reminder.ID,
		"contactId": reminder.ContactID,
		"dueAt":     reminder.DueAt.UTC().Format(time.RFC3339),
		"note":      reminder.Note,
		"completed": reminder.Completed,
		"overdue":   a.reminders.IsOverdue(reminder),
	}

	if reminder.CompletedAt != nil {
		item["completedAt"] = reminder.CompletedAt.UTC().Format(time.RFC3339)
	}

	return item
}

func handleReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReminderNotFound):
		respondError(c, http.StatusNotFound, "提醒不存在")
	case errors.Is(err, service.ErrContactNotFound):
		respondError(c, http.StatusNotFound, "联系人不存在")
	case errors.Is(err, service.ErrReminderInvalid):
		respondError(c, http.StatusUnprocessableEntity, "提醒信息不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
