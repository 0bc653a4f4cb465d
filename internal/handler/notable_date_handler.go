package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/citadel/internal/db"
	"github.com/citadel/internal/service"
	"github.com/gin-gonic/gin"
)

type notableDatePayload struct {
	Type      string `json:"type"`
	Label     string `json:"label"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Year      *int   `json:"year"`
	Recurring bool   `json:"recurring"`
	Notes     string `json:"notes"`
}

// ListContactNotableDates 返回联系人的全部纪念日
func (a *API) ListContactNotableDates(c *gin.Context) {
	contactID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	if _, err := a.contacts.Get(contactID); err != nil {
		handleContactError(c, err)
		return
	}

	dates, err := a.notableDates.ListByContact(contactID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取纪念日列表失败")
		return
	}

	items := make([]gin.H, 0, len(dates))
	for _, date := range dates {
		items = append(items, notableDateToPayload(date))
	}

	respondData(c, http.StatusOK, items)
}

// CreateContactNotableDate 为联系人创建纪念日
func (a *API) CreateContactNotableDate(c *gin.Context) {
	contactID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	if _, err := a.contacts.Get(contactID); err != nil {
		handleContactError(c, err)
		return
	}

	var payload notableDatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	date, err := a.notableDates.Create(notableDateInputFromPayload(contactID, payload))
	if err != nil {
		handleNotableDateError(c, err)
		return
	}

	respondData(c, http.StatusCreated, notableDateToPayload(*date))
}

// UpdateNotableDate 更新纪念日
func (a *API) UpdateNotableDate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的纪念日ID")
		return
	}

	existing, err := a.notableDates.Get(id)
	if err != nil {
		handleNotableDateError(c, err)
		return
	}

	var payload notableDatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	date, err := a.notableDates.Update(id, notableDateInputFromPayload(existing.ContactID, payload))
	if err != nil {
		handleNotableDateError(c, err)
		return
	}

	respondData(c, http.StatusOK, notableDateToPayload(*date))
}

// DeleteNotableDate 删除纪念日
func (a *API) DeleteNotableDate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的纪念日ID")
		return
	}

	if err := a.notableDates.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除纪念日失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// GetUpcomingNotableDates 返回全部联系人落入前瞻窗口的纪念日
func (a *API) GetUpcomingNotableDates(c *gin.Context) {
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

	upcoming, err := a.notableDates.Upcoming(windowDays, reference)
	if err != nil {
		handleNotableDateError(c, err)
		return
	}

	respondData(c, http.StatusOK, upcomingToPayload(upcoming))
}

func notableDateInputFromPayload(contactID uint, payload notableDatePayload) service.NotableDateInput {
	return service.NotableDateInput{
		ContactID: contactID,
		Type:      payload.Type,
		Label:     payload.Label,
		Month:     payload.Month,
		Day:       payload.Day,
		Year:      payload.Year,
		Recurring: payload.Recurring,
		Notes:     payload.Notes,
	}
}

func notableDateToPayload(date db.NotableDate) gin.H {
	item := gin.H{
		"id":        date.ID,
		"contactId": date.ContactID,
		"type":      date.Type,
		"label":     date.Label,
		"month":     date.Month,
		"day":       date.Day,
		"recurring": date.Recurring,
		"notes":     date.Notes,
	}

	if date.Year != nil {
		item["year"] = *date.Year
	}

	return item
}

func upcomingToPayload(upcoming []service.UpcomingNotableDate) []gin.H {
	items := make([]gin.H, 0, len(upcoming))
	for _, entry := range upcoming {
		item := gin.H{
			"id":           entry.NotableDateID,
			"contactId":    entry.ContactID,
			"contactName":  entry.ContactName,
			"type":         entry.Type,
			"label":        entry.Label,
			"month":        entry.Month,
			"day":          entry.Day,
			"recurring":    entry.Recurring,
			"notes":        entry.Notes,
			"distanceDays": entry.DistanceDays,
		}
		if entry.Year != nil {
			item["year"] = *entry.Year
		}
		items = append(items, item)
	}
	return items
}

func handleNotableDateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotableDateNotFound):
		respondError(c, http.StatusNotFound, "纪念日不存在")
	case errors.Is(err, service.ErrContactNotFound):
		respondError(c, http.StatusNotFound, "联系人不存在")
	case errors.Is(err, service.ErrInvalidWindow):
		respondError(c, http.StatusUnprocessableEntity, "窗口天数不能为负")
	case errors.Is(err, service.ErrNotableDateInvalid):
		respondError(c, http.StatusUnprocessableEntity, "纪念日信息不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
