package router

import (
	"github.com/citadel/internal/config"
	"github.com/citadel/internal/db"
	"github.com/citadel/internal/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	api := handler.NewAPI(db.DB, handler.Options{
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
		PhoneRegion:   cfg.PhoneRegion,
		StaleDays:     cfg.StaleDays,
	})

	// 静态文件服务（头像）
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		contacts := apiGroup.Group("/contacts")
		{
			contacts.GET("", api.ListContacts)
			contacts.POST("", api.CreateContact)
			contacts.GET("/:id", api.GetContact)
			contacts.PUT("/:id", api.UpdateContact)
			contacts.DELETE("/:id", api.DeleteContact)
			contacts.PUT("/:id/cadence", api.SetContactCadence)
			contacts.POST("/:id/recalculate", api.RecalculateContact)
			contacts.POST("/:id/avatar", api.UploadContactAvatar)

			contacts.GET("/:id/heatmap", api.GetContactHeatmap)
			contacts.GET("/:id/notable-dates", api.ListContactNotableDates)
			contacts.POST("/:id/notable-dates", api.CreateContactNotableDate)
			contacts.GET("/:id/notable-dates/due", api.GetContactNotableDatesDue)

			contacts.GET("/:id/interactions", api.ListContactInteractions)
			contacts.POST("/:id/interactions", api.CreateContactInteraction)
		}

		interactions := apiGroup.Group("/interactions")
		{
			interactions.GET("/:id", api.GetInteraction)
			interactions.PUT("/:id", api.UpdateInteraction)
			interactions.DELETE("/:id", api.DeleteInteraction)
		}

		reminders := apiGroup.Group("/reminders")
		{
			reminders.GET("", api.ListReminders)
			reminders.POST("", api.CreateReminder)
			reminders.PUT("/:id", api.UpdateReminder)
			reminders.DELETE("/:id", api.DeleteReminder)
			reminders.POST("/:id/complete", api.CompleteReminder)
			reminders.POST("/:id/reopen", api.ReopenReminder)
		}

		notableDates := apiGroup.Group("/notable-dates")
		{
			notableDates.GET("/upcoming", api.GetUpcomingNotableDates)
			notableDates.PUT("/:id", api.UpdateNotableDate)
			notableDates.DELETE("/:id", api.DeleteNotableDate)
		}

		imports := apiGroup.Group("/import")
		{
			imports.POST("/contacts", api.ImportContacts)
			imports.POST("/interactions", api.ImportInteractions)
		}
	}

	return r
}
