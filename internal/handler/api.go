package handler

import (
	"github.com/citadel/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	contacts     *service.ContactService
	interactions *service.InteractionService
	reminders    *service.ReminderService
	notableDates *service.NotableDateService
	heatmaps     *service.HeatmapService
	imports      *service.ImportService
	uploadDir    string
	uploadURL    string
	staleDays    int
}

// Options 汇总构造 API 时的外部配置
type Options struct {
	UploadDir     string
	UploadURLPath string
	PhoneRegion   string
	StaleDays     int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, opts Options) *API {
	contactService := service.NewContactService(db, opts.PhoneRegion)
	interactionService := service.NewInteractionService(db, contactService)

	staleDays := opts.StaleDays
	if staleDays <= 0 {
		staleDays = 90
	}

	return &API{
		db:           db,
		contacts:     contactService,
		interactions: interactionService,
		reminders:    service.NewReminderService(db),
		notableDates: service.NewNotableDateService(db),
		heatmaps:     service.NewHeatmapService(db),
		imports:      service.NewImportService(db, contactService, interactionService),
		uploadDir:    opts.UploadDir,
		uploadURL:    opts.UploadURLPath,
		staleDays:    staleDays,
	}
}
