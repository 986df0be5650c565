package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"machine-maintenance-backend/internal/service"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	db        *gorm.DB
	lifecycle *service.LifecycleService
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(db *gorm.DB, lifecycle *service.LifecycleService, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		db:        db,
		lifecycle: lifecycle,
		webpush:   webpushOptions,
	}
}
