package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"machine-maintenance-backend/config"
	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/mw"
	"machine-maintenance-backend/internal/service"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(db *gorm.DB, lifecycle *service.LifecycleService, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(db, lifecycle, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Public: the frontend needs the VAPID key before any login.
	api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	authed := api.Group("")
	authed.Use(mw.Auth(db))
	{
		reportes := authed.Group("/reportes-cliente")
		reportes.GET("", handler.ListReports)
		reportes.POST("", mw.RequireRole(model.RolCliente, model.RolAdmin), handler.CreateReport)
		reportes.PUT("", mw.RequireRole(model.RolAdmin), handler.UpdateReport)
		reportes.DELETE("", mw.RequireRole(model.RolAdmin), handler.DeleteReport)

		ordenes := authed.Group("/ordenes-trabajo")
		ordenes.GET("", mw.RequireRole(model.RolAdmin, model.RolTecnico), handler.ListWorkOrders)
		ordenes.POST("", mw.RequireRole(model.RolAdmin), handler.CreateWorkOrder)
		ordenes.PUT("", mw.RequireRole(model.RolAdmin, model.RolTecnico), handler.UpdateWorkOrder)

		maquinas := authed.Group("/inventario/maquinas")
		maquinas.GET("", caching, handler.ListMachines)
		maquinas.POST("", mw.RequireRole(model.RolAdmin), handler.CreateMachine)
		maquinas.PUT("", mw.RequireRole(model.RolAdmin), handler.UpdateMachine)
		maquinas.DELETE("", mw.RequireRole(model.RolAdmin), handler.DeleteMachine)

		proveedores := authed.Group("/inventario/proveedores")
		proveedores.GET("", caching, handler.ListProviders)
		proveedores.POST("", mw.RequireRole(model.RolAdmin), handler.CreateProvider)
		proveedores.DELETE("", mw.RequireRole(model.RolAdmin), handler.DeleteProvider)

		ubicaciones := authed.Group("/inventario/ubicaciones")
		ubicaciones.GET("", caching, handler.ListLocations)
		ubicaciones.POST("", mw.RequireRole(model.RolAdmin), handler.CreateLocation)
		ubicaciones.DELETE("", mw.RequireRole(model.RolAdmin), handler.DeleteLocation)

		authed.GET("/subscriptions", handler.GetSubscription)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
