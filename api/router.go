package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

type Handlers struct {
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	Bookings *BookingHandler
}

// NewRouter builds the storefront API under /api.
func NewRouter(cfg *config.Config, logger *slog.Logger, authMW *AuthMiddleware, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		CustomRecovery(logger),
		LoggingMiddleware(logger),
		NewCORSMiddleware(cfg.CORS),
		ErrorHandler(),
	)

	api := router.Group("/api")
	h.Auth.Register(api.Group("/auth"))
	h.Catalog.RegisterPublic(api)

	admin := api.Group("/admin", authMW.RequireAuth(), authMW.RequireRole(domain.RoleAdmin))
	h.Catalog.RegisterAdmin(admin)

	bookings := api.Group("/bookings", authMW.RequireAuth(), authMW.RequireRole(domain.RoleUser))
	h.Bookings.Register(bookings)

	return router
}
