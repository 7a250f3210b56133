package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/weatherlist-backend/internal/handlers"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Locations *handlers.LocationHandler
	Auth      *handlers.AuthHandler
	Profiles  *handlers.ProfileHandler
	Weather   *handlers.WeatherHandler
	Health    *handlers.HealthHandler
}

func SetupRoutes(r chi.Router, h Handlers) {
	r.Get("/health", h.Health.Health)

	// Location list routes
	r.Get("/api/locations/{userId}", h.Locations.List)
	r.Post("/api/locations", h.Locations.Add)
	r.Put("/api/locations/order", h.Locations.Reorder)
	r.Delete("/api/locations/{userId}/{location}", h.Locations.Delete)
	r.Get("/api/locations/{userId}/{location}/weather", h.Weather.ForSavedLocation)

	// Weather lookup
	r.Get("/api/weather", h.Weather.Current)

	// Account routes
	r.Post("/api/register", h.Auth.Register)
	r.Post("/api/check-id", h.Auth.CheckID)
	r.Post("/api/login", h.Auth.Login)
	r.Post("/api/logout", h.Auth.Logout)
	r.Post("/api/find-id", h.Auth.FindID)
	r.Post("/api/find-password", h.Auth.FindPassword)
	r.Post("/api/reset-password", h.Auth.ResetPassword)

	// Legacy relational profile routes
	r.Get("/api/users/{userId}", h.Profiles.Get)
	r.Post("/api/users", h.Profiles.Save)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.NotFound)
}
