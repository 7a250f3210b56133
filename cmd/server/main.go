package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/weatherlist-backend/internal/config"
	"github.com/AnshRaj112/weatherlist-backend/internal/database"
	"github.com/AnshRaj112/weatherlist-backend/internal/handlers"
	"github.com/AnshRaj112/weatherlist-backend/internal/middleware"
	"github.com/AnshRaj112/weatherlist-backend/internal/routes"
	"github.com/AnshRaj112/weatherlist-backend/internal/scheduler"
	"github.com/AnshRaj112/weatherlist-backend/internal/services"
	"github.com/AnshRaj112/weatherlist-backend/internal/weather"
	"github.com/AnshRaj112/weatherlist-backend/internal/weather/providers"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, cfg.DBMaxOpenConns)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to configure Redis:", err)
	}
	defer redisClient.Close()

	kv := services.NewKVStore(redisClient)
	sessions := services.NewSessionStore(kv, cfg.SessionTTL)
	resets := services.NewResetTokens(cfg.ResetSecret, cfg.ResetTokenTTL, kv)
	identity := services.NewIdentityService(kv, sessions, resets)
	locations := services.NewLocationService(services.NewPostgresLocationStore(db))
	profiles := services.NewProfileService(services.NewPostgresProfileStore(db))

	httpClient := &http.Client{Timeout: 8 * time.Second}
	var weatherProviders []weather.Provider
	if cfg.OpenWeatherKey != "" {
		weatherProviders = append(weatherProviders, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherKey))
	} else {
		log.Println("⚠️  WARNING: OPENWEATHER_API_KEY not set. City-only weather lookups will not be available")
	}
	weatherProviders = append(weatherProviders, providers.NewOpenMeteoProvider(httpClient))
	weatherSvc := weather.NewService(weatherProviders, services.NewCacheService(kv), cfg.WeatherCacheTTL)

	jobs := scheduler.New(services.NewPhoneIndexReconciler(kv), cfg.ReconcileInterval)
	if err := jobs.Start(); err != nil {
		log.Printf("⚠️  WARNING: failed to start reconciliation job: %v", err)
	}
	defer jobs.Stop()

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check)")
	}

	routes.SetupRoutes(r, routes.Handlers{
		Locations: handlers.NewLocationHandler(locations),
		Auth:      handlers.NewAuthHandler(identity),
		Profiles:  handlers.NewProfileHandler(profiles),
		Weather:   handlers.NewWeatherHandler(weatherSvc, locations),
		Health:    handlers.NewHealthHandler(handlers.PingFunc(kv.Ping), db),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Weather list backend running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
