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

	"github.com/labstack/echo/v4"

	_ "inquirydesk/docs" // swagger docs

	"inquirydesk/internal/auth"
	"inquirydesk/internal/cache"
	"inquirydesk/internal/config"
	"inquirydesk/internal/db"
	"inquirydesk/internal/events"
	"inquirydesk/internal/handler"
	"inquirydesk/internal/model"
	"inquirydesk/internal/repository"
	"inquirydesk/internal/router"
	"inquirydesk/internal/service"
)

const (
	shutdownTimeout = 30 * time.Second
	eventBuffer     = 256
)

// @title Inquiry Desk API
// @version 1.0
// @description Contact inquiry intake and admin API with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gormDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB is set
	if cfg.ResetDB {
		log.Println("RESET_DB=true detected, dropping all tables...")
		for _, table := range []interface{}{&model.InquiryNote{}, &model.Inquiry{}, &model.AdminUser{}} {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// A nil client serves every read as a miss; logout then fails loudly
	// instead of pretending to revoke.
	cacheClient, err := cache.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Printf("[CACHE] Redis unavailable at %s, continuing without cache: %v", cfg.RedisAddr, err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, eventBuffer)
		log.Printf("[EVENTS] Publishing to topic %q on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}

	// Initialize repositories
	inquiryRepo := repository.NewInquiryRepository(gormDB)
	adminRepo := repository.NewAdminUserRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(adminRepo, jwtService, tokenStore)
	inquiryService := service.NewInquiryService(inquiryRepo, cacheClient, publisher)

	if cfg.AdminPassword != "" {
		if _, err := authService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword, false); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	} else {
		log.Println("[AUTH] ADMIN_PASSWORD not set, skipping admin bootstrap")
	}

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		cfg,
		authService,
		handler.NewInquiryHandler(inquiryService),
		handler.NewAdminInquiryHandler(inquiryService),
		handler.NewAuthHandler(authService),
	)

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "localhost:" + cfg.ServerPort
	}
	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", swaggerHost)

	serverErrors := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Printf("Server listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Printf("server start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("[EVENTS] close: %v", err)
	}
	if err := cacheClient.Close(); err != nil {
		log.Printf("[CACHE] close: %v", err)
	}
	if err := db.Close(gormDB); err != nil {
		log.Printf("database close: %v", err)
	}

	log.Println("Server shutdown complete")
}
