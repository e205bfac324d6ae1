package main

import (
	"context"
	"flag"
	"log"

	"inquirydesk/internal/auth"
	"inquirydesk/internal/config"
	"inquirydesk/internal/db"
	"inquirydesk/internal/repository"
	"inquirydesk/internal/service"
)

// seed creates the admin account or resets its password. It never signs a
// token, so JWT_SECRET is not required.
func main() {
	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	username := flag.String("username", cfg.AdminUsername, "admin username")
	password := flag.String("password", cfg.AdminPassword, "admin password (defaults to ADMIN_PASSWORD)")
	reset := flag.Bool("reset", true, "reset the password when the admin already exists")
	flag.Parse()

	log.Println("Starting seed script...")

	gormDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close(gormDB) }()
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	authService := service.NewAuthService(
		repository.NewAdminUserRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL),
		auth.NewTokenStore(nil),
	)

	created, err := authService.EnsureAdmin(context.Background(), *username, *password, *reset)
	if err != nil {
		log.Fatalf("Failed to seed admin %q: %v", *username, err)
	}

	if created {
		log.Printf("Seed completed: created admin %q", *username)
	} else if *reset {
		log.Printf("Seed completed: admin %q already existed, password reset", *username)
	} else {
		log.Printf("Seed completed: admin %q already existed, left unchanged", *username)
	}
}
