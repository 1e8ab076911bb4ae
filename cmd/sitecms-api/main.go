package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/sitecms/internal/config"
	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/handlers"
	authmw "github.com/dimitrije/sitecms/internal/middleware"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/dimitrije/sitecms/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.AllowedGitHubLogin == "" {
		log.Println("ALLOWED_GITHUB_LOGIN is not set; nobody can edit content")
	}

	backend, err := services.NewBackend(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to set up collection store: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	tokenService := services.NewTokenService(db)
	auditService := services.NewAuditService(db)
	collectionService := services.NewCollectionService(backend, auditService, cfg.MaxWriteAttempts)

	hub := sse.NewHub()
	go hub.Run()

	authHandler := handlers.NewAuthHandler(cfg, tokenService, jwtService)
	collectionHandler := handlers.NewCollectionHandler(collectionService, auditService, hub)
	sseHandler := handlers.NewSSEHandler(hub)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService, cfg.AllowedGitHubLogin))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)
	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/collections/:kind", collectionHandler.Get)
	protected.Put("/collections/:kind", collectionHandler.Update)
	protected.Post("/collections/:kind/items", collectionHandler.AddItem)
	protected.Delete("/collections/:kind/items/:id", collectionHandler.DeleteItem)
	protected.Get("/collections/:kind/source", collectionHandler.GetSource)
	protected.Put("/collections/:kind/source", collectionHandler.UpdateSource)
	protected.Get("/collections/:kind/history", collectionHandler.History)

	protected.Get("/events", sseHandler.Connect)
	protected.Post("/sse/:clientId/subscribe/:kind", sseHandler.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:kind", sseHandler.Unsubscribe)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok", "store": cfg.StoreBackend})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := tokenService.CleanupExpired(context.Background()); err != nil {
				log.Printf("Failed to clean up expired tokens: %v", err)
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
