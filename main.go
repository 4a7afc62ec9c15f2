package main

import (
	"context"
	"log"

	"bloodlink/config"
	"bloodlink/handlers"
	"bloodlink/logger"
	"bloodlink/middleware"
	"bloodlink/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logg, err := logger.New(cfg.Log.Level, cfg.Log.Format, "bloodlink-api")
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logg.Sync()

	gin.SetMode(cfg.Server.GinMode)

	// Initialize database
	db, err := config.OpenDB(cfg.Server.DBPath)
	if err != nil {
		logg.Fatal("Failed to open database", zap.Error(err))
	}
	created, err := handlers.EnsureAdmin(context.Background(), db,
		cfg.Server.AdminName, cfg.Server.AdminEmail, cfg.Server.AdminPassword)
	if err != nil {
		logg.Fatal("Failed to seed admin", zap.Error(err))
	}
	if created {
		logg.Info("Admin account created", zap.String("email", cfg.Server.AdminEmail))
	}

	auth := middleware.NewAuth(cfg.Server.JWTSecret, cfg.Server.TokenTTL, db)
	r := routes.NewEngine(handlers.New(db, auth, logg), auth, logg)

	logg.Info("Server running", zap.String("addr", "http://localhost:"+cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logg.Fatal("Failed to start server", zap.Error(err))
	}
}
