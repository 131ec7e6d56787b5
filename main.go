package main

import (
	"os"

	"github.com/FRI2020/talk-trace/internal/api"
	"github.com/FRI2020/talk-trace/internal/config"
	"github.com/FRI2020/talk-trace/internal/database"
	"github.com/FRI2020/talk-trace/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables; a missing .env file is fine in production
	_ = godotenv.Load()

	cfg := config.New()

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.GinMode != "release",
	})

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("failed to connect to database").Err(err).Send()
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to run migrations").Err(err).Send()
	}
	log.Info("database ready").Send()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, db, cfg, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("server starting").Str("port", port).Send()
	if err := router.Run(":" + port); err != nil {
		log.Fatal("failed to start server").Err(err).Send()
	}
}
