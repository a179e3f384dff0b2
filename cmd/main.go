package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"coachlink/messaging/internal/config"
	"coachlink/messaging/internal/models"
	"coachlink/messaging/internal/server/handler"
	"coachlink/messaging/internal/server/hub"
	"coachlink/messaging/internal/storage"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.ParticipantRecord{},
		&models.MessageRecord{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting CoachLink messaging relay...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewService(db, rdb)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	relayHub := hub.New(s, logger)
	go relayHub.Run(context.Background())

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	r := gin.Default()
	h := handler.New(relayHub, s, cfg.JWTSecret, cfg.UploadDir, cfg.PublicBaseURL, logger)

	r.POST("/session", h.CreateSession)
	r.GET("/roster/:participantID", h.GetRoster)
	r.GET("/history/:participantID/:counterpartID", h.GetHistory)
	r.POST("/upload", h.Upload)
	r.GET("/ws", h.ServeWebSocket)
	r.Static("/uploads", cfg.UploadDir)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
