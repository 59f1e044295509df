package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-vault/internal/config"
	"github.com/iliyamo/media-vault/internal/database"
	"github.com/iliyamo/media-vault/internal/handler"
	"github.com/iliyamo/media-vault/internal/queue"
	"github.com/iliyamo/media-vault/internal/repository"
	"github.com/iliyamo/media-vault/internal/router"
	"github.com/iliyamo/media-vault/internal/service"
	"github.com/iliyamo/media-vault/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	blobs, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("open blob store: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	go func() {
		if err := queue.StartFileEventConsumer(); err != nil {
			log.Printf("file event consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	blocklist := repository.NewBlockedTokenRepo(db)
	files := repository.NewFileRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, blocklist)
	fileHandler := handler.NewFileHandler(files, blobs, service.NewAMQPPublisher())

	e := echo.New()
	router.Register(e, cfg, rdb, authHandler, fileHandler, blocklist)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
