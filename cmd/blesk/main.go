package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/overtq/blesk/internal/api"
	"github.com/overtq/blesk/internal/config"
	"github.com/overtq/blesk/internal/db"
	"github.com/overtq/blesk/internal/media"
	"github.com/overtq/blesk/internal/notify"
	"github.com/overtq/blesk/internal/services"
)

func main() {
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	database, err := db.OpenSQLite(cfg.DBPath, cfg.LogSQL)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	repos := db.NewRepositories(database)

	mediaStore, err := buildMediaStore(cfg)
	if err != nil {
		log.Fatalf("media store init failed: %v", err)
	}

	var notifier services.Notifier = notify.NewLogNotifier()
	if cfg.TelegramBotToken != "" {
		notifier = notify.NewTelegramNotifier(cfg.TelegramBotToken)
	}
	dispatcher := services.NewNotificationDispatcher(notifier)

	identity := services.NewIdentityService(repos.Users, cfg.ManagerCodeHash)
	workflow := services.NewWorkflowService(repos.Tasks, repos.Photos, repos.Users, mediaStore, dispatcher)

	app := fiber.New(fiber.Config{
		AppName:               "Blesk",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	handler := api.NewHandler(identity, workflow, mediaStore, cfg.SecretKey)
	api.RegisterRoutes(app, handler)

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()
	startIdleSweep(lifecycleCtx, identity, cfg.InactivityDays)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("Blesk listening on http://0.0.0.0:%s (db: %s, media: %s)", cfg.Port, cfg.DBPath, cfg.MediaBackend)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func buildMediaStore(cfg config.Config) (media.Store, error) {
	if cfg.MediaBackend == "s3" {
		return media.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region)
	}
	return media.NewDiskStore(cfg.MediaDir)
}

func startIdleSweep(ctx context.Context, identity *services.IdentityService, inactivityDays int) {
	if inactivityDays <= 0 {
		return
	}
	threshold := time.Duration(inactivityDays) * 24 * time.Hour

	ticker := time.NewTicker(12 * time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := identity.DeactivateIdle(threshold)
				if err != nil {
					log.Printf("idle sweep failed: %v", err)
					continue
				}
				if count > 0 {
					log.Printf("idle sweep deactivated %d users", count)
				}
			}
		}
	}()
}
