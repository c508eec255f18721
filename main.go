// @title Questões ENEM API
// @version 1.0
// @description Respostas, histórico e conteúdo das provas do ENEM.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"enem_quiz_backend/internal/app"
	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/pkg/configwatcher"
	"enem_quiz_backend/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "run migrations on start even in release mode")
	watch := flag.Bool("watch-config", true, "reload CORS origins and cache TTL when config.yaml changes")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		logger.Log.Info("Database migration finished, exiting")
		application.Close(context.Background())
		return
	}

	if *watch {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := configwatcher.Watch(ctx, *configDir, configwatcher.DefaultDelay, application.ApplyConfig); err != nil {
				logger.Log.Warn("Config watcher disabled", zap.Error(err))
			}
		}()
	}

	application.Run()
}
