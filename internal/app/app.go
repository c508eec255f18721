package app

import (
	"context"
	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/controller"
	"enem_quiz_backend/internal/repository"
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/pkg/database"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/logger"
	"enem_quiz_backend/pkg/monitoring"
	"enem_quiz_backend/pkg/security"
	"enem_quiz_backend/pkg/tracing"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services *services
	cors     *security.CORSPolicy
	limiters []*security.Limiter
	tracer   *sdktrace.TracerProvider

	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	userAnswer *repository.UserAnswerRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	userAnswer *service.UserAnswerService
	exam       *service.ExamService
	history    *service.HistoryService
}

type controllers struct {
	auth       *controller.AuthController
	userAnswer *controller.UserAnswerController
	exam       *controller.ExamController
	history    *controller.HistoryController
	health     *controller.HealthController
}

// RegisterConfigCallback adds a hook run by ApplyConfig after a config reload.
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig hands a reloaded config to every registered callback. Only settings that
// are safe to change at runtime are read by them.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		userAnswer: repository.NewUserAnswerRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, rdb, service.LogMailer{From: cfg.OTP.From}, cfg)
	s.userAnswer = service.NewUserAnswerService(repos.userAnswer)

	client := enemapi.NewClient(cfg.ExamAPI.BaseURL, enemapi.WithHTTPClient(&http.Client{Timeout: cfg.ExamAPI.Timeout}))
	s.exam = service.NewExamService(client, rdb, cfg.ExamAPI.CacheTTL)
	s.history = service.NewHistoryService(s.userAnswer, s.exam, s.storage, cfg.History.PageSize, cfg.History.Concurrency)

	a.RegisterConfigCallback(func(c *config.Config) {
		s.exam.SetCacheTTL(c.ExamAPI.CacheTTL)
		logger.Log.Info("Exam cache TTL updated", zap.Duration("ttl", c.ExamAPI.CacheTTL))
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		userAnswer: controller.NewUserAnswerController(s.userAnswer),
		exam:       controller.NewExamController(s.exam),
		history:    controller.NewHistoryController(s.history),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.cors = security.NewCORSPolicy(cfg.CORS.AllowedOrigins)
	a.RegisterConfigCallback(func(c *config.Config) {
		a.cors.Update(c.CORS.AllowedOrigins)
		logger.Log.Info("CORS origins updated", zap.Strings("origins", c.CORS.AllowedOrigins))
	})

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	global := security.NewLimiter(cfg.RateLimit.MaxRequests, window)
	a.limiters = append(a.limiters, global)

	router.Use(a.cors.Middleware())
	router.Use(security.Secure())
	router.Use(global.Middleware())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("enem-quiz-backend", cfg.Server.Mode, cfg.Tracing.CollectorEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close releases background resources. Safe to call on a partially built App.
func (a *App) Close(ctx context.Context) {
	for _, l := range a.limiters {
		l.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
