package app

import (
	"enem_quiz_backend/docs"
	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/middleware"
	"enem_quiz_backend/pkg/monitoring"
	"enem_quiz_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. public
	a.registerPublicRoutes(router, c, cfg)

	// 2. exam content proxy
	a.registerExamRoutes(router, c)

	// 3. signed-in routes
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, s.auth))
	{
		a.registerAnswerRoutes(authGroup, c)
		a.registerHistoryRoutes(authGroup, c)

		authGroup.GET("/auth/session", c.auth.Session)
		authGroup.POST("/auth/sign-out", c.auth.SignOut)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	otpLimiter := security.NewLimiter(cfg.RateLimit.OTPMaxRequests, 10*time.Minute)
	a.limiters = append(a.limiters, otpLimiter)

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		// verify is bounded by the per-code attempt limit instead
		public.POST("/auth/otp/send", otpLimiter.Middleware(), c.auth.SendOTP)
		public.POST("/auth/otp/verify", c.auth.VerifyOTP)
	}
}

func (a *App) registerExamRoutes(router *gin.Engine, c *controllers) {
	exams := router.Group("/api/exams")
	{
		exams.GET("", c.exam.ListExams)
		exams.GET("/:year", c.exam.GetExam)
		exams.GET("/:year/questions", c.exam.ListQuestions)
		exams.POST("/:year/questions", c.exam.GetQuestionsBatch)
		exams.GET("/:year/questions/:index", c.exam.GetQuestion)
	}
}

func (a *App) registerAnswerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/user-answers", c.userAnswer.Save)
	rg.GET("/user-answers", c.userAnswer.List)
	rg.POST("/user-answers/sync", c.userAnswer.Sync)
}

func (a *App) registerHistoryRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/history", c.history.List)
	rg.GET("/history/stats", c.history.Stats)
	rg.POST("/history/export", c.history.Export)
}
