package app

import (
	"digcomp_backend/docs"
	"digcomp_backend/internal/config"
	"digcomp_backend/internal/util"
	"digcomp_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	a.registerBankRoutes(api, c)
	a.registerUserRoutes(api, c)
	a.registerQuizRoutes(api, c)
}

func (a *App) registerBankRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/questions", c.question.ListQuestions)
	rg.GET("/questions/:key", c.question.GetQuestion)
	rg.GET("/resources/:questionCode", c.resource.ForQuestion)
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	users := rg.Group("/users")
	{
		users.POST("", c.user.CreateUser)
		users.GET("", c.user.ListUsers)
		users.GET("/last", c.user.LastUser)
		users.GET("/:id", c.user.GetUser)
		users.GET("/:id/quizzes", c.quiz.ListUserAttempts)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	quizzes := rg.Group("/quizzes")
	{
		quizzes.POST("", c.quiz.CreateAttempt)
		quizzes.GET("", c.quiz.ListAttempts)
		quizzes.DELETE("", c.quiz.DeleteAllAttempts)
		quizzes.GET("/:id", c.quiz.GetAttempt)
		quizzes.PUT("/:id", c.quiz.UpdateAttempt)
		quizzes.DELETE("/:id", c.quiz.DeleteAttempt)

		// session
		quizzes.POST("/:id/start", c.quiz.Start)
		quizzes.GET("/:id/current", c.quiz.Current)
		quizzes.POST("/:id/answers", c.quiz.SubmitAnswer)
		quizzes.POST("/:id/abandon", c.quiz.Abandon)

		// report
		quizzes.GET("/:id/report", c.report.GetReport)
		quizzes.GET("/:id/report/pdf", c.report.DownloadPDF)
		quizzes.POST("/:id/report/email", c.report.EmailReport)
	}

	rg.POST("/results/email", c.report.EmailUploadedReport)
}
