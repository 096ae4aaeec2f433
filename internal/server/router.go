package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/yungbote/cogniscan-backend/internal/handlers"
)

type RouterConfig struct {
  ServiceName       string
  AllowOrigins      []string
  UserHandler       *handlers.UserHandler
  AssessmentHandler *handlers.AssessmentHandler
  SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware(cfg.ServiceName))

  origins := cfg.AllowOrigins
  if len(origins) == 0 {
    origins = []string{"http://localhost:3000", "http://localhost:5174"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  {
    api.POST("/users", cfg.UserHandler.Register)
    api.GET("/users/:user_id", cfg.UserHandler.Get)
    api.GET("/users/:user_id/profile", cfg.AssessmentHandler.GetProfile)
    api.POST("/assessment/generate", cfg.AssessmentHandler.Generate)
    api.POST("/assessment/submit", cfg.AssessmentHandler.Submit)
    api.POST("/questions/retire", cfg.AssessmentHandler.RetireQuestions)
    api.GET("/sse/stream", cfg.SSEHandler.Stream)
  }

  return router
}
