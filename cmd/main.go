package main

import (
  "context"
  "fmt"
  "os"
  "strings"

  "github.com/yungbote/cogniscan-backend/internal/clients/redis"
  "github.com/yungbote/cogniscan-backend/internal/config"
  "github.com/yungbote/cogniscan-backend/internal/db"
  "github.com/yungbote/cogniscan-backend/internal/handlers"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/observability"
  "github.com/yungbote/cogniscan-backend/internal/repos"
  "github.com/yungbote/cogniscan-backend/internal/server"
  "github.com/yungbote/cogniscan-backend/internal/services"
  "github.com/yungbote/cogniscan-backend/internal/sse"
  "github.com/yungbote/cogniscan-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  ctx := context.Background()

  // Tracing
  shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
    ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "cogniscan-backend", log),
    Environment: utils.GetEnv("APP_ENV", "development", log),
    Version:     utils.GetEnv("APP_VERSION", "dev", log),
  })
  defer shutdownOTel(ctx)

  // Pipeline config
  pipelineCfg, err := config.LoadPipeline(log)
  if err != nil {
    log.Error("Invalid pipeline configuration", "error", err)
    os.Exit(1)
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  questionItemRepo := repos.NewQuestionItemRepo(thePG, log)
  rubricMappingRepo := repos.NewRubricMappingRepo(thePG, log)
  generationLogRepo := repos.NewGenerationLogRepo(thePG, log)
  validationLogRepo := repos.NewValidationLogRepo(thePG, log)
  errorLogRepo := repos.NewErrorLogRepo(thePG, log)
  ledgerRepo := repos.NewUserQuestionLedgerRepo(thePG, log)
  testSessionRepo := repos.NewTestSessionRepo(thePG, log)
  profileRepo := repos.NewCognitiveProfileRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)

  // Redis is best-effort: without it the item set cache misses everything
  // and lifecycle events go straight to the in-process hub.
  var itemCache redis.ItemSetCache
  itemCache, err = redis.NewItemSetCache(log)
  if err != nil {
    log.Warn("Item set cache unavailable, running without it", "error", err)
    itemCache = redis.NoopItemSetCache{}
  }
  var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
  eventBus, err := redis.NewEventBus(log)
  if err != nil {
    log.Warn("Event bus unavailable, broadcasting in process only", "error", err)
  } else {
    if err := eventBus.StartForwarder(ctx, sseHub.Broadcast); err != nil {
      log.Warn("Event bus forwarder failed to start", "error", err)
    } else {
      emitter = &services.BusEmitter{Bus: eventBus, Log: log}
    }
  }
  notifier := services.NewGenerationNotifier(emitter)

  // Services
  log.Info("Setting up Services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  promptBuilder := services.NewPromptBuilder(log)
  itemGenClient := services.NewItemGenerationClient(log, openaiClient, promptBuilder)
  validator := services.NewItemValidator(pipelineCfg, log)
  batchAllocator := services.NewBatchAllocator(thePG, log)
  fallbackSourcer := services.NewFallbackSourcer(log, questionItemRepo, ledgerRepo)
  generationService := services.NewGenerationService(
    thePG,
    log,
    pipelineCfg,
    batchAllocator,
    itemGenClient,
    validator,
    fallbackSourcer,
    itemCache,
    notifier,
    questionItemRepo,
    rubricMappingRepo,
    generationLogRepo,
    validationLogRepo,
    errorLogRepo,
    ledgerRepo,
  )
  aggregator := services.NewRubricAggregator(log)
  profileService := services.NewProfileService(thePG, log, pipelineCfg, profileRepo)
  assessmentService := services.NewAssessmentService(
    thePG,
    log,
    aggregator,
    profileService,
    userRepo,
    questionItemRepo,
    rubricMappingRepo,
    testSessionRepo,
    ledgerRepo,
  )
  userService := services.NewUserService(thePG, log, userRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  userHandler := handlers.NewUserHandler(userService)
  assessmentHandler := handlers.NewAssessmentHandler(log, generationService, assessmentService, profileService)
  sseHandler := handlers.NewSSEHandler(log, sseHub)

  // Router
  log.Info("Setting up router from main...")
  allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "", log), ",")
  if len(allowOrigins) == 1 && allowOrigins[0] == "" {
    allowOrigins = nil
  }
  router := server.NewRouter(server.RouterConfig{
    ServiceName:       "cogniscan-backend",
    AllowOrigins:      allowOrigins,
    UserHandler:       userHandler,
    AssessmentHandler: assessmentHandler,
    SSEHandler:        sseHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
