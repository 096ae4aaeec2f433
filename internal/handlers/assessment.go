package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/services"
)

type AssessmentHandler struct {
  log        *logger.Logger
  generation services.GenerationService
  assessment services.AssessmentService
  profiles   services.ProfileService
}

func NewAssessmentHandler(baseLog *logger.Logger, generation services.GenerationService, assessment services.AssessmentService, profiles services.ProfileService) *AssessmentHandler {
  return &AssessmentHandler{
    log:        baseLog.With("handler", "AssessmentHandler"),
    generation: generation,
    assessment: assessment,
    profiles:   profiles,
  }
}

func (h *AssessmentHandler) Generate(c *gin.Context) {
  var req struct {
    UserID         uuid.UUID      `json:"user_id"`
    Targets        map[string]int `json:"targets"`
    FallbackPolicy string         `json:"fallback_policy"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if req.UserID == uuid.Nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
    return
  }
  result, err := h.generation.Generate(c.Request.Context(), req.UserID, req.Targets, services.FallbackPolicy(req.FallbackPolicy))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, result)
}

func (h *AssessmentHandler) Submit(c *gin.Context) {
  var req services.SubmitInput
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  result, err := h.assessment.Submit(c.Request.Context(), req)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrUserNotFound):
      c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    case errors.Is(err, services.ErrSessionExists):
      c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
    default:
      c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    }
    return
  }
  c.JSON(http.StatusOK, result)
}

func (h *AssessmentHandler) RetireQuestions(c *gin.Context) {
  var req struct {
    QuestionIDs []uuid.UUID `json:"question_ids"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if len(req.QuestionIDs) == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "question_ids is required"})
    return
  }
  if err := h.generation.RetireItems(c.Request.Context(), req.QuestionIDs); err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"retired": len(req.QuestionIDs)})
}

func (h *AssessmentHandler) GetProfile(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("user_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }
  profile, err := h.profiles.GetByUserID(c.Request.Context(), userID)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }
  if profile == nil {
    c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
    return
  }
  c.JSON(http.StatusOK, profile)
}
