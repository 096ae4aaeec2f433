package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/cogniscan-backend/internal/services"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type UserHandler struct {
  userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
  return &UserHandler{userService: userService}
}

func (uh *UserHandler) Register(c *gin.Context) {
  var req struct {
    Email     string `json:"email"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  user, err := uh.userService.Register(c.Request.Context(), &types.User{
    Email:     req.Email,
    FirstName: req.FirstName,
    LastName:  req.LastName,
  })
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, user)
}

func (uh *UserHandler) Get(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("user_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }
  user, err := uh.userService.GetByID(c.Request.Context(), userID)
  if err != nil {
    if errors.Is(err, services.ErrUserNotFound) {
      c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, user)
}
