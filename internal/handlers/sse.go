package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/sse"
)

// SSEHandler streams generation lifecycle events. Clients subscribe to their
// own user id as the channel name.
type SSEHandler struct {
  log *logger.Logger
  hub *sse.SSEHub
}

func NewSSEHandler(baseLog *logger.Logger, hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{log: baseLog.With("handler", "SSEHandler"), hub: hub}
}

func (sh *SSEHandler) Stream(c *gin.Context) {
  userID, err := uuid.Parse(c.Query("user_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return
  }
  client := sh.hub.NewSSEClient(userID)
  sh.hub.AddChannel(client, userID.String())
  defer sh.hub.RemoveClient(client)
  sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
