package services

import (
  "context"

  "github.com/google/uuid"

  redisclient "github.com/yungbote/cogniscan-backend/internal/clients/redis"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/sse"
)

type SSEEmitter interface {
  Emit(ctx context.Context, msg sse.SSEMessage)
}

type HubEmitter struct{ Hub *sse.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
  e.Hub.Broadcast(msg)
}

type BusEmitter struct {
  Bus redisclient.EventBus
  Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
  if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
    e.Log.Warn("event bus publish failed", "event", msg.Event, "error", err)
  }
}

// GenerationNotifier emits the five generation lifecycle events. Delivery
// is fire-and-forget; a nil emitter or nil user silently no-ops so the
// pipeline never blocks or fails on notification.
type GenerationNotifier interface {
  GenerationStarted(userID uuid.UUID, batch BatchRef, note string)
  DimensionProgress(userID uuid.UUID, batch BatchRef, dimension string, accepted, target int, note string)
  ValidationEvent(userID uuid.UUID, batch BatchRef, dimension string, reason string, note string)
  BackupInvoked(userID uuid.UUID, batch BatchRef, dimension string, note string)
  GenerationCompleted(userID uuid.UUID, batch BatchRef, note string)
}

type generationNotifier struct {
  emit SSEEmitter
}

func NewGenerationNotifier(emit SSEEmitter) GenerationNotifier {
  return &generationNotifier{emit: emit}
}

func (n *generationNotifier) send(userID uuid.UUID, event sse.SSEEvent, data map[string]any) {
  if n == nil || n.emit == nil || userID == uuid.Nil {
    return
  }
  n.emit.Emit(context.Background(), sse.SSEMessage{
    Channel: userID.String(),
    Event:   event,
    Data:    data,
  })
}

func (n *generationNotifier) GenerationStarted(userID uuid.UUID, batch BatchRef, note string) {
  n.send(userID, sse.SSEEventGenerationStarted, map[string]any{
    "batch_id":  batch.ID,
    "batch_key": batch.Key,
    "dimension": "",
    "note":      note,
  })
}

func (n *generationNotifier) DimensionProgress(userID uuid.UUID, batch BatchRef, dimension string, accepted, target int, note string) {
  n.send(userID, sse.SSEEventDimensionProgress, map[string]any{
    "batch_id":  batch.ID,
    "batch_key": batch.Key,
    "dimension": dimension,
    "accepted":  accepted,
    "target":    target,
    "note":      note,
  })
}

func (n *generationNotifier) ValidationEvent(userID uuid.UUID, batch BatchRef, dimension string, reason string, note string) {
  n.send(userID, sse.SSEEventValidationEvent, map[string]any{
    "batch_id":  batch.ID,
    "batch_key": batch.Key,
    "dimension": dimension,
    "reason":    reason,
    "note":      note,
  })
}

func (n *generationNotifier) BackupInvoked(userID uuid.UUID, batch BatchRef, dimension string, note string) {
  n.send(userID, sse.SSEEventBackupInvoked, map[string]any{
    "batch_id":  batch.ID,
    "batch_key": batch.Key,
    "dimension": dimension,
    "note":      note,
  })
}

func (n *generationNotifier) GenerationCompleted(userID uuid.UUID, batch BatchRef, note string) {
  n.send(userID, sse.SSEEventGenerationCompleted, map[string]any{
    "batch_id":  batch.ID,
    "batch_key": batch.Key,
    "dimension": "",
    "note":      note,
  })
}
