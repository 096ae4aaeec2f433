package services

import (
  "context"
  "testing"

  "github.com/google/uuid"

  "github.com/yungbote/cogniscan-backend/internal/params"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

func TestFallbackAllowedPolicies(t *testing.T) {
  log := testLogger(t)
  ledger := &fakeLedgerRepo{}
  sourcer := NewFallbackSourcer(log, &fakeItemRepo{}, ledger)
  userID := uuid.New()

  ok, err := sourcer.Allowed(context.Background(), FallbackAlways, userID)
  if err != nil || !ok {
    t.Fatalf("always: got %v, %v", ok, err)
  }
  ok, err = sourcer.Allowed(context.Background(), FallbackNever, userID)
  if err != nil || ok {
    t.Fatalf("never: got %v, %v", ok, err)
  }

  // first_time_only allows a user with an empty ledger
  ok, err = sourcer.Allowed(context.Background(), FallbackFirstTimeOnly, userID)
  if err != nil || !ok {
    t.Fatalf("first_time_only fresh user: got %v, %v", ok, err)
  }
  // and the empty policy string means first_time_only
  ok, err = sourcer.Allowed(context.Background(), FallbackPolicy(""), userID)
  if err != nil || !ok {
    t.Fatalf("default policy fresh user: got %v, %v", ok, err)
  }

  ledger.servedCnt = 12
  ok, err = sourcer.Allowed(context.Background(), FallbackFirstTimeOnly, userID)
  if err != nil || ok {
    t.Fatalf("first_time_only returning user: got %v, %v", ok, err)
  }

  if _, err := sourcer.Allowed(context.Background(), FallbackPolicy("sometimes"), userID); err == nil {
    t.Fatalf("unknown policy should error")
  }
}

func TestFallbackFetchHonorsLimitAndExclusions(t *testing.T) {
  log := testLogger(t)
  items := &fakeItemRepo{}
  dim := params.DimNumericalSpatial
  a := &types.QuestionItem{ID: uuid.New(), Dimension: dim, Active: true}
  b := &types.QuestionItem{ID: uuid.New(), Dimension: dim, Active: true}
  c := &types.QuestionItem{ID: uuid.New(), Dimension: dim, Active: true}
  items.bank = []*types.QuestionItem{a, b, c}

  sourcer := NewFallbackSourcer(log, items, &fakeLedgerRepo{})
  got, err := sourcer.Fetch(context.Background(), nil, dim, uuid.New(), 2, []uuid.UUID{a.ID})
  if err != nil {
    t.Fatalf("Fetch: %v", err)
  }
  if len(got) != 2 {
    t.Fatalf("expected 2 items, got %d", len(got))
  }
  for _, item := range got {
    if item.ID == a.ID {
      t.Fatalf("excluded item returned")
    }
  }

  got, err = sourcer.Fetch(context.Background(), nil, dim, uuid.New(), 0, nil)
  if err != nil || got != nil {
    t.Fatalf("needed=0 should be a no-op, got %v, %v", got, err)
  }
}
