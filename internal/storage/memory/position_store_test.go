package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

func TestPositionStore_InsertAndGetByAgent(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	positions := []*domain.Position{
		{PositionID: "p2", AgentID: "agent-1", Market: "ETH-USDC", OpenedAt: time.Unix(2000, 0)},
		{PositionID: "p1", AgentID: "agent-1", Market: "SOL-USDC", OpenedAt: time.Unix(1000, 0)},
		{PositionID: "p3", AgentID: "agent-2", Market: "BTC-USDC", OpenedAt: time.Unix(3000, 0)},
	}
	for _, p := range positions {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert %s failed: %v", p.PositionID, err)
		}
	}

	got, err := store.GetByAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetByAgent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(got))
	}
	if got[0].PositionID != "p1" || got[1].PositionID != "p2" {
		t.Errorf("Expected order p1, p2; got %s, %s", got[0].PositionID, got[1].PositionID)
	}
}

func TestPositionStore_Delete(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := &domain.Position{PositionID: "p1", AgentID: "agent-1", Market: "SOL-USDC"}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	err := store.Delete(ctx, "p1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPositionStore_DeleteByAgent(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	for i, id := range []string{"p1", "p2", "p3"} {
		p := &domain.Position{
			PositionID: id,
			AgentID:    "agent-1",
			Market:     "SOL-USDC",
			Amount:     10,
			EntryPrice: float64(100 + i),
			OpenedAt:   time.Unix(int64(1000*(i+1)), 0),
		}
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}
	other := &domain.Position{PositionID: "px", AgentID: "agent-2", Market: "BTC-USDC"}
	if err := store.Insert(ctx, other); err != nil {
		t.Fatalf("Insert px failed: %v", err)
	}

	removed, err := store.DeleteByAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("DeleteByAgent failed: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("Expected 3 removed, got %d", len(removed))
	}
	if removed[0].PositionID != "p1" {
		t.Errorf("Expected p1 first, got %s", removed[0].PositionID)
	}

	// agent-1 has no positions left; agent-2 untouched
	left, _ := store.GetByAgent(ctx, "agent-1")
	if len(left) != 0 {
		t.Errorf("Expected empty position list, got %d", len(left))
	}
	kept, _ := store.GetByAgent(ctx, "agent-2")
	if len(kept) != 1 {
		t.Errorf("Expected agent-2 position kept, got %d", len(kept))
	}
}
