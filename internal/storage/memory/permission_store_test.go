package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/storage"
)

func makePermission(id, agentID string) *domain.WalletPermission {
	return &domain.WalletPermission{
		PermissionID:   id,
		AgentID:        agentID,
		WalletAddress:  "wallet-1",
		IsActive:       true,
		AllowedActions: []domain.PermissionAction{domain.ActionPlaceOrder, domain.ActionClosePosition},
		Limits: domain.PermissionLimits{
			MaxTransactionValue: 500,
			DailyLimit:          1000,
			WeeklyLimit:         5000,
		},
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
}

func TestPermissionStore_InsertAndGet(t *testing.T) {
	store := NewPermissionStore()
	ctx := context.Background()

	p := makePermission("perm-1", "agent-1")
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "perm-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AgentID != "agent-1" {
		t.Errorf("AgentID mismatch: got %s", got.AgentID)
	}
	if len(got.AllowedActions) != 2 {
		t.Errorf("Expected 2 allowed actions, got %d", len(got.AllowedActions))
	}
}

func TestPermissionStore_DuplicateKey(t *testing.T) {
	store := NewPermissionStore()
	ctx := context.Background()

	p := makePermission("perm-1", "agent-1")
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, p)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPermissionStore_GetActiveByAgent(t *testing.T) {
	store := NewPermissionStore()
	ctx := context.Background()

	revoked := makePermission("perm-old", "agent-1")
	revoked.IsActive = false
	active := makePermission("perm-new", "agent-1")

	if err := store.Insert(ctx, revoked); err != nil {
		t.Fatalf("Insert revoked failed: %v", err)
	}
	if err := store.Insert(ctx, active); err != nil {
		t.Fatalf("Insert active failed: %v", err)
	}

	got, err := store.GetActiveByAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetActiveByAgent failed: %v", err)
	}
	if got.PermissionID != "perm-new" {
		t.Errorf("Expected perm-new, got %s", got.PermissionID)
	}

	_, err = store.GetActiveByAgent(ctx, "agent-unknown")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPermissionStore_Revoke(t *testing.T) {
	store := NewPermissionStore()
	ctx := context.Background()

	p := makePermission("perm-1", "agent-1")
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	revokedAt := time.Now()
	if err := store.Revoke(ctx, "perm-1", revokedAt); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	got, err := store.GetByID(ctx, "perm-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsActive {
		t.Error("Expected IsActive=false after revoke")
	}
	if got.RevokedAt == nil || !got.RevokedAt.Equal(revokedAt) {
		t.Errorf("RevokedAt not stamped: %v", got.RevokedAt)
	}

	err = store.Revoke(ctx, "nonexistent", revokedAt)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPermissionStore_SetInactive(t *testing.T) {
	store := NewPermissionStore()
	ctx := context.Background()

	p := makePermission("perm-1", "agent-1")
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.SetInactive(ctx, "perm-1"); err != nil {
		t.Fatalf("SetInactive failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "perm-1")
	if got.IsActive {
		t.Error("Expected IsActive=false")
	}
	// Cleanup deactivation does not stamp revoked_at
	if got.RevokedAt != nil {
		t.Errorf("Expected RevokedAt nil, got %v", got.RevokedAt)
	}
}

func TestPermissionStore_CopyIsolation(t *testing.T) {
	store := NewPermissionStore()
	ctx := context.Background()

	p := makePermission("perm-1", "agent-1")
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "perm-1")
	got.AllowedActions[0] = domain.ActionSwap
	got.IsActive = false

	again, _ := store.GetByID(ctx, "perm-1")
	if again.AllowedActions[0] != domain.ActionPlaceOrder {
		t.Errorf("AllowedActions mutated through returned copy: %s", again.AllowedActions[0])
	}
	if !again.IsActive {
		t.Error("IsActive mutated through returned copy")
	}
}
