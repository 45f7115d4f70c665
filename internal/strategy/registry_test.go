package strategy

import (
	"errors"
	"testing"
	"time"

	"agent-control-plane/internal/domain"
)

func momentumConfig(id, owner string) domain.StrategyConfig {
	return domain.StrategyConfig{
		StrategyID:     id,
		OwnerID:        owner,
		Name:           "sol momentum",
		StrategyType:   domain.StrategyTypeMomentum,
		Market:         "SOL-USDC",
		EntryChangePct: f64(5),
		BaseSizeUSD:    f64(200),
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(momentumConfig("strat-1", "user-1")); err != nil {
		t.Fatalf("register: %v", err)
	}

	s, err := r.Get("strat-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := s.(*MomentumStrategy); !ok {
		t.Errorf("expected *MomentumStrategy, got %T", s)
	}

	if _, err := r.Get("strat-missing"); !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("expected ErrStrategyNotFound, got %v", err)
	}
}

func TestRegistryRejectsDuplicatesAndBadConfigs(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(momentumConfig("strat-1", "user-1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(momentumConfig("strat-1", "user-2")); !errors.Is(err, ErrDuplicateStrategy) {
		t.Errorf("expected ErrDuplicateStrategy, got %v", err)
	}

	bad := momentumConfig("strat-2", "user-1")
	bad.EntryChangePct = nil
	if err := r.Register(bad); !errors.Is(err, ErrMissingEntryChangePct) {
		t.Errorf("expected factory error, got %v", err)
	}
	if _, err := r.Get("strat-2"); !errors.Is(err, ErrStrategyNotFound) {
		t.Error("invalid config should not be stored")
	}
}

func TestRegistryUpdateMergesPartialFields(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	if err := r.Register(momentumConfig("strat-1", "user-1")); err != nil {
		t.Fatalf("register: %v", err)
	}

	r.now = func() time.Time { return base.Add(time.Hour) }
	name := "sol momentum v2"
	if err := r.Update("strat-1", Update{Name: &name, EntryChangePct: f64(8)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	cfg, err := r.GetConfig("strat-1")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.Name != "sol momentum v2" {
		t.Errorf("name = %q, patch not applied", cfg.Name)
	}
	if *cfg.EntryChangePct != 8 {
		t.Errorf("entry change = %f, patch not applied", *cfg.EntryChangePct)
	}
	if cfg.Market != "SOL-USDC" {
		t.Errorf("market = %q, untouched field changed", cfg.Market)
	}
	if !cfg.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("updated_at = %v, want bumped to %v", cfg.UpdatedAt, base.Add(time.Hour))
	}
	if !cfg.CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, must not change on update", cfg.CreatedAt)
	}

	// Rebuilt strategy picks up the new parameter
	s, err := r.Get("strat-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.(*MomentumStrategy).EntryChangePct != 8 {
		t.Error("strategy was not rebuilt from the patched config")
	}
}

func TestRegistryUpdateRejectsInvalidPatch(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(momentumConfig("strat-1", "user-1")); err != nil {
		t.Fatalf("register: %v", err)
	}

	empty := ""
	if err := r.Update("strat-1", Update{Market: &empty}); !errors.Is(err, ErrMissingMarket) {
		t.Errorf("expected ErrMissingMarket, got %v", err)
	}

	// Rejected patch leaves the stored config untouched
	cfg, err := r.GetConfig("strat-1")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.Market != "SOL-USDC" {
		t.Error("failed update must not partially apply")
	}

	if err := r.Update("strat-missing", Update{}); !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("expected ErrStrategyNotFound, got %v", err)
	}
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(momentumConfig("strat-1", "user-1")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := r.Delete("strat-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Get("strat-1"); !errors.Is(err, ErrStrategyNotFound) {
		t.Error("deleted strategy should be gone")
	}
	if err := r.Delete("strat-1"); !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("expected ErrStrategyNotFound, got %v", err)
	}
}

func TestRegistryListByOwner(t *testing.T) {
	r := NewRegistry()
	for _, c := range []domain.StrategyConfig{
		momentumConfig("strat-b", "user-1"),
		momentumConfig("strat-a", "user-1"),
		momentumConfig("strat-c", "user-2"),
	} {
		if err := r.Register(c); err != nil {
			t.Fatalf("register %s: %v", c.StrategyID, err)
		}
	}

	got := r.ListByOwner("user-1")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].StrategyID != "strat-a" || got[1].StrategyID != "strat-b" {
		t.Errorf("expected sorted ids, got %s, %s", got[0].StrategyID, got[1].StrategyID)
	}

	if got := r.ListByOwner("user-3"); len(got) != 0 {
		t.Errorf("expected empty list for unknown owner, got %d", len(got))
	}
}
