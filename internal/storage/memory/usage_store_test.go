package memory

import (
	"context"
	"sync"
	"testing"
)

func TestUsageStore_AddAndGet(t *testing.T) {
	store := NewUsageStore()
	ctx := context.Background()

	total, err := store.Add(ctx, "perm-1|2026-08-30", 400)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if total != 400 {
		t.Errorf("Expected total 400, got %f", total)
	}

	total, err = store.Add(ctx, "perm-1|2026-08-30", 300)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if total != 700 {
		t.Errorf("Expected total 700, got %f", total)
	}

	got, err := store.Get(ctx, "perm-1|2026-08-30")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 700 {
		t.Errorf("Expected 700, got %f", got)
	}
}

func TestUsageStore_AbsentKeyIsZero(t *testing.T) {
	store := NewUsageStore()
	ctx := context.Background()

	got, err := store.Get(ctx, "perm-1|2026-09-01")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 0 {
		t.Errorf("Expected 0 for absent key, got %f", got)
	}
}

func TestUsageStore_ConcurrentAdds(t *testing.T) {
	store := NewUsageStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Add(ctx, "perm-1|2026-08-30", 1)
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "perm-1|2026-08-30")
	if got != 100 {
		t.Errorf("Expected 100 after concurrent adds, got %f", got)
	}
}
