package stores

import (
	"context"
	"errors"
	"testing"

	"tienda-web/core"
	"tienda-web/stores/memory"
)

func TestWithQuota_RejectsOversizedValue(t *testing.T) {
	store := WithQuota(memory.NewStore(), 8)
	ctx := context.Background()

	err := store.Save(ctx, &core.Item{VisitorID: "v1", Key: "k", Value: []byte("123456789")})
	if !errors.Is(err, core.ErrQuotaExceeded) {
		t.Fatalf("Save() error = %v, want ErrQuotaExceeded", err)
	}

	if _, err := store.Get(ctx, "v1", "k"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("rejected item should not be stored, Get() error = %v", err)
	}
}

func TestWithQuota_AllowsValueAtLimit(t *testing.T) {
	store := WithQuota(memory.NewStore(), 8)
	ctx := context.Background()

	if err := store.Save(ctx, &core.Item{VisitorID: "v1", Key: "k", Value: []byte("12345678")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	item, err := store.Get(ctx, "v1", "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(item.Value) != "12345678" {
		t.Errorf("value mismatch: got %q", item.Value)
	}
}

func TestWithQuota_DisabledForNonPositiveLimit(t *testing.T) {
	inner := memory.NewStore()
	if got := WithQuota(inner, 0); got != Store(inner) {
		t.Error("WithQuota(0) should return the store unchanged")
	}
}
