package permission

import (
	"errors"
	"testing"
)

func TestRegistryRegisterAndFreeze(t *testing.T) {
	r, err := NewRegistry("orders:read", "orders:read", "coupon:write")
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if r.Count() != 2 {
		t.Fatalf("expected 2 names, got %d", r.Count())
	}
	if !r.Has("coupon:write") || r.Has("coupon:read") {
		t.Fatal("unexpected membership")
	}

	r.Freeze()
	if err := r.Register("late"); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "orders:read" || names[1] != "coupon:write" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestRegistryRejectsInvalidNames(t *testing.T) {
	r, _ := NewRegistry()
	if err := r.Register(""); !errors.Is(err, ErrEmptyPermission) {
		t.Fatalf("expected ErrEmptyPermission, got %v", err)
	}
	if err := r.Register(WildcardValue); !errors.Is(err, ErrWildcardNotDeclarable) {
		t.Fatalf("expected ErrWildcardNotDeclarable, got %v", err)
	}
}
