package bcrypt

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	h := NewWithCost(4)

	hashed, err := h.HashPassword("downward-dog")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hashed == "downward-dog" {
		t.Fatal("Expected a hash, got the plain password")
	}

	if err := h.ComparePassword(hashed, "downward-dog"); err != nil {
		t.Errorf("Expected match, got %v", err)
	}
	if err := h.ComparePassword(hashed, "tree-pose"); !errors.Is(err, ErrMismatch) {
		t.Errorf("Expected ErrMismatch, got %v", err)
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	h := NewWithCost(4)
	if _, err := h.HashPassword(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Expected ErrPasswordTooLong, got %v", err)
	}
}

func TestCostOutOfRangeFallsBack(t *testing.T) {
	h := NewWithCost(99).(*hasher)
	if h.cost != 10 {
		t.Errorf("Expected default cost 10, got %d", h.cost)
	}

	t.Setenv("BCRYPT_COST", "5")
	if got := New().(*hasher).cost; got != 5 {
		t.Errorf("Expected cost from env 5, got %d", got)
	}
}
