package dedup

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_ClaimOnce(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	first, err := store.Claim(context.Background(), "176769352210115")
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if !first {
		t.Fatal("expected first claim to win")
	}

	second, err := store.Claim(context.Background(), "176769352210115")
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if second {
		t.Fatal("expected second claim to lose")
	}
}

func TestMemoryStore_IndependentKeys(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	if first, _ := store.Claim(context.Background(), "a"); !first {
		t.Fatal("expected claim on key a to win")
	}
	if first, _ := store.Claim(context.Background(), "b"); !first {
		t.Fatal("expected claim on key b to win")
	}
}

func TestMemoryStore_ClaimExpires(t *testing.T) {
	now := time.Date(2026, 1, 6, 16, 58, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute).WithClock(func() time.Time { return now })

	if first, _ := store.Claim(context.Background(), "k"); !first {
		t.Fatal("expected initial claim to win")
	}

	now = now.Add(30 * time.Second)
	if first, _ := store.Claim(context.Background(), "k"); first {
		t.Fatal("expected claim within TTL to lose")
	}

	now = now.Add(time.Minute)
	if first, _ := store.Claim(context.Background(), "k"); !first {
		t.Fatal("expected claim after TTL to win again")
	}
}
