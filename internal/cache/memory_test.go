package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	defer s.Close()

	ctx := context.Background()
	key := "dish:poha:preview"
	val := []byte(`{"calories":180}`)

	if err := s.Set(ctx, key, val, 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatalf("expected hit immediately after Set")
	}
	if string(got) != string(val) {
		t.Fatalf("expected %q, got %q", val, got)
	}

	// Wait for TTL to expire
	time.Sleep(30 * time.Millisecond)

	_, hit, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after TTL failed: %v", err)
	}
	if hit {
		t.Fatalf("expected miss after TTL expiry")
	}
}

func TestMemoryStore_SetZeroTTLDeletes(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	ctx := context.Background()
	key := "dish:rajma:image"

	if err := s.Set(ctx, key, []byte("url"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, key, []byte("url"), 0); err != nil {
		t.Fatalf("Set with zero TTL failed: %v", err)
	}

	if _, hit, _ := s.Get(ctx, key); hit {
		t.Fatalf("expected key removed after zero-TTL Set")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d items", s.Len())
	}
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	ctx := context.Background()
	for _, key := range []string{
		"dish:rajma:preview",
		"dish:rajma:image",
		"dish:rajma:captions",
		"dish:poha:preview",
	} {
		if err := s.Set(ctx, key, []byte("x"), time.Hour); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	removed, err := s.DeletePrefix(ctx, "dish:rajma:")
	if err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	if _, hit, _ := s.Get(ctx, "dish:poha:preview"); !hit {
		t.Fatalf("unrelated key should survive prefix delete")
	}
}

func TestMemoryStore_SweepExpired(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	defer s.Close()

	ctx := context.Background()
	base := time.Now()
	s.now = func() time.Time { return base }

	if err := s.Set(ctx, "dish:poha:preview", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "dish:poha:image", []byte("x"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// jump past the first entry's expiry but not the second's
	s.now = func() time.Time { return base.Add(10 * time.Minute) }

	removed, err := s.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, hit, _ := s.Get(ctx, "dish:poha:image"); !hit {
		t.Fatalf("unexpired entry should survive sweep")
	}
}
