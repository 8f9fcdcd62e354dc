package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smartswap/backend/internal/domain"
)

func newTestCache(t *testing.T) (*MemoryCache, *time.Time) {
	t.Helper()
	c := NewMemoryCache(time.Hour)
	t.Cleanup(func() { _ = c.Close() })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	tests := []struct {
		name  string
		key   string
		value interface{}
		want  interface{}
	}{
		{name: "string", key: "s", value: "hello", want: "hello"},
		{name: "number becomes float64", key: "n", value: 3, want: float64(3)},
		{name: "vector becomes generic slice", key: "v", value: []float64{0.5, 1}, want: []interface{}{0.5, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(ctx, tt.key, tt.value, time.Minute); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := c.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			gotSlice, isSlice := got.([]interface{})
			if isSlice {
				wantSlice := tt.want.([]interface{})
				if len(gotSlice) != len(wantSlice) {
					t.Fatalf("Get() = %v, want %v", got, tt.want)
				}
				for i := range gotSlice {
					if gotSlice[i] != wantSlice[i] {
						t.Errorf("Get()[%d] = %v, want %v", i, gotSlice[i], wantSlice[i])
					}
				}
				return
			}
			if got != tt.want {
				t.Errorf("Get() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(t)

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	*now = now.Add(30 * time.Second)
	if ok, _ := c.Exists(ctx, "k"); !ok {
		t.Error("Exists() = false before expiry")
	}

	*now = now.Add(time.Minute)
	if _, err := c.Get(ctx, "k"); err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("Exists() = true after expiry")
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d before sweep, want 1", c.Len())
	}
	c.removeExpired()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", c.Len())
	}
}

func TestMemoryCache_MissAndDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if _, err := c.Get(ctx, "missing"); err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}

	_ = c.Set(ctx, "k", "v", time.Minute)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("Exists() = true after Delete")
	}
}

func TestMemoryCache_UnencodableValue(t *testing.T) {
	c, _ := newTestCache(t)
	if err := c.Set(context.Background(), "k", make(chan int), time.Minute); err == nil {
		t.Error("Set() with a channel should fail")
	}
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Millisecond)
	defer c.Close()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, "shared", j, time.Second)
				_, _ = c.Get(ctx, "shared")
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
