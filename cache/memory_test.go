package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if string(got) != "v" {
		t.Errorf("Get() = %q, want %q", got, "v")
	}
}

func TestMemoryCache_ZeroTTLNotStored(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() hit, want miss for TTL=0")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), time.Second)
	now = now.Add(2 * time.Second)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() hit after expiry, want miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry evicted", c.Len())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() hit after delete")
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	in := []byte("abc")
	_ = c.Set(ctx, "k", in, time.Minute)
	in[0] = 'x'

	got, _ := c.Get(ctx, "k")
	got[1] = 'y'

	again, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated: %q", again)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"valid", "secret:api_key", nil},
		{"empty", "", ErrInvalidKey},
		{"blank", "   ", ErrInvalidKey},
		{"newline", "a\nb", ErrInvalidKey},
		{"nul", "a\x00b", ErrInvalidKey},
		{"too long", strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateKey(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("ValidateKey() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMemoryCache_SetRejectsInvalidKey(t *testing.T) {
	c := NewMemoryCache()
	if err := c.Set(context.Background(), "", []byte("v"), time.Minute); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set() error = %v, want ErrInvalidKey", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "k", []byte("v"), time.Minute)
			_, _ = c.Get(ctx, "k")
			_ = c.Delete(ctx, "k")
		}()
	}
	wg.Wait()
}
