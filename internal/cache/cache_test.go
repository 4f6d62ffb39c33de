package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("openai", "The Earth is flat.")
	k2 := CacheKey("openai", "The Earth is flat.")
	k3 := CacheKey("anthropic", "The Earth is flat.")

	if k1 != k2 {
		t.Errorf("Expected stable key, got %s and %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("Expected different providers to produce different keys")
	}
	if !strings.HasPrefix(k1, "corroborate:v1:") {
		t.Errorf("Expected versioned prefix, got %s", k1)
	}

	// Part boundaries matter
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("Expected part boundaries to change the key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Expected v, got %q (found=%v)", val, found)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), time.Millisecond)

	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("wikipedia", "Water boils at 100 degrees.")

	if err := c.Set(key, []byte(`{"verdict":true}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get(key)
	if !found {
		t.Fatal("Expected hit after set")
	}
	if string(val) != `{"verdict":true}` {
		t.Errorf("Unexpected value: %s", val)
	}

	// A fresh instance on the same directory sees the entry
	reopened := NewDiskCache(dir, time.Hour)
	if _, found := reopened.Get(key); !found {
		t.Error("Expected entry to persist across instances")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	_ = c.Set("k", []byte("v"), time.Hour)

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, found := c.Get("k"); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache_Clear(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected miss after clear")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []byte("v"), 0)

	c := NewLayeredCache(time.Minute, dir, time.Hour)

	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", val, found)
	}

	if _, found := c.memory.Get("k"); !found {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestLayeredCache_DeleteMissing(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	if err := c.Delete("never-set"); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Errorf("Expected nil cache when disabled, got %T", c)
	}

	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a disk directory")
	}

	c := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute, DiskDir: t.TempDir(), DiskTTL: time.Hour})
	if _, ok := c.(*LayeredCache); !ok {
		t.Errorf("Expected layered cache, got %T", c)
	}
}
