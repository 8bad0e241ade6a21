package cache_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/cache"
)

func TestCacheNew(t *testing.T) {
	c := cache.New[int](10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New[int](0)
	if got := c.Capacity(); got != 256 {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New[string](4)
	c.Set("k", "v")
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "v" {
		t.Fatalf("expected %q, got %q", "v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New[string](4)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New[string](3)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, k)
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal(`expected "a" to be evicted (LRU)`)
	}
	if _, ok := c.Get("d"); !ok {
		t.Fatal(`expected most-recently-inserted "d" to survive`)
	}
}

func TestCacheGetKeepsRecentlyUsedAlive(t *testing.T) {
	c := cache.New[string](2)
	c.Set("a", "a")
	c.Set("b", "b")
	c.Get("a") // touch "a" so "b" becomes the LRU entry
	c.Set("c", "c")
	if _, ok := c.Get("b"); ok {
		t.Fatal(`expected "b" to be evicted, not "a"`)
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal(`expected "a" to survive (recently touched)`)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := cache.New[string](4)
	c.Set("k", "v")
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}
}

func TestCacheClear(t *testing.T) {
	c := cache.New[string](4)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, k)
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected 0 after Clear, got %d", got)
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New[string](4)
	callCount := 0
	compile := func() (string, error) {
		callCount++
		return "compiled", nil
	}

	v1, err := c.GetOrCompile("k", compile)
	if err != nil || v1 != "compiled" {
		t.Fatalf("first GetOrCompile: %v %q", err, v1)
	}
	if callCount != 1 {
		t.Fatalf("expected 1 compile call, got %d", callCount)
	}

	v2, err := c.GetOrCompile("k", compile)
	if err != nil || v2 != "compiled" {
		t.Fatalf("second GetOrCompile: %v %q", err, v2)
	}
	if callCount != 1 {
		t.Fatalf("expected still 1 call (cached), got %d", callCount)
	}
}

func TestCacheGetOrCompileDoesNotCacheErrors(t *testing.T) {
	c := cache.New[string](4)
	wantErr := errString("boom")
	_, err := c.GetOrCompile("k", func() (string, error) { return "", wantErr })
	if err != wantErr {
		t.Fatalf("expected error to propagate, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected a failed compile not to be cached, got %d entries", c.Len())
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestCacheSetUpdate(t *testing.T) {
	c := cache.New[string](4)
	c.Set("k", "v1")
	c.Set("k", "v2")
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after overwrite")
	}
	if got != "v2" {
		t.Fatalf("expected updated value %q, got %q", "v2", got)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", c.Len())
	}
}
