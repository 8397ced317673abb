package cache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/tastefeed/server/pkg/config"
)

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "simple key",
			key:      "test",
			expected: "tastefeed:test",
		},
		{
			name:     "key with colon",
			key:      "views:pending",
			expected: "tastefeed:views:pending",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "tastefeed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cache.namespaceKey(tt.key)
			if result != tt.expected {
				t.Errorf("namespaceKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if err := c.HIncrBy(ctx, "h", "f", 1); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("HIncrBy() error = %v, want ErrCacheDisabled", err)
	}
	if _, err := c.DrainHash(ctx, "h"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("DrainHash() error = %v, want ErrCacheDisabled", err)
	}
	if err := c.Health(ctx); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Health() error = %v, want ErrCacheDisabled", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestNewDisabled(t *testing.T) {
	c, err := New(&config.RedisConfig{})
	if err != nil || c != nil {
		t.Errorf("New() = %v, %v, want nil, nil", c, err)
	}
}

// testCache connects to TASTE_TEST_REDIS_URL, skipping when it is unset
func testCache(t *testing.T) *Cache {
	t.Helper()
	url := os.Getenv("TASTE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TASTE_TEST_REDIS_URL not set")
	}
	c, err := New(&config.RedisConfig{URL: url, Enabled: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDrainHash(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	key := "test:drain:" + t.Name()

	got, err := c.DrainHash(ctx, key)
	if err != nil {
		t.Fatalf("DrainHash() on a missing hash error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DrainHash() on a missing hash = %v, want empty", got)
	}

	for _, field := range []string{"1", "1", "2"} {
		if err := c.HIncrBy(ctx, key, field, 1); err != nil {
			t.Fatalf("HIncrBy() error = %v", err)
		}
	}
	got, err = c.DrainHash(ctx, key)
	if err != nil {
		t.Fatalf("DrainHash() error = %v", err)
	}
	if got["1"] != "2" || got["2"] != "1" {
		t.Errorf("DrainHash() = %v, want 1:2 2:1", got)
	}

	got, err = c.DrainHash(ctx, key)
	if err != nil {
		t.Fatalf("DrainHash() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("second DrainHash() = %v, want empty", got)
	}
}

func TestDrainHashLosesNoIncrements(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	key := "test:drain:" + t.Name()
	const writers, perWriter = 8, 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := c.HIncrBy(ctx, key, "post", 1); err != nil {
					t.Errorf("HIncrBy() error = %v", err)
					return
				}
			}
		}()
	}

	var total int64
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	drain := func() {
		got, err := c.DrainHash(ctx, key)
		if err != nil {
			t.Fatalf("DrainHash() error = %v", err)
		}
		if raw, ok := got["post"]; ok {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				t.Fatalf("ParseInt(%q) error = %v", raw, err)
			}
			total += n
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			drain()
		}
	}
	drain()

	if total != writers*perWriter {
		t.Errorf("drained %d increments, want %d", total, writers*perWriter)
	}
}
