package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeURL_StripsTrackingParamsAndFragment(t *testing.T) {
	got := NormalizeURL("https://Example.com/path?b=2&utm_source=newsletter&a=1#section")
	want := "https://example.com/path?a=1&b=2"
	if got != want {
		t.Errorf("NormalizeURL() = %q, want %q", got, want)
	}
}

func TestNormalizeURL_SortsRemainingQueryKeys(t *testing.T) {
	got := NormalizeURL("https://example.com/x?z=1&a=2&m=3")
	want := "https://example.com/x?a=2&m=3&z=1"
	if got != want {
		t.Errorf("NormalizeURL() = %q, want %q", got, want)
	}
}

func TestCache_PutThenGet_Idempotent(t *testing.T) {
	c := New("", time.Hour, nil)

	c.Put("https://example.com/a?utm_source=x", "summary", "raw", time.Now())
	entry, ok := c.Get("https://example.com/a")
	if !ok {
		t.Fatal("expected a cache hit after Put")
	}
	if entry.Summary != "summary" {
		t.Errorf("Summary = %q, want %q", entry.Summary, "summary")
	}

	// A second Put with the same normalized key overwrites, not appends.
	c.Put("https://example.com/a", "summary2", "raw2", time.Now())
	entry, ok = c.Get("https://example.com/a?utm_source=y")
	if !ok {
		t.Fatal("expected a cache hit for an equivalent URL after tracking-param stripping")
	}
	if entry.Summary != "summary2" {
		t.Errorf("Summary = %q, want %q", entry.Summary, "summary2")
	}
	if got := c.Stats().Entries; got != 1 {
		t.Errorf("Stats().Entries = %d, want 1 (overwrite, not append)", got)
	}
}

func TestCache_Get_ExpiredEntryIsEvicted(t *testing.T) {
	c := New("", time.Millisecond, nil)
	c.Put("https://example.com/a", "summary", "raw", time.Now().Add(-time.Hour))

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Fatal("expected a miss for an expired entry")
	}
	stats := c.Stats()
	if stats.Evictions == 0 {
		t.Error("expected Expired() to count as an eviction")
	}
	if stats.Misses == 0 {
		t.Error("expected Expired() to count as a miss")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New("", time.Hour, nil)
	c.Put("https://example.com/a", "summary", "raw", time.Now())

	c.Invalidate("https://example.com/a")

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Fatal("expected a miss after Invalidate")
	}
}

func TestCache_FlushAndReload_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	c := New(path, time.Hour, nil)
	c.Put("https://example.com/a", "summary", "raw", time.Now())
	c.Flush()

	reloaded := New(path, time.Hour, nil)
	entry, ok := reloaded.Get("https://example.com/a")
	if !ok {
		t.Fatal("expected the reloaded cache to contain the flushed entry")
	}
	if entry.Summary != "summary" {
		t.Errorf("Summary = %q, want %q", entry.Summary, "summary")
	}
}

func TestCache_New_QuarantinesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := New(path, time.Hour, nil)

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Fatal("expected a fresh, empty cache after quarantining a corrupt file")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var foundQuarantined bool
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" && e.Name() != "cache.json" {
			foundQuarantined = true
		}
	}
	if !foundQuarantined {
		t.Error("expected the corrupt file to be renamed aside, not left in place")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected the original corrupt path to no longer exist")
	}
}
