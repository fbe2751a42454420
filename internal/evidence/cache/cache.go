// Package cache implements the URL Cache (C5): a persistent
// key→{summary, raw, ts} store with TTL and stats. The in-memory shape
// (RWMutex-guarded map, TTL-on-read expiry) is grounded on
// TicoDavid-RAGbox.co/internal/cache/embedding.go's EmbeddingCache;
// layered on top is the spec's required single-file JSON persistence
// with an Nth-put flush and corrupt-file-rename recovery on startup,
// which RAGbox's embedding cache (in-memory only) does not need.
package cache

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"veritas/internal/config"
	"veritas/internal/domain/models/memory"
)

// defaultTrackingParams is the deny-list of query keys stripped during
// URL normalization (spec §4.5: "strip tracking query parameters from a
// configured deny-list").
var defaultTrackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {},
	"utm_content": {}, "gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
	"ref": {}, "ref_src": {},
}

// document is the single on-disk JSON document the cache serializes to.
type document struct {
	Entries map[string]memory.CacheEntry `json:"entries"`
	Stats   memory.CacheStats            `json:"stats"`
}

// Cache is the URL Cache (C5): single-writer, multi-reader, TTL-enforced
// on read, periodically flushed to a single JSON document on disk.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]memory.CacheEntry
	stats   memory.CacheStats
	ttl     time.Duration
	path    string
	puts    int64
	logger  *slog.Logger
}

// New constructs a Cache backed by path, loading any existing document
// (renaming it aside if corrupt) and starting with ttl for new entries.
func New(path string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		entries: make(map[string]memory.CacheEntry),
		ttl:     ttl,
		path:    path,
		logger:  logger,
	}
	c.load()
	return c
}

func (c *Cache) load() {
	if c.path == "" {
		return
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("url cache: failed reading cache file", "path", c.path, "error", err)
		}
		return
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.quarantine(err)
		return
	}
	if doc.Entries != nil {
		c.entries = doc.Entries
	}
	c.stats = doc.Stats
	c.logger.Info("url cache: loaded", "path", c.path, "entries", len(c.entries))
}

// quarantine renames a corrupt cache file aside and starts fresh (spec
// §4.5: "On startup, a corrupt file is renamed aside and a fresh cache
// is started").
func (c *Cache) quarantine(cause error) {
	bad := c.path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.Rename(c.path, bad); err != nil {
		c.logger.Error("url cache: failed quarantining corrupt file", "path", c.path, "error", err)
		return
	}
	c.logger.Warn("url cache: corrupt cache file quarantined", "original", c.path, "quarantined", bad, "cause", cause)
}

// NormalizeURL lowercases the host, strips the fragment, drops
// deny-listed tracking query parameters, and sorts the remaining query
// keys — the canonical key space for Get/Put/Invalidate (spec §4.5).
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if _, tracked := defaultTrackingParams[strings.ToLower(key)]; tracked {
				q.Del(key)
			}
		}
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sorted := url.Values{}
		for _, k := range keys {
			for _, v := range q[k] {
				sorted.Add(k, v)
			}
		}
		u.RawQuery = sorted.Encode()
	}
	return u.String()
}

// Get returns the cache entry for url if present and not expired.
func (c *Cache) Get(rawURL string) (memory.CacheEntry, bool) {
	key := NormalizeURL(rawURL)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.stats.Misses++
		c.mu.Unlock()
		return memory.CacheEntry{}, false
	}
	if entry.Expired(time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.stats.Entries = len(c.entries)
		c.mu.Unlock()
		return memory.CacheEntry{}, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return entry, true
}

// Put stores summary/raw text for url, stamped with now, and flushes to
// disk every config.CacheFlushEveryNPuts calls (spec §4.5).
func (c *Cache) Put(rawURL, summary, raw string, now time.Time) {
	key := NormalizeURL(rawURL)
	entry := memory.CacheEntry{
		URL:              key,
		Summary:          summary,
		RawTextTruncated: raw,
		SummaryBytes:     len(summary),
		RawBytes:         len(raw),
		CreatedAt:        now,
		ExpiresAt:        now.Add(c.ttl),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.stats.Entries = len(c.entries)
	c.puts++
	shouldFlush := c.puts%config.CacheFlushEveryNPuts == 0
	c.mu.Unlock()

	if shouldFlush {
		c.flush()
	}
}

// Invalidate removes url's entry if present.
func (c *Cache) Invalidate(rawURL string) {
	key := NormalizeURL(rawURL)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Entries = len(c.entries)
		c.stats.Evictions++
	}
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() memory.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Flush serializes the cache to its single on-disk JSON document. Called
// periodically via Put and unconditionally on Close (spec §4.5:
// "serializes to a single on-disk document at process shutdown and on
// every Nth put").
func (c *Cache) Flush() { c.flush() }

// Close flushes the cache one final time. Call on process shutdown.
func (c *Cache) Close() error {
	return c.flushErr()
}

func (c *Cache) flush() {
	if err := c.flushErr(); err != nil {
		c.logger.Error("url cache: flush failed", "path", c.path, "error", err)
	}
}

func (c *Cache) flushErr() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	doc := document{Entries: c.entries, Stats: c.stats}
	c.mu.RUnlock()

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
