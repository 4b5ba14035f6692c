package waveform

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxBytes bounds the in-memory waveform cache.
const DefaultMaxBytes = 256 << 20

// Cache keeps computed waveforms in memory, keyed by file content hash and
// bounded by a byte budget. Eviction is synchronous on insertion overflow.
type Cache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, *Data]
	bytes    int64
	maxBytes int64
}

// NewCache builds a cache bounded at maxBytes (DefaultMaxBytes when <= 0).
func NewCache(maxBytes int64) (*Cache, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	c := &Cache{maxBytes: maxBytes}
	// The entry-count bound is a backstop; the byte budget governs.
	entries, err := lru.NewWithEvict[string, *Data](4096, func(_ string, d *Data) {
		c.bytes -= d.SizeBytes()
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// Key hashes file content so a re-extracted WAV with identical audio hits
// the cache regardless of its temp path.
func Key(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// Get returns the cached waveform for key, if present.
func (c *Cache) Get(key string) (*Data, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Put stores a waveform and evicts least-recently-used entries until the
// budget holds. A waveform larger than the whole budget is rejected.
func (c *Cache) Put(key string, data *Data) error {
	size := data.SizeBytes()
	if size > c.maxBytes {
		return fmt.Errorf("waveform of %d bytes exceeds cache budget %d", size, c.maxBytes)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Remove fires the evict callback, which settles the byte count for a
	// replaced entry.
	c.entries.Remove(key)
	c.entries.Add(key, data)
	c.bytes += size
	for c.bytes > c.maxBytes {
		if _, _, ok := c.entries.RemoveOldest(); !ok {
			break
		}
	}
	return nil
}

// SizeBytes reports the bytes currently held.
func (c *Cache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Len reports the entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
