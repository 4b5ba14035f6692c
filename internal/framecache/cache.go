// Package framecache maintains per-source directories of JPEG thumbnails
// extracted at regular intervals, for instant scrubbing previews. Lookups
// binary-search the millisecond-encoded filenames; disk usage is bounded by
// evicting the least recently used source directories.
package framecache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
)

const (
	// DefaultMaxDiskBytes bounds the cache directory on disk.
	DefaultMaxDiskBytes = 512 << 20

	// DefaultIntervalMs is the extraction grid.
	DefaultIntervalMs = 1000

	// DefaultThumbWidth is the thumbnail width; height follows aspect.
	DefaultThumbWidth = 640

	// nearestThresholdMs is how far a lookup may land from the requested
	// position before reporting a miss.
	nearestThresholdMs = 2000
)

// ErrCacheMiss reports a lookup with no close-enough frame. Non-fatal:
// callers fall back to live extraction.
var ErrCacheMiss = fmt.Errorf("frame cache miss")

// Cache is a session-scoped thumbnail store under the system temp dir.
type Cache struct {
	mu       sync.Mutex
	root     string
	tempDir  string
	maxBytes int64

	// access orders source hashes oldest-first for eviction.
	access []string
	bytes  map[string]int64
}

// New creates the cache. The backing directory is created lazily.
func New(tempDir string, maxBytes int64) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDiskBytes
	}
	return &Cache{tempDir: tempDir, maxBytes: maxBytes, bytes: map[string]int64{}}
}

// Root returns the session cache directory, creating it on first use.
func (c *Cache) Root() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rootLocked()
}

func (c *Cache) rootLocked() (string, error) {
	if c.root != "" {
		return c.root, nil
	}
	dir, err := os.MkdirTemp(c.tempDir, "fmm_framecache_")
	if err != nil {
		return "", err
	}
	c.root = dir
	return dir, nil
}

// Cleanup removes the whole cache directory. Called on clean shutdown;
// recovery scans tolerate orphan directories left by a crash.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.root != "" {
		_ = os.RemoveAll(c.root)
		c.root = ""
		c.access = nil
		c.bytes = map[string]int64{}
	}
}

func sourceHash(sourcePath string) string {
	sum := md5.Sum([]byte(sourcePath))
	return hex.EncodeToString(sum[:])[:12]
}

// sourceDir returns the per-source subdirectory, updating LRU order and
// evicting older sources until the disk budget holds.
func (c *Cache) sourceDir(sourcePath string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	root, err := c.rootLocked()
	if err != nil {
		return "", err
	}
	h := sourceHash(sourcePath)
	dir := filepath.Join(root, h)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	for i, existing := range c.access {
		if existing == h {
			c.access = append(c.access[:i], c.access[i+1:]...)
			break
		}
	}
	c.access = append(c.access, h)
	c.evictLocked()
	return dir, nil
}

func (c *Cache) evictLocked() {
	var total int64
	for _, b := range c.bytes {
		total += b
	}
	for total > c.maxBytes && len(c.access) > 1 {
		oldest := c.access[0]
		c.access = c.access[1:]
		total -= c.bytes[oldest]
		delete(c.bytes, oldest)
		_ = os.RemoveAll(filepath.Join(c.root, oldest))
	}
}

// DiskBytes reports the tracked on-disk footprint.
func (c *Cache) DiskBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, b := range c.bytes {
		total += b
	}
	return total
}

// framePath encodes a frame position into its filename.
func framePath(dir string, ms int64) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%09d.jpg", ms))
}

// msFromFrameName decodes "frame_000001000.jpg" back to 1000.
func msFromFrameName(name string) (int64, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".jpg")
	num, ok := strings.CutPrefix(base, "frame_")
	if !ok {
		return 0, false
	}
	ms, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

// IsCached reports whether any frames exist for the source.
func (c *Cache) IsCached(sourcePath string) bool {
	dir, err := c.sourceDir(sourcePath)
	if err != nil {
		return false
	}
	entries, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	return err == nil && len(entries) > 0
}

// NearestFrame returns the cached JPEG closest to sourceMs, or ErrCacheMiss
// when nothing is within the threshold. Binary search over the sorted
// ms-encoded filenames.
func (c *Cache) NearestFrame(sourcePath string, sourceMs int64) (string, error) {
	dir, err := c.sourceDir(sourcePath)
	if err != nil {
		return "", err
	}
	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil || len(frames) == 0 {
		return "", ErrCacheMiss
	}
	sort.Strings(frames)

	idx := sort.Search(len(frames), func(i int) bool {
		ms, _ := msFromFrameName(frames[i])
		return ms >= sourceMs
	})

	best := ""
	bestDist := int64(1<<62 - 1)
	for _, i := range []int{idx - 1, idx} {
		if i < 0 || i >= len(frames) {
			continue
		}
		ms, ok := msFromFrameName(frames[i])
		if !ok {
			continue
		}
		dist := ms - sourceMs
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = frames[i], dist
		}
	}
	if best == "" || bestDist > nearestThresholdMs {
		return "", ErrCacheMiss
	}
	return best, nil
}

// ExtractFrames populates the cache for a source by batch-extracting frames
// on the interval grid with the fps filter, then renaming the sequential
// output onto ms-encoded names. Returns the number of frames extracted.
// Cancellation is checked between extraction and renaming.
func (c *Cache) ExtractFrames(
	ctx context.Context,
	sourcePath string,
	intervalMs int64,
	onProgress func(done, total int),
) (int, error) {
	if intervalMs <= 0 {
		intervalMs = DefaultIntervalMs
	}
	dir, err := c.sourceDir(sourcePath)
	if err != nil {
		return 0, err
	}

	ffmpegPath, err := ffmpegproc.FFmpegPath()
	if err != nil {
		return 0, err
	}

	fpsValue := 1000.0 / float64(intervalMs)
	err = ffmpeg.Input(sourcePath).
		Output(filepath.Join(dir, "seq_%06d.jpg"), ffmpeg.KwArgs{
			"vf":       fmt.Sprintf("fps=%g,scale=%d:-1", fpsValue, DefaultThumbWidth),
			"q:v":      5,
			"fps_mode": "vfr",
		}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("frame extraction failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seq, err := filepath.Glob(filepath.Join(dir, "seq_*.jpg"))
	if err != nil {
		return 0, err
	}
	sort.Strings(seq)

	var diskBytes int64
	for i, p := range seq {
		ms := int64(i) * intervalMs
		dest := framePath(dir, ms)
		if err := os.Rename(p, dest); err != nil {
			return i, err
		}
		if info, err := os.Stat(dest); err == nil {
			diskBytes += info.Size()
		}
		if onProgress != nil {
			onProgress(i+1, len(seq))
		}
	}

	c.mu.Lock()
	c.bytes[sourceHash(sourcePath)] = diskBytes
	c.evictLocked()
	c.mu.Unlock()
	return len(seq), nil
}
