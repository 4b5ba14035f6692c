// Package library keeps the persistent registry of user-imported media and
// overlay templates: a JSON index plus probed metadata and thumbnails
// gathered once at import time.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
)

// MediaKind classifies a library entry.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindImage MediaKind = "image"
	KindAudio MediaKind = "audio"
)

var (
	videoExts = map[string]bool{".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true}
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true}
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".aac": true, ".flac": true, ".ogg": true, ".m4a": true}
)

// KindOf classifies a path by extension, "" when unsupported.
func KindOf(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExts[ext]:
		return KindVideo
	case imageExts[ext]:
		return KindImage
	case audioExts[ext]:
		return KindAudio
	default:
		return ""
	}
}

// MediaItem is one library entry.
type MediaItem struct {
	ID            string    `json:"id"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	Kind          MediaKind `json:"kind"`
	AddedAt       time.Time `json:"added_at"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	DurationMs    int64     `json:"duration_ms,omitempty"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	Favorite      bool      `json:"favorite,omitempty"`
}

// Library is the media registry rooted at a directory:
//
//	<dir>/index.json
//	<dir>/thumbs/<id>.jpg
type Library struct {
	dir    string
	runner *ffmpegproc.Runner
	items  []MediaItem
}

// Open loads (or initializes) the library at dir. runner may be nil; probing
// and thumbnails are then skipped.
func Open(dir string, runner *ffmpegproc.Runner) (*Library, error) {
	l := &Library{dir: dir, runner: runner}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) indexPath() string { return filepath.Join(l.dir, "index.json") }
func (l *Library) thumbsDir() string { return filepath.Join(l.dir, "thumbs") }

type indexDoc struct {
	Items []MediaItem `json:"items"`
}

func (l *Library) load() error {
	raw, err := os.ReadFile(l.indexPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var doc indexDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt index starts the library fresh rather than blocking it.
		l.items = nil
		return nil
	}
	l.items = doc.Items
	return nil
}

func (l *Library) save() error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(indexDoc{Items: l.items}, "", "  ")
	if err != nil {
		return err
	}
	tmp := l.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, l.indexPath())
}

// Add imports a file. Duplicate absolute paths return the existing entry.
// Metadata and the thumbnail are probed once, here.
func (l *Library) Add(ctx context.Context, path string) (MediaItem, error) {
	kind := KindOf(path)
	if kind == "" {
		return MediaItem{}, fmt.Errorf("unsupported media type: %s", filepath.Ext(path))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return MediaItem{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		return MediaItem{}, err
	}
	for _, item := range l.items {
		if item.FilePath == abs {
			return item, nil
		}
	}

	item := MediaItem{
		ID:       uuid.NewString()[:12],
		FilePath: abs,
		FileName: filepath.Base(abs),
		Kind:     kind,
		AddedAt:  time.Now().UTC(),
	}
	if info, err := os.Stat(abs); err == nil {
		item.FileSize = info.Size()
	}

	if l.runner != nil {
		if probed, err := l.runner.Probe(ctx, abs); err == nil {
			item.DurationMs = probed.DurationMs
			item.Width = probed.Width
			item.Height = probed.Height
		}
		if kind != KindAudio {
			if thumb, err := l.makeThumbnail(abs, item.ID); err == nil {
				item.ThumbnailPath = thumb
			}
		}
	}

	l.items = append(l.items, item)
	if err := l.save(); err != nil {
		return MediaItem{}, err
	}
	return item, nil
}

func (l *Library) makeThumbnail(sourcePath, id string) (string, error) {
	if err := os.MkdirAll(l.thumbsDir(), 0o755); err != nil {
		return "", err
	}
	ffmpegPath, err := ffmpegproc.FFmpegPath()
	if err != nil {
		return "", err
	}
	dest := filepath.Join(l.thumbsDir(), id+".jpg")
	err = ffmpeg.Input(sourcePath, ffmpeg.KwArgs{"ss": 1}).
		Output(dest, ffmpeg.KwArgs{"frames:v": 1, "vf": "scale=320:-1", "q:v": 5}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return "", err
	}
	return dest, nil
}

// Remove deletes an entry and its thumbnail.
func (l *Library) Remove(id string) error {
	for i, item := range l.items {
		if item.ID == id {
			if item.ThumbnailPath != "" {
				_ = os.Remove(item.ThumbnailPath)
			}
			l.items = append(l.items[:i], l.items[i+1:]...)
			return l.save()
		}
	}
	return fmt.Errorf("media item %s not found", id)
}

// Clear removes every entry and thumbnail.
func (l *Library) Clear() error {
	for _, item := range l.items {
		if item.ThumbnailPath != "" {
			_ = os.Remove(item.ThumbnailPath)
		}
	}
	l.items = nil
	return l.save()
}

// List returns all entries, favorites first, then newest first.
func (l *Library) List() []MediaItem {
	out := make([]MediaItem, len(l.items))
	copy(out, l.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Favorite != out[j].Favorite {
			return out[i].Favorite
		}
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out
}

// MarkFavorite toggles the favorite flag.
func (l *Library) MarkFavorite(id string, favorite bool) error {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Favorite = favorite
			return l.save()
		}
	}
	return fmt.Errorf("media item %s not found", id)
}
