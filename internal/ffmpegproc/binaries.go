package ffmpegproc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

// BinaryPaths holds the resolved ffmpeg/ffprobe executables.
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	findOnce  sync.Once
	foundErr  error
	foundPath BinaryPaths
)

// Find resolves the ffmpeg and ffprobe binaries once per process:
// environment override, then PATH, then the per-user install cache that a
// host installer may have populated.
func Find() (BinaryPaths, error) {
	findOnce.Do(func() {
		foundPath, foundErr = find()
	})
	return foundPath, foundErr
}

// FFmpegPath returns the resolved ffmpeg executable.
func FFmpegPath() (string, error) {
	paths, err := Find()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

// FFprobePath returns the resolved ffprobe executable.
func FFprobePath() (string, error) {
	paths, err := Find()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func find() (BinaryPaths, error) {
	ffmpegPath := os.Getenv("FMM_FFMPEG_PATH")
	ffprobePath := os.Getenv("FMM_FFPROBE_PATH")
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	if ffmpegPath == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	// A host installer may have dropped binaries into the user cache.
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	installDir := filepath.Join(cacheDir, "fastmoviemaker", "ffmpeg", runtime.GOOS, runtime.GOARCH)
	suffix := ""
	if runtime.GOOS == "windows" {
		suffix = ".exe"
	}
	candFFmpeg := filepath.Join(installDir, "ffmpeg"+suffix)
	candFFprobe := filepath.Join(installDir, "ffprobe"+suffix)
	if ffmpegPath == "" && binaryExists(candFFmpeg) {
		ffmpegPath = candFFmpeg
	}
	if ffprobePath == "" && binaryExists(candFFprobe) {
		ffprobePath = candFFprobe
	}

	if ffmpegPath == "" || ffprobePath == "" {
		return BinaryPaths{}, fmt.Errorf("%w: set FMM_FFMPEG_PATH/FMM_FFPROBE_PATH or install ffmpeg on PATH", ErrNotFound)
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func binaryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
