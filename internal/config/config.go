// Package config resolves the host environment: data and temp directories,
// external binary paths, and API keys. Keys come from the environment (with
// optional .env loading) or the OS keychain and are never written into
// project files.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	appDirName     = "fastmoviemaker"
	keyringService = "fastmoviemaker"

	// Environment variable names.
	EnvFFmpegPath     = "FMM_FFMPEG_PATH"
	EnvFFprobePath    = "FMM_FFPROBE_PATH"
	EnvWhisperBin     = "FMM_WHISPER_BIN"
	EnvWhisperModel   = "FMM_WHISPER_MODEL"
	EnvDataDir        = "FMM_DATA_DIR"
	EnvTempDir        = "FMM_TEMP_DIR"
	EnvElevenLabsKey  = "ELEVENLABS_API_KEY"
	EnvEdgeTTSBaseURL = "FMM_EDGE_TTS_URL"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
)

// Config is the resolved environment for a session.
type Config struct {
	DataDir string
	TempDir string

	FFmpegPath  string
	FFprobePath string

	WhisperBin   string
	WhisperModel string

	EdgeTTSBaseURL string
}

// Load reads .env (if present) and resolves directories. Directories are
// created on first use, not here.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:        os.Getenv(EnvDataDir),
		TempDir:        os.Getenv(EnvTempDir),
		FFmpegPath:     os.Getenv(EnvFFmpegPath),
		FFprobePath:    os.Getenv(EnvFFprobePath),
		WhisperBin:     os.Getenv(EnvWhisperBin),
		WhisperModel:   os.Getenv(EnvWhisperModel),
		EdgeTTSBaseURL: os.Getenv(EnvEdgeTTSBaseURL),
	}

	if cfg.DataDir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			cfg.DataDir = filepath.Join(base, appDirName)
		} else if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, "."+appDirName)
		} else {
			cfg.DataDir = "." + appDirName
		}
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return cfg
}

// AutosaveDir returns the autosave directory path.
func (c *Config) AutosaveDir() string {
	return filepath.Join(c.DataDir, "autosave")
}

// LibraryDir returns the media library directory path.
func (c *Config) LibraryDir() string {
	return filepath.Join(c.DataDir, "media_library")
}

// TTSCacheDir returns the synthesized-audio cache directory.
func (c *Config) TTSCacheDir() string {
	return filepath.Join(c.DataDir, "tts_cache")
}

// APIKey resolves a provider key: environment first, then the OS keychain.
// Returns "" when neither holds one.
func APIKey(envName string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	if v, err := keyring.Get(keyringService, envName); err == nil {
		return v
	}
	return ""
}

// StoreAPIKey writes a provider key into the OS keychain.
func StoreAPIKey(envName, value string) error {
	return keyring.Set(keyringService, envName, value)
}

// DeleteAPIKey removes a stored provider key.
func DeleteAPIKey(envName string) error {
	return keyring.Delete(keyringService, envName)
}
