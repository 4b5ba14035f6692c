// Package tts synthesizes speech for script segments over HTTP. Engines
// return raw audio bytes; placement, concatenation, and mixing belong to the
// TTS worker.
package tts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RequestTimeout bounds every synthesis HTTP call.
const RequestTimeout = 30 * time.Second

// Typed HTTP failure kinds.
var (
	// ErrUnauthorized means the API key was rejected (HTTP 401/403).
	ErrUnauthorized = errors.New("tts: unauthorized")

	// ErrRateLimited means the engine throttled us (HTTP 429).
	ErrRateLimited = errors.New("tts: rate limited")

	// ErrTransport covers network failures and timeouts.
	ErrTransport = errors.New("tts: transport failure")

	// ErrProtocol covers unexpected response shapes and server errors.
	ErrProtocol = errors.New("tts: protocol error")
)

// Engine synthesizes one text into audio bytes (MP3 unless noted).
type Engine interface {
	// Synthesize renders text with the given voice at a speed multiplier
	// (1.0 = natural).
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error)

	// Name identifies the engine ("edge", "elevenlabs").
	Name() string
}

// Kind selects an engine implementation.
type Kind string

const (
	KindEdge       Kind = "edge"
	KindElevenLabs Kind = "elevenlabs"
)

// New builds an engine. The ElevenLabs engine requires an API key; the edge
// engine accepts an optional gateway base URL override.
func New(kind Kind, apiKey, baseURL string) (Engine, error) {
	switch kind {
	case KindEdge:
		return NewEdgeEngine(baseURL), nil
	case KindElevenLabs:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: ElevenLabs requires an API key", ErrUnauthorized)
		}
		return NewElevenLabsEngine(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported tts engine: %s", kind)
	}
}

// FormatRate converts a speed multiplier into the signed percent notation
// the edge gateway expects ("+0%", "+50%", "-25%").
func FormatRate(speed float64) (string, error) {
	if speed <= 0 {
		return "", fmt.Errorf("speed must be positive, got %v", speed)
	}
	percent := int((speed - 1.0) * 100)
	if percent >= 0 {
		return fmt.Sprintf("+%d%%", percent), nil
	}
	return fmt.Sprintf("%d%%", percent), nil
}
