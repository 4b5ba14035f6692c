package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1.0, "+0%"},
		{1.5, "+50%"},
		{0.5, "-50%"},
		{2.0, "+100%"},
	}
	for _, tt := range tests {
		got, err := FormatRate(tt.speed)
		if err != nil {
			t.Errorf("FormatRate(%v): %v", tt.speed, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.speed, got, tt.want)
		}
	}
	if _, err := FormatRate(0); err == nil {
		t.Error("expected error for zero speed")
	}
}

func TestEdgeEngineSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio_query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3bytes"))
	}))
	defer srv.Close()

	engine := NewEdgeEngine(srv.URL)
	audio, err := engine.Synthesize(context.Background(), "hello", "en-US-AriaNeural", 1.0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3bytes" {
		t.Errorf("audio = %q", audio)
	}
}

func TestElevenLabsErrorMapping(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrProtocol},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("xi-api-key"); got != "k" {
				t.Errorf("missing api key header, got %q", got)
			}
			w.WriteHeader(tt.status)
		}))
		engine := NewElevenLabsEngine("k")
		engine.baseURL = srv.URL
		_, err := engine.Synthesize(context.Background(), "hi", "voice1", 1.0)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.wantErr)
		}
		srv.Close()
	}
}

func TestElevenLabsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	engine := NewElevenLabsEngine("k")
	engine.baseURL = srv.URL
	audio, err := engine.Synthesize(context.Background(), "hi", "voice1", 1.2)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "audio" {
		t.Errorf("audio = %q", audio)
	}
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := New(KindElevenLabs, "", ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized without key, got %v", err)
	}
	if _, err := New(KindEdge, "", ""); err != nil {
		t.Errorf("edge engine must not need a key: %v", err)
	}
	if _, err := New("nope", "", ""); err == nil {
		t.Error("expected error for unknown engine")
	}
}
