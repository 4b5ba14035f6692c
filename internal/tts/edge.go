package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// defaultEdgeGatewayURL is a local edge-tts gateway (the common deployment
// runs one next to the app); hosts can point FMM_EDGE_TTS_URL anywhere that
// speaks the same audio_query contract.
const defaultEdgeGatewayURL = "http://127.0.0.1:5050/v1"

// EdgeEngine is the free engine, driven through an edge-tts HTTP gateway.
type EdgeEngine struct {
	baseURL string
	client  *http.Client
}

// NewEdgeEngine builds the engine; baseURL "" selects the default gateway.
func NewEdgeEngine(baseURL string) *EdgeEngine {
	if baseURL == "" {
		baseURL = defaultEdgeGatewayURL
	}
	return &EdgeEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: RequestTimeout},
	}
}

func (e *EdgeEngine) Name() string { return string(KindEdge) }

type edgeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate"`
}

// Synthesize posts an audio_query and returns the MP3 bytes.
func (e *EdgeEngine) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrProtocol)
	}
	rate, err := FormatRate(speed)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(edgeRequest{Text: text, Voice: voice, Rate: rate})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/audio_query", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Join(ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrProtocol, resp.StatusCode, body)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrTransport, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio body", ErrProtocol)
	}
	return audio, nil
}
