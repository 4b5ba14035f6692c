package transcribe

import (
	"testing"
)

func TestParseGeminiSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name:  "plain array",
			input: `[{"start": 0.0, "end": 2.5, "text": "hello"}, {"start": 2.5, "end": 4.0, "text": "world"}]`,
			want:  2,
		},
		{
			name:  "fenced",
			input: "```json\n[{\"start\": 1, \"end\": 2, \"text\": \"x\"}]\n```",
			want:  1,
		},
		{
			name:  "prose around array",
			input: `Here you go: [{"start": 0, "end": 1, "text": "a"}] hope that helps`,
			want:  1,
		},
		{
			name:  "drops empty and inverted",
			input: `[{"start": 0, "end": 1, "text": "  "}, {"start": 5, "end": 4, "text": "bad"}, {"start": 1, "end": 2, "text": "ok"}]`,
			want:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := parseGeminiSegments(tt.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(segs) != tt.want {
				t.Errorf("got %d segments, want %d: %+v", len(segs), tt.want, segs)
			}
		})
	}

	if _, err := parseGeminiSegments("no json here"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestParseGeminiSegmentsTiming(t *testing.T) {
	segs, err := parseGeminiSegments(`[{"start": 1.5, "end": 3.25, "text": "hi"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if segs[0].StartMs != 1500 || segs[0].EndMs != 3250 {
		t.Errorf("timing = %+v", segs[0])
	}
}

func TestOffsetSegments(t *testing.T) {
	in := []Segment{{StartMs: 0, EndMs: 1000, Text: "a"}, {StartMs: 1500, EndMs: 2000, Text: "b"}}
	out := OffsetSegments(in, 60_000)
	if out[0].StartMs != 60_000 || out[1].EndMs != 62_000 {
		t.Errorf("offsets wrong: %+v", out)
	}
	if in[0].StartMs != 0 {
		t.Error("input must not be mutated")
	}
}

func TestWhisperTranscriberRequiresModel(t *testing.T) {
	if _, err := NewWhisperTranscriber(Options{}); err == nil {
		t.Error("expected error without a model path")
	}
}
