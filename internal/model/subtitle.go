package model

import (
	"fmt"
	"sort"
)

// MergeGapMs is the widest gap two segments may have and still be mergeable.
const MergeGapMs = 500

// SubtitleSegment is one subtitle interval. Times are output-timeline
// milliseconds with StartMs < EndMs; containment is half-open on the end.
type SubtitleSegment struct {
	StartMs int64          `json:"start_ms"`
	EndMs   int64          `json:"end_ms"`
	Text    string         `json:"text"`
	Style   *SubtitleStyle `json:"style,omitempty"`
	// AudioFile points at a per-segment TTS clip; AudioOffsetMs is where
	// this segment's speech begins inside that file (non-zero after splits).
	AudioFile     string  `json:"audio_file,omitempty"`
	AudioOffsetMs int64   `json:"audio_offset_ms,omitempty"`
	Volume        float32 `json:"volume,omitempty"`
	Voice         string  `json:"voice,omitempty"`
}

// DurationMs returns the segment length.
func (s SubtitleSegment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// EffectiveVolume treats the zero value as the 1.0 default.
func (s SubtitleSegment) EffectiveVolume() float32 {
	if s.Volume == 0 {
		return 1.0
	}
	return s.Volume
}

func (s SubtitleSegment) valid() error {
	if s.StartMs < 0 || s.EndMs <= s.StartMs {
		return fmt.Errorf("segment [%d, %d): %w", s.StartMs, s.EndMs, ErrOutOfRange)
	}
	return nil
}

// SubtitleTrack is an ordered collection of non-overlapping segments plus the
// track's synthesized audio placement on the output timeline.
type SubtitleTrack struct {
	Name            string            `json:"name"`
	Language        string            `json:"language"`
	Segments        []SubtitleSegment `json:"segments"`
	AudioPath       string            `json:"audio_path,omitempty"`
	AudioStartMs    int64             `json:"audio_start_ms"`
	AudioDurationMs int64             `json:"audio_duration_ms"`
}

// NewSubtitleTrack returns an empty named track.
func NewSubtitleTrack(name string) *SubtitleTrack {
	return &SubtitleTrack{Name: name}
}

// Len returns the segment count.
func (t *SubtitleTrack) Len() int { return len(t.Segments) }

// SegmentAt returns the index of the segment containing ms, or -1. Half-open
// on the end so a position exactly at a boundary belongs to the next segment.
// O(log n) on the sorted starts.
func (t *SubtitleTrack) SegmentAt(ms int64) int {
	i := sort.Search(len(t.Segments), func(i int) bool {
		return t.Segments[i].StartMs > ms
	})
	if i == 0 {
		return -1
	}
	if seg := t.Segments[i-1]; seg.StartMs <= ms && ms < seg.EndMs {
		return i - 1
	}
	return -1
}

// insertionIndex returns where seg would go to keep starts sorted.
func (t *SubtitleTrack) insertionIndex(startMs int64) int {
	return sort.Search(len(t.Segments), func(i int) bool {
		return t.Segments[i].StartMs >= startMs
	})
}

// collides reports whether [startMs, endMs) would overlap any segment other
// than the one at skip (pass -1 to check against all).
func (t *SubtitleTrack) collides(startMs, endMs int64, skip int) bool {
	for i, seg := range t.Segments {
		if i == skip {
			continue
		}
		if seg.StartMs < endMs && startMs < seg.EndMs {
			return true
		}
	}
	return false
}

// AddSegment inserts seg keeping the track sorted. Fails with ErrOverlap if
// the interval collides with an existing segment. Returns the insertion
// index.
func (t *SubtitleTrack) AddSegment(seg SubtitleSegment) (int, error) {
	if err := seg.valid(); err != nil {
		return -1, err
	}
	idx := t.insertionIndex(seg.StartMs)
	if idx > 0 && t.Segments[idx-1].EndMs > seg.StartMs {
		return -1, ErrOverlap
	}
	if idx < len(t.Segments) && t.Segments[idx].StartMs < seg.EndMs {
		return -1, ErrOverlap
	}
	t.Segments = append(t.Segments, SubtitleSegment{})
	copy(t.Segments[idx+1:], t.Segments[idx:])
	t.Segments[idx] = seg
	return idx, nil
}

// RemoveSegment deletes the segment at index and returns it.
func (t *SubtitleTrack) RemoveSegment(index int) (SubtitleSegment, error) {
	if index < 0 || index >= len(t.Segments) {
		return SubtitleSegment{}, &NotFoundError{Kind: "segment", Index: index}
	}
	seg := t.Segments[index]
	t.Segments = append(t.Segments[:index], t.Segments[index+1:]...)
	return seg, nil
}

// UpdateSegmentTime replaces the interval of the segment at index, keeping
// order and disjointness. The update is rejected whole on conflict.
func (t *SubtitleTrack) UpdateSegmentTime(index int, startMs, endMs int64) error {
	if index < 0 || index >= len(t.Segments) {
		return &NotFoundError{Kind: "segment", Index: index}
	}
	if startMs < 0 || endMs <= startMs {
		return ErrOutOfRange
	}
	if t.collides(startMs, endMs, index) {
		return ErrOverlap
	}
	t.Segments[index].StartMs = startMs
	t.Segments[index].EndMs = endMs
	t.resort()
	return nil
}

// MoveSegment shifts the segment at index by deltaMs, clamped to
// [0, durationMs] (durationMs <= 0 disables the upper clamp). Rejected
// atomically if the clamped interval collides with a neighbor.
func (t *SubtitleTrack) MoveSegment(index int, deltaMs, durationMs int64) error {
	if index < 0 || index >= len(t.Segments) {
		return &NotFoundError{Kind: "segment", Index: index}
	}
	seg := t.Segments[index]
	length := seg.DurationMs()
	start := seg.StartMs + deltaMs
	if start < 0 {
		start = 0
	}
	if durationMs > 0 && start+length > durationMs {
		start = durationMs - length
		if start < 0 {
			return ErrOutOfRange
		}
	}
	return t.UpdateSegmentTime(index, start, start+length)
}

// SplitSegment splits the segment at index into two at atMs. Both halves
// share the original style and audio reference; the second half's audio
// offset accounts for the removed leading span.
func (t *SubtitleTrack) SplitSegment(index int, atMs int64) error {
	if index < 0 || index >= len(t.Segments) {
		return &NotFoundError{Kind: "segment", Index: index}
	}
	seg := t.Segments[index]
	if atMs <= seg.StartMs || atMs >= seg.EndMs {
		return ErrOutOfRange
	}

	first := seg
	first.EndMs = atMs

	second := seg
	second.StartMs = atMs
	if second.AudioFile != "" {
		second.AudioOffsetMs = seg.AudioOffsetMs + (atMs - seg.StartMs)
	}
	if second.Style != nil {
		styleCopy := second.Style.Copy()
		second.Style = &styleCopy
	}

	t.Segments[index] = first
	t.Segments = append(t.Segments, SubtitleSegment{})
	copy(t.Segments[index+2:], t.Segments[index+1:])
	t.Segments[index+1] = second
	return nil
}

// MergeSegments joins the segments at index and index+1. The pair must be
// adjacent with a gap no wider than MergeGapMs; the merged text is the two
// texts joined with a newline.
func (t *SubtitleTrack) MergeSegments(index int) error {
	if index < 0 || index+1 >= len(t.Segments) {
		return &NotFoundError{Kind: "segment", Index: index}
	}
	a, b := t.Segments[index], t.Segments[index+1]
	if b.StartMs-a.EndMs > MergeGapMs {
		return ErrOutOfRange
	}
	merged := a
	merged.EndMs = b.EndMs
	merged.Text = a.Text + "\n" + b.Text
	t.Segments[index] = merged
	t.Segments = append(t.Segments[:index+1], t.Segments[index+2:]...)
	return nil
}

// BatchShift moves every listed segment by deltaMs. All-or-nothing: if any
// shifted interval would leave [0, durationMs] or collide, nothing changes.
func (t *SubtitleTrack) BatchShift(indices []int, deltaMs, durationMs int64) error {
	if len(indices) == 0 {
		return nil
	}
	moving := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(t.Segments) {
			return &NotFoundError{Kind: "segment", Index: i}
		}
		moving[i] = true
	}

	shifted := make([]SubtitleSegment, len(t.Segments))
	copy(shifted, t.Segments)
	for i := range shifted {
		if !moving[i] {
			continue
		}
		shifted[i].StartMs += deltaMs
		shifted[i].EndMs += deltaMs
		if shifted[i].StartMs < 0 {
			return ErrOutOfRange
		}
		if durationMs > 0 && shifted[i].EndMs > durationMs {
			return ErrOutOfRange
		}
	}

	sort.SliceStable(shifted, func(i, j int) bool {
		return shifted[i].StartMs < shifted[j].StartMs
	})
	for i := 0; i+1 < len(shifted); i++ {
		if shifted[i].EndMs > shifted[i+1].StartMs {
			return ErrOverlap
		}
	}

	t.Segments = shifted
	return nil
}

// Validate checks the track invariant: sorted, disjoint, well-formed.
func (t *SubtitleTrack) Validate() error {
	for i, seg := range t.Segments {
		if err := seg.valid(); err != nil {
			return err
		}
		if i > 0 && t.Segments[i-1].EndMs > seg.StartMs {
			return ErrOverlap
		}
	}
	return nil
}

func (t *SubtitleTrack) resort() {
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].StartMs < t.Segments[j].StartMs
	})
}

// Copy returns a deep copy of the track.
func (t *SubtitleTrack) Copy() *SubtitleTrack {
	out := *t
	out.Segments = make([]SubtitleSegment, len(t.Segments))
	copy(out.Segments, t.Segments)
	for i, seg := range out.Segments {
		if seg.Style != nil {
			styleCopy := seg.Style.Copy()
			out.Segments[i].Style = &styleCopy
		}
	}
	return &out
}
