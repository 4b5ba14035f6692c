package model

import (
	"fmt"
	"sort"
)

// Hint values for SourceToTimeline when the caller has no expected clip
// index.
const (
	// HintNone accepts the first clip whose source window contains the
	// position.
	HintNone = -1
	// HintPrimary restricts matching to clips of the primary project video
	// (empty SourcePath).
	HintPrimary = -2
)

// minClipSliverMs is the shortest clip remnant a split or trim may leave.
const minClipSliverMs = 100

// Sides for TrimClipEdge.
const (
	TrimLeft  = "left"
	TrimRight = "right"
)

// Transition is an outgoing transition from a clip into its successor.
type Transition struct {
	Kind           string `json:"kind"`
	DurationMs     int64  `json:"duration_ms"`
	AudioCrossfade bool   `json:"audio_crossfade,omitempty"`
}

// ClipFilters are per-clip color adjustments mapped onto ffmpeg's eq filter.
// The zero value is neutral.
type ClipFilters struct {
	Brightness float64 `json:"brightness,omitempty"` // [-1, 1], 0 neutral
	Contrast   float64 `json:"contrast,omitempty"`   // [0, 2], 1 neutral (0 means unset)
	Saturation float64 `json:"saturation,omitempty"` // [0, 3], 1 neutral (0 means unset)
}

// IsNeutral reports whether the filters would change nothing.
func (f ClipFilters) IsNeutral() bool {
	return f.Brightness == 0 &&
		(f.Contrast == 0 || f.Contrast == 1) &&
		(f.Saturation == 0 || f.Saturation == 1)
}

// VideoClip is a half-open [SourceInMs, SourceOutMs) window over a source
// file. An empty SourcePath refers to the project's primary video.
type VideoClip struct {
	SourceInMs  int64       `json:"source_in_ms"`
	SourceOutMs int64       `json:"source_out_ms"`
	SourcePath  string      `json:"source_path,omitempty"`
	Filters     ClipFilters `json:"filters,omitempty"`
	Transition  *Transition `json:"transition,omitempty"`
}

// DurationMs returns the clip's source-window length.
func (c VideoClip) DurationMs() int64 {
	return c.SourceOutMs - c.SourceInMs
}

func (c VideoClip) valid() error {
	if c.SourceInMs < 0 || c.SourceOutMs <= c.SourceInMs {
		return fmt.Errorf("clip [%d, %d): %w", c.SourceInMs, c.SourceOutMs, ErrOutOfRange)
	}
	return nil
}

// VideoClipTrack is the ordered clip sequence defining the output timeline.
// The prefix-sum offsets table is memoized: offsets[i] is the timeline start
// of clip i and offsets[len] the total output duration. Every mutation goes
// through invalidate so the table can never drift from the clips.
type VideoClipTrack struct {
	Clips []VideoClip `json:"clips"`

	offsets []int64
	dirty   bool
}

// NewClipTrackFromFullVideo builds a track with one clip spanning the whole
// primary video.
func NewClipTrackFromFullVideo(durationMs int64) *VideoClipTrack {
	t := &VideoClipTrack{dirty: true}
	if durationMs > 0 {
		t.Clips = []VideoClip{{SourceInMs: 0, SourceOutMs: durationMs}}
	}
	return t
}

// Len returns the clip count.
func (t *VideoClipTrack) Len() int { return len(t.Clips) }

// Invalidate marks the offsets table stale. Callers that mutate Clips
// directly (persistence) must call this.
func (t *VideoClipTrack) Invalidate() { t.dirty = true }

// clipOutputDuration is the clip's contribution to the output timeline:
// its source window minus half of each adjoining transition overlap.
func (t *VideoClipTrack) clipOutputDuration(i int) int64 {
	d := t.Clips[i].DurationMs()
	if tr := t.Clips[i].Transition; tr != nil && i+1 < len(t.Clips) {
		d -= tr.DurationMs / 2
	}
	if i > 0 {
		if tr := t.Clips[i-1].Transition; tr != nil {
			d -= tr.DurationMs - tr.DurationMs/2
		}
	}
	if d < 0 {
		d = 0
	}
	return d
}

func (t *VideoClipTrack) ensureOffsets() {
	if !t.dirty && t.offsets != nil && len(t.offsets) == len(t.Clips)+1 {
		return
	}
	t.offsets = make([]int64, len(t.Clips)+1)
	var sum int64
	for i := range t.Clips {
		t.offsets[i] = sum
		sum += t.clipOutputDuration(i)
	}
	t.offsets[len(t.Clips)] = sum
	t.dirty = false
}

// OutputDurationMs returns the total output-timeline length.
func (t *VideoClipTrack) OutputDurationMs() int64 {
	t.ensureOffsets()
	return t.offsets[len(t.Clips)]
}

// ClipTimelineStart returns the timeline position where clip i begins. O(1).
func (t *VideoClipTrack) ClipTimelineStart(i int) (int64, error) {
	if i < 0 || i >= len(t.Clips) {
		return 0, &NotFoundError{Kind: "clip", Index: i}
	}
	t.ensureOffsets()
	return t.offsets[i], nil
}

// Offsets returns a copy of the prefix-sum table (length len(Clips)+1).
func (t *VideoClipTrack) Offsets() []int64 {
	t.ensureOffsets()
	out := make([]int64, len(t.offsets))
	copy(out, t.offsets)
	return out
}

// ClipAtTimeline locates the clip containing timeline position tl. Returns
// the clip index, the clip, and the local offset into it. O(log n) via
// binary search on the prefix sums.
func (t *VideoClipTrack) ClipAtTimeline(tl int64) (int, VideoClip, int64, error) {
	t.ensureOffsets()
	n := len(t.Clips)
	if n == 0 || tl < 0 || tl >= t.offsets[n] {
		return -1, VideoClip{}, 0, ErrOutOfRange
	}
	// First i with offsets[i+1] > tl.
	i := sort.Search(n, func(i int) bool { return t.offsets[i+1] > tl })
	return i, t.Clips[i], tl - t.offsets[i], nil
}

// TimelineToSource maps a timeline position to the source position inside
// the containing clip.
func (t *VideoClipTrack) TimelineToSource(tl int64) (string, int64, error) {
	_, clip, local, err := t.ClipAtTimeline(tl)
	if err != nil {
		return "", 0, err
	}
	return clip.SourcePath, clip.SourceInMs + local, nil
}

// SourceToTimeline maps a (sourcePath, sourceMs) pair to the timeline
// position that plays that frame. When the same source window occurs in more
// than one clip the mapping is ambiguous and hint selects the clip index;
// HintNone takes the first match and HintPrimary restricts the search to
// primary-video clips (empty SourcePath).
func (t *VideoClipTrack) SourceToTimeline(sourcePath string, sourceMs int64, hint int) (int64, error) {
	t.ensureOffsets()

	if hint >= 0 {
		if hint >= len(t.Clips) {
			return 0, &NotFoundError{Kind: "clip", Index: hint}
		}
		c := t.Clips[hint]
		if c.SourcePath != sourcePath || sourceMs < c.SourceInMs || sourceMs >= c.SourceOutMs {
			return 0, ErrOutOfRange
		}
		return t.offsets[hint] + (sourceMs - c.SourceInMs), nil
	}

	for i, c := range t.Clips {
		if hint == HintPrimary && c.SourcePath != "" {
			continue
		}
		if hint == HintNone && c.SourcePath != sourcePath {
			continue
		}
		if sourceMs >= c.SourceInMs && sourceMs < c.SourceOutMs {
			return t.offsets[i] + (sourceMs - c.SourceInMs), nil
		}
	}
	return 0, ErrOutOfRange
}

// AddClip appends or inserts a clip. index == len(Clips) appends.
func (t *VideoClipTrack) AddClip(index int, clip VideoClip) error {
	if err := clip.valid(); err != nil {
		return err
	}
	if index < 0 || index > len(t.Clips) {
		return &NotFoundError{Kind: "clip", Index: index}
	}
	t.Clips = append(t.Clips, VideoClip{})
	copy(t.Clips[index+1:], t.Clips[index:])
	t.Clips[index] = clip
	t.Invalidate()
	return nil
}

// RemoveClip deletes the clip at index. The last remaining clip cannot be
// removed.
func (t *VideoClipTrack) RemoveClip(index int) (VideoClip, error) {
	if index < 0 || index >= len(t.Clips) {
		return VideoClip{}, &NotFoundError{Kind: "clip", Index: index}
	}
	if len(t.Clips) <= 1 {
		return VideoClip{}, ErrOutOfRange
	}
	clip := t.Clips[index]
	t.Clips = append(t.Clips[:index], t.Clips[index+1:]...)
	t.Invalidate()
	return clip, nil
}

// SplitClipAtTimeline splits the containing clip in two at timeline position
// tl. Rejected when the cut would leave a sliver shorter than 100 ms on
// either side. The outgoing transition stays with the second half.
func (t *VideoClipTrack) SplitClipAtTimeline(tl int64) (int, error) {
	i, clip, local, err := t.ClipAtTimeline(tl)
	if err != nil {
		return -1, err
	}
	if local < minClipSliverMs || local > clip.DurationMs()-minClipSliverMs {
		return -1, ErrOutOfRange
	}

	cut := clip.SourceInMs + local
	first := clip
	first.SourceOutMs = cut
	first.Transition = nil
	second := clip
	second.SourceInMs = cut

	t.Clips[i] = first
	t.Clips = append(t.Clips, VideoClip{})
	copy(t.Clips[i+2:], t.Clips[i+1:])
	t.Clips[i+1] = second
	t.Invalidate()
	return i, nil
}

// TrimClipEdge moves one source edge of the clip at index by deltaMs,
// clamped so the clip keeps at least 100 ms.
func (t *VideoClipTrack) TrimClipEdge(index int, side string, deltaMs int64) error {
	if index < 0 || index >= len(t.Clips) {
		return &NotFoundError{Kind: "clip", Index: index}
	}
	clip := &t.Clips[index]
	switch side {
	case TrimLeft:
		in := clip.SourceInMs + deltaMs
		if in < 0 {
			in = 0
		}
		if in > clip.SourceOutMs-minClipSliverMs {
			in = clip.SourceOutMs - minClipSliverMs
		}
		clip.SourceInMs = in
	case TrimRight:
		out := clip.SourceOutMs + deltaMs
		if out < clip.SourceInMs+minClipSliverMs {
			out = clip.SourceInMs + minClipSliverMs
		}
		clip.SourceOutMs = out
	default:
		return fmt.Errorf("trim side %q: %w", side, ErrOutOfRange)
	}
	t.Invalidate()
	return nil
}

// SetTransition installs (or clears, with nil) the outgoing transition of the
// clip at index. A transition longer than either adjoining clip is rejected.
func (t *VideoClipTrack) SetTransition(index int, tr *Transition) error {
	if index < 0 || index >= len(t.Clips) {
		return &NotFoundError{Kind: "clip", Index: index}
	}
	if tr != nil {
		if index+1 >= len(t.Clips) {
			return ErrOutOfRange
		}
		if tr.DurationMs <= 0 ||
			tr.DurationMs > t.Clips[index].DurationMs() ||
			tr.DurationMs > t.Clips[index+1].DurationMs() {
			return ErrOutOfRange
		}
	}
	t.Clips[index].Transition = tr
	t.Invalidate()
	return nil
}

// Copy returns a deep copy of the track.
func (t *VideoClipTrack) Copy() *VideoClipTrack {
	out := &VideoClipTrack{dirty: true}
	out.Clips = make([]VideoClip, len(t.Clips))
	copy(out.Clips, t.Clips)
	for i, c := range out.Clips {
		if c.Transition != nil {
			tr := *c.Transition
			out.Clips[i].Transition = &tr
		}
	}
	return out
}
