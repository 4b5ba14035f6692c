package model

// BGMTrack is the background-music descriptor: one audio file placed on the
// output timeline with its own gain.
type BGMTrack struct {
	Path    string  `json:"path"`
	StartMs int64   `json:"start_ms"`
	Volume  float32 `json:"volume"`
	Loop    bool    `json:"loop,omitempty"`
}

// ProjectState is the root aggregate of an editing session. Mutations happen
// on the main thread only, through the command layer; workers hand results
// back as values.
type ProjectState struct {
	VideoPath  string `json:"video_path,omitempty"`
	DurationMs int64  `json:"duration_ms"`

	SubtitleTracks   []*SubtitleTrack `json:"subtitle_tracks"`
	ActiveTrackIndex int              `json:"active_track_index"`

	DefaultStyle SubtitleStyle `json:"default_style"`

	ImageOverlayTrack ImageOverlayTrack `json:"image_overlay_track"`
	TextOverlayTrack  TextOverlayTrack  `json:"text_overlay_track"`

	// VideoClipTrack is nil when the timeline is just the primary video.
	VideoClipTrack *VideoClipTrack `json:"video_clip_track,omitempty"`

	BGM *BGMTrack `json:"bgm,omitempty"`
}

// NewProject returns an empty project with one default subtitle track.
func NewProject() *ProjectState {
	return &ProjectState{
		SubtitleTracks:   []*SubtitleTrack{NewSubtitleTrack("Default")},
		ActiveTrackIndex: 0,
		DefaultStyle:     DefaultStyle(),
	}
}

// ActiveTrack returns the active subtitle track, or nil when there is none.
func (p *ProjectState) ActiveTrack() *SubtitleTrack {
	if p.ActiveTrackIndex >= 0 && p.ActiveTrackIndex < len(p.SubtitleTracks) {
		return p.SubtitleTracks[p.ActiveTrackIndex]
	}
	return nil
}

// Track returns the subtitle track at index.
func (p *ProjectState) Track(index int) (*SubtitleTrack, error) {
	if index < 0 || index >= len(p.SubtitleTracks) {
		return nil, &NotFoundError{Kind: "track", Index: index}
	}
	return p.SubtitleTracks[index], nil
}

// AddTrack appends a subtitle track and returns its index.
func (p *ProjectState) AddTrack(t *SubtitleTrack) int {
	p.SubtitleTracks = append(p.SubtitleTracks, t)
	if p.ActiveTrackIndex < 0 {
		p.ActiveTrackIndex = 0
	}
	return len(p.SubtitleTracks) - 1
}

// OutputDurationMs is the timeline length: the concatenated clip durations
// when a clip track exists, else the primary video duration.
func (p *ProjectState) OutputDurationMs() int64 {
	if p.VideoClipTrack != nil && p.VideoClipTrack.Len() > 0 {
		return p.VideoClipTrack.OutputDurationMs()
	}
	return p.DurationMs
}

// HasVideo reports whether a primary video is attached.
func (p *ProjectState) HasVideo() bool { return p.VideoPath != "" }

// Normalize repairs derived state after a load: active-track bounds, overlay
// clamping, clip prefix sums. Returns the number of clamped overlays.
func (p *ProjectState) Normalize() int {
	if len(p.SubtitleTracks) == 0 {
		p.ActiveTrackIndex = -1
	} else if p.ActiveTrackIndex < 0 || p.ActiveTrackIndex >= len(p.SubtitleTracks) {
		p.ActiveTrackIndex = 0
	}
	if p.VideoClipTrack != nil {
		p.VideoClipTrack.Invalidate()
	}
	return p.ImageOverlayTrack.ClampTo(p.OutputDurationMs())
}

// Reset returns the project to the empty state.
func (p *ProjectState) Reset() {
	*p = *NewProject()
}

// Copy returns a deep copy, used by snapshot-style commands.
func (p *ProjectState) Copy() *ProjectState {
	out := *p
	out.SubtitleTracks = make([]*SubtitleTrack, len(p.SubtitleTracks))
	for i, t := range p.SubtitleTracks {
		out.SubtitleTracks[i] = t.Copy()
	}
	out.ImageOverlayTrack.Overlays = append([]ImageOverlay(nil), p.ImageOverlayTrack.Overlays...)
	out.TextOverlayTrack.Overlays = make([]TextOverlay, len(p.TextOverlayTrack.Overlays))
	for i, ov := range p.TextOverlayTrack.Overlays {
		out.TextOverlayTrack.Overlays[i] = ov
		if ov.Style != nil {
			styleCopy := ov.Style.Copy()
			out.TextOverlayTrack.Overlays[i].Style = &styleCopy
		}
	}
	if p.VideoClipTrack != nil {
		out.VideoClipTrack = p.VideoClipTrack.Copy()
	}
	if p.BGM != nil {
		bgm := *p.BGM
		out.BGM = &bgm
	}
	return &out
}
