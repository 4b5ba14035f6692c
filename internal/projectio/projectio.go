// Package projectio persists projects as versioned .fmm.json documents and
// migrates older versions forward on load.
package projectio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fastmoviemaker/fmm/internal/model"
)

// Version is the current on-disk format. History:
//
//	v1  single track, no styles
//	v2  multiple tracks + default style
//	v3  adds per-track audio_start_ms / audio_duration_ms
//	v4  adds video_clips, text_overlays, per-segment volume
const Version = 4

// Extension is the project file suffix.
const Extension = ".fmm.json"

type styleDoc struct {
	FontFamily   *string  `json:"font_family"`
	FontSize     *int     `json:"font_size"`
	FontBold     *bool    `json:"font_bold"`
	FontItalic   *bool    `json:"font_italic"`
	FontColor    *string  `json:"font_color"`
	OutlineColor *string  `json:"outline_color"`
	OutlineWidth *int     `json:"outline_width"`
	BgColor      *string  `json:"bg_color"`
	Position     *string  `json:"position"`
	MarginBottom *int     `json:"margin_bottom"`
	CustomX      *float64 `json:"custom_x,omitempty"`
	CustomY      *float64 `json:"custom_y,omitempty"`
}

type segmentDoc struct {
	StartMs       *int64    `json:"start_ms"`
	EndMs         *int64    `json:"end_ms"`
	Text          *string   `json:"text"`
	Style         *styleDoc `json:"style,omitempty"`
	AudioFile     string    `json:"audio_file,omitempty"`
	AudioOffsetMs int64     `json:"audio_offset_ms,omitempty"`
	Volume        *float32  `json:"volume,omitempty"`
	Voice         string    `json:"voice,omitempty"`
}

type trackDoc struct {
	Name            string       `json:"name"`
	Language        string       `json:"language"`
	AudioPath       string       `json:"audio_path,omitempty"`
	AudioStartMs    int64        `json:"audio_start_ms"`
	AudioDurationMs int64        `json:"audio_duration_ms"`
	Segments        []segmentDoc `json:"segments"`
}

type overlayDoc struct {
	StartMs      int64   `json:"start_ms"`
	EndMs        int64   `json:"end_ms"`
	ImagePath    string  `json:"image_path"`
	XPercent     float64 `json:"x_percent"`
	YPercent     float64 `json:"y_percent"`
	ScalePercent float64 `json:"scale_percent"`
	Opacity      float64 `json:"opacity"`
}

type textOverlayDoc struct {
	StartMs    int64     `json:"start_ms"`
	EndMs      int64     `json:"end_ms"`
	Text       string    `json:"text"`
	XPercent   float64   `json:"x_percent"`
	YPercent   float64   `json:"y_percent"`
	Alignment  string    `json:"alignment"`
	VAlignment string    `json:"v_alignment"`
	Opacity    float64   `json:"opacity"`
	Style      *styleDoc `json:"style,omitempty"`
}

type clipDoc struct {
	SourceInMs  *int64             `json:"source_in_ms"`
	SourceOutMs *int64             `json:"source_out_ms"`
	SourcePath  string             `json:"source_path,omitempty"`
	Filters     *model.ClipFilters `json:"filters,omitempty"`
	Transition  *model.Transition  `json:"transition,omitempty"`
}

type bgmDoc struct {
	Path    string  `json:"path"`
	StartMs int64   `json:"start_ms"`
	Volume  float32 `json:"volume"`
	Loop    bool    `json:"loop,omitempty"`
}

type projectDoc struct {
	Version          int              `json:"version"`
	VideoPath        string           `json:"video_path,omitempty"`
	DurationMs       int64            `json:"duration_ms"`
	DefaultStyle     *styleDoc        `json:"default_style,omitempty"`
	ActiveTrackIndex int              `json:"active_track_index"`
	Tracks           []trackDoc       `json:"tracks"`
	ImageOverlays    []overlayDoc     `json:"image_overlays"`
	VideoClips       []clipDoc        `json:"video_clips,omitempty"`
	TextOverlays     []textOverlayDoc `json:"text_overlays,omitempty"`
	BGM              *bgmDoc          `json:"bgm,omitempty"`

	// v1 fields
	Language string       `json:"language,omitempty"`
	Segments []segmentDoc `json:"segments,omitempty"`
}

// Save writes the project atomically: the document goes to path+".tmp" and
// is renamed over the target, so a failure leaves any existing file intact.
func Save(p *model.ProjectState, path string) error {
	doc := toDoc(p)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace project file: %w", err)
	}
	return nil
}

// Marshal renders the project document without touching disk. Used by the
// undo round-trip property tests.
func Marshal(p *model.ProjectState) ([]byte, error) {
	return json.Marshal(toDoc(p))
}

// Load reads and migrates a project file. Missing referenced media files are
// reported as warnings, never as load failures.
func Load(path string) (*model.ProjectState, []MissingFileWarning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read project: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	var doc projectDoc
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedJson, err)
	}

	if doc.Version <= 0 {
		doc.Version = 1
	}
	if doc.Version > Version {
		return nil, nil, fmt.Errorf("%w: file is v%d, newest known is v%d",
			ErrUnsupportedVersion, doc.Version, Version)
	}

	p, err := fromDoc(&doc)
	if err != nil {
		return nil, nil, err
	}
	p.Normalize()
	return p, scanMissingFiles(p), nil
}

func toDoc(p *model.ProjectState) *projectDoc {
	doc := &projectDoc{
		Version:          Version,
		VideoPath:        p.VideoPath,
		DurationMs:       p.DurationMs,
		DefaultStyle:     styleToDoc(p.DefaultStyle),
		ActiveTrackIndex: p.ActiveTrackIndex,
		Tracks:           []trackDoc{},
		ImageOverlays:    []overlayDoc{},
	}
	for _, tr := range p.SubtitleTracks {
		td := trackDoc{
			Name:            tr.Name,
			Language:        tr.Language,
			AudioPath:       tr.AudioPath,
			AudioStartMs:    tr.AudioStartMs,
			AudioDurationMs: tr.AudioDurationMs,
			Segments:        []segmentDoc{},
		}
		for _, seg := range tr.Segments {
			td.Segments = append(td.Segments, segmentToDoc(seg))
		}
		doc.Tracks = append(doc.Tracks, td)
	}
	for _, ov := range p.ImageOverlayTrack.Overlays {
		doc.ImageOverlays = append(doc.ImageOverlays, overlayDoc(ov))
	}
	for _, ov := range p.TextOverlayTrack.Overlays {
		doc.TextOverlays = append(doc.TextOverlays, textOverlayDoc{
			StartMs: ov.StartMs, EndMs: ov.EndMs, Text: ov.Text,
			XPercent: ov.XPercent, YPercent: ov.YPercent,
			Alignment: ov.Alignment, VAlignment: ov.VAlignment,
			Opacity: ov.Opacity, Style: stylePtrToDoc(ov.Style),
		})
	}
	if p.VideoClipTrack != nil {
		for _, c := range p.VideoClipTrack.Clips {
			in, out := c.SourceInMs, c.SourceOutMs
			cd := clipDoc{SourceInMs: &in, SourceOutMs: &out, SourcePath: c.SourcePath}
			if !c.Filters.IsNeutral() {
				f := c.Filters
				cd.Filters = &f
			}
			if c.Transition != nil {
				tr := *c.Transition
				cd.Transition = &tr
			}
			doc.VideoClips = append(doc.VideoClips, cd)
		}
	}
	if p.BGM != nil {
		doc.BGM = &bgmDoc{Path: p.BGM.Path, StartMs: p.BGM.StartMs, Volume: p.BGM.Volume, Loop: p.BGM.Loop}
	}
	return doc
}

func segmentToDoc(seg model.SubtitleSegment) segmentDoc {
	start, end, text := seg.StartMs, seg.EndMs, seg.Text
	sd := segmentDoc{
		StartMs: &start, EndMs: &end, Text: &text,
		AudioFile: seg.AudioFile, AudioOffsetMs: seg.AudioOffsetMs,
		Voice: seg.Voice, Style: stylePtrToDoc(seg.Style),
	}
	if v := seg.EffectiveVolume(); v != 1.0 {
		sd.Volume = &v
	}
	return sd
}

func styleToDoc(s model.SubtitleStyle) *styleDoc {
	d := &styleDoc{
		FontFamily: &s.FontFamily, FontSize: &s.FontSize,
		FontBold: &s.FontBold, FontItalic: &s.FontItalic,
		FontColor: &s.FontColor, OutlineColor: &s.OutlineColor,
		OutlineWidth: &s.OutlineWidth, BgColor: &s.BgColor,
		Position: &s.Position, MarginBottom: &s.MarginBottom,
	}
	if s.Position == model.PositionCustom {
		d.CustomX, d.CustomY = &s.CustomX, &s.CustomY
	}
	return d
}

func stylePtrToDoc(s *model.SubtitleStyle) *styleDoc {
	if s == nil {
		return nil
	}
	return styleToDoc(*s)
}

func docToStyle(d *styleDoc) model.SubtitleStyle {
	s := model.DefaultStyle()
	if d == nil {
		return s
	}
	if d.FontFamily != nil {
		s.FontFamily = *d.FontFamily
	}
	if d.FontSize != nil {
		s.FontSize = *d.FontSize
	}
	if d.FontBold != nil {
		s.FontBold = *d.FontBold
	}
	if d.FontItalic != nil {
		s.FontItalic = *d.FontItalic
	}
	if d.FontColor != nil {
		s.FontColor = *d.FontColor
	}
	if d.OutlineColor != nil {
		s.OutlineColor = *d.OutlineColor
	}
	if d.OutlineWidth != nil {
		s.OutlineWidth = *d.OutlineWidth
	}
	if d.BgColor != nil {
		s.BgColor = *d.BgColor
	}
	if d.Position != nil {
		s.Position = *d.Position
	}
	if d.MarginBottom != nil {
		s.MarginBottom = *d.MarginBottom
	}
	if d.CustomX != nil {
		s.CustomX = *d.CustomX
	}
	if d.CustomY != nil {
		s.CustomY = *d.CustomY
	}
	return s
}

func docToSegment(d segmentDoc, field string) (model.SubtitleSegment, error) {
	if d.StartMs == nil || d.EndMs == nil {
		return model.SubtitleSegment{}, &SchemaViolationError{Field: field, Reason: "start_ms/end_ms required"}
	}
	if d.Text == nil {
		return model.SubtitleSegment{}, &SchemaViolationError{Field: field, Reason: "text required"}
	}
	seg := model.SubtitleSegment{
		StartMs: *d.StartMs, EndMs: *d.EndMs, Text: *d.Text,
		AudioFile: d.AudioFile, AudioOffsetMs: d.AudioOffsetMs, Voice: d.Voice,
	}
	if d.Volume != nil {
		seg.Volume = *d.Volume
	}
	if d.Style != nil {
		st := docToStyle(d.Style)
		seg.Style = &st
	}
	return seg, nil
}

func fromDoc(doc *projectDoc) (*model.ProjectState, error) {
	p := model.NewProject()
	p.VideoPath = doc.VideoPath
	p.DurationMs = doc.DurationMs

	if doc.Version >= 2 {
		p.DefaultStyle = docToStyle(doc.DefaultStyle)
		p.ActiveTrackIndex = doc.ActiveTrackIndex
		var tracks []*model.SubtitleTrack
		for ti, td := range doc.Tracks {
			tr := model.NewSubtitleTrack(td.Name)
			tr.Language = td.Language
			tr.AudioPath = td.AudioPath
			if doc.Version >= 3 {
				tr.AudioStartMs = td.AudioStartMs
				tr.AudioDurationMs = td.AudioDurationMs
			}
			for si, sd := range td.Segments {
				seg, err := docToSegment(sd, fmt.Sprintf("tracks[%d].segments[%d]", ti, si))
				if err != nil {
					return nil, err
				}
				if doc.Version < 4 {
					seg.Volume = 0 // pre-v4 files carry no per-segment volume
				}
				if _, err := tr.AddSegment(seg); err != nil {
					return nil, fmt.Errorf("tracks[%d].segments[%d]: %w", ti, si, err)
				}
			}
			tracks = append(tracks, tr)
		}
		if len(tracks) > 0 {
			p.SubtitleTracks = tracks
		}
	} else {
		// v1: one flat segment list, synthesized into a "Default" track.
		tr := model.NewSubtitleTrack("Default")
		tr.Language = doc.Language
		for si, sd := range doc.Segments {
			seg, err := docToSegment(sd, fmt.Sprintf("segments[%d]", si))
			if err != nil {
				return nil, err
			}
			seg.Style = nil
			seg.Volume = 0
			if _, err := tr.AddSegment(seg); err != nil {
				return nil, fmt.Errorf("segments[%d]: %w", si, err)
			}
		}
		p.SubtitleTracks = []*model.SubtitleTrack{tr}
		p.ActiveTrackIndex = 0
	}

	for _, od := range doc.ImageOverlays {
		if _, err := p.ImageOverlayTrack.Add(model.ImageOverlay(od)); err != nil {
			return nil, fmt.Errorf("image overlay [%d, %d): %w", od.StartMs, od.EndMs, err)
		}
	}

	if doc.Version >= 4 {
		if len(doc.VideoClips) > 0 {
			track := &model.VideoClipTrack{}
			for ci, cd := range doc.VideoClips {
				if cd.SourceInMs == nil || cd.SourceOutMs == nil {
					return nil, &SchemaViolationError{
						Field:  fmt.Sprintf("video_clips[%d]", ci),
						Reason: "source_in_ms/source_out_ms required",
					}
				}
				clip := model.VideoClip{
					SourceInMs:  *cd.SourceInMs,
					SourceOutMs: *cd.SourceOutMs,
					SourcePath:  cd.SourcePath,
				}
				if cd.Filters != nil {
					clip.Filters = *cd.Filters
				}
				if cd.Transition != nil {
					tr := *cd.Transition
					clip.Transition = &tr
				}
				if err := track.AddClip(ci, clip); err != nil {
					return nil, fmt.Errorf("video_clips[%d]: %w", ci, err)
				}
			}
			p.VideoClipTrack = track
		}
		for _, td := range doc.TextOverlays {
			ov := model.TextOverlay{
				StartMs: td.StartMs, EndMs: td.EndMs, Text: td.Text,
				XPercent: td.XPercent, YPercent: td.YPercent,
				Alignment: td.Alignment, VAlignment: td.VAlignment,
				Opacity: td.Opacity,
			}
			if td.Style != nil {
				st := docToStyle(td.Style)
				ov.Style = &st
			}
			if _, err := p.TextOverlayTrack.Add(ov); err != nil {
				return nil, fmt.Errorf("text overlay [%d, %d): %w", td.StartMs, td.EndMs, err)
			}
		}
		if doc.BGM != nil {
			p.BGM = &model.BGMTrack{
				Path: doc.BGM.Path, StartMs: doc.BGM.StartMs,
				Volume: doc.BGM.Volume, Loop: doc.BGM.Loop,
			}
		}
	}

	return p, nil
}

func scanMissingFiles(p *model.ProjectState) []MissingFileWarning {
	var warnings []MissingFileWarning
	check := func(path, role string) {
		if path == "" {
			return
		}
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, MissingFileWarning{Path: path, Role: role})
		}
	}
	check(p.VideoPath, "video")
	for _, tr := range p.SubtitleTracks {
		check(tr.AudioPath, "audio")
		for _, seg := range tr.Segments {
			check(seg.AudioFile, "audio")
		}
	}
	for _, ov := range p.ImageOverlayTrack.Overlays {
		check(ov.ImagePath, "image")
	}
	if p.VideoClipTrack != nil {
		seen := map[string]bool{}
		for _, c := range p.VideoClipTrack.Clips {
			if c.SourcePath != "" && !seen[c.SourcePath] {
				seen[c.SourcePath] = true
				check(c.SourcePath, "video")
			}
		}
	}
	if p.BGM != nil {
		check(p.BGM.Path, "audio")
	}
	return warnings
}
