// Package export turns a project into one rendered file by composing an
// FFmpeg filter graph (per-clip preprocessing, concat or xfade joins,
// subtitle burn-in, PIP and text overlays, audio mixing) and driving the
// process runner.
package export

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

// FilterGraphError reports a graph that cannot be built from the project.
type FilterGraphError struct {
	Reason string
}

func (e *FilterGraphError) Error() string {
	return "filter graph build failed: " + e.Reason
}

// Input is one -i argument of the ffmpeg invocation.
type Input struct {
	Path    string
	IsImage bool
}

// Graph is a composed filter_complex plus the inputs it references.
type Graph struct {
	Inputs        []Input
	FilterComplex string
	VideoLabel    string
	AudioLabel    string // "" when the output carries no audio
	DurationMs    int64
}

// graphBuilder accumulates filter nodes and labels.
type graphBuilder struct {
	inputs   []Input
	inputIdx map[string]int
	nodes    []string
	labelSeq int
}

func (b *graphBuilder) input(path string, isImage bool) int {
	if idx, ok := b.inputIdx[path]; ok {
		return idx
	}
	idx := len(b.inputs)
	b.inputs = append(b.inputs, Input{Path: path, IsImage: isImage})
	b.inputIdx[path] = idx
	return idx
}

func (b *graphBuilder) label(prefix string) string {
	b.labelSeq++
	return fmt.Sprintf("%s%d", prefix, b.labelSeq)
}

func (b *graphBuilder) add(node string) {
	b.nodes = append(b.nodes, node)
}

// sec renders milliseconds as fractional seconds for filter arguments.
func sec(ms int64) string { return timeutil.MsToSeconds(ms) }

// BuildGraph composes the filter graph for a project and job. srtPath is the
// already-written temporary SRT file, or "" to skip burn-in.
func BuildGraph(p *model.ProjectState, job Job, srtPath string) (*Graph, error) {
	if !p.HasVideo() {
		return nil, &FilterGraphError{Reason: "project has no video"}
	}
	if job.Width <= 0 || job.Height <= 0 {
		return nil, &FilterGraphError{Reason: "output resolution not set"}
	}

	b := &graphBuilder{inputIdx: map[string]int{}}

	clips := clipsOf(p)
	if len(clips) == 0 {
		return nil, &FilterGraphError{Reason: "timeline is empty"}
	}

	// 1. Per-clip preprocessing.
	videoLabels := make([]string, len(clips))
	audioLabels := make([]string, len(clips))
	for i, clip := range clips {
		src := clip.SourcePath
		if src == "" {
			src = p.VideoPath
		}
		idx := b.input(src, false)

		chain := []string{
			fmt.Sprintf("trim=start=%s:end=%s", sec(clip.SourceInMs), sec(clip.SourceOutMs)),
			"setpts=PTS-STARTPTS",
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", job.Width, job.Height),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", job.Width, job.Height),
		}
		if eq := eqFilter(clip.Filters); eq != "" {
			chain = append(chain, eq)
		}
		vl := b.label("v")
		b.add(fmt.Sprintf("[%d:v]%s[%s]", idx, strings.Join(chain, ","), vl))
		videoLabels[i] = vl

		if job.wantsAudio() {
			al := b.label("ca")
			b.add(fmt.Sprintf("[%d:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[%s]",
				idx, sec(clip.SourceInMs), sec(clip.SourceOutMs), al))
			audioLabels[i] = al
		}
	}

	// 2. Concat, with xfade/acrossfade at transition boundaries.
	videoLabel, audioLabel, err := joinClips(b, clips, videoLabels, audioLabels, job)
	if err != nil {
		return nil, err
	}

	// 3. Subtitle burn-in.
	if srtPath != "" {
		out := b.label("vs")
		b.add(fmt.Sprintf("[%s]subtitles=%s[%s]", videoLabel, escapeFilterPath(srtPath), out))
		videoLabel = out
	}

	// 4. PIP image overlays.
	for _, ov := range p.ImageOverlayTrack.Overlays {
		idx := b.input(ov.ImagePath, true)
		prepared := b.label("ov")
		scaleW := fmt.Sprintf("%d*%s/100", job.Width, trimFloat(ov.ScalePercent))
		opacity := ov.Opacity
		if opacity <= 0 || opacity > 1 {
			opacity = 1
		}
		b.add(fmt.Sprintf("[%d:v]format=rgba,colorchannelmixer=aa=%.2f,scale=%s:-1[%s]",
			idx, opacity, scaleW, prepared))

		out := b.label("vo")
		x := fmt.Sprintf("%d*%s/100", job.Width, trimFloat(ov.XPercent))
		y := fmt.Sprintf("%d*%s/100", job.Height, trimFloat(ov.YPercent))
		b.add(fmt.Sprintf("[%s][%s]overlay=x=%s:y=%s:enable='between(t,%s,%s)'[%s]",
			videoLabel, prepared, x, y, sec(ov.StartMs), sec(ov.EndMs), out))
		videoLabel = out
	}

	// 5. Text overlays.
	for _, ov := range p.TextOverlayTrack.Overlays {
		out := b.label("vt")
		b.add(fmt.Sprintf("[%s]%s[%s]", videoLabel, drawtextFilter(p, ov, job), out))
		videoLabel = out
	}

	// 6. Audio mix.
	if job.wantsAudio() {
		audioLabel, err = mixAudio(b, p, job, audioLabel)
		if err != nil {
			return nil, err
		}
	}

	return &Graph{
		Inputs:        b.inputs,
		FilterComplex: strings.Join(b.nodes, ";"),
		VideoLabel:    videoLabel,
		AudioLabel:    audioLabel,
		DurationMs:    outputDuration(p),
	}, nil
}

// clipsOf returns the clip sequence, synthesizing a full-video clip when the
// project has no clip track.
func clipsOf(p *model.ProjectState) []model.VideoClip {
	if p.VideoClipTrack != nil && p.VideoClipTrack.Len() > 0 {
		return p.VideoClipTrack.Clips
	}
	if p.DurationMs <= 0 {
		return nil
	}
	return []model.VideoClip{{SourceInMs: 0, SourceOutMs: p.DurationMs}}
}

func outputDuration(p *model.ProjectState) int64 {
	return p.OutputDurationMs()
}

// joinClips merges the preprocessed per-clip streams. Boundaries without a
// transition take part in one plain concat; an explicit transition replaces
// the hard cut with xfade (and acrossfade for audio when requested).
func joinClips(b *graphBuilder, clips []model.VideoClip, videoLabels, audioLabels []string, job Job) (string, string, error) {
	if len(clips) == 1 {
		return videoLabels[0], firstOrEmpty(audioLabels), nil
	}

	hasTransition := false
	for i := 0; i+1 < len(clips); i++ {
		if clips[i].Transition != nil {
			hasTransition = true
			break
		}
	}

	if !hasTransition {
		vcat := b.label("vcat")
		var sb strings.Builder
		for _, vl := range videoLabels {
			sb.WriteString("[" + vl + "]")
		}
		b.add(fmt.Sprintf("%sconcat=n=%d:v=1:a=0[%s]", sb.String(), len(clips), vcat))

		audioOut := ""
		if job.wantsAudio() {
			acat := b.label("acat")
			sb.Reset()
			for _, al := range audioLabels {
				sb.WriteString("[" + al + "]")
			}
			b.add(fmt.Sprintf("%sconcat=n=%d:v=0:a=1[%s]", sb.String(), len(clips), acat))
			audioOut = acat
		}
		return vcat, audioOut, nil
	}

	// Pairwise chaining: xfade at transition boundaries, concat at hard
	// cuts. The xfade offset is the merged stream's length so far minus the
	// overlap.
	videoOut := videoLabels[0]
	audioOut := firstOrEmpty(audioLabels)
	runningMs := clips[0].DurationMs()

	for i := 1; i < len(clips); i++ {
		tr := clips[i-1].Transition
		if tr != nil {
			if tr.DurationMs <= 0 {
				return "", "", &FilterGraphError{
					Reason: fmt.Sprintf("transition after clip %d has no duration", i-1),
				}
			}
			offsetMs := runningMs - tr.DurationMs
			if offsetMs < 0 {
				return "", "", &FilterGraphError{
					Reason: fmt.Sprintf("transition after clip %d longer than preceding content", i-1),
				}
			}
			out := b.label("vx")
			b.add(fmt.Sprintf("[%s][%s]xfade=transition=%s:duration=%s:offset=%s[%s]",
				videoOut, videoLabels[i], tr.Kind, sec(tr.DurationMs), sec(offsetMs), out))
			videoOut = out
			runningMs = offsetMs + clips[i].DurationMs()

			if job.wantsAudio() {
				aout := b.label("ax")
				if tr.AudioCrossfade {
					b.add(fmt.Sprintf("[%s][%s]acrossfade=d=%s[%s]",
						audioOut, audioLabels[i], sec(tr.DurationMs), aout))
				} else {
					// Video-only transition: audio keeps a hard cut at the
					// collapsed boundary.
					b.add(fmt.Sprintf("[%s][%s]concat=n=2:v=0:a=1[%s]",
						audioOut, audioLabels[i], aout))
				}
				audioOut = aout
			}
		} else {
			out := b.label("vj")
			b.add(fmt.Sprintf("[%s][%s]concat=n=2:v=1:a=0[%s]", videoOut, videoLabels[i], out))
			videoOut = out
			runningMs += clips[i].DurationMs()

			if job.wantsAudio() {
				aout := b.label("aj")
				b.add(fmt.Sprintf("[%s][%s]concat=n=2:v=0:a=1[%s]", audioOut, audioLabels[i], aout))
				audioOut = aout
			}
		}
	}
	return videoOut, audioOut, nil
}

func firstOrEmpty(labels []string) string {
	if len(labels) > 0 {
		return labels[0]
	}
	return ""
}

// mixAudio lays the track's synthesized speech and the BGM over the
// original audio at the job's gains.
func mixAudio(b *graphBuilder, p *model.ProjectState, job Job, baseLabel string) (string, error) {
	var mixInputs []string

	if baseLabel != "" {
		out := b.label("am")
		b.add(fmt.Sprintf("[%s]volume=%s[%s]", baseLabel, trimFloat(job.videoGain()), out))
		mixInputs = append(mixInputs, out)
	}

	track := p.ActiveTrack()
	if track != nil && track.AudioPath != "" {
		idx := b.input(track.AudioPath, false)
		perSegment := false
		for _, seg := range track.Segments {
			if seg.EffectiveVolume() != 1.0 {
				perSegment = true
				break
			}
		}
		if perSegment {
			// Slice the track audio per segment so each slice carries its
			// own gain, then delay every slice back onto its position.
			for _, seg := range track.Segments {
				slice := b.label("ts")
				relStart := seg.StartMs - track.AudioStartMs + seg.AudioOffsetMs
				if relStart < 0 {
					relStart = 0
				}
				gain := float64(seg.EffectiveVolume()) * job.ttsGain()
				b.add(fmt.Sprintf("[%d:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS,adelay=%d|%d,volume=%s[%s]",
					idx, sec(relStart), sec(relStart+seg.DurationMs()),
					seg.StartMs, seg.StartMs, trimFloat(gain), slice))
				mixInputs = append(mixInputs, slice)
			}
		} else {
			out := b.label("tts")
			b.add(fmt.Sprintf("[%d:a]adelay=%d|%d,volume=%s[%s]",
				idx, track.AudioStartMs, track.AudioStartMs, trimFloat(job.ttsGain()), out))
			mixInputs = append(mixInputs, out)
		}
	}

	if p.BGM != nil && p.BGM.Path != "" {
		idx := b.input(p.BGM.Path, false)
		out := b.label("bgm")
		vol := p.BGM.Volume
		if vol <= 0 {
			vol = 1
		}
		b.add(fmt.Sprintf("[%d:a]adelay=%d|%d,volume=%s[%s]",
			idx, p.BGM.StartMs, p.BGM.StartMs, trimFloat(float64(vol)), out))
		mixInputs = append(mixInputs, out)
	}

	switch len(mixInputs) {
	case 0:
		return "", nil
	case 1:
		return mixInputs[0], nil
	default:
		out := b.label("amix")
		var sb strings.Builder
		for _, l := range mixInputs {
			sb.WriteString("[" + l + "]")
		}
		b.add(fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0[%s]",
			sb.String(), len(mixInputs), out))
		return out, nil
	}
}

// eqFilter renders non-neutral clip color adjustments.
func eqFilter(f model.ClipFilters) string {
	if f.IsNeutral() {
		return ""
	}
	var parts []string
	if f.Brightness != 0 {
		parts = append(parts, "brightness="+trimFloat(f.Brightness))
	}
	if f.Contrast != 0 && f.Contrast != 1 {
		parts = append(parts, "contrast="+trimFloat(f.Contrast))
	}
	if f.Saturation != 0 && f.Saturation != 1 {
		parts = append(parts, "saturation="+trimFloat(f.Saturation))
	}
	return "eq=" + strings.Join(parts, ":")
}

// drawtextFilter renders one text overlay.
func drawtextFilter(p *model.ProjectState, ov model.TextOverlay, job Job) string {
	style := p.DefaultStyle
	if ov.Style != nil {
		style = *ov.Style
	}

	x := fmt.Sprintf("%d*%s/100", job.Width, trimFloat(ov.XPercent))
	switch ov.Alignment {
	case model.AlignCenter:
		x = "(" + x + ")-text_w/2"
	case model.AlignRight:
		x = "(" + x + ")-text_w"
	}
	y := fmt.Sprintf("%d*%s/100", job.Height, trimFloat(ov.YPercent))
	switch ov.VAlignment {
	case model.VAlignMiddle:
		y = "(" + y + ")-text_h/2"
	case model.VAlignBottom:
		y = "(" + y + ")-text_h"
	}

	opacity := ov.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	color := style.FontColor
	if color == "" {
		color = "#FFFFFF"
	}

	parts := []string{
		"drawtext=text='" + escapeDrawtext(ov.Text) + "'",
		"x=" + x,
		"y=" + y,
		fmt.Sprintf("fontsize=%d", style.FontSize),
		fmt.Sprintf("fontcolor=%s@%.2f", color, opacity),
	}
	if style.FontFamily != "" {
		parts = append(parts, "font='"+style.FontFamily+"'")
	}
	if style.OutlineWidth > 0 && style.OutlineColor != "" {
		parts = append(parts, fmt.Sprintf("borderw=%d", style.OutlineWidth),
			"bordercolor="+style.OutlineColor)
	}
	parts = append(parts, fmt.Sprintf("enable='between(t,%s,%s)'", sec(ov.StartMs), sec(ov.EndMs)))
	return strings.Join(parts, ":")
}

// escapeDrawtext escapes text for a drawtext filter argument.
func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// escapeFilterPath escapes a path for use inside a filter argument.
func escapeFilterPath(p string) string {
	if runtime.GOOS == "windows" {
		p = strings.ReplaceAll(p, `\`, `/`)
	}
	p = strings.ReplaceAll(p, `:`, `\:`)
	p = strings.ReplaceAll(p, `'`, `\'`)
	return p
}

// trimFloat renders a float without trailing zero noise.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
