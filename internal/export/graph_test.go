package export

import (
	"strings"
	"testing"

	"github.com/fastmoviemaker/fmm/internal/model"
)

func baseJob() Job {
	return Job{
		OutputPath: "/tmp/out.mp4",
		Width:      1920,
		Height:     1080,
		Audio:      AudioMixed,
	}
}

// Two clips of the same source plus one PIP overlay: the graph carries
// exactly two trim nodes, one concat, one time-gated overlay, and one
// subtitles filter referencing the SRT.
func TestGraphInvariants(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 60_000

	clips := &model.VideoClipTrack{}
	if err := clips.AddClip(0, model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000}); err != nil {
		t.Fatal(err)
	}
	if err := clips.AddClip(1, model.VideoClip{SourceInMs: 20_000, SourceOutMs: 30_000}); err != nil {
		t.Fatal(err)
	}
	p.VideoClipTrack = clips

	if _, err := p.ImageOverlayTrack.Add(model.ImageOverlay{
		StartMs: 1_000, EndMs: 3_000, ImagePath: "/media/pip.png",
		XPercent: 70, YPercent: 10, ScalePercent: 25, Opacity: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ActiveTrack().AddSegment(model.SubtitleSegment{StartMs: 0, EndMs: 2_000, Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	graph, err := BuildGraph(p, baseJob(), "/tmp/burn.srt")
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	fc := graph.FilterComplex

	if got := strings.Count(fc, "]trim=start="); got != 2 {
		t.Errorf("trim nodes = %d, want 2\n%s", got, fc)
	}
	if got := strings.Count(fc, "concat=n=2:v=1:a=0"); got != 1 {
		t.Errorf("video concat nodes = %d, want 1\n%s", got, fc)
	}
	if got := strings.Count(fc, "overlay="); got != 1 {
		t.Errorf("overlay nodes = %d, want 1\n%s", got, fc)
	}
	if !strings.Contains(fc, "enable='between(t,1.000,3.000)'") {
		t.Errorf("overlay not gated to [1s, 3s]:\n%s", fc)
	}
	if got := strings.Count(fc, "subtitles="); got != 1 {
		t.Errorf("subtitles nodes = %d, want 1\n%s", got, fc)
	}
	if !strings.Contains(fc, "format=rgba,colorchannelmixer=aa=1.00") {
		t.Errorf("overlay opacity chain missing:\n%s", fc)
	}

	// The same source feeds both clips through one input; the PIP is the
	// second input.
	if len(graph.Inputs) != 2 {
		t.Fatalf("inputs = %+v, want source + overlay image", graph.Inputs)
	}
	if graph.Inputs[0].Path != "/media/input.mp4" || graph.Inputs[1].Path != "/media/pip.png" {
		t.Errorf("inputs = %+v", graph.Inputs)
	}
	if !graph.Inputs[1].IsImage {
		t.Error("overlay input must be flagged as image")
	}
	if graph.DurationMs != 20_000 {
		t.Errorf("duration = %d, want 20000", graph.DurationMs)
	}
}

func TestGraphWithoutClipTrack(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 5_000

	graph, err := BuildGraph(p, baseJob(), "")
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if got := strings.Count(graph.FilterComplex, "]trim=start=0.000:end=5.000"); got != 1 {
		t.Errorf("expected one full-video trim:\n%s", graph.FilterComplex)
	}
	if strings.Contains(graph.FilterComplex, "subtitles=") {
		t.Error("no SRT given, no subtitles filter expected")
	}
}

func TestGraphTransitionBecomesXfade(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 60_000

	clips := &model.VideoClipTrack{}
	_ = clips.AddClip(0, model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000})
	_ = clips.AddClip(1, model.VideoClip{SourceInMs: 20_000, SourceOutMs: 30_000})
	if err := clips.SetTransition(0, &model.Transition{Kind: "dissolve", DurationMs: 1_000, AudioCrossfade: true}); err != nil {
		t.Fatal(err)
	}
	p.VideoClipTrack = clips

	graph, err := BuildGraph(p, baseJob(), "")
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	fc := graph.FilterComplex

	if !strings.Contains(fc, "xfade=transition=dissolve:duration=1.000:offset=9.000") {
		t.Errorf("xfade missing or wrong offset:\n%s", fc)
	}
	if strings.Contains(fc, "]concat=n=2:v=1:a=0[") {
		t.Errorf("transition boundary must not hard-concat video:\n%s", fc)
	}
	if !strings.Contains(fc, "acrossfade=d=1.000") {
		t.Errorf("audio crossfade requested but missing:\n%s", fc)
	}
	// Transition collapses 1s of overlap.
	if graph.DurationMs != 19_000 {
		t.Errorf("duration = %d, want 19000", graph.DurationMs)
	}
}

func TestGraphVideoOnlyTransitionKeepsAudioCut(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 60_000

	clips := &model.VideoClipTrack{}
	_ = clips.AddClip(0, model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000})
	_ = clips.AddClip(1, model.VideoClip{SourceInMs: 20_000, SourceOutMs: 30_000})
	_ = clips.SetTransition(0, &model.Transition{Kind: "fade", DurationMs: 1_000})
	p.VideoClipTrack = clips

	graph, err := BuildGraph(p, baseJob(), "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(graph.FilterComplex, "acrossfade") {
		t.Error("audio crossfade emitted without the flag")
	}
	if !strings.Contains(graph.FilterComplex, "concat=n=2:v=0:a=1") {
		t.Error("audio must keep a hard cut at a video-only transition")
	}
}

func TestGraphClipFilters(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 10_000

	clips := &model.VideoClipTrack{}
	_ = clips.AddClip(0, model.VideoClip{
		SourceInMs: 0, SourceOutMs: 10_000,
		Filters: model.ClipFilters{Brightness: 0.1, Contrast: 1.2, Saturation: 0.8},
	})
	p.VideoClipTrack = clips

	graph, err := BuildGraph(p, baseJob(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(graph.FilterComplex, "eq=brightness=0.1:contrast=1.2:saturation=0.8") {
		t.Errorf("eq filter missing:\n%s", graph.FilterComplex)
	}
}

func TestGraphTextOverlayDrawtext(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 10_000
	if _, err := p.TextOverlayTrack.Add(model.TextOverlay{
		StartMs: 2_000, EndMs: 4_000, Text: "Big Title",
		XPercent: 50, YPercent: 20,
		Alignment: model.AlignCenter, VAlignment: model.VAlignTop,
		Opacity: 0.9,
	}); err != nil {
		t.Fatal(err)
	}

	graph, err := BuildGraph(p, baseJob(), "")
	if err != nil {
		t.Fatal(err)
	}
	fc := graph.FilterComplex
	if !strings.Contains(fc, "drawtext=text='Big Title'") {
		t.Errorf("drawtext missing:\n%s", fc)
	}
	if !strings.Contains(fc, "enable='between(t,2.000,4.000)'") {
		t.Errorf("drawtext not time-gated:\n%s", fc)
	}
	if !strings.Contains(fc, "-text_w/2") {
		t.Errorf("centered alignment missing anchor math:\n%s", fc)
	}
}

func TestGraphPerSegmentVolumes(t *testing.T) {
	p := model.NewProject()
	p.VideoPath = "/media/input.mp4"
	p.DurationMs = 10_000
	tr := p.ActiveTrack()
	tr.AudioPath = "/tts/merged.mp3"
	if _, err := tr.AddSegment(model.SubtitleSegment{StartMs: 0, EndMs: 2_000, Text: "a", Volume: 0.5}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddSegment(model.SubtitleSegment{StartMs: 3_000, EndMs: 5_000, Text: "b"}); err != nil {
		t.Fatal(err)
	}

	graph, err := BuildGraph(p, baseJob(), "")
	if err != nil {
		t.Fatal(err)
	}
	fc := graph.FilterComplex
	if got := strings.Count(fc, "atrim=start="); got != 2+1 {
		// one atrim per segment slice plus the clip audio atrim
		t.Errorf("atrim nodes = %d, want 3:\n%s", got, fc)
	}
	if !strings.Contains(fc, "volume=0.5") {
		t.Errorf("per-segment volume missing:\n%s", fc)
	}
	if !strings.Contains(fc, "amix=inputs=3") {
		t.Errorf("amix must merge original + 2 slices:\n%s", fc)
	}
}

func TestGraphRejectsEmptyProject(t *testing.T) {
	p := model.NewProject()
	if _, err := BuildGraph(p, baseJob(), ""); err == nil {
		t.Error("expected failure without video")
	}

	p.VideoPath = "/media/input.mp4"
	if _, err := BuildGraph(p, Job{OutputPath: "x.mp4"}, ""); err == nil {
		t.Error("expected failure without resolution")
	}
}
