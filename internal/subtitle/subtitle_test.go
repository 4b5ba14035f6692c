package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fastmoviemaker/fmm/internal/model"
)

func TestFormatSRT(t *testing.T) {
	tr := model.NewSubtitleTrack("Default")
	if _, err := tr.AddSegment(model.SubtitleSegment{StartMs: 0, EndMs: 1500, Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddSegment(model.SubtitleSegment{StartMs: 2000, EndMs: 4000, Text: "two\nlines"}); err != nil {
		t.Fatal(err)
	}

	got := FormatSRT(tr)
	want := "1\n00:00:00,000 --> 00:00:01,500\nhello\n\n" +
		"2\n00:00:02,000 --> 00:00:04,000\ntwo\nlines\n\n"
	if got != want {
		t.Errorf("FormatSRT:\n%q\nwant\n%q", got, want)
	}
}

func TestParseSRTRoundTrip(t *testing.T) {
	content := "\ufeff1\n00:00:01,000 --> 00:00:04,000\nHello, world!\n\n" +
		"2\n00:00:05,500 --> 00:00:08,200\nThis is a test.\nWith multiple lines.\n\n"

	tmp := filepath.Join(t.TempDir(), "test.srt")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	track, warnings, err := ParseSRT(tmp)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if track.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", track.Len())
	}
	if track.Segments[0].StartMs != 1000 || track.Segments[0].EndMs != 4000 {
		t.Errorf("segment 0 timing: %+v", track.Segments[0])
	}
	if track.Segments[1].Text != "This is a test.\nWith multiple lines." {
		t.Errorf("segment 1 text: %q", track.Segments[1].Text)
	}

	// A full write/read cycle preserves everything.
	out := filepath.Join(t.TempDir(), "out.srt")
	if err := WriteSRT(track, out); err != nil {
		t.Fatal(err)
	}
	back, _, err := ParseSRT(out)
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != track.Len() {
		t.Fatalf("round trip lost segments: %d != %d", back.Len(), track.Len())
	}
	for i := range track.Segments {
		a, b := track.Segments[i], back.Segments[i]
		if a.StartMs != b.StartMs || a.EndMs != b.EndMs || a.Text != b.Text {
			t.Errorf("segment %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestParseSRTOverlapWarning(t *testing.T) {
	content := "1\n00:00:00,000 --> 00:00:05,000\nfirst\n\n" +
		"2\n00:00:03,000 --> 00:00:06,000\ncollides\n\n"
	tmp := filepath.Join(t.TempDir(), "overlap.srt")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	track, warnings, err := ParseSRT(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if track.Len() != 1 {
		t.Errorf("expected 1 surviving segment, got %d", track.Len())
	}
	if len(warnings) != 1 {
		t.Errorf("expected a drop warning, got %v", warnings)
	}
}

func TestParseSMI(t *testing.T) {
	content := `<SAMI><BODY>
<SYNC Start=1000><P Class=KRCC>first line<br>second line</P>
<SYNC Start=3000><P Class=KRCC>&nbsp;</P>
<SYNC Start=5000><P Class=KRCC>next cue</P>
<SYNC Start=7000><P Class=KRCC>&nbsp;</P>
</BODY></SAMI>`
	tmp := filepath.Join(t.TempDir(), "test.smi")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	track, _, err := ParseSMI(tmp)
	if err != nil {
		t.Fatalf("ParseSMI: %v", err)
	}
	if track.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", track.Len())
	}
	if track.Segments[0].StartMs != 1000 || track.Segments[0].EndMs != 3000 {
		t.Errorf("segment 0 timing: %+v", track.Segments[0])
	}
	if track.Segments[0].Text != "first line\nsecond line" {
		t.Errorf("segment 0 text: %q", track.Segments[0].Text)
	}
	if track.Segments[1].StartMs != 5000 || track.Segments[1].EndMs != 7000 {
		t.Errorf("segment 1 timing: %+v", track.Segments[1])
	}
}

func TestOverrideTags(t *testing.T) {
	def := model.DefaultStyle()

	if tags := OverrideTags(def, def); tags != "" {
		t.Errorf("identical styles must emit no tags, got %q", tags)
	}

	st := def
	st.FontColor = "#FF0000"
	st.Position = model.PositionTopCenter
	tags := OverrideTags(st, def)
	if !strings.Contains(tags, `\c&H0000FF&`) {
		t.Errorf("missing BGR color override in %q", tags)
	}
	if !strings.Contains(tags, `\an8`) {
		t.Errorf("missing alignment override in %q", tags)
	}

	st2 := def
	st2.Position = model.PositionCustom
	st2.CustomX, st2.CustomY = 120, 600
	if tags := OverrideTags(st2, def); !strings.Contains(tags, `\pos(120,600)`) {
		t.Errorf("missing pos override in %q", tags)
	}
}

func TestFormatSRTStyled(t *testing.T) {
	def := model.DefaultStyle()
	styled := def
	styled.FontColor = "#00FF00"

	tr := model.NewSubtitleTrack("Default")
	if _, err := tr.AddSegment(model.SubtitleSegment{StartMs: 0, EndMs: 1000, Text: "plain"}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddSegment(model.SubtitleSegment{StartMs: 2000, EndMs: 3000, Text: "green", Style: &styled}); err != nil {
		t.Fatal(err)
	}

	out := FormatSRTStyled(tr, def)
	if strings.Contains(strings.SplitN(out, "\n\n", 2)[0], "{") {
		t.Error("default-styled segment must carry no override block")
	}
	if !strings.Contains(out, `{\c&H00FF00&}green`) {
		t.Errorf("styled segment missing override block:\n%s", out)
	}
}
