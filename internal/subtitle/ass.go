package subtitle

import (
	"fmt"
	"strings"

	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

// assAlignment maps the style anchor onto numpad alignment codes.
func assAlignment(position string) int {
	switch position {
	case model.PositionTopCenter:
		return 8
	case model.PositionBottomLeft:
		return 1
	case model.PositionBottomRight:
		return 3
	default:
		return 2
	}
}

// assColor converts "#RRGGBB" to the &HBBGGRR& form libass expects.
func assColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return ""
	}
	return fmt.Sprintf("&H%s%s%s&", hex[4:6], hex[2:4], hex[0:2])
}

// OverrideTags renders the ASS override block for a segment style, emitting
// only the attributes that differ from the default style. Returns "" when
// nothing diverges.
func OverrideTags(style, def model.SubtitleStyle) string {
	var sb strings.Builder
	if style.FontFamily != def.FontFamily && style.FontFamily != "" {
		sb.WriteString(`\fn` + style.FontFamily)
	}
	if style.FontSize != def.FontSize && style.FontSize > 0 {
		fmt.Fprintf(&sb, `\fs%d`, style.FontSize)
	}
	if style.FontBold != def.FontBold {
		if style.FontBold {
			sb.WriteString(`\b1`)
		} else {
			sb.WriteString(`\b0`)
		}
	}
	if style.FontItalic != def.FontItalic {
		if style.FontItalic {
			sb.WriteString(`\i1`)
		} else {
			sb.WriteString(`\i0`)
		}
	}
	if style.FontColor != def.FontColor {
		if c := assColor(style.FontColor); c != "" {
			sb.WriteString(`\c` + c)
		}
	}
	if style.OutlineColor != def.OutlineColor {
		if c := assColor(style.OutlineColor); c != "" {
			sb.WriteString(`\3c` + c)
		}
	}
	if style.OutlineWidth != def.OutlineWidth {
		fmt.Fprintf(&sb, `\bord%d`, style.OutlineWidth)
	}
	if style.Position != def.Position {
		if style.Position == model.PositionCustom {
			fmt.Fprintf(&sb, `\pos(%.0f,%.0f)`, style.CustomX, style.CustomY)
		} else {
			fmt.Fprintf(&sb, `\an%d`, assAlignment(style.Position))
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "{" + sb.String() + "}"
}

// FormatSRTStyled renders SRT text where segments with a diverging style
// carry an ASS override block. libass honors these tags when the file is
// burned in through the subtitles filter.
func FormatSRTStyled(track *model.SubtitleTrack, def model.SubtitleStyle) string {
	var sb strings.Builder
	for i, seg := range track.Segments {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			timeutil.MsToSRTTime(seg.StartMs),
			timeutil.MsToSRTTime(seg.EndMs)))
		if seg.Style != nil {
			if tags := OverrideTags(*seg.Style, def); tags != "" {
				sb.WriteString(tags)
			}
		}
		sb.WriteString(seg.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// StyleForceArgs renders the default style as a subtitles-filter
// force_style value ("Fontname=Arial,Fontsize=18,...").
func StyleForceArgs(def model.SubtitleStyle) string {
	parts := []string{
		"Fontname=" + def.FontFamily,
		fmt.Sprintf("Fontsize=%d", def.FontSize),
		fmt.Sprintf("Alignment=%d", assAlignment(def.Position)),
		fmt.Sprintf("MarginV=%d", def.MarginBottom),
		fmt.Sprintf("Outline=%d", def.OutlineWidth),
	}
	if def.FontBold {
		parts = append(parts, "Bold=1")
	}
	if def.FontItalic {
		parts = append(parts, "Italic=1")
	}
	if c := assColor(def.FontColor); c != "" {
		parts = append(parts, "PrimaryColour="+strings.TrimSuffix(c, "&"))
	}
	if c := assColor(def.OutlineColor); c != "" {
		parts = append(parts, "OutlineColour="+strings.TrimSuffix(c, "&"))
	}
	if c := assColor(def.BgColor); c != "" {
		parts = append(parts, "BackColour="+strings.TrimSuffix(c, "&"), "BorderStyle=4")
	}
	return strings.Join(parts, ",")
}
