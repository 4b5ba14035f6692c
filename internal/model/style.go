package model

// Subtitle anchor positions on the canvas.
const (
	PositionBottomCenter = "bottom-center"
	PositionTopCenter    = "top-center"
	PositionBottomLeft   = "bottom-left"
	PositionBottomRight  = "bottom-right"
	PositionCustom       = "custom"
)

// SubtitleStyle is the visual style for rendering subtitles and text
// overlays. Colors are "#RRGGBB" strings; an empty BgColor means transparent.
type SubtitleStyle struct {
	FontFamily   string  `json:"font_family"`
	FontSize     int     `json:"font_size"`
	FontBold     bool    `json:"font_bold"`
	FontItalic   bool    `json:"font_italic"`
	FontColor    string  `json:"font_color"`
	OutlineColor string  `json:"outline_color"`
	OutlineWidth int     `json:"outline_width"`
	BgColor      string  `json:"bg_color"`
	Position     string  `json:"position"`
	MarginBottom int     `json:"margin_bottom"`
	CustomX      float64 `json:"custom_x,omitempty"`
	CustomY      float64 `json:"custom_y,omitempty"`
}

// DefaultStyle returns the style new projects start with.
func DefaultStyle() SubtitleStyle {
	return SubtitleStyle{
		FontFamily:   "Arial",
		FontSize:     18,
		FontBold:     true,
		FontColor:    "#FFFFFF",
		OutlineColor: "#000000",
		OutlineWidth: 1,
		Position:     PositionBottomCenter,
		MarginBottom: 40,
	}
}

// Copy returns an independent copy.
func (s SubtitleStyle) Copy() SubtitleStyle {
	return s
}

// Equal reports whether two styles render identically.
func (s SubtitleStyle) Equal(o SubtitleStyle) bool {
	return s == o
}
