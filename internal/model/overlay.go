package model

import "sort"

// ImageOverlay is a time-gated picture-in-picture image. Positions are
// percentages of the canvas with a top-left anchor; ScalePercent is the
// image width as a share of canvas width.
type ImageOverlay struct {
	StartMs      int64   `json:"start_ms"`
	EndMs        int64   `json:"end_ms"`
	ImagePath    string  `json:"image_path"`
	XPercent     float64 `json:"x_percent"`
	YPercent     float64 `json:"y_percent"`
	ScalePercent float64 `json:"scale_percent"`
	Opacity      float64 `json:"opacity"`
}

// DurationMs returns the overlay's visible span.
func (o ImageOverlay) DurationMs() int64 { return o.EndMs - o.StartMs }

// ImageOverlayTrack keeps overlays sorted by start. Overlaps are allowed —
// simultaneous overlays stack visually.
type ImageOverlayTrack struct {
	Overlays []ImageOverlay `json:"overlays"`
}

// OverlaysAt returns the overlays visible at ms, in track order.
func (t *ImageOverlayTrack) OverlaysAt(ms int64) []ImageOverlay {
	var out []ImageOverlay
	for _, ov := range t.Overlays {
		if ov.StartMs > ms {
			break
		}
		if ov.EndMs > ms {
			out = append(out, ov)
		}
	}
	return out
}

// Add inserts keeping start order and returns the index.
func (t *ImageOverlayTrack) Add(ov ImageOverlay) (int, error) {
	if ov.StartMs < 0 || ov.EndMs <= ov.StartMs {
		return -1, ErrOutOfRange
	}
	idx := sort.Search(len(t.Overlays), func(i int) bool {
		return t.Overlays[i].StartMs > ov.StartMs
	})
	t.Overlays = append(t.Overlays, ImageOverlay{})
	copy(t.Overlays[idx+1:], t.Overlays[idx:])
	t.Overlays[idx] = ov
	return idx, nil
}

// Remove deletes the overlay at index and returns it.
func (t *ImageOverlayTrack) Remove(index int) (ImageOverlay, error) {
	if index < 0 || index >= len(t.Overlays) {
		return ImageOverlay{}, &NotFoundError{Kind: "image overlay", Index: index}
	}
	ov := t.Overlays[index]
	t.Overlays = append(t.Overlays[:index], t.Overlays[index+1:]...)
	return ov, nil
}

// Update replaces the overlay at index and re-sorts.
func (t *ImageOverlayTrack) Update(index int, ov ImageOverlay) error {
	if index < 0 || index >= len(t.Overlays) {
		return &NotFoundError{Kind: "image overlay", Index: index}
	}
	if ov.StartMs < 0 || ov.EndMs <= ov.StartMs {
		return ErrOutOfRange
	}
	t.Overlays[index] = ov
	sort.SliceStable(t.Overlays, func(i, j int) bool {
		return t.Overlays[i].StartMs < t.Overlays[j].StartMs
	})
	return nil
}

// ClampTo limits every overlay to [0, durationMs]. Overlays whose window
// falls entirely outside are clamped to a minimal sliver at the edge rather
// than dropped, so a load never silently loses user content. Returns how
// many overlays were adjusted.
func (t *ImageOverlayTrack) ClampTo(durationMs int64) int {
	if durationMs <= 0 {
		return 0
	}
	adjusted := 0
	for i := range t.Overlays {
		ov := &t.Overlays[i]
		start, end := ov.StartMs, ov.EndMs
		if start < 0 {
			start = 0
		}
		if end > durationMs {
			end = durationMs
		}
		if end <= start {
			if start >= durationMs {
				start = durationMs - 1
			}
			end = start + 1
		}
		if start != ov.StartMs || end != ov.EndMs {
			ov.StartMs, ov.EndMs = start, end
			adjusted++
		}
	}
	return adjusted
}

// Horizontal and vertical alignment for text overlays.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"

	VAlignTop    = "top"
	VAlignMiddle = "middle"
	VAlignBottom = "bottom"
)

// TextOverlay is a free-standing text element, independent of subtitles.
type TextOverlay struct {
	StartMs    int64          `json:"start_ms"`
	EndMs      int64          `json:"end_ms"`
	Text       string         `json:"text"`
	XPercent   float64        `json:"x_percent"`
	YPercent   float64        `json:"y_percent"`
	Alignment  string         `json:"alignment"`
	VAlignment string         `json:"v_alignment"`
	Opacity    float64        `json:"opacity"`
	Style      *SubtitleStyle `json:"style,omitempty"`
}

// TextOverlayTrack keeps text overlays sorted by start; overlaps allowed.
type TextOverlayTrack struct {
	Overlays []TextOverlay `json:"overlays"`
}

// OverlaysAt returns the text overlays visible at ms.
func (t *TextOverlayTrack) OverlaysAt(ms int64) []TextOverlay {
	idx := sort.Search(len(t.Overlays), func(i int) bool {
		return t.Overlays[i].StartMs > ms
	})
	var out []TextOverlay
	for _, ov := range t.Overlays[:idx] {
		if ov.EndMs > ms {
			out = append(out, ov)
		}
	}
	return out
}

// Add inserts keeping start order and returns the index.
func (t *TextOverlayTrack) Add(ov TextOverlay) (int, error) {
	if ov.StartMs < 0 || ov.EndMs <= ov.StartMs {
		return -1, ErrOutOfRange
	}
	idx := sort.Search(len(t.Overlays), func(i int) bool {
		return t.Overlays[i].StartMs > ov.StartMs
	})
	t.Overlays = append(t.Overlays, TextOverlay{})
	copy(t.Overlays[idx+1:], t.Overlays[idx:])
	t.Overlays[idx] = ov
	return idx, nil
}

// Remove deletes the overlay at index and returns it.
func (t *TextOverlayTrack) Remove(index int) (TextOverlay, error) {
	if index < 0 || index >= len(t.Overlays) {
		return TextOverlay{}, &NotFoundError{Kind: "text overlay", Index: index}
	}
	ov := t.Overlays[index]
	t.Overlays = append(t.Overlays[:index], t.Overlays[index+1:]...)
	return ov, nil
}

// Update replaces the overlay at index and re-sorts.
func (t *TextOverlayTrack) Update(index int, ov TextOverlay) error {
	if index < 0 || index >= len(t.Overlays) {
		return &NotFoundError{Kind: "text overlay", Index: index}
	}
	if ov.StartMs < 0 || ov.EndMs <= ov.StartMs {
		return ErrOutOfRange
	}
	t.Overlays[index] = ov
	sort.SliceStable(t.Overlays, func(i, j int) bool {
		return t.Overlays[i].StartMs < t.Overlays[j].StartMs
	})
	return nil
}
