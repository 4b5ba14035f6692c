package command

import (
	"fmt"

	"github.com/fastmoviemaker/fmm/internal/model"
)

// Subtitle-track commands snapshot the whole affected track before mutating:
// reverting then restores it wholesale, which makes the serialization
// round-trip property hold by construction even for commands whose forward
// operation resorts or ripples neighbors.

func trackFor(p *model.ProjectState, index int) (*model.SubtitleTrack, error) {
	return p.Track(index)
}

type trackRestore struct {
	snap *model.SubtitleTrack
}

func (r *trackRestore) take(tr *model.SubtitleTrack) { r.snap = tr.Copy() }

func (r *trackRestore) restore(p *model.ProjectState, index int) error {
	tr, err := trackFor(p, index)
	if err != nil {
		return err
	}
	*tr = *r.snap.Copy()
	return nil
}

// EditText changes a segment's text.
type EditText struct {
	TrackIndex, Index int
	NewText           string
	trackRestore
}

func (c *EditText) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	if c.Index < 0 || c.Index >= tr.Len() {
		return &model.NotFoundError{Kind: "segment", Index: c.Index}
	}
	c.take(tr)
	tr.Segments[c.Index].Text = c.NewText
	return nil
}

func (c *EditText) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *EditText) Description() string {
	return fmt.Sprintf("Edit text (segment %d)", c.Index+1)
}

// EditTime changes a segment's interval.
type EditTime struct {
	TrackIndex, Index int
	NewStartMs        int64
	NewEndMs          int64
	trackRestore
}

func (c *EditTime) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if err := tr.UpdateSegmentTime(c.Index, c.NewStartMs, c.NewEndMs); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *EditTime) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *EditTime) Description() string {
	return fmt.Sprintf("Edit time (segment %d)", c.Index+1)
}

// MoveSegment shifts a segment by a delta along the timeline.
type MoveSegment struct {
	TrackIndex, Index int
	DeltaMs           int64
	DurationMs        int64
	trackRestore
}

func (c *MoveSegment) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if err := tr.MoveSegment(c.Index, c.DeltaMs, c.DurationMs); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *MoveSegment) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *MoveSegment) Description() string {
	return fmt.Sprintf("Move segment %d", c.Index+1)
}

// AddSegment inserts a new segment.
type AddSegment struct {
	TrackIndex int
	Segment    model.SubtitleSegment
	trackRestore
}

func (c *AddSegment) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if _, err := tr.AddSegment(c.Segment); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *AddSegment) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *AddSegment) Description() string                { return "Add subtitle" }

// DeleteSegment removes the segment at Index.
type DeleteSegment struct {
	TrackIndex, Index int
	trackRestore
}

func (c *DeleteSegment) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if _, err := tr.RemoveSegment(c.Index); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *DeleteSegment) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *DeleteSegment) Description() string {
	return fmt.Sprintf("Delete subtitle (segment %d)", c.Index+1)
}

// Split cuts a segment in two at AtMs.
type Split struct {
	TrackIndex, Index int
	AtMs              int64
	trackRestore
}

func (c *Split) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if err := tr.SplitSegment(c.Index, c.AtMs); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *Split) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *Split) Description() string {
	return fmt.Sprintf("Split segment %d", c.Index+1)
}

// Merge joins the segment at Index with its successor.
type Merge struct {
	TrackIndex, Index int
	trackRestore
}

func (c *Merge) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if err := tr.MergeSegments(c.Index); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *Merge) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *Merge) Description() string {
	return fmt.Sprintf("Merge segments %d-%d", c.Index+1, c.Index+2)
}

// BatchShift moves a set of segments by a common delta, all or nothing.
type BatchShift struct {
	TrackIndex int
	Indices    []int
	DeltaMs    int64
	DurationMs int64
	trackRestore
}

func (c *BatchShift) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	c.take(tr)
	if err := tr.BatchShift(c.Indices, c.DeltaMs, c.DurationMs); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *BatchShift) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *BatchShift) Description() string {
	sign := ""
	if c.DeltaMs >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("Batch shift %s%dms", sign, c.DeltaMs)
}

// EditStyle sets or clears a segment's style override.
type EditStyle struct {
	TrackIndex, Index int
	NewStyle          *model.SubtitleStyle
	trackRestore
}

func (c *EditStyle) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	if c.Index < 0 || c.Index >= tr.Len() {
		return &model.NotFoundError{Kind: "segment", Index: c.Index}
	}
	c.take(tr)
	if c.NewStyle != nil {
		st := c.NewStyle.Copy()
		tr.Segments[c.Index].Style = &st
	} else {
		tr.Segments[c.Index].Style = nil
	}
	return nil
}

func (c *EditStyle) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *EditStyle) Description() string {
	return fmt.Sprintf("Edit style (segment %d)", c.Index+1)
}

// EditVolume changes a segment's mix gain.
type EditVolume struct {
	TrackIndex, Index int
	NewVolume         float32
	trackRestore
}

func (c *EditVolume) Apply(p *model.ProjectState) error {
	tr, err := trackFor(p, c.TrackIndex)
	if err != nil {
		return err
	}
	if c.Index < 0 || c.Index >= tr.Len() {
		return &model.NotFoundError{Kind: "segment", Index: c.Index}
	}
	if c.NewVolume < 0 || c.NewVolume > 2 {
		return model.ErrOutOfRange
	}
	c.take(tr)
	tr.Segments[c.Index].Volume = c.NewVolume
	return nil
}

func (c *EditVolume) Revert(p *model.ProjectState) error { return c.restore(p, c.TrackIndex) }
func (c *EditVolume) Description() string {
	return fmt.Sprintf("Edit volume (segment %d)", c.Index+1)
}

// Clip-track commands snapshot the clip track (and, for ripple deletes, the
// subtitle track too).

type clipRestore struct {
	snap *model.VideoClipTrack
}

func (r *clipRestore) take(p *model.ProjectState) {
	if p.VideoClipTrack != nil {
		r.snap = p.VideoClipTrack.Copy()
	} else {
		r.snap = nil
	}
}

func (r *clipRestore) restore(p *model.ProjectState) error {
	if r.snap == nil {
		p.VideoClipTrack = nil
		return nil
	}
	p.VideoClipTrack = r.snap.Copy()
	return nil
}

func clipTrackOf(p *model.ProjectState) (*model.VideoClipTrack, error) {
	if p.VideoClipTrack == nil {
		return nil, model.ErrOutOfRange
	}
	return p.VideoClipTrack, nil
}

// AddClip inserts a clip at Index. On a project without a clip track it
// creates one.
type AddClip struct {
	Index int
	Clip  model.VideoClip
	clipRestore
}

func (c *AddClip) Apply(p *model.ProjectState) error {
	c.take(p)
	track := p.VideoClipTrack
	created := false
	if track == nil {
		track = model.NewClipTrackFromFullVideo(p.DurationMs)
		created = true
		if c.Index > track.Len() {
			c.snap = nil
			return &model.NotFoundError{Kind: "clip", Index: c.Index}
		}
	}
	if err := track.AddClip(c.Index, c.Clip); err != nil {
		c.snap = nil
		return err
	}
	if created {
		p.VideoClipTrack = track
	}
	return nil
}

func (c *AddClip) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *AddClip) Description() string                { return fmt.Sprintf("Add clip %d", c.Index+1) }

// DeleteClip removes a clip and ripples the active subtitle track: segments
// inside the removed span are dropped, stragglers are truncated, later
// segments shift left.
type DeleteClip struct {
	Index int
	clipRestore
	subs trackRestore
}

func (c *DeleteClip) Apply(p *model.ProjectState) error {
	track, err := clipTrackOf(p)
	if err != nil {
		return err
	}
	start, err := track.ClipTimelineStart(c.Index)
	if err != nil {
		return err
	}
	if track.Len() <= 1 {
		return model.ErrOutOfRange
	}
	clip := track.Clips[c.Index]
	end := start + clip.DurationMs()
	shift := clip.DurationMs()

	c.take(p)
	active := p.ActiveTrack()
	if active != nil {
		c.subs.take(active)
	} else {
		c.subs.snap = nil
	}

	if _, err := track.RemoveClip(c.Index); err != nil {
		c.snap = nil
		c.subs.snap = nil
		return err
	}

	if active != nil {
		kept := active.Segments[:0]
		for _, seg := range active.Segments {
			switch {
			case seg.StartMs >= start && seg.EndMs <= end:
				// fully inside the removed span
			case seg.StartMs < end && seg.EndMs > start:
				if seg.StartMs < start {
					seg.EndMs = start
				} else {
					seg.StartMs = start
					seg.EndMs = seg.EndMs - shift
				}
				if seg.EndMs > seg.StartMs {
					kept = append(kept, seg)
				}
			case seg.StartMs >= end:
				seg.StartMs -= shift
				seg.EndMs -= shift
				kept = append(kept, seg)
			default:
				kept = append(kept, seg)
			}
		}
		active.Segments = append([]model.SubtitleSegment(nil), kept...)
	}
	return nil
}

func (c *DeleteClip) Revert(p *model.ProjectState) error {
	if err := c.restore(p); err != nil {
		return err
	}
	if c.subs.snap != nil {
		return c.subs.restore(p, p.ActiveTrackIndex)
	}
	return nil
}

func (c *DeleteClip) Description() string { return fmt.Sprintf("Delete clip %d", c.Index+1) }

// SplitClip cuts the clip under a timeline position in two.
type SplitClip struct {
	AtTimelineMs int64
	clipRestore
}

func (c *SplitClip) Apply(p *model.ProjectState) error {
	track, err := clipTrackOf(p)
	if err != nil {
		return err
	}
	c.take(p)
	if _, err := track.SplitClipAtTimeline(c.AtTimelineMs); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *SplitClip) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *SplitClip) Description() string                { return "Split clip" }

// TrimClip moves one source edge of a clip.
type TrimClip struct {
	Index   int
	Side    string // model.TrimLeft or model.TrimRight
	DeltaMs int64
	clipRestore
}

func (c *TrimClip) Apply(p *model.ProjectState) error {
	track, err := clipTrackOf(p)
	if err != nil {
		return err
	}
	c.take(p)
	if err := track.TrimClipEdge(c.Index, c.Side, c.DeltaMs); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *TrimClip) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *TrimClip) Description() string                { return fmt.Sprintf("Trim clip %d", c.Index+1) }

// SetTransition installs or clears a clip's outgoing transition.
type SetTransition struct {
	Index      int
	Transition *model.Transition
	clipRestore
}

func (c *SetTransition) Apply(p *model.ProjectState) error {
	track, err := clipTrackOf(p)
	if err != nil {
		return err
	}
	c.take(p)
	if err := track.SetTransition(c.Index, c.Transition); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *SetTransition) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *SetTransition) Description() string {
	if c.Transition == nil {
		return fmt.Sprintf("Clear transition (clip %d)", c.Index+1)
	}
	return fmt.Sprintf("Set %s transition (clip %d)", c.Transition.Kind, c.Index+1)
}

// EditFilter replaces a clip's color filters.
type EditFilter struct {
	Index   int
	Filters model.ClipFilters
	clipRestore
}

func (c *EditFilter) Apply(p *model.ProjectState) error {
	track, err := clipTrackOf(p)
	if err != nil {
		return err
	}
	if c.Index < 0 || c.Index >= track.Len() {
		return &model.NotFoundError{Kind: "clip", Index: c.Index}
	}
	f := c.Filters
	if f.Brightness < -1 || f.Brightness > 1 ||
		f.Contrast < 0 || f.Contrast > 2 ||
		f.Saturation < 0 || f.Saturation > 3 {
		return model.ErrOutOfRange
	}
	c.take(p)
	track.Clips[c.Index].Filters = f
	track.Invalidate()
	return nil
}

func (c *EditFilter) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *EditFilter) Description() string {
	return fmt.Sprintf("Edit color filters (clip %d)", c.Index+1)
}

// Overlay commands.

type imageOverlayRestore struct {
	snap []model.ImageOverlay
}

func (r *imageOverlayRestore) take(p *model.ProjectState) {
	r.snap = append([]model.ImageOverlay(nil), p.ImageOverlayTrack.Overlays...)
}

func (r *imageOverlayRestore) restore(p *model.ProjectState) error {
	p.ImageOverlayTrack.Overlays = append([]model.ImageOverlay(nil), r.snap...)
	return nil
}

// AddImageOverlay places a PIP image on the overlay track.
type AddImageOverlay struct {
	Overlay model.ImageOverlay
	imageOverlayRestore
}

func (c *AddImageOverlay) Apply(p *model.ProjectState) error {
	c.take(p)
	if _, err := p.ImageOverlayTrack.Add(c.Overlay); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *AddImageOverlay) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *AddImageOverlay) Description() string                { return "Add image overlay" }

// MoveImageOverlay replaces an overlay's geometry/time window.
type MoveImageOverlay struct {
	Index   int
	Overlay model.ImageOverlay
	imageOverlayRestore
}

func (c *MoveImageOverlay) Apply(p *model.ProjectState) error {
	c.take(p)
	if err := p.ImageOverlayTrack.Update(c.Index, c.Overlay); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *MoveImageOverlay) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *MoveImageOverlay) Description() string {
	return fmt.Sprintf("Move image overlay %d", c.Index+1)
}

// RemoveImageOverlay deletes an overlay.
type RemoveImageOverlay struct {
	Index int
	imageOverlayRestore
}

func (c *RemoveImageOverlay) Apply(p *model.ProjectState) error {
	c.take(p)
	if _, err := p.ImageOverlayTrack.Remove(c.Index); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *RemoveImageOverlay) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *RemoveImageOverlay) Description() string {
	return fmt.Sprintf("Remove image overlay %d", c.Index+1)
}

type textOverlayRestore struct {
	snap []model.TextOverlay
}

func (r *textOverlayRestore) take(p *model.ProjectState) {
	r.snap = make([]model.TextOverlay, len(p.TextOverlayTrack.Overlays))
	for i, ov := range p.TextOverlayTrack.Overlays {
		r.snap[i] = ov
		if ov.Style != nil {
			st := ov.Style.Copy()
			r.snap[i].Style = &st
		}
	}
}

func (r *textOverlayRestore) restore(p *model.ProjectState) error {
	p.TextOverlayTrack.Overlays = make([]model.TextOverlay, len(r.snap))
	for i, ov := range r.snap {
		p.TextOverlayTrack.Overlays[i] = ov
		if ov.Style != nil {
			st := ov.Style.Copy()
			p.TextOverlayTrack.Overlays[i].Style = &st
		}
	}
	return nil
}

// AddTextOverlay places a free-standing text element.
type AddTextOverlay struct {
	Overlay model.TextOverlay
	textOverlayRestore
}

func (c *AddTextOverlay) Apply(p *model.ProjectState) error {
	c.take(p)
	if _, err := p.TextOverlayTrack.Add(c.Overlay); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *AddTextOverlay) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *AddTextOverlay) Description() string                { return "Add text overlay" }

// EditTextOverlay replaces a text overlay wholesale.
type EditTextOverlay struct {
	Index   int
	Overlay model.TextOverlay
	textOverlayRestore
}

func (c *EditTextOverlay) Apply(p *model.ProjectState) error {
	c.take(p)
	if err := p.TextOverlayTrack.Update(c.Index, c.Overlay); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *EditTextOverlay) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *EditTextOverlay) Description() string {
	return fmt.Sprintf("Edit text overlay %d", c.Index+1)
}

// RemoveTextOverlay deletes a text overlay.
type RemoveTextOverlay struct {
	Index int
	textOverlayRestore
}

func (c *RemoveTextOverlay) Apply(p *model.ProjectState) error {
	c.take(p)
	if _, err := p.TextOverlayTrack.Remove(c.Index); err != nil {
		c.snap = nil
		return err
	}
	return nil
}

func (c *RemoveTextOverlay) Revert(p *model.ProjectState) error { return c.restore(p) }
func (c *RemoveTextOverlay) Description() string {
	return fmt.Sprintf("Remove text overlay %d", c.Index+1)
}
