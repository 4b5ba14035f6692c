// Package timeline exposes the one coordinate space the player, the UI, and
// the exporter agree on: integer-millisecond positions on the output
// timeline. Without a clip track the output timeline is primary-video time;
// with one it is the concatenated clip durations.
package timeline

import (
	"github.com/fastmoviemaker/fmm/internal/model"
)

// BoundaryEpsilonMs is the tolerance used when detecting clip-boundary
// crossings: player position reports drift, and a report that lands a few ms
// short of the boundary must still be seen as the switch.
const BoundaryEpsilonMs = 30

// Position is a resolved playback position.
type Position struct {
	TimelineMs int64
	ClipIndex  int // -1 without a clip track
	SourcePath string
	SourceMs   int64
}

// Engine maps between output-timeline time and (clip index, source time),
// tracking a cursor so that repeated source windows resolve to the clip the
// player is actually inside rather than whatever reverse mapping finds first.
type Engine struct {
	track             *model.VideoClipTrack // nil = primary video only
	primaryDurationMs int64

	cursor Position
}

// NewEngine builds an engine over a clip track. Passing a nil track gives
// the identity mapping over the primary video.
func NewEngine(track *model.VideoClipTrack, primaryDurationMs int64) *Engine {
	e := &Engine{track: track, primaryDurationMs: primaryDurationMs}
	e.cursor = Position{ClipIndex: -1}
	if track != nil && track.Len() > 0 {
		e.cursor = e.resolve(0)
	}
	return e
}

// DurationMs returns the output-timeline length.
func (e *Engine) DurationMs() int64 {
	if e.track != nil && e.track.Len() > 0 {
		return e.track.OutputDurationMs()
	}
	return e.primaryDurationMs
}

// Cursor returns the current playback position.
func (e *Engine) Cursor() Position { return e.cursor }

func (e *Engine) resolve(tl int64) Position {
	if e.track == nil || e.track.Len() == 0 {
		if tl < 0 {
			tl = 0
		}
		if e.primaryDurationMs > 0 && tl > e.primaryDurationMs {
			tl = e.primaryDurationMs
		}
		return Position{TimelineMs: tl, ClipIndex: -1, SourceMs: tl}
	}
	if tl < 0 {
		tl = 0
	}
	total := e.track.OutputDurationMs()
	if tl >= total {
		// Clamp onto the last frame of the last clip.
		last := e.track.Len() - 1
		c := e.track.Clips[last]
		return Position{
			TimelineMs: total,
			ClipIndex:  last,
			SourcePath: c.SourcePath,
			SourceMs:   c.SourceOutMs,
		}
	}
	idx, c, local, err := e.track.ClipAtTimeline(tl)
	if err != nil {
		return Position{TimelineMs: tl, ClipIndex: -1, SourceMs: tl}
	}
	return Position{
		TimelineMs: tl,
		ClipIndex:  idx,
		SourcePath: c.SourcePath,
		SourceMs:   c.SourceInMs + local,
	}
}

// Seek moves the cursor to an absolute timeline position. The cursor is
// updated before the position is returned, so notifications emitted by the
// caller observe the new clip index.
func (e *Engine) Seek(timelineMs int64) Position {
	e.cursor = e.resolve(timelineMs)
	return e.cursor
}

// Advance moves the cursor forward by deltaMs of playback and reports
// whether a clip boundary was crossed. Advancing consults the cursor's clip
// index, never the bare source position: distinct clips may share a source
// file, and reverse mapping would pick the wrong one.
func (e *Engine) Advance(deltaMs int64) (Position, bool) {
	if deltaMs < 0 {
		deltaMs = 0
	}
	prevIdx := e.cursor.ClipIndex
	e.cursor = e.resolve(e.cursor.TimelineMs + deltaMs)
	return e.cursor, e.cursor.ClipIndex != prevIdx
}

// SyncToSource re-anchors the cursor from a player-reported source position.
// The player reports time within the current clip's source file; a position
// within BoundaryEpsilonMs before the clip's out point, or at or past it, is
// treated as a boundary crossing into the next clip.
func (e *Engine) SyncToSource(sourceMs int64) (Position, bool) {
	if e.track == nil || e.track.Len() == 0 {
		e.cursor = e.resolve(sourceMs)
		return e.cursor, false
	}
	idx := e.cursor.ClipIndex
	if idx < 0 || idx >= e.track.Len() {
		idx = 0
	}
	c := e.track.Clips[idx]

	if sourceMs >= c.SourceOutMs-BoundaryEpsilonMs && idx+1 < e.track.Len() {
		// Crossed (or about to cross) into the next clip.
		start, _ := e.track.ClipTimelineStart(idx + 1)
		e.cursor = e.resolve(start)
		return e.cursor, true
	}

	if sourceMs < c.SourceInMs {
		sourceMs = c.SourceInMs
	}
	if sourceMs >= c.SourceOutMs {
		sourceMs = c.SourceOutMs - 1
	}
	start, _ := e.track.ClipTimelineStart(idx)
	e.cursor = Position{
		TimelineMs: start + (sourceMs - c.SourceInMs),
		ClipIndex:  idx,
		SourcePath: c.SourcePath,
		SourceMs:   sourceMs,
	}
	return e.cursor, false
}

// AtEnd reports whether the cursor sits at (or past) the end of the
// timeline.
func (e *Engine) AtEnd() bool {
	return e.cursor.TimelineMs >= e.DurationMs()
}
