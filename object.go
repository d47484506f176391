package storyweave

import "math"

// StoryboardObject is any entity the coordinator can track and order. Its
// StartTime and EndTime must be finite; sanitizeTime is applied wherever the
// core reads them so NaN/±Inf never leak into ordering or merge decisions.
type StoryboardObject interface {
	StartTime() float64
	EndTime() float64
}

// SpriteLike is a [StoryboardObject] that owns an ordered command list and
// can accept a freshly fused replacement. Concrete sprite types additionally
// implementing [DisplayRebuildable] get their derived display state rebuilt
// after fusion; types that don't are simply left with the new command list.
type SpriteLike interface {
	StoryboardObject
	Commands() []Command
	SetCommands([]Command)
}

// SegmentLike is a [StoryboardObject] that owns an ordered list of child
// storyboard objects, which may themselves be segments. Recursion depth is
// unbounded in principle; in practice it is bounded by however deep a
// storyboard script actually nests segments.
type SegmentLike interface {
	StoryboardObject
	Children() []StoryboardObject
}

// DisplayRebuildable is the explicit capability a sprite-like object
// implements to have its derived render-facing state (display timelines,
// "has trigger" flag, cached cumulants) rebuilt after a fusion pass. This
// replaces reflection-based sprite surgery with a direct method call: the
// coordinator invokes it when present and no-ops otherwise, so an object
// that doesn't carry derived state is never penalized.
type DisplayRebuildable interface {
	RebuildDisplayState(commands []Command)
}

// sanitizeTime replaces NaN and ±Inf with 0, per the spec's NaN/∞
// sanitation rule: non-finite times are treated as 0 for ordering and merge
// decisions, and the sanitized value is what callers see in outputs.
func sanitizeTime(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	return t
}

// objectBounds returns the sanitized (start, end) bounds for obj. For a
// [SegmentLike], this is the min/max over the recursive closure of its
// children; an empty segment has bounds (0, 0).
func objectBounds(obj StoryboardObject) (start, end float64) {
	if seg, ok := obj.(SegmentLike); ok {
		return segmentBounds(seg)
	}
	return sanitizeTime(obj.StartTime()), sanitizeTime(obj.EndTime())
}

func segmentBounds(seg SegmentLike) (start, end float64) {
	children := seg.Children()
	if len(children) == 0 {
		return 0, 0
	}
	first := true
	for _, child := range children {
		cs, ce := objectBounds(child)
		if first {
			start, end = cs, ce
			first = false
			continue
		}
		if cs < start {
			start = cs
		}
		if ce > end {
			end = ce
		}
	}
	return start, end
}
