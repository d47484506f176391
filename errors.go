package storyweave

import "errors"

// Sentinel errors recognized by the core. Fusion, tracking, and ordering
// never return errors for well-formed inputs — they degrade instead
// (clone-through, default-contributor remap). These are reserved for the
// context-level misuse cases the spec calls out explicitly.
var (
	// ErrMapsetMissing is returned by [GeneratorContext.MapsetPath] when the
	// mapset directory no longer exists on disk.
	ErrMapsetMissing = errors.New("storyweave: mapset path does not exist")

	// ErrLayerFactoryAbsent is returned by [Context.GetLayer] when a layer
	// must be created but no factory has been attached via
	// [Context.AttachLayerFactory].
	ErrLayerFactoryAbsent = errors.New("storyweave: no layer factory attached")

	// ErrLayerFactoryReturnedNull is a fatal programming error: the attached
	// factory returned a nil layer for the requested identifier.
	ErrLayerFactoryReturnedNull = errors.New("storyweave: layer factory returned a nil layer")
)
