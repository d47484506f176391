package storyweave

import "sync"

// Descriptor introspects one concrete command kind: how to read its start
// and end time/value/easing (implicit — callers always hand the engine a
// [Command], so the "accessors" are just field reads), how to build a fused
// replacement, how to clone it, and whether the kind is supported at all.
//
// Construction of a descriptor that can't find what it needs should yield a
// Descriptor with IsSupported false — never a panic. [Fuse] treats an
// unsupported kind as clone-through: every command of that kind passes
// through unmerged.
type Descriptor struct {
	// TypeKey is a stable string label for the kind. [Fuse] does not read
	// it: its final sort keys on the command's Kind string, so output order
	// doesn't depend on map iteration or registration order.
	TypeKey string

	// IsPoint marks a "point" kind with no meaningful end value distinct
	// from its start (e.g. a parameter toggle). New must refuse — return
	// ok=false — when start != end for a point kind; the caller then
	// falls back to clone-through for every member of the merge group.
	IsPoint bool

	// IsSupported gates whether [Fuse] attempts to bucket and merge this
	// kind at all. False means every command of this kind is
	// clone-through regardless of overlap.
	IsSupported bool

	// New builds one fused command from a merge group's resolved easing,
	// start/end time, and start/end value. It returns ok=false to signal
	// the factory refuses (e.g. a point kind asked to span a nonzero
	// duration with mismatched endpoint values) — [Fuse] then falls back
	// to clone-through for every member of that group.
	New func(easing Easing, startTime, endTime float64, startValue, endValue any) (Command, bool)

	// Clone returns a deep copy of cmd. If nil, [cloneCommand] is used.
	Clone func(cmd Command) Command
}

// clone returns a copy of cmd using d's custom Clone if set, else the
// generic deep clone.
func (d Descriptor) clone(cmd Command) Command {
	if d.Clone != nil {
		return d.Clone(cmd)
	}
	return cloneCommand(cmd)
}

// Registry maps a [Kind] to its [Descriptor]. One Registry is typically
// shared across every fusion call in a process; it is safe for concurrent
// use.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[Kind]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[Kind]Descriptor)}
}

// Register installs (or replaces) the descriptor for kind.
func (r *Registry) Register(kind Kind, d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[kind] = d
}

// Descriptor returns the descriptor registered for kind, and whether one
// was found. A kind with no registered descriptor is treated identically to
// one registered with IsSupported false: clone-through.
func (r *Registry) Descriptor(kind Kind) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[kind]
	return d, ok
}
