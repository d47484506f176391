package storyweave

import "sync"

// TrackedEntry is the coordinator's bookkeeping record for one tracked
// object: who produced it, the sequence number it was first tracked under
// (the final ordering tiebreaker), and its cached time bounds as of the
// last ordering pass.
type TrackedEntry struct {
	Object        StoryboardObject
	ContributorID string
	Sequence      int
	StartTime     float64
	EndTime       float64
}

// CommandFusionResult reports the outcome of fusing one sprite's command
// list.
type CommandFusionResult struct {
	Object        StoryboardObject
	OriginalCount int
	FusedCount    int
}

// HasFusion reports whether fusion actually reduced the command count for
// this object.
func (r CommandFusionResult) HasFusion() bool {
	return r.FusedCount < r.OriginalCount
}

// LayerCommandCoordinator is the per-layer registry of contributors and
// tracked objects. It produces a deterministic object order and drives
// command fusion recursively through nested segments. One coordinator
// belongs to exactly one layer; every public operation is guarded by a
// single mutex and is total for well-formed input — a nil object or an
// empty contributor id where one is required is a silent no-op rather than
// an error.
type LayerCommandCoordinator struct {
	mu sync.Mutex

	contributors         map[string]Contributor
	nextContributorOrder int

	entries          map[StoryboardObject]*TrackedEntry
	nextSequence     int
	nextSnapshotBase int64
}

// NewLayerCommandCoordinator returns an empty coordinator.
func NewLayerCommandCoordinator() *LayerCommandCoordinator {
	return &LayerCommandCoordinator{
		contributors: make(map[string]Contributor),
		entries:      make(map[StoryboardObject]*TrackedEntry),
	}
}

// RegisterContributor inserts a new contributor with the next monotonic
// Order. A no-op if id is empty or already registered.
func (c *LayerCommandCoordinator) RegisterContributor(id, name string, priority int) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerContributorLocked(id, name, priority)
}

func (c *LayerCommandCoordinator) registerContributorLocked(id, name string, priority int) {
	if _, ok := c.contributors[id]; ok {
		return
	}
	c.contributors[id] = Contributor{ID: id, Name: name, Order: c.nextContributorOrder, Priority: priority}
	c.nextContributorOrder++
}

// UpdateContributorPriority updates an already-registered contributor's
// priority in place. A no-op if id is empty or unknown.
func (c *LayerCommandCoordinator) UpdateContributorPriority(id string, priority int) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.contributors[id]
	if !ok {
		return
	}
	c.contributors[id] = existing.WithPriority(priority)
}

// Track records that contributorID produced obj: the contributor is
// registered (with priority 0) if unknown, and a tracked entry is created
// if obj is new, or its attributed contributor is updated if not. A nil obj
// is a no-op.
func (c *LayerCommandCoordinator) Track(obj StoryboardObject, contributorID string) {
	if obj == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if contributorID != "" {
		c.registerContributorLocked(contributorID, contributorID, 0)
	}

	entry, ok := c.entries[obj]
	if !ok {
		start, end := objectBounds(obj)
		c.entries[obj] = &TrackedEntry{
			Object:        obj,
			ContributorID: contributorID,
			Sequence:      c.nextSequence,
			StartTime:     start,
			EndTime:       end,
		}
		c.nextSequence++
		return
	}
	entry.ContributorID = contributorID
}

// Untrack removes obj's tracked entry, if present.
func (c *LayerCommandCoordinator) Untrack(obj StoryboardObject) {
	if obj == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, obj)
}

// rankedEntry pairs one input object with its (possibly freshly created)
// tracked entry and resolved contributor, for the duration of one
// TryBuildOrdered sort pass.
type rankedEntry struct {
	obj         StoryboardObject
	entry       *TrackedEntry
	contributor Contributor
}

// TryBuildOrdered finds or creates an entry for each input object, remaps
// any object whose attributed contributor is unknown to the default
// contributor, refreshes cached time bounds, and sorts by
// (StartTime, ContributorPriority, ContributorOrder, EndTime, Sequence). It
// returns changed=false when the resulting order is identical to objects
// (ordered is undefined in that case).
func (c *LayerCommandCoordinator) TryBuildOrdered(objects []StoryboardObject) (changed bool, ordered []StoryboardObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ranked := make([]rankedEntry, 0, len(objects))
	for _, obj := range objects {
		if obj == nil {
			continue
		}

		entry, ok := c.entries[obj]
		if !ok {
			entry = &TrackedEntry{Object: obj, ContributorID: defaultContributorID, Sequence: c.nextSequence}
			c.entries[obj] = entry
			c.nextSequence++
		}

		start, end := objectBounds(obj)
		entry.StartTime = start
		entry.EndTime = end

		contributor, ok := c.contributors[entry.ContributorID]
		if !ok {
			entry.ContributorID = defaultContributorID
			contributor = defaultContributor()
		}

		ranked = append(ranked, rankedEntry{obj: obj, entry: entry, contributor: contributor})
	}

	stableSort(ranked, func(a, b rankedEntry) bool {
		if a.entry.StartTime != b.entry.StartTime {
			return a.entry.StartTime < b.entry.StartTime
		}
		if a.contributor.Priority != b.contributor.Priority {
			return a.contributor.Priority < b.contributor.Priority
		}
		if a.contributor.Order != b.contributor.Order {
			return a.contributor.Order < b.contributor.Order
		}
		if a.entry.EndTime != b.entry.EndTime {
			return a.entry.EndTime < b.entry.EndTime
		}
		return a.entry.Sequence < b.entry.Sequence
	})

	result := make([]StoryboardObject, len(ranked))
	same := len(ranked) == len(objects)
	for i, r := range ranked {
		result[i] = r.obj
		if same && objects[i] != r.obj {
			same = false
		}
	}
	if same {
		return false, nil
	}
	return true, result
}

// MergeCommands recursively fuses the command list of every sprite-like
// object reachable from objects — segments are walked into, never fused
// themselves — and returns one [CommandFusionResult] per sprite processed.
func (c *LayerCommandCoordinator) MergeCommands(registry *Registry, objects []StoryboardObject) []CommandFusionResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var results []CommandFusionResult
	for _, obj := range objects {
		c.mergeCommandsLocked(registry, obj, &results)
	}
	return results
}

func (c *LayerCommandCoordinator) mergeCommandsLocked(registry *Registry, obj StoryboardObject, results *[]CommandFusionResult) {
	if obj == nil {
		return
	}

	if seg, ok := obj.(SegmentLike); ok {
		for _, child := range seg.Children() {
			c.mergeCommandsLocked(registry, child, results)
		}
		return
	}

	sprite, ok := obj.(SpriteLike)
	if !ok {
		return
	}

	entry, ok := c.entries[obj]
	if !ok {
		start, end := objectBounds(obj)
		entry = &TrackedEntry{Object: obj, ContributorID: defaultContributorID, Sequence: c.nextSequence, StartTime: start, EndTime: end}
		c.entries[obj] = entry
		c.nextSequence++
	}

	contributor, ok := c.contributors[entry.ContributorID]
	if !ok {
		contributor = defaultContributor()
	}

	original := sprite.Commands()
	originalCount := len(original)

	// SnapshotBase is drawn from a running counter rather than a fixed
	// per-entry multiplier, so the disjoint range it reserves always
	// covers originalCount regardless of how many commands this sprite
	// carries.
	snapshotBase := c.nextSnapshotBase
	c.nextSnapshotBase += int64(originalCount) + 1

	fused := Fuse(original, registry, OrderingContext{
		ObjectOrder:         entry.Sequence,
		ContributorPriority: contributor.Priority,
		ContributorOrder:    contributor.Order,
		SnapshotBase:        snapshotBase,
	})
	RebuildSpriteTimeline(sprite, fused)

	*results = append(*results, CommandFusionResult{
		Object:        obj,
		OriginalCount: originalCount,
		FusedCount:    len(fused),
	})
}
