package storyweave

import "math"

// fusionEpsilon is the tolerance used for zero-duration detection and
// edge-touch/overlap merge decisions.
const fusionEpsilon = 1e-4

// OrderingContext parameterizes one [Fuse] call's final deterministic sort.
// Callers build one per object, from that object's [TrackedEntry] and the
// contributor that produced it.
type OrderingContext struct {
	// ObjectOrder identifies the object being fused, typically its tracked
	// sequence number.
	ObjectOrder int
	// ContributorPriority and ContributorOrder describe the contributor that
	// produced the object. Like ObjectOrder they are the same for every
	// command of one Fuse call, so Fuse does not compare them.
	ContributorPriority int
	ContributorOrder    int
	// SnapshotBase is added to each input command's index in the
	// original slice to produce the final deterministic tiebreaker. The
	// caller is expected to shift it into a disjoint range per object so
	// tiebreaks never collide across objects.
	SnapshotBase int64
}

// fusionOutput is one emitted command plus the bookkeeping the final sort
// needs: its type key, and the representative original index used to
// compute SnapshotIndex.
type fusionOutput struct {
	cmd           Command
	typeKey       string
	representative int
}

// Fuse merges overlapping or edge-touching same-kind commands in commands
// into a minimal equivalent sequence, per the five-step algorithm:
// snapshot & classify, sort each per-kind bucket, merge within each bucket,
// emit one command per merge group, then apply the final deterministic
// sort. It never mutates its input; every output is freshly constructed.
//
// Fuse is pure with respect to ctx and registry: identical inputs always
// produce an identical (structurally) output, and fusing the result of a
// previous fuse call with a consistent ctx returns the same sequence
// (idempotence).
func Fuse(commands []Command, registry *Registry, ctx OrderingContext) []Command {
	buckets := make(map[Kind][]fusionRecord)
	var outputs []fusionOutput

	for i, raw := range commands {
		if raw.IsGroup() {
			cloned := cloneCommand(raw)
			cloned.StartTime = sanitizeTime(cloned.StartTime)
			cloned.EndTime = sanitizeTime(cloned.EndTime)
			outputs = append(outputs, fusionOutput{
				cmd:            cloned,
				typeKey:        string(raw.Kind),
				representative: i,
			})
			continue
		}

		descriptor, ok := registry.Descriptor(raw.Kind)
		if !ok || !descriptor.IsSupported {
			cloned := cloneCommand(raw)
			cloned.StartTime = sanitizeTime(cloned.StartTime)
			cloned.EndTime = sanitizeTime(cloned.EndTime)
			outputs = append(outputs, fusionOutput{
				cmd:            cloned,
				typeKey:        string(raw.Kind),
				representative: i,
			})
			continue
		}

		buckets[raw.Kind] = append(buckets[raw.Kind], fusionRecord{
			cmd:           raw,
			descriptor:    descriptor,
			startTime:     sanitizeTime(raw.StartTime),
			endTime:       sanitizeTime(raw.EndTime),
			originalIndex: i,
		})
	}

	for kind, records := range buckets {
		stableSort(records, func(a, b fusionRecord) bool {
			if a.startTime != b.startTime {
				return a.startTime < b.startTime
			}
			if a.endTime != b.endTime {
				return a.endTime < b.endTime
			}
			return a.originalIndex < b.originalIndex
		})

		for _, out := range mergeBucket(records) {
			outputs = append(outputs, fusionOutput{
				cmd:            out.Command,
				typeKey:        string(kind),
				representative: out.representativeIndex,
			})
		}
	}

	result := make([]Command, len(outputs))
	finalRecords := make([]finalRecord, len(outputs))
	for i, out := range outputs {
		finalRecords[i] = finalRecord{
			cmd:            out.cmd,
			typeKey:        out.typeKey,
			snapshotIndex:  ctx.SnapshotBase + int64(out.representative),
		}
	}

	stableSort(finalRecords, func(a, b finalRecord) bool {
		// ObjectOrder and ContributorPriority/Order are constant within
		// one call (ctx covers a single object), so the keys here only
		// need to separate kind, time, and original input order within
		// one object's commands.
		if a.typeKey != b.typeKey {
			return a.typeKey < b.typeKey
		}
		if a.cmd.StartTime != b.cmd.StartTime {
			return a.cmd.StartTime < b.cmd.StartTime
		}
		if a.cmd.EndTime != b.cmd.EndTime {
			return a.cmd.EndTime < b.cmd.EndTime
		}
		return a.snapshotIndex < b.snapshotIndex
	})

	for i, fr := range finalRecords {
		result[i] = fr.cmd
	}
	return result
}

// fusionRecord is one non-group, supported-kind command staged for bucket
// sort and merge.
type fusionRecord struct {
	cmd           Command
	descriptor    Descriptor
	startTime     float64
	endTime       float64
	originalIndex int
}

// mergedOutput is one command emitted from a bucket's merge pass, tagged
// with the representative original index used for the final tiebreak.
type mergedOutput struct {
	Command
	representativeIndex int
}

// finalRecord is one fusion output staged for the final deterministic sort.
type finalRecord struct {
	cmd           Command
	typeKey       string
	snapshotIndex int64
}

// mergeBucket scans a sorted (by startTime, endTime, originalIndex) bucket
// of same-kind records, merging overlapping/edge-touching runs into single
// fused commands per the spec's group-flush rules, and returns one output
// per emitted group.
func mergeBucket(records []fusionRecord) []mergedOutput {
	var outputs []mergedOutput
	var group []fusionRecord

	flush := func() {
		if len(group) == 0 {
			return
		}
		outputs = append(outputs, emitGroup(group)...)
		group = nil
	}

	var groupEnd float64
	for _, rec := range records {
		zeroDuration := math.Abs(rec.endTime-rec.startTime) <= fusionEpsilon
		if zeroDuration {
			flush()
			outputs = append(outputs, emitGroup([]fusionRecord{rec})...)
			continue
		}

		if len(group) == 0 {
			group = append(group, rec)
			groupEnd = rec.endTime
			continue
		}

		if rec.startTime <= groupEnd+fusionEpsilon {
			group = append(group, rec)
			if rec.endTime > groupEnd {
				groupEnd = rec.endTime
			}
			continue
		}

		flush()
		group = append(group, rec)
		groupEnd = rec.endTime
	}
	flush()

	return outputs
}

// emitGroup builds the output(s) for one merge group. A group of size 1 is
// clone-through. A group of size >= 2 is fused via the kind's factory; if
// the factory refuses (e.g. a point kind spanning a nonzero duration), every
// member of the group falls back to clone-through instead, so a refused
// fusion never drops a command.
func emitGroup(group []fusionRecord) []mergedOutput {
	if len(group) == 1 {
		rec := group[0]
		cloned := rec.descriptor.clone(rec.cmd)
		cloned.StartTime = rec.startTime
		cloned.EndTime = rec.endTime
		return []mergedOutput{{Command: cloned, representativeIndex: rec.originalIndex}}
	}

	first := group[0]
	last := group[0]
	mixed := false
	for _, rec := range group[1:] {
		if rec.startTime < first.startTime ||
			(rec.startTime == first.startTime && rec.originalIndex < first.originalIndex) {
			first = rec
		}
		if rec.endTime > last.endTime ||
			(rec.endTime == last.endTime && rec.originalIndex > last.originalIndex) {
			last = rec
		}
		if rec.cmd.Easing != group[0].cmd.Easing {
			mixed = true
		}
	}

	fused, ok := first.descriptor.New(first.cmd.Easing, first.startTime, last.endTime, first.cmd.StartValue, last.cmd.EndValue)
	if !ok {
		outputs := make([]mergedOutput, len(group))
		for i, rec := range group {
			cloned := rec.descriptor.clone(rec.cmd)
			cloned.StartTime = rec.startTime
			cloned.EndTime = rec.endTime
			outputs[i] = mergedOutput{Command: cloned, representativeIndex: rec.originalIndex}
		}
		return outputs
	}
	fused.MixedEasing = mixed
	return []mergedOutput{{Command: fused, representativeIndex: first.originalIndex}}
}
