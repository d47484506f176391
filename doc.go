// Package storyweave is the layer command coordinator for an osu! storyboard
// editor: it tracks which contributor script produced each storyboard
// object, orders objects inside a layer deterministically, fuses per-object
// command timelines into minimal equivalent sequences, and exposes a shared
// storyboard context so multiple generator runs observe the same layers with
// stable identity and lifecycle events.
//
// # Quick start
//
// A single script run acquires a [GeneratorContext], asks it for layers by
// name, and attributes the storyboard objects it creates to itself:
//
//	gen, err := storyweave.NewGeneratorContext(storyweave.GeneratorConfig{
//		ProjectPath: "/path/to/project",
//	}, storyweave.Contributor{ID: "script-a"})
//	if err != nil {
//		return err
//	}
//	layer, err := gen.GetLayer(storyweave.Named("Background"))
//	if err != nil {
//		return err
//	}
//	layer.Append(sprite)
//	layer.Coordinator.Track(sprite, gen.Contributor().ID)
//
// Before export, run the coordinator once per layer to obtain a
// deterministic object order and fuse each object's commands.
// TryBuildOrdered returns a list only when the order changed:
//
//	if changed, ordered := layer.Coordinator.TryBuildOrdered(layer.Objects()); changed {
//		layer.SetObjects(ordered)
//	}
//	results := layer.Coordinator.MergeCommands(registry, layer.Objects())
//
// # Command fusion
//
// [Fuse] merges overlapping or edge-touching commands of the same concrete
// kind on one object into the minimum equivalent sequence, using a
// [Registry] of per-kind descriptors so the core never needs to know the
// concrete shape of a Move, Fade, or Rotate command.
//
// # Shared contexts
//
// Multiple generator runs that share a [Context] via [GeneratorContext.SetSharedContext]
// see the same [*Layer] reference for the same identifier, and are notified
// exactly once when a layer is created.
package storyweave
