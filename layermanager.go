package storyweave

import "sync"

// LayerManager maintains the ordered list of layers visible to the editor
// UI — distinct from a [Context], which is the shared registry generators
// consume from. It supports bulk replace for re-runs: ReplaceAll reuses an
// existing layer reference wherever the new list names the same
// identifier, so external holders of that reference keep seeing the same
// object across a re-run.
type LayerManager struct {
	mu     sync.Mutex
	layers []*Layer
}

// NewLayerManager returns an empty manager.
func NewLayerManager() *LayerManager {
	return &LayerManager{}
}

// Add appends layer to the end of the managed list.
func (m *LayerManager) Add(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers = append(m.layers, layer)
}

// Remove removes the first occurrence of layer from the managed list. A
// no-op if layer isn't present.
func (m *LayerManager) Remove(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.layers {
		if l == layer {
			m.layers = append(m.layers[:i:i], m.layers[i+1:]...)
			return
		}
	}
}

// ReplaceOne replaces the single occurrence of placeholder with
// replacements, inlined in place and in order. A no-op if placeholder isn't
// present.
func (m *LayerManager) ReplaceOne(placeholder *Layer, replacements []*Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.layers {
		if l == placeholder {
			out := make([]*Layer, 0, len(m.layers)-1+len(replacements))
			out = append(out, m.layers[:i]...)
			out = append(out, replacements...)
			out = append(out, m.layers[i+1:]...)
			m.layers = out
			return
		}
	}
}

// ReplaceAll replaces the entire managed list with next, matching by
// [LayerID]: a layer already present under the same identifier is reused
// in place rather than swapped for next's reference, so a shared pointer to
// it held elsewhere stays valid across the re-run. Identifiers present in
// the old list but absent from next are dropped. New-layer order follows
// next's order.
func (m *LayerManager) ReplaceAll(next []*Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[LayerID]*Layer, len(m.layers))
	for _, l := range m.layers {
		existing[l.ID] = l
	}

	out := make([]*Layer, len(next))
	for i, l := range next {
		if old, ok := existing[l.ID]; ok {
			out[i] = old
			continue
		}
		out[i] = l
	}
	m.layers = out
}

// Layers returns a point-in-time copy of the managed list.
func (m *LayerManager) Layers() []*Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	return out
}
