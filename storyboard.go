package storyweave

import "sync"

// LayerID identifies a layer within a [Context]. The zero value is not
// itself a valid external identifier — construct one with [Named] or
// [Unnamed]. Unnamed() is a distinct reserved slot, never collapsed into
// Named("").
type LayerID struct {
	name    string
	isNamed bool
}

// Named returns the identifier for the named layer "name".
func Named(name string) LayerID { return LayerID{name: name, isNamed: true} }

// Unnamed returns the identifier for the context's single reserved unnamed
// layer slot.
func Unnamed() LayerID { return LayerID{} }

// String returns the layer's name, or "<unnamed>" for the reserved slot.
func (id LayerID) String() string {
	if !id.isNamed {
		return "<unnamed>"
	}
	return id.name
}

// Layer is a named ordered container of storyboard objects, carrying its
// own [LayerCommandCoordinator].
type Layer struct {
	ID          LayerID
	Coordinator *LayerCommandCoordinator

	mu      sync.Mutex
	objects []StoryboardObject
}

func newLayer(id LayerID) *Layer {
	return &Layer{ID: id, Coordinator: NewLayerCommandCoordinator()}
}

// Objects returns a point-in-time copy of the layer's object list.
func (l *Layer) Objects() []StoryboardObject {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]StoryboardObject, len(l.objects))
	copy(out, l.objects)
	return out
}

// SetObjects replaces the layer's object list wholesale, typically with the
// result of [LayerCommandCoordinator.TryBuildOrdered].
func (l *Layer) SetObjects(objects []StoryboardObject) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects = objects
}

// Append adds one object to the end of the layer's list.
func (l *Layer) Append(obj StoryboardObject) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects = append(l.objects, obj)
}

// LayerFactory builds the concrete layer a [Context] stores for a newly
// requested identifier. A context accepts only its first attached factory,
// so every layer a given context ever creates is built the same way.
type LayerFactory func(id LayerID) *Layer

// LayerCreatedEvent is broadcast exactly once per layer a [Context]
// creates, to every subscriber live at that moment.
type LayerCreatedEvent struct {
	Layer *Layer
}

// Context is the shared registry mapping a layer identifier to its [Layer],
// with ordered insertion, a distinct unnamed slot, a monotonically
// increasing Version, and a broadcast of layer-creation events. It is safe
// for concurrent use; layer operations are guarded by one mutex and the
// subscriber set by a second, and creation events are delivered outside the
// layer lock so a subscriber calling back into the context cannot deadlock
// it.
type Context struct {
	mu      sync.Mutex
	named   map[string]*Layer
	order   []string
	unnamed *Layer
	factory LayerFactory
	Version uint64

	subMu     sync.Mutex
	nextSubID uint64
	subs      map[uint64]*subscription
}

// NewContext returns an empty shared storyboard context.
func NewContext() *Context {
	return &Context{
		named: make(map[string]*Layer),
		subs:  make(map[uint64]*subscription),
	}
}

// subscription delivers every LayerCreatedEvent pushed to it to its output
// channel, in order, with no drops — push appends to an unbounded queue and
// a dedicated goroutine drains it with a blocking send. This guarantees
// delivery (spec.md §5: "observed by every currently-subscribed generator")
// even when a subscriber is slow to read and many layers are created before
// it catches up, unlike a fixed-size buffered channel with a non-blocking
// send.
type subscription struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []LayerCreatedEvent
	closed bool
	out    chan LayerCreatedEvent
}

func newSubscription() *subscription {
	s := &subscription{out: make(chan LayerCreatedEvent)}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.out <- event
	}
}

func (s *subscription) push(event LayerCreatedEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Signal()
}

// AttachLayerFactory installs f as this context's layer factory. First-wins:
// once a factory is attached, later calls are ignored, so every layer this
// context ever creates comes from the same factory.
func (ctx *Context) AttachLayerFactory(f LayerFactory) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.factory != nil {
		return
	}
	ctx.factory = f
}

// GetLayer returns the layer for id, creating it via the attached factory
// on first request. It fails with [ErrLayerFactoryAbsent] if no factory has
// been attached, and with [ErrLayerFactoryReturnedNull] if the factory
// returns nil — the latter is a fatal programming error in the factory, not
// a recoverable condition.
func (ctx *Context) GetLayer(id LayerID) (*Layer, error) {
	ctx.mu.Lock()
	if layer, ok := ctx.lookupLocked(id); ok {
		ctx.mu.Unlock()
		return layer, nil
	}

	if ctx.factory == nil {
		ctx.mu.Unlock()
		return nil, ErrLayerFactoryAbsent
	}

	created := ctx.factory(id)
	if created == nil {
		ctx.mu.Unlock()
		return nil, ErrLayerFactoryReturnedNull
	}

	ctx.storeLocked(id, created)
	ctx.Version++
	ctx.mu.Unlock()

	ctx.broadcast(LayerCreatedEvent{Layer: created})
	return created, nil
}

// TryGetLayer is a non-creating lookup.
func (ctx *Context) TryGetLayer(id LayerID) (*Layer, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.lookupLocked(id)
}

// SnapshotLayers returns a point-in-time copy of every layer currently in
// the context (unnamed first, then named layers in insertion order). Later
// mutations of the context do not propagate to the returned slice.
func (ctx *Context) SnapshotLayers() []*Layer {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	out := make([]*Layer, 0, len(ctx.order)+1)
	if ctx.unnamed != nil {
		out = append(out, ctx.unnamed)
	}
	for _, name := range ctx.order {
		out = append(out, ctx.named[name])
	}
	return out
}

// EnumerateLayers visits every layer, stopping early if visit returns
// false. With snapshot=false it iterates live, under the context lock — the
// caller must let visit return promptly. With snapshot=true it iterates a
// point-in-time copy with no lock held.
func (ctx *Context) EnumerateLayers(snapshot bool, visit func(*Layer) bool) {
	if snapshot {
		for _, l := range ctx.SnapshotLayers() {
			if !visit(l) {
				return
			}
		}
		return
	}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.unnamed != nil {
		if !visit(ctx.unnamed) {
			return
		}
	}
	for _, name := range ctx.order {
		if !visit(ctx.named[name]) {
			return
		}
	}
}

// Reset clears every layer, the unnamed slot, and bumps Version. It does
// not reset the attached factory.
func (ctx *Context) Reset() {
	ctx.mu.Lock()
	ctx.named = make(map[string]*Layer)
	ctx.order = nil
	ctx.unnamed = nil
	ctx.Version++
	ctx.mu.Unlock()
}

// Subscribe registers a new listener for LayerCreated events and returns
// the event channel plus an unsubscribe function. After unsubscribe is
// called, the channel is closed and no further events are delivered to it.
func (ctx *Context) Subscribe() (events <-chan LayerCreatedEvent, unsubscribe func()) {
	ctx.subMu.Lock()
	id := ctx.nextSubID
	ctx.nextSubID++
	sub := newSubscription()
	ctx.subs[id] = sub
	ctx.subMu.Unlock()

	return sub.out, func() {
		ctx.subMu.Lock()
		defer ctx.subMu.Unlock()
		if existing, ok := ctx.subs[id]; ok {
			delete(ctx.subs, id)
			existing.close()
		}
	}
}

func (ctx *Context) broadcast(event LayerCreatedEvent) {
	ctx.subMu.Lock()
	defer ctx.subMu.Unlock()
	for _, sub := range ctx.subs {
		sub.push(event)
	}
}

func (ctx *Context) lookupLocked(id LayerID) (*Layer, bool) {
	if !id.isNamed {
		if ctx.unnamed == nil {
			return nil, false
		}
		return ctx.unnamed, true
	}
	l, ok := ctx.named[id.name]
	return l, ok
}

func (ctx *Context) storeLocked(id LayerID, layer *Layer) {
	if !id.isNamed {
		ctx.unnamed = layer
		return
	}
	if _, exists := ctx.named[id.name]; !exists {
		ctx.order = append(ctx.order, id.name)
	}
	ctx.named[id.name] = layer
}
