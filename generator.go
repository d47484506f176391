package storyweave

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Beatmap is an opaque placeholder for parsed beatmap data. Beatmap parsing
// is outside this core's scope — callers hand a [GeneratorContext] whatever
// concrete type their own beatmap loader produces.
type Beatmap any

// GeneratorConfig configures a single script run's [GeneratorContext].
type GeneratorConfig struct {
	ProjectPath   string
	AssetPath     string
	MapsetPath    string
	Multithreaded bool
	Logger        *zap.Logger
}

type generatorCtxKey struct{}

// Activate returns a context derived from parent with g bound as the
// current GeneratorContext for the duration of whatever call chain carries
// it, retrievable with [CurrentGenerator]. This realizes the spec's ambient
// "current context" as an explicit parameter threaded through
// context.Context rather than thread-local or goroutine-local state: since
// generation may be multithreaded and a script may fan work out across
// goroutines, only a value that's explicitly passed down the call chain
// stays correctly scoped to one logical run.
func (g *GeneratorContext) Activate(parent context.Context) context.Context {
	return context.WithValue(parent, generatorCtxKey{}, g)
}

// CurrentGenerator returns the GeneratorContext bound to ctx by
// [GeneratorContext.Activate], if any.
func CurrentGenerator(ctx context.Context) (*GeneratorContext, bool) {
	g, ok := ctx.Value(generatorCtxKey{}).(*GeneratorContext)
	return g, ok
}

// GeneratorContext is the facade a single script run uses to obtain layers
// and observe ambient run state. It operates in one of two modes: local,
// where it owns its own layer map, or shared, where layer creation and
// lookup delegate to a [Context] ([SetSharedContext]). Both modes treat the
// unnamed layer slot identically — there is no separate "empty string"
// identifier distinct from it.
type GeneratorContext struct {
	mu sync.Mutex

	contributor Contributor

	shared      *Context
	unsubscribe func()

	localLayers map[LayerID]*Layer

	onLayerCreated  func(*Layer)
	onLayerAccessed func(*Layer)

	projectPath string
	assetPath   string
	mapsetPath  string

	beatmap          Beatmap
	beatmaps         []Beatmap
	beatmapDependent bool

	fftCache *FFTCache
	watcher  *Watcher

	cancelCtx     context.Context
	multithreaded bool

	Log *Log
}

// NewGeneratorContext returns a local-mode generator context for the given
// contributor identity.
func NewGeneratorContext(cfg GeneratorConfig, contributor Contributor) (*GeneratorContext, error) {
	watcher, err := NewWatcher()
	if err != nil {
		return nil, err
	}
	return &GeneratorContext{
		contributor:   contributor,
		localLayers:   make(map[LayerID]*Layer),
		projectPath:   cfg.ProjectPath,
		assetPath:     cfg.AssetPath,
		mapsetPath:    cfg.MapsetPath,
		multithreaded: cfg.Multithreaded,
		fftCache:      NewFFTCache(),
		watcher:       watcher,
		Log:           NewLog(cfg.Logger),
	}, nil
}

// GetLayer returns the layer for id — from the shared context if one is
// attached, otherwise from this context's local map — creating it on first
// request. Every layer returned has this context's contributor registered
// on it. Access is always reported via the OnLayerAccessed callback;
// creation is reported via OnLayerCreated, either synchronously (local
// mode) or, in shared mode, as the context's LayerCreated broadcast reaches
// this generator's subscription.
func (g *GeneratorContext) GetLayer(id LayerID) (*Layer, error) {
	g.mu.Lock()
	shared := g.shared
	contributor := g.contributor
	g.mu.Unlock()

	var layer *Layer
	if shared != nil {
		l, err := shared.GetLayer(id)
		if err != nil {
			return nil, err
		}
		layer = l
	} else {
		g.mu.Lock()
		l, ok := g.localLayers[id]
		if !ok {
			l = newLayer(id)
			g.localLayers[id] = l
		}
		g.mu.Unlock()
		layer = l
		if !ok {
			layer.Coordinator.RegisterContributor(contributor.ID, contributor.Name, contributor.Priority)
			g.fireAccessed(layer)
			g.fireCreated(layer)
			return layer, nil
		}
	}

	layer.Coordinator.RegisterContributor(contributor.ID, contributor.Name, contributor.Priority)
	g.fireAccessed(layer)
	return layer, nil
}

// SetSharedContext switches this generator to shared mode against shared
// (or back to local mode if shared is nil). Switching unhooks the previous
// LayerCreated subscription and hooks a new one; passing the context
// already in effect is a no-op.
func (g *GeneratorContext) SetSharedContext(shared *Context) {
	g.mu.Lock()
	if g.shared == shared {
		g.mu.Unlock()
		return
	}
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	g.shared = shared
	g.mu.Unlock()

	if shared == nil {
		return
	}

	events, unsubscribe := shared.Subscribe()
	g.mu.Lock()
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	go func() {
		for evt := range events {
			g.fireCreated(evt.Layer)
		}
	}()
}

// OnLayerCreated installs the callback invoked whenever GetLayer (or, in
// shared mode, any other generator sharing the same context) creates a new
// layer.
func (g *GeneratorContext) OnLayerCreated(fn func(*Layer)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLayerCreated = fn
}

// OnLayerAccessed installs the callback invoked on every GetLayer call,
// whether or not it created the layer.
func (g *GeneratorContext) OnLayerAccessed(fn func(*Layer)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLayerAccessed = fn
}

func (g *GeneratorContext) fireCreated(layer *Layer) {
	g.mu.Lock()
	cb := g.onLayerCreated
	g.mu.Unlock()
	if cb != nil {
		cb(layer)
	}
}

func (g *GeneratorContext) fireAccessed(layer *Layer) {
	g.mu.Lock()
	cb := g.onLayerAccessed
	g.mu.Unlock()
	if cb != nil {
		cb(layer)
	}
}

// Contributor returns the contributor identity this run attributes its
// storyboard objects to.
func (g *GeneratorContext) Contributor() Contributor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.contributor
}

// ProjectPath returns the run's configured project directory.
func (g *GeneratorContext) ProjectPath() string { return g.projectPath }

// AssetPath returns the run's configured asset directory.
func (g *GeneratorContext) AssetPath() string { return g.assetPath }

// MapsetPath returns the configured mapset directory, failing with
// [ErrMapsetMissing] if it no longer exists on disk.
func (g *GeneratorContext) MapsetPath() (string, error) {
	if _, err := os.Stat(g.mapsetPath); err != nil {
		return "", ErrMapsetMissing
	}
	return g.mapsetPath, nil
}

// SetBeatmap assigns the run's primary beatmap. Does not itself flip
// BeatmapDependent — only reading via [GeneratorContext.Beatmap] does.
func (g *GeneratorContext) SetBeatmap(b Beatmap) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.beatmap = b
}

// SetBeatmaps assigns the full set of beatmaps the run can see.
func (g *GeneratorContext) SetBeatmaps(b []Beatmap) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.beatmaps = b
}

// Beatmap returns the run's primary beatmap and marks this run as
// beatmap-dependent.
func (g *GeneratorContext) Beatmap() Beatmap {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.beatmapDependent = true
	return g.beatmap
}

// Beatmaps returns every beatmap visible to the run and marks it
// beatmap-dependent.
func (g *GeneratorContext) Beatmaps() []Beatmap {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.beatmapDependent = true
	return g.beatmaps
}

// BeatmapDependent reports whether Beatmap or Beatmaps has been read during
// this run.
func (g *GeneratorContext) BeatmapDependent() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.beatmapDependent
}

// GetFft returns the (possibly cached) synthetic FFT source for path.
func (g *GeneratorContext) GetFft(path string, duration, frequency float64) (*FFTSource, error) {
	return g.fftCache.Get(path, duration, frequency)
}

// AddDependency forwards path to this context's file watcher.
func (g *GeneratorContext) AddDependency(path string) {
	g.watcher.Watch(path)
}

// CancellationToken returns the context this run should observe for
// cooperative cancellation, or context.Background() if none was set.
func (g *GeneratorContext) CancellationToken() context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelCtx == nil {
		return context.Background()
	}
	return g.cancelCtx
}

// SetCancellationToken sets the context this run observes for cancellation.
func (g *GeneratorContext) SetCancellationToken(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelCtx = ctx
}

// Multithreaded reports whether this run opted into concurrent generation
// against a shared context.
func (g *GeneratorContext) Multithreaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.multithreaded
}

// RunScripts runs scripts, one function per contributor script, against
// this run's shared context. When Multithreaded is set, it fans them out
// concurrently via [RunAll] — the first script to fail cancels the rest
// and its error is returned. Otherwise it runs them one at a time in
// order, stopping at the first error, matching single-threaded generation.
func (g *GeneratorContext) RunScripts(ctx context.Context, scripts ...func(context.Context) error) error {
	if g.Multithreaded() {
		return RunAll(ctx, scripts...)
	}
	for _, script := range scripts {
		if err := script(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close detaches from any shared context, releases this run's FFT cache,
// and closes the file watcher. Each GeneratorContext creates its own
// watcher in NewGeneratorContext; watchers are not shared between contexts.
func (g *GeneratorContext) Close() {
	g.mu.Lock()
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	g.mu.Unlock()
	g.fftCache.Release()
	_ = g.watcher.Close()
}
