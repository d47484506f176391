package storyweave

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func newTestGenerator(t *testing.T, cfg GeneratorConfig) *GeneratorContext {
	t.Helper()
	gen, err := NewGeneratorContext(cfg, Contributor{ID: "script-a", Name: "Script A"})
	if err != nil {
		t.Fatalf("NewGeneratorContext error = %v", err)
	}
	t.Cleanup(gen.Close)
	return gen
}

func TestGeneratorContextLocalModeCreatesAndReusesLayers(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{})

	first, err := gen.GetLayer(Named("bg"))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	second, err := gen.GetLayer(Named("bg"))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if first != second {
		t.Errorf("got distinct local layers for the same identifier")
	}

	if _, ok := first.Coordinator.contributors["script-a"]; !ok {
		t.Errorf("expected this generator's contributor registered on the returned layer")
	}
}

func TestGeneratorContextSharedModeRoutesToContext(t *testing.T) {
	shared := NewContext()
	shared.AttachLayerFactory(newLayer)

	genA := newTestGenerator(t, GeneratorConfig{})
	genB, err := NewGeneratorContext(GeneratorConfig{}, Contributor{ID: "script-b", Name: "Script B"})
	if err != nil {
		t.Fatalf("NewGeneratorContext error = %v", err)
	}
	t.Cleanup(genB.Close)

	genA.SetSharedContext(shared)
	genB.SetSharedContext(shared)

	layerA, err := genA.GetLayer(Named("bg"))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	layerB, err := genB.GetLayer(Named("bg"))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if layerA != layerB {
		t.Errorf("two generators sharing one context got distinct layers for the same identifier")
	}
}

func TestGeneratorContextUnnamedLayerTreatedUniformly(t *testing.T) {
	// Local and shared modes must treat the unnamed slot identically —
	// this is the redesigned behavior for the suspected original bug
	// where local mode collapsed null into "".
	local := newTestGenerator(t, GeneratorConfig{})
	localUnnamed, err := local.GetLayer(Unnamed())
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	localEmpty, err := local.GetLayer(Named(""))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if localUnnamed == localEmpty {
		t.Errorf("local mode must keep Unnamed() distinct from Named(\"\")")
	}

	shared := NewContext()
	shared.AttachLayerFactory(newLayer)
	gen := newTestGenerator(t, GeneratorConfig{})
	gen.SetSharedContext(shared)

	sharedUnnamed, err := gen.GetLayer(Unnamed())
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	sharedEmpty, err := gen.GetLayer(Named(""))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if sharedUnnamed == sharedEmpty {
		t.Errorf("shared mode must keep Unnamed() distinct from Named(\"\")")
	}
}

func TestGeneratorContextMapsetPathMissing(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{MapsetPath: "/nonexistent/path/for/storyweave/tests"})
	if _, err := gen.MapsetPath(); err != ErrMapsetMissing {
		t.Errorf("got err %v, want ErrMapsetMissing", err)
	}
}

func TestGeneratorContextMapsetPathPresent(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(t, GeneratorConfig{MapsetPath: dir})
	path, err := gen.MapsetPath()
	if err != nil {
		t.Fatalf("MapsetPath error = %v", err)
	}
	if path != dir {
		t.Errorf("got path %v, want %v", path, dir)
	}
}

func TestGeneratorContextBeatmapReadFlipsDependentFlag(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{})
	if gen.BeatmapDependent() {
		t.Fatalf("expected BeatmapDependent false before any read")
	}
	gen.SetBeatmap("fake-beatmap")
	_ = gen.Beatmap()
	if !gen.BeatmapDependent() {
		t.Errorf("expected BeatmapDependent true after reading Beatmap")
	}
}

func TestGeneratorContextCancellationTokenDefaultsToBackground(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{})
	if gen.CancellationToken() != context.Background() {
		t.Errorf("expected context.Background() when no token is set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen.SetCancellationToken(ctx)
	select {
	case <-gen.CancellationToken().Done():
	default:
		t.Errorf("expected the set cancellation token to be observed as done")
	}
}

func TestGeneratorContextGetFftCachesByAbsolutePath(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{})

	first, err := gen.GetFft("audio.mp3", 120, 44100)
	if err != nil {
		t.Fatalf("GetFft error = %v", err)
	}
	second, err := gen.GetFft("audio.mp3", 120, 44100)
	if err != nil {
		t.Fatalf("GetFft error = %v", err)
	}
	if first != second {
		t.Errorf("expected the same FFTSource for the same path")
	}

	spectrum := first.GetFft(1.0, false)
	if len(spectrum) != 1 || len(spectrum[0]) == 0 {
		t.Errorf("got malformed spectrum %v", spectrum)
	}
}

func TestGeneratorContextRunEffectCancelsBeforePhase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := NewLog(nil)
	outcome := RunEffect(ctx, log, []Phase{PhaseLoading}, map[Phase]func(context.Context) error{
		PhaseLoading: func(context.Context) error {
			t.Fatal("phase function must not run after cancellation")
			return nil
		},
	})
	if outcome.Status != StatusUpdateCanceled {
		t.Errorf("got status %v, want StatusUpdateCanceled", outcome.Status)
	}
}

func TestGeneratorContextRunEffectMapsFailuresByPhase(t *testing.T) {
	failingWith := func(err error) func(context.Context) error {
		return func(context.Context) error { return err }
	}
	boom := errors.New("boom")

	cases := []struct {
		phase Phase
		want  EffectStatus
	}{
		{PhaseLoading, StatusLoadingFailed},
		{PhaseConfiguring, StatusCompilationFailed},
		{PhaseGenerating, StatusExecutionFailed},
		{PhasePostProcessing, StatusExecutionFailed},
	}
	for _, tc := range cases {
		outcome := RunEffect(context.Background(), NewLog(nil), []Phase{tc.phase}, map[Phase]func(context.Context) error{
			tc.phase: failingWith(boom),
		})
		if outcome.Status != tc.want {
			t.Errorf("phase %v: got status %v, want %v", tc.phase, outcome.Status, tc.want)
		}
	}
}

func TestGeneratorContextRunScriptsSequentialWhenNotMultithreaded(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{})

	var order []int
	err := gen.RunScripts(context.Background(),
		func(context.Context) error { order = append(order, 0); return nil },
		func(context.Context) error { order = append(order, 1); return nil },
	)
	if err != nil {
		t.Fatalf("RunScripts error = %v", err)
	}
	if len(order) != 2 || order[0] != 0 || order[1] != 1 {
		t.Errorf("got order %v, want sequential [0 1]", order)
	}
}

func TestGeneratorContextRunScriptsFansOutWhenMultithreaded(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{Multithreaded: true})

	var count int32
	err := gen.RunScripts(context.Background(),
		func(context.Context) error { atomic.AddInt32(&count, 1); return nil },
		func(context.Context) error { atomic.AddInt32(&count, 1); return nil },
		func(context.Context) error { atomic.AddInt32(&count, 1); return nil },
	)
	if err != nil {
		t.Fatalf("RunScripts error = %v", err)
	}
	if count != 3 {
		t.Errorf("got %d script invocations, want 3", count)
	}
}

func TestGeneratorContextRunScriptsPropagatesFirstError(t *testing.T) {
	gen := newTestGenerator(t, GeneratorConfig{Multithreaded: true})
	boom := errors.New("boom")

	err := gen.RunScripts(context.Background(),
		func(context.Context) error { return boom },
		func(context.Context) error { return nil },
	)
	if !errors.Is(err, boom) {
		t.Errorf("got err %v, want %v", err, boom)
	}
}
