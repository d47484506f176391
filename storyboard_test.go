package storyweave

import "testing"

func TestContextGetLayerFailsWithoutFactory(t *testing.T) {
	ctx := NewContext()
	if _, err := ctx.GetLayer(Named("bg")); err != ErrLayerFactoryAbsent {
		t.Errorf("got err %v, want ErrLayerFactoryAbsent", err)
	}
}

func TestContextGetLayerFailsOnNilFromFactory(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(func(id LayerID) *Layer { return nil })
	if _, err := ctx.GetLayer(Named("bg")); err != ErrLayerFactoryReturnedNull {
		t.Errorf("got err %v, want ErrLayerFactoryReturnedNull", err)
	}
}

func TestContextAttachLayerFactoryIsFirstWins(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(newLayer)
	ctx.AttachLayerFactory(func(id LayerID) *Layer {
		t.Fatal("second factory attachment must be ignored")
		return nil
	})

	if _, err := ctx.GetLayer(Named("bg")); err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
}

func TestContextGetLayerIsSingletonPerIdentifier(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(newLayer)

	first, err := ctx.GetLayer(Named("bg"))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	second, err := ctx.GetLayer(Named("bg"))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if first != second {
		t.Errorf("got distinct layers for the same identifier, want the same reference")
	}
}

func TestContextUnnamedSlotIsDistinctAndSingleton(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(newLayer)

	unnamed, err := ctx.GetLayer(Unnamed())
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	empty, err := ctx.GetLayer(Named(""))
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if unnamed == empty {
		t.Errorf("unnamed slot must be distinct from Named(\"\")")
	}

	again, err := ctx.GetLayer(Unnamed())
	if err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	if again != unnamed {
		t.Errorf("repeated Unnamed() calls must return the same reference")
	}
}

func TestContextResetClearsLayersAndBumpsVersion(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(newLayer)

	if _, err := ctx.GetLayer(Unnamed()); err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	versionBefore := ctx.Version

	ctx.Reset()
	if ctx.Version <= versionBefore {
		t.Errorf("got Version %d after Reset, want > %d", ctx.Version, versionBefore)
	}
	if _, ok := ctx.TryGetLayer(Unnamed()); ok {
		t.Errorf("unnamed layer still present after Reset")
	}
}

func TestContextSubscribersEachSeeOneLayerCreatedEvent(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(newLayer)

	eventsA, unsubA := ctx.Subscribe()
	eventsB, unsubB := ctx.Subscribe()
	defer unsubA()
	defer unsubB()

	if _, err := ctx.GetLayer(Named("bg")); err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}

	evtA := <-eventsA
	evtB := <-eventsB
	if evtA.Layer.ID != Named("bg") || evtB.Layer.ID != Named("bg") {
		t.Errorf("got events for %v / %v, want both for Named(bg)", evtA.Layer.ID, evtB.Layer.ID)
	}
}

func TestContextUnsubscribeStopsFurtherEvents(t *testing.T) {
	ctx := NewContext()
	ctx.AttachLayerFactory(newLayer)

	events, unsub := ctx.Subscribe()
	if _, err := ctx.GetLayer(Named("bg")); err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}
	<-events // drain the first event

	unsub()
	if _, err := ctx.GetLayer(Named("fg")); err != nil {
		t.Fatalf("GetLayer error = %v", err)
	}

	if _, ok := <-events; ok {
		t.Errorf("expected channel closed after unsubscribe, got a delivered event")
	}
}
