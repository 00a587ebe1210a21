package events_test

import (
	"testing"

	"github.com/jadujoel/scode/internal/events"
)

func TestEmitInvokesRegisteredListenersInOrder(t *testing.T) {
	var tbl events.Table

	var order []int

	tbl.AddListener(events.AtlasLoaded, func(events.Event) { order = append(order, 1) })
	tbl.AddListener(events.AtlasLoaded, func(events.Event) { order = append(order, 2) })

	tbl.Emit(events.Event{Kind: events.AtlasLoaded})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("listeners fired in order %v, want [1 2]", order)
	}
}

func TestEmitOnlyNotifiesMatchingKind(t *testing.T) {
	var tbl events.Table

	calls := 0

	tbl.AddListener(events.SoundLoaded, func(events.Event) { calls++ })

	tbl.Emit(events.Event{Kind: events.PackageChanged})

	if calls != 0 {
		t.Fatalf("listener for SoundLoaded fired on PackageChanged, calls=%d", calls)
	}
}

func TestSubscriptionRemove(t *testing.T) {
	var tbl events.Table

	calls := 0

	sub := tbl.AddListener(events.Reloaded, func(events.Event) { calls++ })

	tbl.Emit(events.Event{Kind: events.Reloaded})
	sub.Remove()
	tbl.Emit(events.Event{Kind: events.Reloaded})

	if calls != 1 {
		t.Fatalf("calls = %d after Remove, want 1", calls)
	}
}

func TestSubscriptionRemoveIsIdempotent(t *testing.T) {
	var tbl events.Table

	sub := tbl.AddListener(events.Reloaded, func(events.Event) {})

	sub.Remove()
	sub.Remove() // must not panic
}

func TestEventPayloadCarriesFileName(t *testing.T) {
	var tbl events.Table

	var got string

	tbl.AddListener(events.SoundLoadError, func(ev events.Event) { got = ev.FileName })

	tbl.Emit(events.Event{Kind: events.SoundLoadError, FileName: "64k.1ch.1"})

	if got != "64k.1ch.1" {
		t.Fatalf("FileName = %q, want 64k.1ch.1", got)
	}
}

func TestKindString(t *testing.T) {
	cases := map[events.Kind]string{
		events.AtlasLoaded:     "atlas-loaded",
		events.PackageChanged:  "package-changed",
		events.LanguageChanged: "language-changed",
		events.LoadPathChanged: "load-path-changed",
		events.SoundLoaded:     "sound-loaded",
		events.SoundLoadError:  "sound-load-error",
		events.Reloaded:        "reloaded",
	}

	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
