package tests

import (
	"testing"

	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
)

// AdapterFactory builds a fresh adapter positioned on the last of the given paths.
type AdapterFactory func(t *testing.T, paths ...string) ports.Adapter

// AdapterContractTest is a reusable test suite that verifies if an adapter complies with ports.Adapter.
func AdapterContractTest(t *testing.T, factory AdapterFactory) {
	t.Helper()

	// 1. CurrentLocation reflects the initial position
	t.Run("CurrentLocation_Initial", func(t *testing.T) {
		a := factory(t, "/", "/a?x=1#h")
		loc := a.CurrentLocation()
		if loc.Pathname != "/a" || loc.Search != "?x=1" || loc.Hash != "#h" {
			t.Errorf("unexpected initial location %+v", loc)
		}
	})

	// 2. PushLocation moves to the new entry
	t.Run("PushLocation", func(t *testing.T) {
		a := factory(t, "/")
		loc := domain.Location{Pathname: "/next", Key: "k1", Action: domain.Push, State: "s"}
		if !a.PushLocation(loc) {
			t.Fatal("expected PushLocation to report a state update")
		}
		got := a.CurrentLocation()
		if got.Pathname != "/next" || got.Key != "k1" {
			t.Errorf("push not reflected, got %+v", got)
		}
		if !domain.StatesAreEqual(got.State, "s") {
			t.Errorf("state not reflected, got %#v", got.State)
		}
	})

	// 3. ReplaceLocation overwrites the current entry
	t.Run("ReplaceLocation", func(t *testing.T) {
		a := factory(t, "/", "/old")
		loc := domain.Location{Pathname: "/new", Key: "k2", Action: domain.Replace}
		if !a.ReplaceLocation(loc) {
			t.Fatal("expected ReplaceLocation to report a state update")
		}
		if got := a.CurrentLocation(); got.Pathname != "/new" {
			t.Errorf("replace not reflected, got %+v", got)
		}
		a.Go(-1)
		if got := a.CurrentLocation(); got.Pathname != "/" {
			t.Errorf("replace must not add entries, back went to %s", got.Pathname)
		}
	})

	// 4. Go moves within bounds and ignores zero
	t.Run("Go", func(t *testing.T) {
		a := factory(t, "/", "/a", "/b")
		a.Go(0)
		if got := a.CurrentLocation(); got.Pathname != "/b" {
			t.Errorf("Go(0) must be a no-op, got %s", got.Pathname)
		}
		a.Go(-2)
		if got := a.CurrentLocation(); got.Pathname != "/" {
			t.Errorf("Go(-2) expected /, got %s", got.Pathname)
		}
		a.Go(-1)
		if got := a.CurrentLocation(); got.Pathname != "/" {
			t.Errorf("Go past the start must not move, got %s", got.Pathname)
		}
	})
}
