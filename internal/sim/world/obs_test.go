package world

import "testing"

func obsAt(w *World, slot int, layer int, p Vec2i) uint8 {
	e := w.obs
	if !e.active[slot] || !e.contains(slot, p) {
		return 0
	}
	return e.buf[slot*e.stride+layer*e.plane+e.localIdx(slot, p)]
}

func TestObs_ResetRebuildMatchesWorld(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(villageGen))
	a := w.Agent(0)

	if got := obsAt(w, 0, LayerAgent, a.Pos); got != uint8(a.Team)+1 {
		t.Fatalf("own presence = %d, want %d", got, a.Team+1)
	}
	home := w.Home(0)
	if Chebyshev(home.Pos, a.Pos) <= w.ObsRadius() {
		if got := obsAt(w, 0, LayerBuilding, home.Pos); got != home.Subtype+1 {
			t.Fatalf("home layer = %d, want %d", got, home.Subtype+1)
		}
	}
}

func TestObs_MoveUpdatesOtherAgentsWindows(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(func(w *World) error {
		if _, err := w.PlaceBuilding("TOWN_HALL", Vec2i{2, 2}, 0); err != nil {
			return err
		}
		if _, err := w.SpawnAgent(0, Vec2i{16, 16}); err != nil {
			return err
		}
		_, err := w.SpawnAgent(1, Vec2i{18, 16}) // inside slot 0's radius-3 window
		return err
	}))
	mover := w.Agent(1)

	stepN(t, w, actFor(w, 1, EncodeAction(VerbMove, uint8(DirE))), 1)
	if got := obsAt(w, 0, LayerAgent, Vec2i{18, 16}); got != 0 {
		t.Fatalf("old cell in observer window = %d, want cleared", got)
	}
	if got := obsAt(w, 0, LayerAgent, Vec2i{19, 16}); got != uint8(mover.Team)+1 {
		t.Fatalf("new cell in observer window = %d, want presence", got)
	}
}

func TestObs_MoverWindowShiftsAndRefills(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(func(w *World) error {
		if _, err := w.PlaceBuilding("TOWN_HALL", Vec2i{2, 2}, 0); err != nil {
			return err
		}
		if _, err := w.SpawnAgent(0, Vec2i{16, 16}); err != nil {
			return err
		}
		// A landmark sitting on the east edge the move will expose.
		_, err := w.PlaceResource("ORE", Vec2i{20, 16}, 5)
		return err
	}))
	a := w.Agent(0)
	ore := w.items.Ore

	// Before the move the node at x=20 is outside the radius-3 window.
	if got := obsAt(w, 0, LayerResource, Vec2i{20, 16}); got != 0 {
		t.Fatalf("node visible too early: %d", got)
	}
	stepN(t, w, actFor(w, 0, EncodeAction(VerbMove, uint8(DirE))), 1)
	if a.Pos != (Vec2i{17, 16}) {
		t.Fatalf("pos = %v", a.Pos)
	}
	if got := obsAt(w, 0, LayerResource, Vec2i{20, 16}); got != ore+1 {
		t.Fatalf("exposed strip = %d, want node %d", got, ore+1)
	}
	// Own presence is centered after the shift.
	if got := obsAt(w, 0, LayerAgent, a.Pos); got != 1 {
		t.Fatalf("own presence after move = %d, want 1", got)
	}
	// Terrain in the exposed strip is derived, not stale zero.
	if got := obsAt(w, 0, LayerTerrain, Vec2i{20, 16}); got == 0 {
		t.Fatal("terrain not refilled in exposed strip")
	}
}

func TestObs_DeathClearsPresenceAndDeactivates(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(func(w *World) error {
		if _, err := w.PlaceBuilding("TOWN_HALL", Vec2i{2, 2}, 0); err != nil {
			return err
		}
		if _, err := w.SpawnAgent(0, Vec2i{16, 16}); err != nil {
			return err
		}
		_, err := w.SpawnAgent(1, Vec2i{17, 16})
		return err
	}))
	victim := w.Agent(1)
	at := victim.Pos

	w.killAgent(victim)
	if got := obsAt(w, 0, LayerAgent, at); got != 0 {
		t.Fatalf("dead agent still visible: %d", got)
	}
	if w.obs.active[1] {
		t.Fatal("dead agent's window still active")
	}
}

func TestEncoder_WriteRespectsWindowBounds(t *testing.T) {
	e := NewEncoder(2, 2)
	e.Activate(0, Vec2i{10, 10})
	e.Activate(1, Vec2i{30, 30})

	e.Write(Vec2i{11, 11}, LayerCreep, 7)
	if got := e.buf[0*e.stride+LayerCreep*e.plane+e.localIdx(0, Vec2i{11, 11})]; got != 7 {
		t.Fatalf("slot 0 missed the write: %d", got)
	}
	for i := e.stride; i < 2*e.stride; i++ {
		if e.buf[i] != 0 {
			t.Fatal("slot 1 window touched by an out-of-range write")
		}
	}
}

func TestEncoder_RecenterFarJumpZeroes(t *testing.T) {
	e := NewEncoder(1, 2)
	e.Activate(0, Vec2i{10, 10})
	e.WriteFor(0, Vec2i{10, 10}, LayerTerrain, 9)

	e.Recenter(0, Vec2i{40, 40})
	base := 0
	for i := base; i < e.stride; i++ {
		if e.buf[i] != 0 {
			t.Fatal("far recenter must zero the whole window")
		}
	}
}
