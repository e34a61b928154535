package world

import "testing"

// Two worlds with the same seed and the same action stream must agree on
// the state digest at every tick.
func TestDeterminism_FixedActionsSameDigest(t *testing.T) {
	tune := testTuning()
	w1 := newTestWorld(t, tune, genFunc(villageGen))
	w2 := newTestWorld(t, tune, genFunc(villageGen))

	if d1, d2 := w1.StateDigest(), w2.StateDigest(); d1 != d2 {
		t.Fatalf("post-reset digest mismatch: %s vs %s", d1, d2)
	}

	acts := make([]byte, w1.NumAgents())
	for tick := 0; tick < 80; tick++ {
		// A deterministic but busy action pattern: every verb shows up.
		for slot := range acts {
			acts[slot] = uint8((tick*7 + slot*31) % 256)
		}
		if _, err := w1.Step(acts); err != nil {
			t.Fatalf("w1 step: %v", err)
		}
		if _, err := w2.Step(acts); err != nil {
			t.Fatalf("w2 step: %v", err)
		}
		if d1, d2 := w1.StateDigest(), w2.StateDigest(); d1 != d2 {
			t.Fatalf("digest mismatch at tick %d: %s vs %s", tick, d1, d2)
		}
	}
}

// A reset replays world generation from scratch; the same seed must land
// on the same digest as a fresh world.
func TestDeterminism_ResetReproducesDigest(t *testing.T) {
	tune := testTuning()
	w := newTestWorld(t, tune, genFunc(villageGen))
	fresh := w.StateDigest()

	acts := noopActions(w)
	stepN(t, w, acts, 10)
	if w.StateDigest() == fresh {
		t.Fatal("digest did not change after stepping")
	}

	if err := w.Reset(genFunc(villageGen)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := w.StateDigest(); got != fresh {
		t.Fatalf("reset digest mismatch: %s vs %s", got, fresh)
	}
}

func TestStep_ActionLengthChecked(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(villageGen))
	if _, err := w.Step(make([]byte, w.NumAgents()-1)); err == nil {
		t.Fatal("want error for short action array")
	}
}

func TestStep_TruncatesAtMaxSteps(t *testing.T) {
	tune := testTuning()
	tune.MaxSteps = 5
	w := newTestWorld(t, tune, genFunc(villageGen))
	acts := noopActions(w)

	res := stepN(t, w, acts, 5)
	if !res.Done {
		t.Fatal("want done after max steps")
	}
	truncated := 0
	for _, tr := range res.Truncations {
		if tr {
			truncated++
		}
	}
	if truncated == 0 {
		t.Fatal("want at least one truncated agent")
	}
	if _, err := w.Step(acts); err == nil {
		t.Fatal("want error stepping a finished episode")
	}
}
