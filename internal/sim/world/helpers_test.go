package world

import (
	"testing"

	"tribalgrid.ai/internal/sim/catalogs"
	"tribalgrid.ai/internal/sim/tuning"
)

func testTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.MapWidth = 32
	t.MapHeight = 32
	t.NumTeams = 2
	t.AgentsPerTeam = 4
	t.ObsRadius = 3
	return t
}

func loadTestCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// genFunc adapts a closure to the Generator interface so each test can
// lay out exactly the world it needs through the placement APIs.
type genFunc func(*World) error

func (f genFunc) Generate(w *World) error { return f(w) }

func newTestWorld(t *testing.T, tune tuning.Tuning, gen Generator) *World {
	t.Helper()
	w, err := New(Config{Seed: 42, Tune: tune, Cats: loadTestCatalogs(t)})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := w.Reset(gen); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return w
}

// villageGen is the shared minimal layout: a town hall and agents per team
// on opposite sides, with a little starting stock.
func villageGen(w *World) error {
	tune := w.Tuning()
	anchors := []Vec2i{{6, 16}, {25, 16}}
	for team := 0; team < tune.NumTeams; team++ {
		if _, err := w.PlaceBuilding("TOWN_HALL", anchors[team], team); err != nil {
			return err
		}
		lo := team * tune.AgentsPerTeam
		for i := 0; i < tune.AgentsPerTeam; i++ {
			p := anchors[team].Add(Vec2i{X: 2 + i, Y: 2})
			if _, err := w.SpawnAgent(lo+i, p); err != nil {
				return err
			}
		}
		w.AddStock(team, "FOOD", 8)
		w.AddStock(team, "WATER", 4)
	}
	return nil
}

func stepN(t *testing.T, w *World, actions []byte, n int) StepResult {
	t.Helper()
	var res StepResult
	var err error
	for i := 0; i < n; i++ {
		res, err = w.Step(actions)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return res
}

func noopActions(w *World) []byte {
	acts := make([]byte, w.NumAgents())
	for i := range acts {
		acts[i] = EncodeAction(VerbOrient, uint8(DirN))
	}
	return acts
}
