package world

import "testing"

func TestRespawn_RingSearchAndFoodCost(t *testing.T) {
	tune := testTuning()
	w := newTestWorld(t, tune, genFunc(villageGen))
	a := w.Agent(0)
	home := w.Home(0)
	foodBefore := home.Building.Stored.Get(w.items.Food)

	w.killAgent(a)
	if a.Agent.Alive {
		t.Fatal("setup: agent should be dead")
	}

	stepN(t, w, noopActions(w), 1)
	if !a.Agent.Alive {
		t.Fatal("agent did not respawn")
	}
	if got := home.Building.Stored.Get(w.items.Food); got != foodBefore-tune.Spawn.RespawnCostFood {
		t.Fatalf("home food = %d, want %d", got, foodBefore-tune.Spawn.RespawnCostFood)
	}
	if r := Chebyshev(a.Pos, home.Pos); r < 2 || r > tune.Spawn.RingSearchMax {
		t.Fatalf("respawned at radius %d, want within ring 2..%d", r, tune.Spawn.RingSearchMax)
	}
	if a.HP != int16(tune.Combat.AgentHP) {
		t.Fatalf("hp = %d, want reset to %d", a.HP, tune.Combat.AgentHP)
	}
	if w.Grid().BlockAt(a.Pos) != a.ID {
		t.Fatal("respawned agent missing from grid")
	}
}

func TestRespawn_DeferredWithoutFood(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(villageGen))
	a := w.Agent(0)
	home := w.Home(0)
	home.Building.Stored.Remove(w.items.Food, home.Building.Stored.Get(w.items.Food))
	w.ledger.Withdraw(0, w.items.Food, w.Stockpile(0, "FOOD"))

	w.killAgent(a)
	stepN(t, w, noopActions(w), 3)
	if a.Agent.Alive {
		t.Fatal("respawn must wait for food")
	}

	// Restocking lifts the block on the next tick.
	w.AddStock(0, "FOOD", 2)
	stepN(t, w, noopActions(w), 1)
	if !a.Agent.Alive {
		t.Fatal("agent did not respawn after restock")
	}
}

func TestRespawn_PopCapFromStandingBuildings(t *testing.T) {
	tune := testTuning()
	w := newTestWorld(t, tune, genFunc(villageGen))
	a := w.Agent(0)

	// A town hall alone caps the team at 5.
	if got := w.popCap(0); got != 5 {
		t.Fatalf("pop cap = %d, want 5 from the town hall", got)
	}

	// Under the cap the respawn goes through.
	w.killAgent(a)
	stepN(t, w, noopActions(w), 1)
	if !a.Agent.Alive {
		t.Fatal("respawn should fit under the cap")
	}

	// Razing the hall drops the cap to zero and pins the next death down.
	home := w.Home(0)
	w.killThing(home)
	b := w.Agent(1)
	w.killAgent(b)
	stepN(t, w, noopActions(w), 2)
	if b.Agent.Alive {
		t.Fatal("respawn must be blocked once the cap is gone")
	}
}

func TestBirth_TempleSpawnsIntoDormantSlot(t *testing.T) {
	tune := testTuning()
	w := newTestWorld(t, tune, genFunc(func(w *World) error {
		if _, err := w.PlaceBuilding("TOWN_HALL", Vec2i{10, 10}, 0); err != nil {
			return err
		}
		if _, err := w.PlaceBuilding("TEMPLE", Vec2i{16, 16}, 0); err != nil {
			return err
		}
		// Two of four slots filled, flanking the temple.
		if _, err := w.SpawnAgent(0, Vec2i{15, 16}); err != nil {
			return err
		}
		if _, err := w.SpawnAgent(1, Vec2i{17, 16}); err != nil {
			return err
		}
		w.AddStock(0, "FOOD", 4)
		w.AddStock(0, "WATER", 2)
		return nil
	}))

	foodBefore := w.Stockpile(0, "FOOD")
	stepN(t, w, noopActions(w), 1)

	born := w.Agent(2)
	if born == nil || !born.Agent.Alive {
		t.Fatal("no birth into the first dormant slot")
	}
	if born.Agent.Slot != 2 {
		t.Fatalf("born into slot %d, want 2", born.Agent.Slot)
	}
	if got := w.Stockpile(0, "FOOD"); got != foodBefore-tune.Spawn.BirthCostFood {
		t.Fatalf("food = %d, want birth cost spent", got)
	}
	temple := w.things.Get(w.Grid().BlockAt(Vec2i{16, 16}))
	if temple.Building.Cooldown == 0 {
		t.Fatal("temple cooldown not started")
	}

	// The cooldown spaces births out: no second birth immediately.
	stepN(t, w, noopActions(w), 1)
	if w.Agent(3) != nil {
		t.Fatal("second birth must wait out the temple cooldown")
	}
}

func TestBirth_NeedsTwoAdjacentAgents(t *testing.T) {
	w := newTestWorld(t, testTuning(), genFunc(func(w *World) error {
		if _, err := w.PlaceBuilding("TOWN_HALL", Vec2i{10, 10}, 0); err != nil {
			return err
		}
		if _, err := w.PlaceBuilding("TEMPLE", Vec2i{16, 16}, 0); err != nil {
			return err
		}
		if _, err := w.SpawnAgent(0, Vec2i{15, 16}); err != nil {
			return err
		}
		w.AddStock(0, "FOOD", 4)
		w.AddStock(0, "WATER", 2)
		return nil
	}))

	stepN(t, w, noopActions(w), 3)
	if w.Agent(1) != nil {
		t.Fatal("birth with a single adjacent agent must not happen")
	}
}
