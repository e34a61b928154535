package world

// popCap sums the population capacity of a team's standing buildings.
// Recomputed from the live set so demolished housing lowers the cap
// immediately.
func (w *World) popCap(team int) int {
	total := 0
	w.things.Range(func(t *Thing) {
		if t.Kind == KindBuilding && int(t.Team) == team {
			total += w.buildings[t.Subtype].def.PopCapacity
		}
	})
	return total
}

func (w *World) livePop(team int) int {
	n := 0
	lo := team * w.tune.AgentsPerTeam
	for slot := lo; slot < lo+w.tune.AgentsPerTeam; slot++ {
		if t := w.agentThing(slot); t != nil && t.Agent.Alive {
			n++
		}
	}
	return n
}

// activateAgentWindow turns a slot's observation window on and derives its
// full contents once. Used for respawns and births, never per tick.
func (w *World) activateAgentWindow(slot int, center Vec2i) {
	w.obs.Activate(slot, center)
	r := w.tune.ObsRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			w.fillCellFor(slot, Vec2i{center.X + dx, center.Y + dy})
		}
	}
}

// tryRespawn resurrects one dead agent at its home structure: below the
// team cap, home standing and holding the food cost, and a free cell in
// the escalating ring search. Any missing condition defers to next tick.
func (w *World) tryRespawn(slot int) bool {
	t := w.agentThing(slot)
	if t == nil || t.Agent.Alive {
		return false
	}
	a := t.Agent
	team := w.teamOf(slot)
	if w.livePop(team) >= w.popCap(team) {
		return false
	}
	home := w.things.Get(a.Home)
	if home == nil || home.Kind != KindBuilding {
		return false
	}
	cost := w.tune.Spawn.RespawnCostFood
	if home.Building.Stored == nil || home.Building.Stored.Get(w.items.Food) < cost {
		return false
	}
	at, ok := w.findFreeCellRing(home.Pos, team, w.tune.Spawn.RingSearchMax)
	if !ok {
		return false
	}
	home.Building.Stored.Remove(w.items.Food, cost)
	w.ledger.Withdraw(team, w.items.Food, cost)

	a.Alive = true
	a.Class = 0
	a.Frozen = 0
	a.Shield = 0
	a.Inv.Clear()
	t.HP = int16(w.tune.Combat.AgentHP)
	t.Dir = DirN
	t.Pos = at
	w.register(t)
	w.activateAgentWindow(slot, at)
	w.stats.Record(StatRespawns)
	return true
}

// dormantSlot finds the first birth-eligible slot in a team's fixed range:
// never filled, or terminated with no home left to respawn at.
func (w *World) dormantSlot(team int) (int, bool) {
	lo := team * w.tune.AgentsPerTeam
	for slot := lo; slot < lo+w.tune.AgentsPerTeam; slot++ {
		t := w.agentThing(slot)
		if t == nil {
			return slot, true
		}
		if !t.Agent.Alive && w.things.Get(t.Agent.Home) == nil {
			return slot, true
		}
	}
	return 0, false
}

// tryBirth spawns a brand-new agent from a fertility structure: two living
// same-team agents adjacent to it, the team affording the birth cost, a
// dormant slot, and room under the cap.
func (w *World) tryBirth(temple *Thing) bool {
	team := int(temple.Team)
	if team < 0 || temple.Building.Cooldown > 0 {
		return false
	}
	if w.livePop(team) >= w.popCap(team) {
		return false
	}
	adjacent := 0
	for d := DirN; d < NumDirs; d++ {
		q := temple.Pos.Add(d.Offset())
		if !w.grid.InBounds(q) {
			continue
		}
		if t := w.things.Get(w.grid.BlockAt(q)); t != nil && t.Kind == KindAgent && int(t.Team) == team && t.Agent.Alive {
			adjacent++
		}
	}
	if adjacent < 2 {
		return false
	}
	slot, ok := w.dormantSlot(team)
	if !ok {
		return false
	}
	cost := []ItemDelta{
		{Item: w.items.Food, Count: w.tune.Spawn.BirthCostFood},
		{Item: w.items.Water, Count: w.tune.Spawn.BirthCostWater},
	}
	if !w.ledger.CanSpend(team, cost) {
		return false
	}
	at, found := w.findFreeCellRing(temple.Pos, team, w.tune.Spawn.RingSearchMax)
	if !found {
		return false
	}
	w.ledger.Spend(team, cost)

	// A birth always mints a fresh id; a terminated occupant of the slot
	// is released first.
	if old := w.agentThing(slot); old != nil {
		w.things.Free(old.ID)
	}
	t := w.things.Create(Thing{
		Kind: KindAgent,
		Pos:  at,
		Dir:  DirN,
		Team: int8(team),
		HP:   int16(w.tune.Combat.AgentHP),
		Agent: &AgentState{
			Slot:  slot,
			Alive: true,
			Home:  w.homes[team],
			Inv:   NewInventory(len(w.cats.Items.Palette)),
		},
	})
	w.agents[slot] = t.ID
	w.register(t)
	w.activateAgentWindow(slot, at)
	temple.Building.Cooldown = w.buildings[temple.Subtype].def.CooldownTicks
	w.obsBuildingStats(temple)
	w.stats.Record(StatBirths)
	return true
}

// processPopulation runs respawns then fertility births, both in fixed
// slot/id order.
func (w *World) processPopulation() {
	for slot := range w.agents {
		w.tryRespawn(slot)
	}
	w.scratchRemovals = w.scratchRemovals[:0]
	w.things.Range(func(t *Thing) {
		if t.Kind == KindBuilding && w.buildings[t.Subtype].def.Fertility {
			w.scratchRemovals = append(w.scratchRemovals, t.ID)
		}
	})
	for _, id := range w.scratchRemovals {
		if t := w.things.Get(id); t != nil {
			w.tryBirth(t)
		}
	}
}
