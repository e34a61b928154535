package world

import "fmt"

// Reset clears every entity, grid cell and per-episode counter, runs the
// generator once, then rebuilds all observation windows from scratch. This
// is the only full-reconstruction path in the package.
func (w *World) Reset(gen Generator) error {
	w.tick = 0
	w.done = false
	w.grid.reset()
	w.things.reset()
	w.ledger.reset()
	w.stats.reset()
	w.obs.Reset()
	for i := range w.agents {
		w.agents[i] = NoThing
		w.rewards[i] = 0
		w.terminals[i] = false
		w.truncations[i] = false
	}
	for i := range w.homes {
		w.homes[i] = NoThing
	}
	w.creepList = w.creepList[:0]
	w.spawners = w.spawners[:0]
	w.predators = w.predators[:0]
	if gen != nil {
		if err := gen.Generate(w); err != nil {
			return fmt.Errorf("worldgen: %w", err)
		}
	}
	w.ledger.resetDeltas()
	w.rebuildObservations()
	return nil
}

// placeBuilding creates and registers a building of a resolved palette
// index. Tumor spawners join the creep seeding list; the first home
// structure of a team becomes its respawn anchor.
func (w *World) placeBuilding(idx uint8, p Vec2i, team int) *Thing {
	meta := w.buildings[idx]
	st := &BuildingState{}
	if meta.def.StorageCapacity > 0 {
		st.Stored = NewInventory(len(w.cats.Items.Palette))
	}
	t := w.things.Create(Thing{
		Kind:     KindBuilding,
		Subtype:  idx,
		Pos:      p,
		Team:     int8(team),
		HP:       int16(meta.def.HP),
		Building: st,
	})
	w.register(t)
	if meta.def.ID == "TUMOR_SPAWNER" {
		w.spawners = append(w.spawners, t.ID)
	}
	if meta.def.Home && team >= 0 && team < len(w.homes) && w.homes[team] == NoThing {
		w.homes[team] = t.ID
	}
	return t
}

// PlaceBuilding places a building by catalog id. Generator API.
func (w *World) PlaceBuilding(id string, p Vec2i, team int) (*Thing, error) {
	idx, ok := w.cats.Buildings.Index[id]
	if !ok {
		return nil, fmt.Errorf("unknown building %q", id)
	}
	if !w.grid.InBounds(p) || w.grid.BlockAt(p) != NoThing {
		return nil, fmt.Errorf("building %s: cell %v not free", id, p)
	}
	return w.placeBuilding(idx, p, team), nil
}

// PlaceResource places a harvestable node by item id. Generator API.
func (w *World) PlaceResource(item string, p Vec2i, count int) (*Thing, error) {
	idx, ok := w.cats.Items.Index[item]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", item)
	}
	if !w.grid.InBounds(p) || w.grid.BlockAt(p) != NoThing {
		return nil, fmt.Errorf("resource %s: cell %v not free", item, p)
	}
	t := w.things.Create(Thing{
		Kind:    KindResource,
		Subtype: idx,
		Pos:     p,
		Team:    -1,
		HP:      1,
		Count:   int16(count),
	})
	w.register(t)
	return t, nil
}

// PlaceCreature places a predator. Generator API.
func (w *World) PlaceCreature(kind CreatureKind, p Vec2i) (*Thing, error) {
	if !w.cellFree(p, -1) {
		return nil, fmt.Errorf("creature: cell %v not free", p)
	}
	t := w.things.Create(Thing{
		Kind:    KindCreature,
		Subtype: uint8(kind),
		Pos:     p,
		Team:    -1,
		HP:      int16(w.tune.Combat.PredatorHP),
	})
	w.register(t)
	w.predators = append(w.predators, t.ID)
	return t, nil
}

// PlaceDoor installs a team door as a background occupant; hostile agents
// cannot enter the cell but friendly ones pass through.
func (w *World) PlaceDoor(p Vec2i, team int) (*Thing, error) {
	if !w.grid.InBounds(p) || w.grid.BackgroundAt(p) != NoThing {
		return nil, fmt.Errorf("door: cell %v not free", p)
	}
	t := w.things.Create(Thing{
		Kind:    KindProp,
		Subtype: uint8(PropDoor),
		Pos:     p,
		Team:    int8(team),
		HP:      1,
	})
	w.grid.setBackground(p, t.ID)
	w.obs.Write(p, LayerProp, t.Subtype+1)
	return t, nil
}

// SpawnAgent fills a fixed slot with a living agent. Generator API; slots
// left empty stay dormant and are eligible for fertility births later.
func (w *World) SpawnAgent(slot int, p Vec2i) (*Thing, error) {
	if slot < 0 || slot >= len(w.agents) {
		return nil, fmt.Errorf("agent slot %d out of range", slot)
	}
	if w.agents[slot] != NoThing {
		return nil, fmt.Errorf("agent slot %d already filled", slot)
	}
	team := w.teamOf(slot)
	if !w.cellFree(p, team) {
		return nil, fmt.Errorf("agent slot %d: cell %v not free", slot, p)
	}
	t := w.things.Create(Thing{
		Kind: KindAgent,
		Pos:  p,
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
	return t, nil
}

// SeedCreep drops a free-standing mobile creep node. Generator API.
func (w *World) SeedCreep(p Vec2i) (*Thing, error) {
	if !w.cellFree(p, -1) {
		return nil, fmt.Errorf("creep: cell %v not free", p)
	}
	return w.spawnCreep(p, NoThing), nil
}

// AddStock credits a team stockpile directly. Generator API for starting
// resources; the home structure mirrors the amount in its storage.
func (w *World) AddStock(team int, item string, n int) error {
	idx, ok := w.cats.Items.Index[item]
	if !ok {
		return fmt.Errorf("unknown item %q", item)
	}
	w.ledger.Add(team, idx, n)
	if home := w.things.Get(w.homes[team]); home != nil && home.Building.Stored != nil {
		home.Building.Stored.Add(idx, n)
	}
	return nil
}
