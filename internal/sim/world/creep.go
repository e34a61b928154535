package world

import "math/rand/v2"

type creepBranch struct {
	parent ThingID
	at     Vec2i
}

type creepContact struct {
	victim ThingID
	node   ThingID
}

// spawnCreep creates a mobile creep node and registers it everywhere a
// node must exist: store, grid, windows, and the staggered iteration list.
func (w *World) spawnCreep(at Vec2i, spawner ThingID) *Thing {
	t := w.things.Create(Thing{
		Kind: KindCreep,
		Pos:  at,
		Team: -1,
		HP:   int16(w.tune.Combat.TumorHP),
		Creep: CreepState{
			Spawner: spawner,
		},
	})
	w.register(t)
	w.creepList = append(w.creepList, t.ID)
	return t
}

// dropCreepNode removes a node id from the iteration list, preserving
// order so the index-based stagger stays deterministic.
func (w *World) dropCreepNode(id ThingID) {
	for i, v := range w.creepList {
		if v == id {
			w.creepList = append(w.creepList[:i], w.creepList[i+1:]...)
			return
		}
	}
}

func (w *World) creepCount() int { return len(w.creepList) }

// branchTargetLegal: empty walkable cell, door-free, and not 4-adjacent to
// any creep node other than the branching parent.
func (w *World) branchTargetLegal(p Vec2i, parent ThingID) bool {
	if !w.cellFree(p, -1) {
		return false
	}
	for _, off := range cardinalOffsets {
		q := p.Add(off)
		if !w.grid.InBounds(q) {
			continue
		}
		if t := w.things.Get(w.grid.BlockAt(q)); t != nil && t.Kind == KindCreep && t.ID != parent {
			return false
		}
	}
	return true
}

// sampleBranchTarget reservoir-samples uniformly over the legal cells in
// the Chebyshev neighborhood without materializing the candidate list.
func (w *World) sampleBranchTarget(rng *rand.Rand, from Vec2i, parent ThingID) (Vec2i, bool) {
	r := w.tune.Creep.BranchRadius
	var pick Vec2i
	seen := 0
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := Vec2i{from.X + dx, from.Y + dy}
			if !w.branchTargetLegal(p, parent) {
				continue
			}
			seen++
			if rng.IntN(seen) == 0 {
				pick = p
			}
		}
	}
	return pick, seen > 0
}

// processCreep runs the branching automaton and lethal contact for one
// tick. Only nodes with index ≡ tick (mod stagger window) are evaluated
// for branching; branching shuts off entirely above the global cap.
func (w *World) processCreep(rng *rand.Rand) {
	cfg := w.tune.Creep

	// Aging happens for every mobile node every tick.
	for _, id := range w.creepList {
		t := w.things.Get(id)
		if t != nil && !t.Creep.Planted && t.Creep.Age < 65535 {
			t.Creep.Age++
		}
	}

	// Branch attempts: rotating 1/N subset, disabled at the cap.
	w.scratchBranches = w.scratchBranches[:0]
	if w.creepCount() < cfg.GlobalCap {
		n := cfg.StaggerWindow
		if n < 1 {
			n = 1
		}
		phase := int(w.tick) % n
		for i, id := range w.creepList {
			if i%n != phase {
				continue
			}
			t := w.things.Get(id)
			if t == nil || t.Creep.Planted {
				continue
			}
			if int(t.Creep.Age) < cfg.BranchMinAge {
				continue
			}
			if rng.IntN(1000) >= cfg.BranchProbPermille {
				continue
			}
			at, ok := w.sampleBranchTarget(rng, t.Pos, t.ID)
			if !ok {
				continue // failed attempt: stays mobile, age keeps running
			}
			w.scratchBranches = append(w.scratchBranches, creepBranch{parent: t.ID, at: at})
		}
	}
	for _, b := range w.scratchBranches {
		if w.creepCount() >= cfg.GlobalCap {
			break
		}
		parent := w.things.Get(b.parent)
		if parent == nil || !w.cellFree(b.at, -1) {
			continue
		}
		// Store.Create can grow the arena and invalidate parent, so the
		// parent's terminal transition commits before the sibling spawns.
		spawner := parent.Creep.Spawner
		parent.Creep.Planted = true // terminal; never branches again
		w.obs.Write(parent.Pos, LayerCreep, 2)
		w.spawnCreep(b.at, spawner)
	}

	// Lethal contact: collect pairs first so removal never invalidates the
	// iteration, then resolve. A node dies with its first victim.
	w.scratchPairs = w.scratchPairs[:0]
	for _, id := range w.creepList {
		t := w.things.Get(id)
		if t == nil {
			continue
		}
		for _, off := range cardinalOffsets {
			q := t.Pos.Add(off)
			if !w.grid.InBounds(q) {
				continue
			}
			v := w.things.Get(w.grid.BlockAt(q))
			if v == nil {
				continue
			}
			if v.Kind == KindAgent && v.Agent.Alive {
				if w.shieldBlocks(v, t.Pos) {
					continue
				}
				if rng.IntN(1000) < cfg.LethalProbPermille {
					w.scratchPairs = append(w.scratchPairs, creepContact{victim: v.ID, node: t.ID})
				}
			} else if v.Kind == KindCreature {
				if rng.IntN(1000) < cfg.LethalProbPermille {
					w.scratchPairs = append(w.scratchPairs, creepContact{victim: v.ID, node: t.ID})
				}
			}
		}
	}
	for _, c := range w.scratchPairs {
		node := w.things.Get(c.node)
		victim := w.things.Get(c.victim)
		if node == nil || victim == nil {
			continue
		}
		switch victim.Kind {
		case KindAgent:
			if !victim.Agent.Alive {
				continue
			}
			w.killAgent(victim)
		case KindCreature:
			w.killThing(victim)
		}
		w.killThing(node)
		w.stats.Record(StatCreepDeaths)
	}

	// Spawner production: may push the population past the cap; the cap
	// only gates branching.
	if cfg.SpawnEveryTicks > 0 && w.tick%uint64(cfg.SpawnEveryTicks) == 0 {
		for _, id := range w.spawners {
			sp := w.things.Get(id)
			if sp == nil {
				continue
			}
			if at, ok := w.sampleBranchTarget(rng, sp.Pos, NoThing); ok {
				w.spawnCreep(at, sp.ID)
			}
		}
	}
}
