package world

// applyDamage subtracts hit points, clamped at zero. Removal is left to the
// death sweeps (or to the caller via killThing) so a thing never vanishes
// halfway through another handler's view of the tick.
func (w *World) applyDamage(t *Thing, dmg int) {
	hp := int(t.HP) - dmg
	if hp < 0 {
		hp = 0
	}
	t.HP = int16(hp)
	switch t.Kind {
	case KindAgent:
		w.obsAgentStats(t)
	case KindBuilding:
		w.obsBuildingStats(t)
	}
}

// killThing removes a dead non-agent thing from grid, store, and windows.
func (w *World) killThing(t *Thing) {
	w.unregister(t)
	if t.Kind == KindCreep {
		w.dropCreepNode(t.ID)
	}
	w.things.Free(t.ID)
}

// killAgent marks an agent slot dead. The thing record survives (slots are
// fixed for the episode); only its grid and window presence is cleared.
func (w *World) killAgent(t *Thing) {
	a := t.Agent
	if !a.Alive {
		return
	}
	w.unregister(t)
	a.Alive = false
	a.Frozen = 0
	a.Shield = 0
	a.Inv.Clear()
	t.HP = 0
	a.Reward += float32(w.tune.Rewards.DeathPenalty)
	w.terminals[a.Slot] = true
	w.obs.Deactivate(a.Slot)
	w.stats.Record(StatDeaths)
}

// enforceDeaths sweeps every registered thing with zero hit points. It runs
// before the action phase (so a dead agent can never act in the tick it
// died) and again at the end of the tick.
func (w *World) enforceDeaths() {
	w.scratchRemovals = w.scratchRemovals[:0]
	w.things.Range(func(t *Thing) {
		if t.HP <= 0 && t.Kind != KindResource {
			if t.Kind == KindAgent {
				if t.Agent.Alive {
					w.killAgent(t)
				}
				return
			}
			w.scratchRemovals = append(w.scratchRemovals, t.ID)
		}
	})
	for _, id := range w.scratchRemovals {
		if t := w.things.Get(id); t != nil {
			w.killThing(t)
		}
	}
}

// shieldBlocks reports whether an agent's directional shield covers a
// threat at p: a 3-cell band one cell ahead, perpendicular to the facing.
func (w *World) shieldBlocks(agent *Thing, p Vec2i) bool {
	if agent.Agent.Shield <= 0 {
		return false
	}
	ahead := agent.Pos.Add(agent.Dir.Offset())
	if p == ahead {
		return true
	}
	l, r := agent.Dir.Perp()
	return p == ahead.Add(l) || p == ahead.Add(r)
}

// decayTransient runs first each tick: cell tint fades and shield counters
// tick down whether or not they blocked anything.
func (w *World) decayTransient() {
	w.grid.decayTint()
	for slot := range w.agents {
		t := w.agentThing(slot)
		if t == nil || !t.Agent.Alive {
			continue
		}
		changed := false
		if t.Agent.Shield > 0 {
			t.Agent.Shield--
			changed = true
		}
		if t.Agent.Frozen > 0 {
			t.Agent.Frozen--
			changed = true
		}
		if changed {
			w.obsAgentStats(t)
		}
	}
}
