package world

// The number of wheat units a planted field node yields before it is spent.
const wheatFieldYield = 3

// applyActions runs the action phase: every living, unfrozen agent executes
// exactly one decoded verb, in slot order. Any validation failure is a
// silent no-op that bumps the invalid counter; nothing here returns an
// error, and a failed handler leaves no partial mutation behind.
func (w *World) applyActions(actions []byte) {
	for slot := range w.agents {
		t := w.agentThing(slot)
		if t == nil || !t.Agent.Alive {
			continue
		}
		a := t.Agent
		if a.Frozen > 0 {
			continue
		}
		verb, arg, ok := DecodeAction(actions[slot])
		if !ok {
			a.Counters[OutcomeInvalid]++
			continue
		}
		var done bool
		var out Outcome
		switch verb {
		case VerbMove:
			done, out = w.actMove(t, arg), OutcomeMove
		case VerbOrient:
			done, out = w.actOrient(t, arg), OutcomeOrient
		case VerbAttack:
			done, out = w.actAttack(t, arg), OutcomeAttack
		case VerbUse:
			done, out = w.actUse(t, arg), OutcomeUse
		case VerbSwap:
			done, out = w.actSwap(t, arg), OutcomeSwap
		case VerbPut:
			done, out = w.actPut(t, arg), OutcomePut
		case VerbPlantBeacon:
			done, out = w.actPlantBeacon(t, arg), OutcomePlant
		case VerbPlantResource:
			done, out = w.actPlantResource(t, arg), OutcomePlant
		case VerbBuild:
			done, out = w.actBuild(t, arg), OutcomeBuild
		case VerbSetRally:
			done, out = w.actSetRally(t, arg), OutcomeUse
		}
		if done {
			a.Counters[out]++
		} else {
			a.Counters[OutcomeInvalid]++
		}
	}
}

func dirArg(arg uint8) (Dir, bool) {
	if arg >= uint8(NumDirs) {
		return 0, false
	}
	return Dir(arg), true
}

// moveAgentTo commits a one-cell move: grid occupancy, the mover's own
// window recenter, and presence writes into every covering window.
func (w *World) moveAgentTo(t *Thing, to Vec2i) {
	old := t.Pos
	w.grid.setBlock(old, NoThing)
	w.obsClearCell(old)
	w.obsBackgroundAt(old)
	t.Pos = to
	w.grid.setBlock(to, t.ID)
	w.recenterAgent(t.Agent.Slot, old, to)
	w.obsWriteThing(t)
}

// moveThing relocates a non-agent blocker (beacon displacement).
func (w *World) moveThing(t *Thing, to Vec2i) {
	old := t.Pos
	if w.grid.BlockAt(old) == t.ID {
		w.grid.setBlock(old, NoThing)
		w.obsClearCell(old)
		w.obsBackgroundAt(old)
	}
	t.Pos = to
	w.register(t)
}

// displaceBeacon tries to push a beacon out of a movement destination:
// one or two cells further along the movement vector first, then any free
// adjacent cell.
func (w *World) displaceBeacon(b *Thing, off Vec2i, team int) bool {
	cands := [2]Vec2i{b.Pos.Add(off), b.Pos.Add(off).Add(off)}
	for _, p := range cands {
		if w.cellFree(p, team) {
			w.moveThing(b, p)
			return true
		}
	}
	for d := DirN; d < NumDirs; d++ {
		p := b.Pos.Add(d.Offset())
		if w.cellFree(p, team) {
			w.moveThing(b, p)
			return true
		}
	}
	return false
}

func (w *World) actMove(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	off := d.Offset()
	dest := t.Pos.Add(off)
	team := int(t.Team)
	if !w.cellFree(dest, team) {
		blocker := w.things.Get(w.grid.BlockAt(dest))
		if blocker == nil || blocker.Kind != KindProp || PropKind(blocker.Subtype) != PropBeacon {
			return false
		}
		if !w.displaceBeacon(blocker, off, team) {
			return false
		}
		if !w.cellFree(dest, team) {
			return false
		}
	}
	t.Dir = d
	w.moveAgentTo(t, dest)
	// Fast terrain chains one extra cell in the same direction.
	if w.isFast(w.grid.TerrainAt(dest)) {
		if next := dest.Add(off); w.cellFree(next, team) {
			w.moveAgentTo(t, next)
		}
	}
	return true
}

func (w *World) actOrient(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	t.Dir = d
	w.obs.Write(t.Pos, LayerAgentDir, uint8(d)+1)
	return true
}

// lootVictim transfers pooled resources from a struck agent to the
// attacker, up to the attacker's remaining pooled capacity.
func (w *World) lootVictim(attacker, victim *Thing) {
	room := w.tune.CarryCapacity - attacker.Agent.Inv.PooledTotal(w.pooled)
	for item := range victim.Agent.Inv {
		if room <= 0 {
			break
		}
		idx := uint8(item)
		if !w.pooled[idx] {
			continue
		}
		n := victim.Agent.Inv.Remove(idx, room)
		attacker.Agent.Inv.Add(idx, n)
		room -= n
	}
	w.obsAgentStats(victim)
	w.obsAgentStats(attacker)
}

func (w *World) actAttack(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	t.Dir = d
	q := t.Pos.Add(d.Offset())
	if !w.grid.InBounds(q) {
		return false
	}
	target := w.things.Get(w.grid.BlockAt(q))
	if target == nil {
		return false
	}
	a := t.Agent
	hasSpear := a.Inv.Get(w.items.Spear) > 0
	dmg := w.tune.Combat.AttackDamage
	if hasSpear {
		dmg += w.tune.Combat.SpearBonus
	}
	switch target.Kind {
	case KindAgent:
		if target.Team == t.Team || !target.Agent.Alive {
			return false
		}
		w.applyDamage(target, dmg)
		target.Agent.Frozen = w.tune.Combat.FrozenTicks
		w.grid.setTint(q, uint8(w.tune.Combat.TintTicks))
		w.lootVictim(t, target)
	case KindCreep:
		w.applyDamage(target, dmg)
		if target.HP <= 0 {
			w.killThing(target)
			a.Reward += float32(w.tune.Rewards.TumorKill)
			w.stats.Record(StatTumorKills)
		}
	case KindCreature:
		w.applyDamage(target, dmg)
		if target.HP <= 0 {
			w.killThing(target)
		}
	case KindBuilding:
		if target.Team == t.Team {
			return false
		}
		w.applyDamage(target, dmg)
		if target.HP <= 0 {
			w.killThing(target)
		}
	default:
		return false
	}
	if hasSpear {
		a.Shield = w.tune.Combat.ShieldTicks
		w.obsAgentStats(t)
	}
	w.obs.Write(t.Pos, LayerAgentDir, uint8(d)+1)
	return true
}

// craftRoom checks the agent can hold one recipe's outputs.
func (w *World) craftRoom(a *AgentState, outputs []ItemDelta) bool {
	pooledRoom := w.tune.CarryCapacity - a.Inv.PooledTotal(w.pooled)
	for _, o := range outputs {
		switch {
		case w.pooled[o.Item]:
			pooledRoom -= o.Count
			if pooledRoom < 0 {
				return false
			}
		case w.tool[o.Item]:
			if a.Inv.Get(o.Item)+o.Count > w.tune.ToolCapacity {
				return false
			}
		default:
			if a.Inv.Get(o.Item)+o.Count > w.tune.CarryCapacity {
				return false
			}
		}
	}
	return true
}

func invAfford(inv Inventory, inputs []ItemDelta) bool {
	for _, in := range inputs {
		if inv.Get(in.Item) < in.Count {
			return false
		}
	}
	return true
}

func (w *World) actUse(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	q := t.Pos.Add(d.Offset())
	if !w.grid.InBounds(q) {
		return false
	}
	target := w.things.Get(w.grid.BlockAt(q))
	if target == nil {
		return false
	}
	a := t.Agent
	switch target.Kind {
	case KindResource:
		item := target.Subtype
		if w.pooled[item] && a.Inv.PooledTotal(w.pooled) >= w.tune.CarryCapacity {
			return false
		}
		a.Inv.Add(item, 1)
		target.Count--
		a.Reward += w.rewardByItem[item]
		w.stats.Record(StatHarvests)
		if target.Count <= 0 {
			w.killThing(target)
		} else {
			w.obsResourceCount(target)
		}
		w.obsAgentStats(t)
		return true
	case KindBuilding:
		if int(target.Team) != int(t.Team) {
			return false
		}
		b := target.Building
		if b.Cooldown > 0 {
			return false
		}
		meta := w.buildings[target.Subtype]
		for _, r := range meta.recipes {
			if !invAfford(a.Inv, r.inputs) || !w.craftRoom(a, r.outputs) {
				continue
			}
			for _, in := range r.inputs {
				a.Inv.Remove(in.Item, in.Count)
			}
			for _, out := range r.outputs {
				a.Inv.Add(out.Item, out.Count)
				a.Reward += w.rewardByItem[out.Item] * float32(out.Count)
			}
			b.Cooldown = meta.def.CooldownTicks
			w.obsBuildingStats(target)
			w.obsAgentStats(t)
			w.stats.Record(StatCrafts)
			return true
		}
		// Storage buildings hand back a blessed heart when one is stored.
		if meta.def.StorageCapacity > 0 && b.Stored.Get(w.items.Heart) > 0 {
			if a.Inv.Get(w.items.Heart) >= w.tune.CarryCapacity {
				return false
			}
			b.Stored.Remove(w.items.Heart, 1)
			w.ledger.Withdraw(int(t.Team), w.items.Heart, 1)
			a.Inv.Add(w.items.Heart, 1)
			w.obsAgentStats(t)
			return true
		}
		return false
	}
	return false
}

func (w *World) actSwap(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	q := t.Pos.Add(d.Offset())
	if !w.grid.InBounds(q) {
		return false
	}
	other := w.things.Get(w.grid.BlockAt(q))
	if other == nil {
		return false
	}
	switch {
	case other.Kind == KindAgent && other.Team == t.Team && other.Agent.Alive:
		p1, p2 := t.Pos, other.Pos
		w.grid.setBlock(p1, NoThing)
		w.grid.setBlock(p2, NoThing)
		w.obsClearCell(p1)
		w.obsClearCell(p2)
		w.obsBackgroundAt(p1)
		w.obsBackgroundAt(p2)
		t.Pos, other.Pos = p2, p1
		w.grid.setBlock(p2, t.ID)
		w.grid.setBlock(p1, other.ID)
		w.recenterAgent(t.Agent.Slot, p1, p2)
		w.recenterAgent(other.Agent.Slot, p2, p1)
		w.obsWriteThing(t)
		w.obsWriteThing(other)
		return true
	case other.Kind == KindProp && PropKind(other.Subtype) == PropBeacon:
		p1, p2 := t.Pos, other.Pos
		w.grid.setBlock(p1, NoThing)
		w.grid.setBlock(p2, NoThing)
		w.obsClearCell(p1)
		w.obsClearCell(p2)
		w.obsBackgroundAt(p1)
		w.obsBackgroundAt(p2)
		t.Pos, other.Pos = p2, p1
		w.grid.setBlock(p2, t.ID)
		w.grid.setBlock(p1, other.ID)
		w.recenterAgent(t.Agent.Slot, p1, p2)
		w.obsWriteThing(t)
		w.obsWriteThing(other)
		return true
	}
	return false
}

func (w *World) actPut(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	q := t.Pos.Add(d.Offset())
	if !w.grid.InBounds(q) {
		return false
	}
	target := w.things.Get(w.grid.BlockAt(q))
	if target == nil || target.Kind != KindBuilding || target.Team != t.Team {
		return false
	}
	meta := w.buildings[target.Subtype]
	if meta.def.StorageCapacity == 0 {
		return false
	}
	b := target.Building
	room := meta.def.StorageCapacity - b.Stored.Total()
	moved := 0
	a := t.Agent
	for item := range a.Inv {
		if room <= 0 {
			break
		}
		idx := uint8(item)
		if w.tool[idx] {
			continue // tools stay with the agent
		}
		n := a.Inv.Get(idx)
		if n == 0 {
			continue
		}
		if n > room {
			n = room // fill to capacity; overflow stays with the agent
		}
		a.Inv.Remove(idx, n)
		b.Stored.Add(idx, n)
		w.ledger.Add(int(t.Team), idx, n)
		room -= n
		moved += n
	}
	if moved == 0 {
		return false
	}
	w.obsAgentStats(t)
	return true
}

func (w *World) actPlantBeacon(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	q := t.Pos.Add(d.Offset())
	if !w.cellFree(q, int(t.Team)) || w.grid.frozen(q) || !w.isBuildable(w.grid.TerrainAt(q)) {
		return false
	}
	if t.Agent.Inv.Get(w.items.Wood) < 1 {
		return false
	}
	t.Agent.Inv.Remove(w.items.Wood, 1)
	beacon := w.things.Create(Thing{
		Kind:    KindProp,
		Subtype: uint8(PropBeacon),
		Pos:     q,
		Team:    t.Team,
		HP:      1,
	})
	w.register(beacon)
	w.obsAgentStats(t)
	return true
}

func (w *World) actPlantResource(t *Thing, arg uint8) bool {
	d, ok := dirArg(arg)
	if !ok {
		return false
	}
	q := t.Pos.Add(d.Offset())
	if !w.cellFree(q, int(t.Team)) || w.grid.frozen(q) {
		return false
	}
	if w.grid.TerrainAt(q) != w.terr.Grass {
		return false
	}
	if t.Agent.Inv.Get(w.items.Wheat) < 1 {
		return false
	}
	t.Agent.Inv.Remove(w.items.Wheat, 1)
	field := w.things.Create(Thing{
		Kind:    KindResource,
		Subtype: w.items.Wheat,
		Pos:     q,
		Team:    -1,
		HP:      1,
		Count:   wheatFieldYield,
	})
	w.register(field)
	w.obsAgentStats(t)
	return true
}

func (w *World) actBuild(t *Thing, arg uint8) bool {
	if int(arg) >= len(w.buildings) {
		return false
	}
	meta := w.buildings[arg]
	if !meta.def.Buildable {
		return false
	}
	q := t.Pos.Add(t.Dir.Offset())
	if !w.grid.InBounds(q) || w.grid.BlockAt(q) != NoThing {
		return false
	}
	if !w.isBuildable(w.grid.TerrainAt(q)) || w.grid.frozen(q) {
		return false
	}
	if !w.ledger.Spend(int(t.Team), meta.cost) {
		return false
	}
	w.placeBuilding(uint8(arg), q, int(t.Team))
	w.stats.Record(StatBuilds)
	return true
}

func (w *World) actSetRally(t *Thing, arg uint8) bool {
	home := w.things.Get(t.Agent.Home)
	if home == nil || home.Kind != KindBuilding {
		return false
	}
	var p Vec2i
	switch {
	case arg < uint8(NumDirs):
		p = t.Pos.Add(Dir(arg).Offset())
	case arg == rallySelfArg:
		p = t.Pos
	default:
		return false
	}
	if !w.grid.InBounds(p) {
		return false
	}
	home.Building.Rally = p
	home.Building.RallySet = true
	return true
}
