package world

// Observation layers. Values are uint8: presence layers encode id+1 so zero
// always means "nothing here", counts are clamped to 255.
const (
	LayerTerrain = iota
	LayerAgent
	LayerAgentDir
	LayerAgentHP
	LayerAgentCarry
	LayerAgentFrozen
	LayerAgentShield
	LayerBuilding
	LayerBuildingHP
	LayerBuildingCooldown
	LayerResource
	LayerResourceCount
	LayerCreep
	LayerProp
	NumLayers
)

var LayerNames = [NumLayers]string{
	"terrain",
	"agent",
	"agent_dir",
	"agent_hp",
	"agent_carry",
	"agent_frozen",
	"agent_shield",
	"building",
	"building_hp",
	"building_cooldown",
	"resource",
	"resource_count",
	"creep",
	"prop",
}

// Encoder maintains one fixed-size window per agent per layer and applies
// incremental single-cell writes. Full rebuilds happen only on reset; a
// mutation at cell P touches exactly the agents whose window contains P.
type Encoder struct {
	numAgents int
	radius    int
	win       int
	plane     int // win*win
	stride    int // NumLayers*plane

	buf     []uint8
	centers []Vec2i
	active  []bool

	shift []uint8 // scratch plane for recentering
}

func NewEncoder(numAgents, radius int) *Encoder {
	win := 2*radius + 1
	plane := win * win
	return &Encoder{
		numAgents: numAgents,
		radius:    radius,
		win:       win,
		plane:     plane,
		stride:    NumLayers * plane,
		buf:       make([]uint8, numAgents*NumLayers*plane),
		centers:   make([]Vec2i, numAgents),
		active:    make([]bool, numAgents),
		shift:     make([]uint8, plane),
	}
}

func (e *Encoder) Buffer() []uint8 { return e.buf }
func (e *Encoder) Window() int     { return e.win }

func (e *Encoder) Reset() {
	for i := range e.buf {
		e.buf[i] = 0
	}
	for i := range e.active {
		e.active[i] = false
	}
}

func (e *Encoder) Activate(slot int, center Vec2i) {
	e.active[slot] = true
	e.centers[slot] = center
	base := slot * e.stride
	for i := base; i < base+e.stride; i++ {
		e.buf[i] = 0
	}
}

func (e *Encoder) Deactivate(slot int) { e.active[slot] = false }

func (e *Encoder) contains(slot int, p Vec2i) bool {
	c := e.centers[slot]
	return absInt(p.X-c.X) <= e.radius && absInt(p.Y-c.Y) <= e.radius
}

func (e *Encoder) localIdx(slot int, p Vec2i) int {
	c := e.centers[slot]
	lx := p.X - c.X + e.radius
	ly := p.Y - c.Y + e.radius
	return ly*e.win + lx
}

// Write propagates one world-cell value into every window containing p.
func (e *Encoder) Write(p Vec2i, layer int, v uint8) {
	for slot := 0; slot < e.numAgents; slot++ {
		if !e.active[slot] || !e.contains(slot, p) {
			continue
		}
		e.buf[slot*e.stride+layer*e.plane+e.localIdx(slot, p)] = v
	}
}

// WriteFor writes into a single agent's window; p must be inside it.
func (e *Encoder) WriteFor(slot int, p Vec2i, layer int, v uint8) {
	e.buf[slot*e.stride+layer*e.plane+e.localIdx(slot, p)] = v
}

// Recenter shifts a window to a new center, preserving the overlap region
// and zeroing exposed cells. The caller refills the exposed strip from
// world state; nothing here rereads the grid.
func (e *Encoder) Recenter(slot int, center Vec2i) {
	old := e.centers[slot]
	dx := center.X - old.X
	dy := center.Y - old.Y
	e.centers[slot] = center
	if dx == 0 && dy == 0 {
		return
	}
	if absInt(dx) >= e.win || absInt(dy) >= e.win {
		base := slot * e.stride
		for i := base; i < base+e.stride; i++ {
			e.buf[i] = 0
		}
		return
	}
	for layer := 0; layer < NumLayers; layer++ {
		plane := e.buf[slot*e.stride+layer*e.plane : slot*e.stride+(layer+1)*e.plane]
		copy(e.shift, plane)
		for ly := 0; ly < e.win; ly++ {
			sy := ly + dy
			for lx := 0; lx < e.win; lx++ {
				sx := lx + dx
				if sx < 0 || sx >= e.win || sy < 0 || sy >= e.win {
					plane[ly*e.win+lx] = 0
				} else {
					plane[ly*e.win+lx] = e.shift[sy*e.win+sx]
				}
			}
		}
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// --- world-side derivation ------------------------------------------------

// obsWriteThing writes the full layer set of a blocking thing at its cell.
func (w *World) obsWriteThing(t *Thing) {
	p := t.Pos
	switch t.Kind {
	case KindAgent:
		w.obs.Write(p, LayerAgent, uint8(t.Team)+1)
		w.obs.Write(p, LayerAgentDir, uint8(t.Dir)+1)
		w.obs.Write(p, LayerAgentHP, clampByte(int(t.HP)))
		w.obs.Write(p, LayerAgentCarry, clampByte(t.Agent.Inv.PooledTotal(w.pooled)))
		w.obs.Write(p, LayerAgentFrozen, clampByte(t.Agent.Frozen))
		w.obs.Write(p, LayerAgentShield, clampByte(t.Agent.Shield))
	case KindBuilding:
		w.obs.Write(p, LayerBuilding, t.Subtype+1)
		w.obs.Write(p, LayerBuildingHP, clampByte(int(t.HP)))
		w.obs.Write(p, LayerBuildingCooldown, clampByte(t.Building.Cooldown))
	case KindResource:
		w.obs.Write(p, LayerResource, t.Subtype+1)
		w.obs.Write(p, LayerResourceCount, clampByte(int(t.Count)))
	case KindCreep:
		if t.Creep.Planted {
			w.obs.Write(p, LayerCreep, 2)
		} else {
			w.obs.Write(p, LayerCreep, 1)
		}
	case KindProp:
		w.obs.Write(p, LayerProp, t.Subtype+1)
	case KindCreature:
		w.obs.Write(p, LayerProp, 3+t.Subtype)
	}
}

// obsClearCell zeroes every blocking-entity layer at p. Terrain stays.
func (w *World) obsClearCell(p Vec2i) {
	for layer := LayerAgent; layer < NumLayers; layer++ {
		w.obs.Write(p, layer, 0)
	}
}

// obsBackgroundAt re-derives the prop layer from the background occupant
// after a blocking thing left the cell (clearing wipes the prop layer too).
func (w *World) obsBackgroundAt(p Vec2i) {
	if bg := w.things.Get(w.grid.BackgroundAt(p)); bg != nil && bg.Kind == KindProp {
		w.obs.Write(p, LayerProp, bg.Subtype+1)
	}
}

func (w *World) obsAgentStats(t *Thing) {
	p := t.Pos
	w.obs.Write(p, LayerAgentHP, clampByte(int(t.HP)))
	w.obs.Write(p, LayerAgentCarry, clampByte(t.Agent.Inv.PooledTotal(w.pooled)))
	w.obs.Write(p, LayerAgentFrozen, clampByte(t.Agent.Frozen))
	w.obs.Write(p, LayerAgentShield, clampByte(t.Agent.Shield))
}

func (w *World) obsBuildingStats(t *Thing) {
	w.obs.Write(t.Pos, LayerBuildingHP, clampByte(int(t.HP)))
	w.obs.Write(t.Pos, LayerBuildingCooldown, clampByte(t.Building.Cooldown))
}

func (w *World) obsResourceCount(t *Thing) {
	w.obs.Write(t.Pos, LayerResourceCount, clampByte(int(t.Count)))
}

// fillCellFor derives every layer value of one absolute cell for one
// agent's window, straight from committed world state. Used for reset
// rebuilds and for the strip a recentered window exposes.
func (w *World) fillCellFor(slot int, p Vec2i) {
	if !w.grid.InBounds(p) {
		return
	}
	w.obs.WriteFor(slot, p, LayerTerrain, w.grid.TerrainAt(p)+1)
	if bg := w.things.Get(w.grid.BackgroundAt(p)); bg != nil && bg.Kind == KindProp {
		w.obs.WriteFor(slot, p, LayerProp, bg.Subtype+1)
	}
	id := w.grid.BlockAt(p)
	t := w.things.Get(id)
	if t == nil {
		return
	}
	switch t.Kind {
	case KindAgent:
		w.obs.WriteFor(slot, p, LayerAgent, uint8(t.Team)+1)
		w.obs.WriteFor(slot, p, LayerAgentDir, uint8(t.Dir)+1)
		w.obs.WriteFor(slot, p, LayerAgentHP, clampByte(int(t.HP)))
		w.obs.WriteFor(slot, p, LayerAgentCarry, clampByte(t.Agent.Inv.PooledTotal(w.pooled)))
		w.obs.WriteFor(slot, p, LayerAgentFrozen, clampByte(t.Agent.Frozen))
		w.obs.WriteFor(slot, p, LayerAgentShield, clampByte(t.Agent.Shield))
	case KindBuilding:
		w.obs.WriteFor(slot, p, LayerBuilding, t.Subtype+1)
		w.obs.WriteFor(slot, p, LayerBuildingHP, clampByte(int(t.HP)))
		w.obs.WriteFor(slot, p, LayerBuildingCooldown, clampByte(t.Building.Cooldown))
	case KindResource:
		w.obs.WriteFor(slot, p, LayerResource, t.Subtype+1)
		w.obs.WriteFor(slot, p, LayerResourceCount, clampByte(int(t.Count)))
	case KindCreep:
		if t.Creep.Planted {
			w.obs.WriteFor(slot, p, LayerCreep, 2)
		} else {
			w.obs.WriteFor(slot, p, LayerCreep, 1)
		}
	case KindProp:
		w.obs.WriteFor(slot, p, LayerProp, t.Subtype+1)
	case KindCreature:
		w.obs.WriteFor(slot, p, LayerProp, 3+t.Subtype)
	}
}

// recenterAgent shifts a mover's own window and refills only the exposed
// strip. Everything still covered moved by memcpy, not rederivation.
func (w *World) recenterAgent(slot int, oldCenter, newCenter Vec2i) {
	w.obs.Recenter(slot, newCenter)
	r := w.tune.ObsRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			p := Vec2i{newCenter.X + dx, newCenter.Y + dy}
			if Chebyshev(p, oldCenter) > r {
				w.fillCellFor(slot, p)
			}
		}
	}
}

// rebuildObservations is the reset-only full reconstruction.
func (w *World) rebuildObservations() {
	w.obs.Reset()
	for slot := range w.agents {
		t := w.agentThing(slot)
		if t == nil || !t.Agent.Alive {
			continue
		}
		w.obs.Activate(slot, t.Pos)
		r := w.tune.ObsRadius
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				w.fillCellFor(slot, Vec2i{t.Pos.X + dx, t.Pos.Y + dy})
			}
		}
	}
}
