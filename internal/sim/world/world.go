package world

import (
	"fmt"

	"tribalgrid.ai/internal/sim/catalogs"
	"tribalgrid.ai/internal/sim/tuning"
)

type Config struct {
	Seed int64
	Tune tuning.Tuning
	Cats *catalogs.Catalogs
}

// Generator paints terrain and places the initial entities before the first
// tick. It runs exactly once per Reset and may use the placement APIs only.
type Generator interface {
	Generate(w *World) error
}

// TickObserver receives the per-tick audit record after a tick has fully
// committed. Implementations must copy what they keep; the slices are reused.
type TickObserver interface {
	ObserveTick(rec TickRecord)
}

type TickRecord struct {
	Tick            uint64
	Actions         []byte
	Outcomes        []OutcomeCounts
	StockpileDeltas [][]int32
	Digest          string
}

type StepResult struct {
	Tick        uint64
	Rewards     []float32
	Terminals   []bool
	Truncations []bool
	Done        bool
}

// World is a single-threaded deterministic simulation. One Step call
// consumes one packed action byte per agent and advances exactly one tick;
// no world state is shared across the call boundary.
type World struct {
	cfg  Config
	tune tuning.Tuning
	cats *catalogs.Catalogs

	tick uint64
	done bool

	grid   *Grid
	things *Store
	ledger *Ledger
	obs    *Encoder
	stats  *WorldStats

	agents []ThingID // fixed slots: team = slot / AgentsPerTeam
	homes  []ThingID // per-team home structure

	items itemIndex
	terr  terrainIndex

	pooled       []bool    // item idx -> shares the pooled carry capacity
	tool         []bool    // item idx -> per-item tool cap, never deposited
	rewardByItem []float32 // item idx -> gather/craft reward

	buildings []buildingMeta // by building palette idx

	creepList  []ThingID // creation order; drives the branch stagger
	spawners   []ThingID
	predators  []ThingID

	// Scratch buffers: pre-sized once, truncated to empty each tick.
	scratchBranches []creepBranch
	scratchRemovals []ThingID
	scratchCells    []Vec2i
	scratchPairs    []creepContact

	rewards     []float32
	terminals   []bool
	truncations []bool
	outcomes    []OutcomeCounts // per-slot copy handed to tick observers

	observers []TickObserver
}

type itemIndex struct {
	Ore, Bar, Wood, Water, Wheat, Food, Cloth, Spear, Armor, Heart uint8
}

type terrainIndex struct {
	Grass, Sand, Road, Water, Cliff uint8
}

type buildingMeta struct {
	def     catalogs.BuildingDef
	cost    []ItemDelta
	recipes []resolvedRecipe
}

type resolvedRecipe struct {
	inputs  []ItemDelta
	outputs []ItemDelta
}

func New(cfg Config) (*World, error) {
	if cfg.Cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	t := cfg.Tune
	if t.MapWidth <= 0 || t.MapHeight <= 0 {
		return nil, fmt.Errorf("world: bad map size %dx%d", t.MapWidth, t.MapHeight)
	}
	if t.NumTeams <= 0 || t.AgentsPerTeam <= 0 {
		return nil, fmt.Errorf("world: bad team shape %d x %d", t.NumTeams, t.AgentsPerTeam)
	}
	if t.ObsRadius <= 0 {
		return nil, fmt.Errorf("world: bad obs radius %d", t.ObsRadius)
	}

	numItems := len(cfg.Cats.Items.Palette)
	numAgents := t.NumTeams * t.AgentsPerTeam

	w := &World{
		cfg:    cfg,
		tune:   t,
		cats:   cfg.Cats,
		grid:   NewGrid(t.MapWidth, t.MapHeight),
		things: NewStore(numAgents + 256),
		ledger: NewLedger(t.NumTeams, numItems),
		stats:  NewWorldStats(256),
		agents: make([]ThingID, numAgents),
		homes:  make([]ThingID, t.NumTeams),

		scratchBranches: make([]creepBranch, 0, 64),
		scratchRemovals: make([]ThingID, 0, 64),
		scratchCells:    make([]Vec2i, 0, 64),
		scratchPairs:    make([]creepContact, 0, 64),

		rewards:     make([]float32, numAgents),
		terminals:   make([]bool, numAgents),
		truncations: make([]bool, numAgents),
		outcomes:    make([]OutcomeCounts, numAgents),
	}

	if err := w.resolveIndices(); err != nil {
		return nil, err
	}
	w.obs = NewEncoder(numAgents, t.ObsRadius)
	return w, nil
}

func (w *World) resolveIndices() error {
	item := func(id string) (uint8, error) {
		v, ok := w.cats.Items.Index[id]
		if !ok {
			return 0, fmt.Errorf("missing item in palette: %s", id)
		}
		return v, nil
	}
	terr := func(id string) (uint8, error) {
		v, ok := w.cats.Terrain.Index[id]
		if !ok {
			return 0, fmt.Errorf("missing terrain in palette: %s", id)
		}
		return v, nil
	}

	var err error
	set := func(dst *uint8, id string, get func(string) (uint8, error)) {
		if err != nil {
			return
		}
		*dst, err = get(id)
	}
	set(&w.items.Ore, "ORE", item)
	set(&w.items.Bar, "BAR", item)
	set(&w.items.Wood, "WOOD", item)
	set(&w.items.Water, "WATER", item)
	set(&w.items.Wheat, "WHEAT", item)
	set(&w.items.Food, "FOOD", item)
	set(&w.items.Cloth, "CLOTH", item)
	set(&w.items.Spear, "SPEAR", item)
	set(&w.items.Armor, "ARMOR", item)
	set(&w.items.Heart, "HEART", item)
	set(&w.terr.Grass, "GRASS", terr)
	set(&w.terr.Sand, "SAND", terr)
	set(&w.terr.Road, "ROAD", terr)
	set(&w.terr.Water, "WATER", terr)
	set(&w.terr.Cliff, "CLIFF", terr)
	if err != nil {
		return err
	}

	numItems := len(w.cats.Items.Palette)
	w.pooled = make([]bool, numItems)
	w.tool = make([]bool, numItems)
	w.rewardByItem = make([]float32, numItems)
	for id, def := range w.cats.Items.Defs {
		idx := w.cats.Items.Index[id]
		w.pooled[idx] = def.Kind == "RESOURCE"
		w.tool[idx] = def.Kind == "TOOL"
	}
	rw := w.tune.Rewards
	w.rewardByItem[w.items.Ore] = float32(rw.Ore)
	w.rewardByItem[w.items.Bar] = float32(rw.Bar)
	w.rewardByItem[w.items.Wood] = float32(rw.Wood)
	w.rewardByItem[w.items.Water] = float32(rw.Water)
	w.rewardByItem[w.items.Wheat] = float32(rw.Wheat)
	w.rewardByItem[w.items.Food] = float32(rw.Food)
	w.rewardByItem[w.items.Cloth] = float32(rw.Cloth)
	w.rewardByItem[w.items.Spear] = float32(rw.Spear)
	w.rewardByItem[w.items.Armor] = float32(rw.Armor)
	w.rewardByItem[w.items.Heart] = float32(rw.Heart)

	w.buildings = make([]buildingMeta, len(w.cats.Buildings.Palette))
	for i, id := range w.cats.Buildings.Palette {
		def := w.cats.Buildings.Defs[id]
		meta := buildingMeta{def: def}
		for _, ic := range def.Cost {
			meta.cost = append(meta.cost, ItemDelta{Item: w.cats.Items.Index[ic.Item], Count: ic.Count})
		}
		for _, r := range w.cats.Recipes.ByStation[id] {
			var rr resolvedRecipe
			for _, ic := range r.Inputs {
				rr.inputs = append(rr.inputs, ItemDelta{Item: w.cats.Items.Index[ic.Item], Count: ic.Count})
			}
			for _, ic := range r.Outputs {
				rr.outputs = append(rr.outputs, ItemDelta{Item: w.cats.Items.Index[ic.Item], Count: ic.Count})
			}
			meta.recipes = append(meta.recipes, rr)
		}
		w.buildings[i] = meta
	}
	return nil
}

func (w *World) CurrentTick() uint64 { return w.tick }
func (w *World) Done() bool          { return w.done }
func (w *World) NumAgents() int      { return len(w.agents) }
func (w *World) NumTeams() int       { return w.tune.NumTeams }
func (w *World) ObsRadius() int      { return w.tune.ObsRadius }
func (w *World) Grid() *Grid         { return w.grid }
func (w *World) Catalogs() *catalogs.Catalogs { return w.cats }
func (w *World) Tuning() tuning.Tuning        { return w.tune }

func (w *World) AddObserver(o TickObserver) { w.observers = append(w.observers, o) }

func (w *World) Seed() int64 { return w.cfg.Seed }

// AgentWindow returns one slot's committed window slice, shaped
// [layers][win][win]. Read-only, valid until the next Step.
func (w *World) AgentWindow(slot int) []uint8 {
	return w.obs.buf[slot*w.obs.stride : (slot+1)*w.obs.stride]
}

// Observations exposes the committed per-agent observation buffer shaped
// [agents][layers][win][win]. Callers must treat it as read-only.
func (w *World) Observations() []uint8 { return w.obs.Buffer() }

func (w *World) teamOf(slot int) int { return slot / w.tune.AgentsPerTeam }

func (w *World) agentThing(slot int) *Thing { return w.things.Get(w.agents[slot]) }

// Agent returns the agent thing for a slot (nil before Reset).
func (w *World) Agent(slot int) *Thing { return w.agentThing(slot) }

// Home returns a team's home structure.
func (w *World) Home(team int) *Thing { return w.things.Get(w.homes[team]) }

// ThingAt resolves the blocking occupant of a cell, if any.
func (w *World) ThingAt(p Vec2i) *Thing {
	if !w.grid.InBounds(p) {
		return nil
	}
	return w.things.Get(w.grid.BlockAt(p))
}

// Stockpile returns a team's count of one item.
func (w *World) Stockpile(team int, item string) int {
	idx, ok := w.cats.Items.Index[item]
	if !ok {
		return 0
	}
	return w.ledger.Count(team, idx)
}

func (w *World) isWalkable(t uint8) bool {
	return w.cats.Terrain.Defs[w.cats.Terrain.Palette[t]].Walkable
}

func (w *World) isBuildable(t uint8) bool {
	return w.cats.Terrain.Defs[w.cats.Terrain.Palette[t]].Buildable
}

func (w *World) isFast(t uint8) bool {
	return w.cats.Terrain.Defs[w.cats.Terrain.Palette[t]].Fast
}

// cellFree reports whether an entity can be placed or moved onto p: in
// bounds, walkable terrain, no blocking occupant, and no hostile door for
// the given team (team < 0 means any door blocks).
func (w *World) cellFree(p Vec2i, team int) bool {
	if !w.grid.InBounds(p) {
		return false
	}
	if !w.isWalkable(w.grid.TerrainAt(p)) {
		return false
	}
	if w.grid.BlockAt(p) != NoThing {
		return false
	}
	if bg := w.things.Get(w.grid.BackgroundAt(p)); bg != nil && bg.Kind == KindProp && PropKind(bg.Subtype) == PropDoor {
		if team < 0 || int(bg.Team) != team {
			return false
		}
	}
	return true
}

// findFreeCellRing searches rings of increasing Chebyshev radius around
// center, starting at radius 2, and returns the first free cell in scan
// order. ok=false means placement is deferred, never fatal.
func (w *World) findFreeCellRing(center Vec2i, team int, maxRadius int) (Vec2i, bool) {
	for r := 2; r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dy) != r {
					continue
				}
				p := Vec2i{center.X + dx, center.Y + dy}
				if w.cellFree(p, team) {
					return p, true
				}
			}
		}
	}
	return Vec2i{}, false
}

// register installs a thing on the grid and mirrors it into every
// observation window covering its cell.
func (w *World) register(t *Thing) {
	w.grid.setBlock(t.Pos, t.ID)
	w.obsWriteThing(t)
}

// unregister clears the grid slot and observation layers for a thing. The
// id check keeps a stale double-removal from clobbering a newer occupant.
func (w *World) unregister(t *Thing) {
	if w.grid.BlockAt(t.Pos) == t.ID {
		w.grid.setBlock(t.Pos, NoThing)
		w.obsClearCell(t.Pos)
		w.obsBackgroundAt(t.Pos)
	}
}
