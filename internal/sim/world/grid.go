package world

// Grid holds the dense per-cell state: terrain, elevation, at most one
// blocking occupant, at most one background occupant (doors, roads), and a
// transient tint counter. Occupants are ThingIDs, not pointers.
type Grid struct {
	W, H int

	Terrain    []uint8
	Elev       []int8
	Block      []ThingID
	Background []ThingID
	Tint       []uint8
}

func NewGrid(w, h int) *Grid {
	n := w * h
	return &Grid{
		W:          w,
		H:          h,
		Terrain:    make([]uint8, n),
		Elev:       make([]int8, n),
		Block:      make([]ThingID, n),
		Background: make([]ThingID, n),
		Tint:       make([]uint8, n),
	}
}

func (g *Grid) InBounds(p Vec2i) bool {
	return p.X >= 0 && p.X < g.W && p.Y >= 0 && p.Y < g.H
}

func (g *Grid) idx(p Vec2i) int { return p.Y*g.W + p.X }

func (g *Grid) TerrainAt(p Vec2i) uint8    { return g.Terrain[g.idx(p)] }
func (g *Grid) BlockAt(p Vec2i) ThingID    { return g.Block[g.idx(p)] }
func (g *Grid) BackgroundAt(p Vec2i) ThingID { return g.Background[g.idx(p)] }
func (g *Grid) TintAt(p Vec2i) uint8       { return g.Tint[g.idx(p)] }

func (g *Grid) SetTerrain(p Vec2i, t uint8) { g.Terrain[g.idx(p)] = t }
func (g *Grid) SetElev(p Vec2i, e int8)     { g.Elev[g.idx(p)] = e }

func (g *Grid) setBlock(p Vec2i, id ThingID)      { g.Block[g.idx(p)] = id }
func (g *Grid) setBackground(p Vec2i, id ThingID) { g.Background[g.idx(p)] = id }

func (g *Grid) setTint(p Vec2i, ticks uint8) {
	i := g.idx(p)
	if g.Tint[i] < ticks {
		g.Tint[i] = ticks
	}
}

// Frozen cells reject placement (build/plant) until the tint decays.
func (g *Grid) frozen(p Vec2i) bool { return g.Tint[g.idx(p)] > 0 }

func (g *Grid) decayTint() {
	for i := range g.Tint {
		if g.Tint[i] > 0 {
			g.Tint[i]--
		}
	}
}

func (g *Grid) reset() {
	for i := range g.Terrain {
		g.Terrain[i] = 0
		g.Elev[i] = 0
		g.Block[i] = NoThing
		g.Background[i] = NoThing
		g.Tint[i] = 0
	}
}
