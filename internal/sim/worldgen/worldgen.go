// Package worldgen paints terrain and places the initial village layout.
// Generation is pure hash noise over (seed, x, y): re-running with the
// same seed and tuning always produces the same map, with no dependency
// on the simulation's per-tick random stream.
package worldgen

import (
	"fmt"

	"tribalgrid.ai/internal/sim/world"
)

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Village is the default generator: one settlement per team on opposite
// sides of the map, scattered resources, predators roaming the middle,
// and a tumor spawner seeding creep at the center.
type Village struct {
	Seed int64

	// Permille densities for scattered features, per cell.
	WaterPermille int
	CliffPermille int
	TreePermille  int
	OrePermille   int
	WheatPermille int
}

func NewVillage(seed int64) Village {
	return Village{
		Seed:          seed,
		WaterPermille: 30,
		CliffPermille: 25,
		TreePermille:  35,
		OrePermille:   12,
		WheatPermille: 15,
	}
}

func (g Village) Generate(w *world.World) error {
	tune := w.Tuning()
	grid := w.Grid()
	cats := w.Catalogs()

	terr := func(id string) uint8 { return cats.Terrain.Index[id] }
	grass, sand, road := terr("GRASS"), terr("SAND"), terr("ROAD")
	water, cliff := terr("WATER"), terr("CLIFF")

	// Terrain pass: region-hashed ponds and cliff patches, sand shores.
	const region = 6
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			p := world.Vec2i{X: x, Y: y}
			rx, ry := floorDiv(x, region), floorDiv(y, region)
			rn := hash2(g.Seed, rx, ry) % 1000
			cn := hash2(g.Seed^0x77, x, y) % 1000
			switch {
			case int(rn) < g.WaterPermille*4 && int(cn) < 600:
				grid.SetTerrain(p, water)
			case int(rn) >= 1000-g.CliffPermille*4 && int(cn) < 500:
				grid.SetTerrain(p, cliff)
				grid.SetElev(p, 2)
			default:
				grid.SetTerrain(p, grass)
			}
		}
	}
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			p := world.Vec2i{X: x, Y: y}
			if grid.TerrainAt(p) == grass && g.nearTerrain(grid, p, water) {
				grid.SetTerrain(p, sand)
			}
		}
	}

	// Settlements: one anchor per team, evenly spread along the x axis.
	anchors := make([]world.Vec2i, tune.NumTeams)
	for team := 0; team < tune.NumTeams; team++ {
		ax := grid.W * (2*team + 1) / (2 * tune.NumTeams)
		anchors[team] = world.Vec2i{X: ax, Y: grid.H / 2}
		g.clearArea(grid, anchors[team], 7, grass)
	}
	g.paintRoad(grid, anchors, road)

	for team := 0; team < tune.NumTeams; team++ {
		if err := g.placeSettlement(w, team, anchors[team]); err != nil {
			return err
		}
	}

	// Scattered resources keep off a margin around every settlement.
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			p := world.Vec2i{X: x, Y: y}
			if grid.TerrainAt(p) != grass || grid.BlockAt(p) != world.NoThing {
				continue
			}
			if g.nearAnchor(anchors, p, 9) {
				continue
			}
			n := int(hash2(g.Seed^0x1234, x, y) % 1000)
			switch {
			case n < g.TreePermille:
				w.PlaceResource("WOOD", p, 4)
			case n < g.TreePermille+g.OrePermille && g.nearTerrain(grid, p, cliff):
				w.PlaceResource("ORE", p, 6)
			case n < g.TreePermille+g.OrePermille+g.WheatPermille:
				w.PlaceResource("WHEAT", p, 3)
			}
			if grid.TerrainAt(p) == sand && n%7 == 0 {
				w.PlaceResource("WATER", p, 8)
			}
		}
	}

	// Hostile center: tumor spawner plus a first creep ring.
	center := world.Vec2i{X: grid.W / 2, Y: grid.H / 2}
	g.clearArea(grid, center, 3, grass)
	if _, err := w.PlaceBuilding("TUMOR_SPAWNER", center, -1); err != nil {
		return err
	}
	for _, off := range [4]world.Vec2i{{X: 0, Y: -2}, {X: 2, Y: 0}, {X: 0, Y: 2}, {X: -2, Y: 0}} {
		w.SeedCreep(center.Add(off))
	}

	// Predators roam between the settlements.
	g.placePredators(w, grid, anchors)
	return nil
}

func (g Village) nearTerrain(grid *world.Grid, p world.Vec2i, t uint8) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			q := world.Vec2i{X: p.X + dx, Y: p.Y + dy}
			if grid.InBounds(q) && grid.TerrainAt(q) == t {
				return true
			}
		}
	}
	return false
}

func (g Village) nearAnchor(anchors []world.Vec2i, p world.Vec2i, r int) bool {
	for _, a := range anchors {
		if world.Chebyshev(a, p) <= r {
			return true
		}
	}
	return false
}

// clearArea is the connectivity repair: everything inside the radius
// becomes plain walkable ground so settlements never generate walled in.
func (g Village) clearArea(grid *world.Grid, c world.Vec2i, r int, grass uint8) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			p := world.Vec2i{X: c.X + dx, Y: c.Y + dy}
			if grid.InBounds(p) {
				grid.SetTerrain(p, grass)
				grid.SetElev(p, 0)
			}
		}
	}
}

// paintRoad lays a straight fast-terrain band linking the anchors.
func (g Village) paintRoad(grid *world.Grid, anchors []world.Vec2i, road uint8) {
	if len(anchors) < 2 {
		return
	}
	y := anchors[0].Y
	for i := 0; i+1 < len(anchors); i++ {
		x0, x1 := anchors[i].X, anchors[i+1].X
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		for x := x0; x <= x1; x++ {
			p := world.Vec2i{X: x, Y: y}
			if grid.InBounds(p) {
				grid.SetTerrain(p, road)
			}
		}
	}
}

func (g Village) placeSettlement(w *world.World, team int, anchor world.Vec2i) error {
	if _, err := w.PlaceBuilding("TOWN_HALL", anchor, team); err != nil {
		return err
	}
	layout := []struct {
		id  string
		off world.Vec2i
	}{
		{"HOUSE", world.Vec2i{X: -3, Y: -3}},
		{"HOUSE", world.Vec2i{X: 3, Y: -3}},
		{"TEMPLE", world.Vec2i{X: 0, Y: -4}},
		{"GRANARY", world.Vec2i{X: -4, Y: 0}},
		{"BLACKSMITH", world.Vec2i{X: 4, Y: 0}},
		{"MILL", world.Vec2i{X: -3, Y: 3}},
		{"LOOM", world.Vec2i{X: 3, Y: 3}},
		{"ARMORY", world.Vec2i{X: 0, Y: 4}},
	}
	for _, b := range layout {
		if _, err := w.PlaceBuilding(b.id, anchor.Add(b.off), team); err != nil {
			return err
		}
	}
	// Doors guard the cardinal approaches one ring out.
	for _, off := range [4]world.Vec2i{{X: 0, Y: -6}, {X: 6, Y: 0}, {X: 0, Y: 6}, {X: -6, Y: 0}} {
		if _, err := w.PlaceDoor(anchor.Add(off), team); err != nil {
			return err
		}
	}

	// The last two slots stay dormant so fertility births have room.
	tune := w.Tuning()
	want := tune.AgentsPerTeam - 2
	if want < 1 {
		want = 1
	}
	lo := team * tune.AgentsPerTeam
	placed := 0
	for r := 1; r <= 3 && placed < want; r++ {
		for dy := -r; dy <= r && placed < want; dy++ {
			for dx := -r; dx <= r && placed < want; dx++ {
				if dx != -r && dx != r && dy != -r && dy != r {
					continue
				}
				p := anchor.Add(world.Vec2i{X: dx, Y: dy})
				if _, err := w.SpawnAgent(lo+placed, p); err == nil {
					placed++
				}
			}
		}
	}
	if placed < want {
		return fmt.Errorf("team %d: placed %d of %d agents", team, placed, want)
	}

	w.AddStock(team, "FOOD", 6)
	w.AddStock(team, "WATER", 4)
	w.AddStock(team, "WOOD", 4)
	return nil
}

func (g Village) placePredators(w *world.World, grid *world.Grid, anchors []world.Vec2i) {
	want := 2 + len(anchors)
	placed := 0
	for i := 0; i < 512 && placed < want; i++ {
		x := int(hash2(g.Seed^0xBEEF, i, 0) % uint64(grid.W))
		y := int(hash2(g.Seed^0xBEEF, i, 1) % uint64(grid.H))
		p := world.Vec2i{X: x, Y: y}
		if g.nearAnchor(anchors, p, 12) {
			continue
		}
		kind := world.CreatureWolf
		if placed%3 == 2 {
			kind = world.CreatureBear
		}
		if _, err := w.PlaceCreature(kind, p); err == nil {
			placed++
		}
	}
}
