// Package scripted provides deterministic role heuristics that drive
// agents through the same packed action-code contract as any external
// controller. It only reads committed world state between ticks and never
// mutates anything directly.
package scripted

import (
	"tribalgrid.ai/internal/sim/world"
)

type Role uint8

const (
	RoleGatherer Role = iota
	RoleBuilder
	RoleDefender
)

// Controller decides one team's actions. Roles rotate gatherer, builder,
// defender across the team's slots.
type Controller struct {
	w      *world.World
	team   int
	slots  []int
	roles  []Role
	pooled []bool
}

func NewController(w *world.World, team int) *Controller {
	per := w.Tuning().AgentsPerTeam
	c := &Controller{
		w:     w,
		team:  team,
		slots: make([]int, per),
		roles: make([]Role, per),
	}
	for i := 0; i < per; i++ {
		c.slots[i] = team*per + i
		c.roles[i] = Role(i % 3)
	}
	items := w.Catalogs().Items
	c.pooled = make([]bool, len(items.Palette))
	for id, def := range items.Defs {
		c.pooled[items.Index[id]] = def.Kind == "RESOURCE"
	}
	return c
}

// Act fills the controller's team slots in a full-size action array.
func (c *Controller) Act(tick uint64, actions []byte) {
	for i, slot := range c.slots {
		actions[slot] = c.decide(tick, slot, c.roles[i])
	}
}

func (c *Controller) decide(tick uint64, slot int, role Role) byte {
	t := c.w.Agent(slot)
	if t == nil || !t.Agent.Alive {
		return world.EncodeAction(world.VerbOrient, 0)
	}
	switch role {
	case RoleBuilder:
		if code, ok := c.builderAction(t); ok {
			return code
		}
	case RoleDefender:
		if code, ok := c.defenderAction(t); ok {
			return code
		}
	}
	return c.gathererAction(tick, slot, t)
}

// gathererAction: harvest what is adjacent, bank a full load, otherwise
// walk toward the nearest visible resource.
func (c *Controller) gathererAction(tick uint64, slot int, t *world.Thing) byte {
	if d, ok := c.adjacent(t, world.KindResource, -1); ok {
		if t.Agent.Inv.PooledTotal(c.pooled) < c.w.Tuning().CarryCapacity {
			return world.EncodeAction(world.VerbUse, uint8(d))
		}
	}
	if t.Agent.Inv.PooledTotal(c.pooled) >= c.w.Tuning().CarryCapacity {
		if d, ok := c.adjacentStorage(t); ok {
			return world.EncodeAction(world.VerbPut, uint8(d))
		}
		if home := c.w.Home(c.team); home != nil {
			return c.stepToward(tick, slot, t, home.Pos)
		}
	}
	if target, ok := c.nearest(t, world.KindResource, -1); ok {
		return c.stepToward(tick, slot, t, target)
	}
	return c.wander(tick, slot)
}

// builderAction: put up housing whenever the stockpile affords it.
func (c *Controller) builderAction(t *world.Thing) (byte, bool) {
	if c.w.Stockpile(c.team, "WOOD") < 6 {
		return 0, false
	}
	houseIdx, ok := c.w.Catalogs().Buildings.Index["HOUSE"]
	if !ok {
		return 0, false
	}
	ahead := t.Pos.Add(t.Dir.Offset())
	g := c.w.Grid()
	if !g.InBounds(ahead) || g.BlockAt(ahead) != world.NoThing {
		return 0, false
	}
	return world.EncodeAction(world.VerbBuild, houseIdx), true
}

// defenderAction: strike anything hostile in reach, then close on creep.
func (c *Controller) defenderAction(t *world.Thing) (byte, bool) {
	if d, ok := c.adjacent(t, world.KindCreep, -1); ok {
		return world.EncodeAction(world.VerbAttack, uint8(d)), true
	}
	if d, ok := c.adjacentEnemyAgent(t); ok {
		return world.EncodeAction(world.VerbAttack, uint8(d)), true
	}
	if target, ok := c.nearest(t, world.KindCreep, -1); ok {
		return c.stepToward(0, 0, t, target), true
	}
	return 0, false
}

func (c *Controller) adjacent(t *world.Thing, kind world.Kind, subtype int) (world.Dir, bool) {
	g := c.w.Grid()
	for d := world.DirN; d < world.NumDirs; d++ {
		q := t.Pos.Add(d.Offset())
		if !g.InBounds(q) {
			continue
		}
		o := c.thingAt(q)
		if o == nil || o.Kind != kind {
			continue
		}
		if subtype >= 0 && int(o.Subtype) != subtype {
			continue
		}
		return d, true
	}
	return 0, false
}

func (c *Controller) adjacentStorage(t *world.Thing) (world.Dir, bool) {
	g := c.w.Grid()
	defs := c.w.Catalogs().Buildings
	for d := world.DirN; d < world.NumDirs; d++ {
		q := t.Pos.Add(d.Offset())
		if !g.InBounds(q) {
			continue
		}
		o := c.thingAt(q)
		if o == nil || o.Kind != world.KindBuilding || int(o.Team) != c.team {
			continue
		}
		if defs.Defs[defs.Palette[o.Subtype]].StorageCapacity > 0 {
			return d, true
		}
	}
	return 0, false
}

func (c *Controller) adjacentEnemyAgent(t *world.Thing) (world.Dir, bool) {
	g := c.w.Grid()
	for d := world.DirN; d < world.NumDirs; d++ {
		q := t.Pos.Add(d.Offset())
		if !g.InBounds(q) {
			continue
		}
		o := c.thingAt(q)
		if o != nil && o.Kind == world.KindAgent && int(o.Team) != c.team && o.Agent.Alive {
			return d, true
		}
	}
	return 0, false
}

// nearest scans a bounded square around the agent, nearest first.
func (c *Controller) nearest(t *world.Thing, kind world.Kind, subtype int) (world.Vec2i, bool) {
	g := c.w.Grid()
	for r := 1; r <= c.w.ObsRadius(); r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dy) != r {
					continue
				}
				q := t.Pos.Add(world.Vec2i{X: dx, Y: dy})
				if !g.InBounds(q) {
					continue
				}
				o := c.thingAt(q)
				if o == nil || o.Kind != kind {
					continue
				}
				if subtype >= 0 && int(o.Subtype) != subtype {
					continue
				}
				return q, true
			}
		}
	}
	return world.Vec2i{}, false
}

func (c *Controller) thingAt(p world.Vec2i) *world.Thing {
	return c.w.ThingAt(p)
}

func (c *Controller) stepToward(tick uint64, slot int, t *world.Thing, target world.Vec2i) byte {
	d, ok := dirToward(t.Pos, target)
	if !ok {
		return c.wander(tick, slot)
	}
	return world.EncodeAction(world.VerbMove, uint8(d))
}

func (c *Controller) wander(tick uint64, slot int) byte {
	h := (tick*0x9e3779b9 + uint64(slot)*0x85ebca6b) >> 3
	return world.EncodeAction(world.VerbMove, uint8(h%8))
}

func dirToward(from, to world.Vec2i) (world.Dir, bool) {
	dx := sign(to.X - from.X)
	dy := sign(to.Y - from.Y)
	if dx == 0 && dy == 0 {
		return 0, false
	}
	for d := world.DirN; d < world.NumDirs; d++ {
		off := d.Offset()
		if off.X == dx && off.Y == dy {
			return d, true
		}
	}
	return 0, false
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
