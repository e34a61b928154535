package world

import "strings"

// RenderANSI draws the committed world as colored text, one rune per cell.
// Debug surface only: it reads committed state between ticks and never
// mutates anything.
func (w *World) RenderANSI() string {
	var sb strings.Builder
	sb.Grow((w.grid.W*12 + 1) * w.grid.H)
	for y := 0; y < w.grid.H; y++ {
		for x := 0; x < w.grid.W; x++ {
			p := Vec2i{x, y}
			ch, color := w.renderCell(p)
			sb.WriteString(color)
			sb.WriteByte(ch)
		}
		sb.WriteString("\x1b[0m\n")
	}
	return sb.String()
}

var teamColors = []string{"\x1b[94m", "\x1b[91m", "\x1b[93m", "\x1b[95m"}

func teamColor(team int8) string {
	if team < 0 || int(team) >= len(teamColors) {
		return "\x1b[37m"
	}
	return teamColors[team]
}

func (w *World) renderCell(p Vec2i) (byte, string) {
	if t := w.things.Get(w.grid.BlockAt(p)); t != nil {
		switch t.Kind {
		case KindAgent:
			return 'A', teamColor(t.Team)
		case KindBuilding:
			id := w.cats.Buildings.Palette[t.Subtype]
			return id[0], teamColor(t.Team)
		case KindResource:
			id := w.cats.Items.Palette[t.Subtype]
			return id[0] | 0x20, "\x1b[32m"
		case KindCreep:
			if t.Creep.Planted {
				return '%', "\x1b[35m"
			}
			return '*', "\x1b[35m"
		case KindProp:
			return '^', teamColor(t.Team)
		case KindCreature:
			if CreatureKind(t.Subtype) == CreatureWolf {
				return 'w', "\x1b[90m"
			}
			return 'b', "\x1b[90m"
		}
	}
	if bg := w.things.Get(w.grid.BackgroundAt(p)); bg != nil && bg.Kind == KindProp {
		return '+', teamColor(bg.Team)
	}
	switch w.grid.TerrainAt(p) {
	case w.terr.Water:
		return '~', "\x1b[34m"
	case w.terr.Cliff:
		return '#', "\x1b[90m"
	case w.terr.Road:
		return '=', "\x1b[33m"
	case w.terr.Sand:
		return '.', "\x1b[33m"
	default:
		return '.', "\x1b[32m"
	}
}
