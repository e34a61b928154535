package world

type Vec2i struct {
	X int
	Y int
}

func (v Vec2i) Add(o Vec2i) Vec2i { return Vec2i{v.X + o.X, v.Y + o.Y} }
func (v Vec2i) Sub(o Vec2i) Vec2i { return Vec2i{v.X - o.X, v.Y - o.Y} }

// Dir is an 8-way orientation, clockwise from north.
type Dir uint8

const (
	DirN Dir = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
	NumDirs
)

var dirOffsets = [NumDirs]Vec2i{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

func (d Dir) Offset() Vec2i { return dirOffsets[d] }

// Perp returns the two unit offsets perpendicular to d. For diagonal
// orientations the perpendiculars are the adjacent diagonals.
func (d Dir) Perp() (Vec2i, Vec2i) {
	l := dirOffsets[(d+6)%NumDirs]
	r := dirOffsets[(d+2)%NumDirs]
	return l, r
}

func Chebyshev(a, b Vec2i) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func Manhattan(a, b Vec2i) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

var cardinalOffsets = [4]Vec2i{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
