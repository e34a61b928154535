package world

type StatKind uint8

const (
	StatHarvests StatKind = iota
	StatCrafts
	StatBuilds
	StatDeaths
	StatRespawns
	StatBirths
	StatTumorKills
	StatCreepDeaths
	NumStatKinds
)

// WorldStats keeps a rolling window of per-bucket episode counters for the
// read-model side (admin endpoint, index rows). It never feeds back into
// simulation state.
type WorldStats struct {
	bucketTicks uint64
	curBase     uint64
	cur         [NumStatKinds]uint32
	totals      [NumStatKinds]uint64
}

func NewWorldStats(bucketTicks uint64) *WorldStats {
	if bucketTicks == 0 {
		bucketTicks = 256
	}
	return &WorldStats{bucketTicks: bucketTicks}
}

func (s *WorldStats) Record(k StatKind) {
	if s == nil {
		return
	}
	s.cur[k]++
	s.totals[k]++
}

func (s *WorldStats) Rotate(nowTick uint64) {
	if s == nil {
		return
	}
	for nowTick >= s.curBase+s.bucketTicks {
		s.cur = [NumStatKinds]uint32{}
		s.curBase += s.bucketTicks
	}
}

func (s *WorldStats) Totals() [NumStatKinds]uint64 { return s.totals }

func (s *WorldStats) reset() {
	s.curBase = 0
	s.cur = [NumStatKinds]uint32{}
	s.totals = [NumStatKinds]uint64{}
}
