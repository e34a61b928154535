package world

// ThingID is a stable arena id. Zero means "no thing"; grid cells store ids,
// never pointers, so removal can never leave a dangling reference that still
// compares equal to a live entity.
type ThingID int32

const NoThing ThingID = 0

type Kind uint8

const (
	KindAgent Kind = iota
	KindBuilding
	KindResource
	KindCreep
	KindProp
	KindCreature
)

type PropKind uint8

const (
	PropBeacon PropKind = iota
	PropDoor
)

type CreatureKind uint8

const (
	CreatureWolf CreatureKind = iota
	CreatureBear
)

// Thing is the single placed-entity record. Kind-specific payloads hang off
// the pointers below; exactly one of Agent/Building is non-nil for those
// kinds, and the inline fields are meaningful only for the kinds that use
// them (Count for resources, Creep for creep nodes, Subtype per kind).
type Thing struct {
	ID      ThingID
	Kind    Kind
	Subtype uint8 // building palette idx / resource item idx / PropKind / CreatureKind
	Pos     Vec2i
	Dir     Dir
	Team    int8 // -1 for neutral things
	HP      int16

	Count int16 // remaining units for resource nodes

	Creep    CreepState
	Agent    *AgentState
	Building *BuildingState
}

type CreepState struct {
	Age     uint16
	Planted bool // one-way: a planted node never branches again
	Spawner ThingID
}

type AgentState struct {
	Slot    int
	Alive   bool
	Dormant bool // slot never born, or terminated; eligible for fertility births
	Home    ThingID
	Class   uint8 // unit class; 0 = villager default

	Inv    Inventory
	Shield int
	Frozen int

	Counters   OutcomeCounts
	Reward     float32 // this tick
	Cumulative float64 // episode total
}

type BuildingState struct {
	Cooldown int
	Stored   Inventory // storage buildings only
	Rally    Vec2i
	RallySet bool
}

// Store is the entity arena. Slot 0 is reserved so ThingID 0 stays "none";
// freed slots are recycled through a free list.
type Store struct {
	things []Thing
	free   []ThingID
	live   int
}

func NewStore(capHint int) *Store {
	s := &Store{things: make([]Thing, 1, capHint+1)}
	return s
}

// Create allocates a slot and returns a pointer into the arena. Growing
// the arena may move it: any *Thing obtained before a Create must be
// re-fetched through Get afterwards.
func (s *Store) Create(t Thing) *Thing {
	var id ThingID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.things = append(s.things, Thing{})
		id = ThingID(len(s.things) - 1)
	}
	t.ID = id
	s.things[id] = t
	s.live++
	return &s.things[id]
}

// Get returns nil for NoThing and for freed slots.
func (s *Store) Get(id ThingID) *Thing {
	if id <= 0 || int(id) >= len(s.things) {
		return nil
	}
	t := &s.things[id]
	if t.ID != id {
		return nil
	}
	return t
}

func (s *Store) Free(id ThingID) {
	t := s.Get(id)
	if t == nil {
		return
	}
	*t = Thing{} // ID 0 marks the slot dead
	s.free = append(s.free, id)
	s.live--
}

func (s *Store) Len() int { return s.live }

// Range visits live things in ascending id order, which keeps every
// full-store iteration deterministic.
func (s *Store) Range(fn func(*Thing)) {
	for i := 1; i < len(s.things); i++ {
		t := &s.things[i]
		if t.ID == ThingID(i) {
			fn(t)
		}
	}
}

func (s *Store) reset() {
	s.things = s.things[:1]
	s.free = s.free[:0]
	s.live = 0
}
