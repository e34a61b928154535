package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// StateDigest hashes the complete committed world state: tick counter,
// grid planes, every live thing in ascending id order, and the team
// stockpiles. Two worlds with equal seeds and equal action streams must
// produce equal digests tick for tick; replay verification depends on it.
func (w *World) StateDigest() string {
	h := sha256.New()
	var buf [8]byte

	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:8])
	}
	i32 := func(v int32) {
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		h.Write(buf[:4])
	}
	i16 := func(v int16) {
		binary.LittleEndian.PutUint16(buf[:2], uint16(v))
		h.Write(buf[:2])
	}

	u64(w.tick)

	h.Write(w.grid.Terrain)
	h.Write(w.grid.Tint)
	for _, e := range w.grid.Elev {
		h.Write([]byte{byte(e)})
	}
	for _, id := range w.grid.Block {
		i32(int32(id))
	}
	for _, id := range w.grid.Background {
		i32(int32(id))
	}

	w.things.Range(func(t *Thing) {
		i32(int32(t.ID))
		h.Write([]byte{byte(t.Kind), t.Subtype, byte(t.Dir), byte(t.Team)})
		i32(int32(t.Pos.X))
		i32(int32(t.Pos.Y))
		i16(t.HP)
		i16(t.Count)
		i16(int16(t.Creep.Age))
		if t.Creep.Planted {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		if a := t.Agent; a != nil {
			flags := byte(0)
			if a.Alive {
				flags |= 1
			}
			if a.Dormant {
				flags |= 2
			}
			h.Write([]byte{flags, a.Class})
			i32(int32(a.Slot))
			i16(int16(a.Shield))
			i16(int16(a.Frozen))
			for _, v := range a.Inv {
				i16(v)
			}
		}
		if b := t.Building; b != nil {
			i16(int16(b.Cooldown))
			i32(int32(b.Rally.X))
			i32(int32(b.Rally.Y))
			if b.RallySet {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
			for _, v := range b.Stored {
				i16(v)
			}
		}
	})

	for team := 0; team < w.tune.NumTeams; team++ {
		for item := 0; item < len(w.cats.Items.Palette); item++ {
			i32(int32(w.ledger.Count(team, uint8(item))))
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
