package world

// ItemDelta is a resolved (item index, count) pair. Catalog costs are
// resolved into these once at world construction.
type ItemDelta struct {
	Item  uint8
	Count int
}

// Ledger holds the per-team shared stockpiles. All mutation goes through
// the checked Spend/Add pair; per-tick deltas are kept for the audit
// observers and reset at every tick boundary.
type Ledger struct {
	stock  [][]int32 // [team][item]
	deltas [][]int32
}

func NewLedger(numTeams, numItems int) *Ledger {
	l := &Ledger{
		stock:  make([][]int32, numTeams),
		deltas: make([][]int32, numTeams),
	}
	for t := range l.stock {
		l.stock[t] = make([]int32, numItems)
		l.deltas[t] = make([]int32, numItems)
	}
	return l
}

func (l *Ledger) Count(team int, item uint8) int { return int(l.stock[team][item]) }

func (l *Ledger) CanSpend(team int, cost []ItemDelta) bool {
	for _, c := range cost {
		if int(l.stock[team][c.Item]) < c.Count {
			return false
		}
	}
	return true
}

// Spend commits the whole cost or nothing.
func (l *Ledger) Spend(team int, cost []ItemDelta) bool {
	if !l.CanSpend(team, cost) {
		return false
	}
	for _, c := range cost {
		l.stock[team][c.Item] -= int32(c.Count)
		l.deltas[team][c.Item] -= int32(c.Count)
	}
	return true
}

func (l *Ledger) Add(team int, item uint8, n int) {
	if n <= 0 {
		return
	}
	l.stock[team][item] += int32(n)
	l.deltas[team][item] += int32(n)
}

// Withdraw removes up to n from the stockpile and reports how many came out.
func (l *Ledger) Withdraw(team int, item uint8, n int) int {
	have := int(l.stock[team][item])
	if n > have {
		n = have
	}
	l.stock[team][item] -= int32(n)
	l.deltas[team][item] -= int32(n)
	return n
}

func (l *Ledger) resetDeltas() {
	for t := range l.deltas {
		for i := range l.deltas[t] {
			l.deltas[t][i] = 0
		}
	}
}

// TickDeltas returns the per-team stockpile deltas accumulated since the
// last reset. The returned slices are reused; observers must copy.
func (l *Ledger) TickDeltas() [][]int32 { return l.deltas }

func (l *Ledger) reset() {
	for t := range l.stock {
		for i := range l.stock[t] {
			l.stock[t][i] = 0
			l.deltas[t][i] = 0
		}
	}
}
