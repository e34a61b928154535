package world

// Inventory is a dense item-index -> count vector. A zero count is the same
// as "entry absent"; counts never go negative.
type Inventory []int16

func NewInventory(numItems int) Inventory { return make(Inventory, numItems) }

func (inv Inventory) Get(item uint8) int { return int(inv[item]) }

func (inv Inventory) Add(item uint8, n int) {
	v := int(inv[item]) + n
	if v < 0 {
		v = 0
	}
	if v > 32767 {
		v = 32767
	}
	inv[item] = int16(v)
}

// Remove takes up to n and reports how many were actually removed.
func (inv Inventory) Remove(item uint8, n int) int {
	have := int(inv[item])
	if n > have {
		n = have
	}
	inv[item] = int16(have - n)
	return n
}

func (inv Inventory) Total() int {
	sum := 0
	for _, v := range inv {
		sum += int(v)
	}
	return sum
}

// PooledTotal sums the counts of the items marked pooled (the carryable raw
// resources that share one capacity limit).
func (inv Inventory) PooledTotal(pooled []bool) int {
	sum := 0
	for i, v := range inv {
		if pooled[i] {
			sum += int(v)
		}
	}
	return sum
}

func (inv Inventory) Clear() {
	for i := range inv {
		inv[i] = 0
	}
}
