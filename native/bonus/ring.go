package bonus

import (
	"github.com/ethereum/go-ethereum/common"

	"stakepool/core/fixedpoint"
)

// Capacity bounds the number of recent qualifying contributors tracked.
const Capacity = 10

// Entry records one qualifying contribution.
type Entry struct {
	Contributor common.Address
	Amount      uint64
}

// Ring is a fixed-capacity circular buffer of recent qualifying contributions.
// Once full the oldest entry is overwritten. Distribution never clears it.
type Ring struct {
	Entries [Capacity]Entry
	Cursor  uint8
	Filled  uint8
}

// Push writes entry at the cursor and returns the slot it occupies.
func (r *Ring) Push(entry Entry) uint8 {
	slot := r.Cursor % Capacity
	r.Entries[slot] = entry
	r.Cursor = (slot + 1) % Capacity
	if r.Filled < Capacity {
		r.Filled++
	}
	return slot
}

// Slot pairs an entry with its buffer position.
type Slot struct {
	Index uint8
	Entry
}

// Active returns the filled entries in slot order. Slots are filled from zero
// upwards, so the first Filled slots are always the populated ones.
func (r *Ring) Active() []Slot {
	filled := r.Filled
	if filled > Capacity {
		filled = Capacity
	}
	out := make([]Slot, 0, filled)
	for i := uint8(0); i < filled; i++ {
		out = append(out, Slot{Index: i, Entry: r.Entries[i]})
	}
	return out
}

// Total sums the amounts of the filled entries.
func (r *Ring) Total() (uint64, error) {
	var total uint64
	for _, slot := range r.Active() {
		next, err := fixedpoint.Add(total, slot.Amount)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}
