package world

// CargoSlot holds a single resource. Locked slots keep their resource when
// emptied; stations lock every slot to the resource it was built for.
type CargoSlot struct {
	Resource ResourceID `json:"resource"`
	Quantity int        `json:"quantity"`
	Locked   bool       `json:"locked"`
}

// CargoBay is a set of equally sized slots.
type CargoBay struct {
	SlotCapacity int         `json:"slot_capacity"`
	Slots        []CargoSlot `json:"slots"`
}

// NewCargoBay creates an empty bay.
func NewCargoBay(slots, slotCapacity int) *CargoBay {
	return &CargoBay{
		SlotCapacity: slotCapacity,
		Slots:        make([]CargoSlot, slots),
	}
}

// LockSlot dedicates slot i to resource r.
func (b *CargoBay) LockSlot(i int, r ResourceID) {
	if i < 0 || i >= len(b.Slots) {
		return
	}
	b.Slots[i].Resource = r
	b.Slots[i].Locked = true
}

// Capacity is the total capacity of all slots.
func (b *CargoBay) Capacity() int {
	return b.SlotCapacity * len(b.Slots)
}

// Quantity returns how much of r the bay holds.
func (b *CargoBay) Quantity(r ResourceID) int {
	total := 0
	for _, s := range b.Slots {
		if s.Resource == r {
			total += s.Quantity
		}
	}
	return total
}

// FreeSpace returns how much of r the bay can still accept: the room left
// in slots holding r plus every empty unlocked slot.
func (b *CargoBay) FreeSpace(r ResourceID) int {
	free := 0
	for _, s := range b.Slots {
		switch {
		case s.Resource == r:
			free += b.SlotCapacity - s.Quantity
		case s.Resource == "" && !s.Locked:
			free += b.SlotCapacity
		}
	}
	return free
}

// Take removes up to qty of r and returns the amount removed.
func (b *CargoBay) Take(r ResourceID, qty int) int {
	if qty <= 0 {
		return 0
	}
	taken := 0
	for i := range b.Slots {
		s := &b.Slots[i]
		if s.Resource != r || s.Quantity == 0 {
			continue
		}
		n := min(qty-taken, s.Quantity)
		s.Quantity -= n
		taken += n
		if s.Quantity == 0 && !s.Locked {
			s.Resource = ""
		}
		if taken == qty {
			break
		}
	}
	return taken
}

// Give stores up to qty of r and returns the amount stored. Slots already
// holding r fill first.
func (b *CargoBay) Give(r ResourceID, qty int) int {
	if qty <= 0 {
		return 0
	}
	given := 0
	for i := range b.Slots {
		s := &b.Slots[i]
		if s.Resource != r {
			continue
		}
		n := min(qty-given, b.SlotCapacity-s.Quantity)
		s.Quantity += n
		given += n
		if given == qty {
			return given
		}
	}
	for i := range b.Slots {
		s := &b.Slots[i]
		if s.Resource != "" || s.Locked {
			continue
		}
		n := min(qty-given, b.SlotCapacity)
		s.Resource = r
		s.Quantity = n
		given += n
		if given == qty {
			break
		}
	}
	return given
}

// Resources lists the distinct resources currently held, in slot order.
func (b *CargoBay) Resources() []ResourceID {
	var out []ResourceID
	seen := make(map[ResourceID]bool)
	for _, s := range b.Slots {
		if s.Resource == "" || s.Quantity == 0 || seen[s.Resource] {
			continue
		}
		seen[s.Resource] = true
		out = append(out, s.Resource)
	}
	return out
}

// Empty reports whether nothing is stored.
func (b *CargoBay) Empty() bool {
	for _, s := range b.Slots {
		if s.Quantity > 0 {
			return false
		}
	}
	return true
}
