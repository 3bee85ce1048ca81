package inventory

// Container is an ordered, fixed-size sequence of slots. Implementations may
// be mutated by other actors between calls, so callers must not cache slots.
type Container interface {
	Size() int
	Slot(i int) Stack
	SetSlot(i int, s Stack)
	// SlotLimit is the most units of item a single slot can hold.
	SlotLimit(item string) int
}

// Slots is the in-memory Container used for the agent inventory and for
// simulated chests.
type Slots struct {
	stacks []Stack
	limit  int
	limits map[string]int
}

// NewSlots makes an empty container. limit <= 0 means DefaultSlotLimit;
// limits overrides it per item id.
func NewSlots(size, limit int, limits map[string]int) *Slots {
	if size < 0 {
		size = 0
	}
	if limit <= 0 {
		limit = DefaultSlotLimit
	}
	return &Slots{stacks: make([]Stack, size), limit: limit, limits: limits}
}

func (c *Slots) Size() int { return len(c.stacks) }

func (c *Slots) Slot(i int) Stack {
	if i < 0 || i >= len(c.stacks) {
		return Stack{}
	}
	return c.stacks[i]
}

func (c *Slots) SetSlot(i int, s Stack) {
	if i < 0 || i >= len(c.stacks) {
		return
	}
	if s.Empty() {
		s = Stack{}
	}
	c.stacks[i] = s
}

func (c *Slots) SlotLimit(item string) int {
	if n, ok := c.limits[item]; ok && n > 0 && n < c.limit {
		return n
	}
	if n, ok := c.limits[DisplayName(item)]; ok && n > 0 && n < c.limit {
		return n
	}
	return c.limit
}

// List returns the occupied slots in order.
func List(c Container) []Stack {
	out := make([]Stack, 0, c.Size())
	for i := 0; i < c.Size(); i++ {
		if s := c.Slot(i); !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// Count totals the units of item held in c.
func Count(c Container, item string) int {
	n := 0
	for i := 0; i < c.Size(); i++ {
		if s := c.Slot(i); !s.Empty() && s.Item == item {
			n += s.Count
		}
	}
	return n
}

// Find returns the first occupied slot whose item satisfies match.
func Find(c Container, match Matcher) (int, Stack, bool) {
	for i := 0; i < c.Size(); i++ {
		s := c.Slot(i)
		if s.Empty() || !match.matches(s.Item) {
			continue
		}
		return i, s, true
	}
	return -1, Stack{}, false
}

// Shrink removes up to n units from slot i and returns how many were removed.
func Shrink(c Container, i, n int) int {
	s := c.Slot(i)
	if s.Empty() || n <= 0 {
		return 0
	}
	if n > s.Count {
		n = s.Count
	}
	s.Count -= n
	c.SetSlot(i, s)
	return n
}

// RemoveSlot empties slot i and returns what it held.
func RemoveSlot(c Container, i int) Stack {
	s := c.Slot(i)
	if s.Empty() {
		return Stack{}
	}
	c.SetSlot(i, Stack{})
	return s
}

// Insert places up to n units of item into c, merging into slots that
// already hold item before filling empty ones. It returns how many units
// were accepted.
func Insert(c Container, item string, n int) int {
	if item == "" || n <= 0 {
		return 0
	}
	limit := c.SlotLimit(item)
	moved := 0
	for i := 0; i < c.Size() && moved < n; i++ {
		s := c.Slot(i)
		if s.Empty() || s.Item != item || s.Count >= limit {
			continue
		}
		amt := min(n-moved, limit-s.Count)
		s.Count += amt
		c.SetSlot(i, s)
		moved += amt
	}
	for i := 0; i < c.Size() && moved < n; i++ {
		if !c.Slot(i).Empty() {
			continue
		}
		amt := min(n-moved, limit)
		c.SetSlot(i, Stack{Item: item, Count: amt})
		moved += amt
	}
	return moved
}
