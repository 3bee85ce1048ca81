package inventory

import (
	"fmt"
	"strings"
)

// Moved is one committed slot transfer.
type Moved struct {
	Item  string `json:"name"`
	Count int    `json:"count"`
}

// Report describes a Transfer. Total is the number of units that left the
// source, which always equals the number that arrived in the destination.
type Report struct {
	Moved     []Moved `json:"moved"`
	Total     int     `json:"total"`
	Remaining int     `json:"remaining"`
	DestFull  bool    `json:"dest_full"`
}

// Describe renders the per-slot moves, e.g. "40x diamond, 3x coal".
func (r Report) Describe() string {
	parts := make([]string, 0, len(r.Moved)+1)
	for _, m := range r.Moved {
		parts = append(parts, fmt.Sprintf("%dx %s", m.Count, DisplayName(m.Item)))
	}
	return strings.Join(parts, ", ")
}

// Transfer moves up to count units of items selected by match from src to
// dst, scanning src in slot order. Each slot is committed as soon as it is
// processed; a destination that runs out of room stops the scan without
// undoing earlier slots.
func Transfer(src, dst Container, match Matcher, count int) Report {
	rep := Report{Remaining: count}
	if count <= 0 {
		return rep
	}
	for i := 0; i < src.Size() && rep.Remaining > 0; i++ {
		s := src.Slot(i)
		if s.Empty() || !match.matches(s.Item) {
			continue
		}
		want := min(rep.Remaining, s.Count)
		accepted := Insert(dst, s.Item, want)
		if accepted > 0 {
			// Only what dst accepted leaves the source.
			Shrink(src, i, accepted)
			rep.Moved = append(rep.Moved, Moved{Item: s.Item, Count: accepted})
			rep.Total += accepted
			rep.Remaining -= accepted
		}
		if accepted < want {
			rep.DestFull = true
			break
		}
	}
	return rep
}

// Take moves items from an external container into the agent inventory.
func Take(container, agentInv Container, match Matcher, count int) Report {
	return Transfer(container, agentInv, match, count)
}

// Put moves items from the agent inventory into an external container.
func Put(agentInv, container Container, match Matcher, count int) Report {
	return Transfer(agentInv, container, match, count)
}
