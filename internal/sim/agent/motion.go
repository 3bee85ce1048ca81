package agent

import (
	"fmt"
	"math"
	"strings"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/boundary"
	"nuncle.ai/internal/sim/geom"
)

// GoTo walks toward p. A destination outside the boundary is pulled onto
// its edge. The mode becomes GoingTo even when no path can be started.
func (c *Controller) GoTo(p geom.Vec3) Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	dest := boundary.Clamp(c.bound, p)
	clamped := dest != p
	c.switchTo(GoingTo{Point: dest})
	if clamped {
		c.logf("BOUNDARY_CLAMPED goto from (%d,%d) to (%d,%d)", int(p.X), int(p.Z), int(dest.X), int(dest.Z))
		c.emit(protocol.Event{"type": "BOUNDARY_CLAMPED", "from": ipos(p), "to": ipos(dest)})
	}
	if !c.w.NavigateTo(c.ref, dest, c.t.MoveSpeed) {
		return refuse(ErrUnreachable, "Cannot pathfind to "+dest.String())
	}
	if clamped {
		return success("Moving to " + dest.String() + " (clamped to boundary)")
	}
	return success("Moving to " + dest.String())
}

func (c *Controller) Follow(name string) Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	name = strings.TrimSpace(name)
	p, ok := c.w.PlayerByName(name)
	if !ok || !p.Alive {
		return refuse(ErrTargetNotFound, "Player "+name+" not found")
	}
	c.switchTo(Following{Target: p.Ref})
	return success("Following " + name)
}

// Wander roams randomly and picks the first destination right away.
func (c *Controller) Wander() Result {
	self, ok := c.self()
	if !ok {
		return c.notSpawned()
	}
	c.switchTo(Wandering{Cooldown: 0})
	c.exec.Apply(c.ref, []Effect{c.wanderStep(self.Pos)})
	return success("Wandering randomly")
}

func (c *Controller) Stay() Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	c.switchTo(Staying{})
	return success("Staying in place")
}

func (c *Controller) LookAt(p geom.Vec3) Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	c.w.LookAt(c.ref, p)
	return success("Looking at " + p.String())
}

// Attack targets the closest living entity of the given type within the
// search radius. Candidates outside the boundary are never chosen.
func (c *Controller) Attack(entityType string) Result {
	self, ok := c.self()
	if !ok {
		return c.notSpawned()
	}
	typ := entityTypeKey(entityType)
	if typ == "" {
		return refuse(ErrBadRequest, "Missing entity type")
	}
	found := c.w.FindEntities(self.Pos, c.t.AttackSearchRadius, func(e Entity) bool {
		return e.Ref != c.ref && e.Living && e.Alive && e.Type == typ
	})

	var (
		best     Entity
		bestDist = math.Inf(1)
		outside  int
	)
	for _, e := range found {
		if !boundary.Inside(c.bound, e.Pos) {
			outside++
			continue
		}
		if d := self.Pos.Dist(e.Pos); d < bestDist {
			best, bestDist = e, d
		}
	}
	if best.Ref == "" {
		if outside > 0 {
			return refuse(ErrOutOfBoundary, fmt.Sprintf("No %s inside boundary (%d outside)", typ, outside))
		}
		return refuse(ErrTargetNotFound, "No "+typ+" found nearby")
	}
	c.switchTo(Attacking{Target: best.Ref})
	return success(fmt.Sprintf("Attacking %s (%d blocks away)", typ, int(bestDist)))
}

func entityTypeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "minecraft:")
}
