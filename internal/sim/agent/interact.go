package agent

import (
	"fmt"
	"strings"

	"nuncle.ai/internal/sim/boundary"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
)

// insideXZ checks the block's center column against the boundary.
func insideXZ(b *boundary.Boundary, p geom.BlockPos) bool {
	return boundary.Inside(b, p.Center())
}

// reach reports whether the block at p is within interaction range. When it
// is not, the agent starts walking to approach and a TooFar result is
// returned; the caller must invoke the operation again once there.
func (c *Controller) reach(self Entity, p geom.BlockPos, approach geom.Vec3, what string) (Result, bool) {
	d := self.Pos.Dist(p.Center())
	if d <= c.t.InteractRange {
		return Result{}, true
	}
	c.switchTo(GoingTo{Point: approach})
	c.w.NavigateTo(c.ref, approach, c.t.MoveSpeed)
	return refuse(ErrTooFar, fmt.Sprintf("Too far%s (%d blocks). Moving closer.", what, int(d))), false
}

func (c *Controller) Mine(p geom.BlockPos) Result {
	self, ok := c.self()
	if !ok {
		return c.notSpawned()
	}
	if !insideXZ(c.bound, p) {
		return refuse(ErrOutOfBoundary, "Cannot mine outside boundary")
	}
	b := c.w.BlockAt(p)
	if b.Air {
		return refuse(ErrTargetNotFound, "No block at "+p.String())
	}
	if res, ok := c.reach(self, p, p.Offset(0, 1, 0).Vec(), " to mine"); !ok {
		return res
	}
	if !c.w.BreakBlock(c.ref, p) {
		return refuse(ErrFailed, "Failed to mine block at "+p.String())
	}
	return success(fmt.Sprintf("Mined %s at %s", inventory.DisplayName(b.Name), p))
}

// Place puts one block from the inventory at p. The first slot holding a
// placeable item whose name contains blockName is used.
func (c *Controller) Place(p geom.BlockPos, blockName string) Result {
	self, ok := c.self()
	if !ok {
		return c.notSpawned()
	}
	match := inventory.NameFilter(blockName)
	if match == nil {
		return refuse(ErrBadRequest, "Missing block name")
	}
	if !insideXZ(c.bound, p) {
		return refuse(ErrOutOfBoundary, "Cannot place block outside boundary")
	}
	if res, ok := c.reach(self, p, p.Offset(0, 1, 0).Vec(), " to place block"); !ok {
		return res
	}
	if !c.w.BlockAt(p).Replaceable {
		return refuse(ErrFailed, "Cannot place block at "+p.String()+" - position is not empty")
	}
	for i := 0; i < c.inv.Size(); i++ {
		s := c.inv.Slot(i)
		if s.Empty() || !c.w.IsBlockItem(s.Item) || !match(s.Item) {
			continue
		}
		c.w.SetBlock(p, s.Item)
		inventory.Shrink(c.inv, i, 1)
		return success(fmt.Sprintf("Placed %s at %s", inventory.DisplayName(s.Item), p))
	}
	return refuse(ErrTargetNotFound, "No "+strings.TrimSpace(blockName)+" blocks in inventory")
}

// Pickup collects ground items within the pickup radius. Whatever does not
// fit stays on the ground.
func (c *Controller) Pickup(filter string) Result {
	self, ok := c.self()
	if !ok {
		return c.notSpawned()
	}
	filter = strings.TrimSpace(filter)
	match := inventory.NameFilter(filter)
	items := c.w.FindEntities(self.Pos, c.t.PickupRadius, func(e Entity) bool {
		return e.Kind == KindItem && e.Alive && !e.Stack.Empty() && (match == nil || match(e.Stack.Item))
	})

	var picked []string
	full := false
	for _, e := range items {
		got := inventory.Insert(c.inv, e.Stack.Item, e.Stack.Count)
		if got > 0 {
			c.w.ShrinkGroundItem(e.Ref, got)
			picked = append(picked, fmt.Sprintf("%dx %s", got, inventory.DisplayName(e.Stack.Item)))
		}
		if got < e.Stack.Count {
			full = true
		}
	}
	switch {
	case len(picked) == 0 && full:
		return refuse(ErrInventoryFull, "Inventory is full")
	case len(picked) == 0 && filter != "":
		return refuse(ErrTargetNotFound, "No "+filter+" found nearby")
	case len(picked) == 0:
		return refuse(ErrTargetNotFound, "No items found nearby")
	}
	msg := "Picked up: " + strings.Join(picked, ", ")
	if full {
		return refuse(ErrInventoryFull, msg+" (inventory full)")
	}
	return success(msg)
}

// Drop throws the whole first matching stack on the ground at the agent.
func (c *Controller) Drop(item string) Result {
	self, ok := c.self()
	if !ok {
		return c.notSpawned()
	}
	item = strings.TrimSpace(item)
	match := inventory.NameFilter(item)
	if match == nil {
		return refuse(ErrBadRequest, "Missing item name")
	}
	i, _, found := inventory.Find(c.inv, match)
	if !found {
		return refuse(ErrTargetNotFound, "No "+item+" in inventory")
	}
	s := inventory.RemoveSlot(c.inv, i)
	c.w.DropItem(self.Pos, s)
	return success(fmt.Sprintf("Dropped %dx %s", s.Count, inventory.DisplayName(s.Item)))
}

// container runs the checks shared by Take and Put.
func (c *Controller) container(p geom.BlockPos) (inventory.Container, Result, bool) {
	self, ok := c.self()
	if !ok {
		return nil, c.notSpawned(), false
	}
	if !insideXZ(c.bound, p) {
		return nil, refuse(ErrOutOfBoundary, "Container is outside boundary"), false
	}
	if res, ok := c.reach(self, p, p.Vec(), ""); !ok {
		return nil, res, false
	}
	box, ok := c.w.ContainerAt(p)
	if !ok {
		return nil, refuse(ErrTargetNotFound, "No container at "+p.String()), false
	}
	return box, Result{}, true
}

// Take moves up to count matching items from the container at p into the
// agent inventory. An empty filter takes anything.
func (c *Controller) Take(p geom.BlockPos, filter string, count int) Result {
	if count <= 0 {
		return refuse(ErrBadRequest, "Count must be positive")
	}
	box, res, ok := c.container(p)
	if !ok {
		return res
	}
	filter = strings.TrimSpace(filter)
	rep := inventory.Take(box, c.inv, inventory.NameFilter(filter), count)
	if rep.Total == 0 {
		switch {
		case rep.DestFull:
			return refuse(ErrInventoryFull, "Inventory is full")
		case filter != "":
			return refuse(ErrContainerEmpty, "No "+filter+" in container")
		default:
			return refuse(ErrContainerEmpty, "Container is empty")
		}
	}
	msg := fmt.Sprintf("Took %d (%s)", rep.Total, rep.Describe())
	if rep.DestFull {
		return refuse(ErrInventoryFull, msg+", inventory full")
	}
	return success(msg)
}

// Put moves up to count units of the named item from the agent inventory
// into the container at p.
func (c *Controller) Put(p geom.BlockPos, item string, count int) Result {
	item = strings.TrimSpace(item)
	match := inventory.NameFilter(item)
	if match == nil {
		return refuse(ErrBadRequest, "Missing item name")
	}
	if count <= 0 {
		return refuse(ErrBadRequest, "Count must be positive")
	}
	box, res, ok := c.container(p)
	if !ok {
		return res
	}
	rep := inventory.Put(c.inv, box, match, count)
	if rep.Total == 0 {
		if rep.DestFull {
			return refuse(ErrInventoryFull, "Container is full")
		}
		return refuse(ErrTargetNotFound, "No "+item+" in inventory")
	}
	msg := fmt.Sprintf("Put %d (%s)", rep.Total, rep.Describe())
	if rep.DestFull {
		return refuse(ErrInventoryFull, msg+", container full")
	}
	return success(msg)
}
