package worldsim

import (
	"math"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
	"nuncle.ai/internal/sim/observe"
)

const (
	arriveDist   = 0.5
	mobAggroDist = 12.0
	mobSpeed     = 0.5 // fraction of the walking pace
)

// loot is what a killed mob leaves behind.
var loot = map[string]string{
	"zombie":   "minecraft:rotten_flesh",
	"skeleton": "minecraft:bone",
	"spider":   "minecraft:string",
	"creeper":  "minecraft:gunpowder",
	"cow":      "minecraft:beef",
	"pig":      "minecraft:porkchop",
	"chicken":  "minecraft:feather",
}

// NavigateTo starts a straight walk toward p. Points beyond the world
// border cannot be reached. A refused walk also drops the previous one.
func (w *World) NavigateTo(ref agent.EntityRef, p geom.Vec3, speed float64) bool {
	if _, ok := w.entities[ref]; !ok || !w.insideBorder(p) {
		delete(w.nav, ref)
		return false
	}
	w.nav[ref] = &navState{point: p, speed: speed}
	return true
}

func (w *World) NavigateToEntity(ref, target agent.EntityRef, speed float64) bool {
	t, ok := w.entities[target]
	if _, self := w.entities[ref]; !self || !ok || !w.insideBorder(t.Pos) {
		delete(w.nav, ref)
		return false
	}
	w.nav[ref] = &navState{target: target, speed: speed}
	return true
}

func (w *World) NavigationDone(ref agent.EntityRef) bool {
	_, busy := w.nav[ref]
	return !busy
}

func (w *World) StopNavigation(ref agent.EntityRef) { delete(w.nav, ref) }

func (w *World) LookAt(ref agent.EntityRef, p geom.Vec3) {
	if e, ok := w.entities[ref]; ok {
		e.look = p
	}
}

// Facing is the point an entity last looked at.
func (w *World) Facing(ref agent.EntityRef) geom.Vec3 {
	if e, ok := w.entities[ref]; ok {
		return e.look
	}
	return geom.Vec3{}
}

func (w *World) Teleport(ref agent.EntityRef, p geom.Vec3) {
	if e, ok := w.entities[ref]; ok {
		e.Pos = p
	}
}

// Strike deals the configured damage to a living non-player target. A mob
// at zero health dies and drops its loot.
func (w *World) Strike(ref, target agent.EntityRef) {
	if _, ok := w.entities[ref]; !ok {
		return
	}
	t, ok := w.entities[target]
	if !ok || !t.Living || t.Kind == agent.KindPlayer {
		return
	}
	t.Health -= w.cfg.StrikeDamage
	if t.Health > 0 {
		return
	}
	t.Health = 0
	t.Alive = false
	w.remove(target)
	if item := loot[t.Type]; item != "" {
		w.DropItem(t.Pos, inventory.Stack{Item: item, Count: 1})
	}
}

// moveToward steps e toward goal on the XZ plane, keeping it on the ground.
// It reports whether e has arrived.
func (w *World) moveToward(e *entity, goal geom.Vec3, step float64) bool {
	d := e.Pos.DistXZ(goal)
	if d <= arriveDist {
		return true
	}
	if step >= d {
		e.Pos = geom.Vec3{X: goal.X, Y: w.GroundHeight(goal.X, goal.Z), Z: goal.Z}
		return true
	}
	k := step / d
	x := e.Pos.X + (goal.X-e.Pos.X)*k
	z := e.Pos.Z + (goal.Z-e.Pos.Z)*k
	e.Pos = geom.Vec3{X: x, Y: w.GroundHeight(x, z), Z: z}
	return e.Pos.DistXZ(goal) <= arriveDist
}

func (w *World) stepNav(e *entity) {
	n, ok := w.nav[e.Ref]
	if !ok {
		return
	}
	goal := n.point
	if n.target != "" {
		t, ok := w.entities[n.target]
		if !ok {
			delete(w.nav, e.Ref)
			return
		}
		goal = t.Pos
	}
	if w.moveToward(e, goal, n.speed*w.cfg.BlocksPerTick) {
		delete(w.nav, e.Ref)
	}
}

// stepMob lets hostile mobs close in on the agent and hit it in reach.
func (w *World) stepMob(m *entity) {
	if !observe.IsHostile(m.Type) {
		return
	}
	if m.cooldown > 0 {
		m.cooldown--
	}
	var prey *entity
	best := math.Inf(1)
	for _, e := range w.entities {
		if e.Kind != agent.KindAgent || !e.Alive {
			continue
		}
		if d := m.Pos.Dist(e.Pos); d < best {
			prey, best = e, d
		}
	}
	if prey == nil || best > mobAggroDist {
		return
	}
	if best > w.cfg.MobReach {
		w.moveToward(m, prey.Pos, w.cfg.BlocksPerTick*mobSpeed)
		return
	}
	if m.cooldown > 0 {
		return
	}
	m.cooldown = w.cfg.MobCooldown
	w.hurt(prey, w.cfg.MobDamage, m.Type)
}

func (w *World) hurt(e *entity, amount float64, source string) {
	e.Health -= amount
	if w.hooks.Damage != nil {
		w.hooks.Damage(e.Ref, amount, source)
	}
	if e.Health > 0 {
		return
	}
	e.Health = 0
	e.Alive = false
	w.remove(e.Ref)
	if w.hooks.Death != nil {
		w.hooks.Death(e.Ref, source)
	}
}

// Damage hurts an entity from outside the simulation (admin tooling, tests).
func (w *World) Damage(ref agent.EntityRef, amount float64, source string) {
	if e, ok := w.entities[ref]; ok && e.Living && amount > 0 {
		w.hurt(e, amount, source)
	}
}
