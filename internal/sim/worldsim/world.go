// Package worldsim is a small deterministic world for the agent controller:
// flat terrain, players driven by the transport, a few mobs and chests, and
// straight-line navigation.
package worldsim

import (
	"math"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
	"nuncle.ai/internal/sim/tuning"
)

// Hooks receive world callbacks. Any of them may be nil. They run on the
// goroutine that calls Step or the mutating method.
type Hooks struct {
	Damage    func(ref agent.EntityRef, amount float64, source string)
	Death     func(ref agent.EntityRef, cause string)
	Broadcast func(m agent.Message)
	Particles func(p geom.Vec3, kind string, count int)
}

type entity struct {
	agent.Entity
	seq      uint64
	tag      string
	look     geom.Vec3
	cooldown int
}

type navState struct {
	point  geom.Vec3
	target agent.EntityRef
	speed  float64
}

// World is not safe for concurrent use.
type World struct {
	cfg   tuning.World
	seed  int64
	tick  uint64
	hooks Hooks

	seq      uint64
	entities map[agent.EntityRef]*entity
	players  map[string]agent.EntityRef
	blocks   map[geom.BlockPos]string
	chests   map[geom.BlockPos]*inventory.Slots
	nav      map[agent.EntityRef]*navState
}

func New(cfg tuning.World, seed int64) *World {
	w := &World{
		cfg:      cfg,
		seed:     seed,
		entities: map[agent.EntityRef]*entity{},
		players:  map[string]agent.EntityRef{},
		blocks:   map[geom.BlockPos]string{},
		chests:   map[geom.BlockPos]*inventory.Slots{},
		nav:      map[agent.EntityRef]*navState{},
	}
	w.loadFixture()
	return w
}

func (w *World) loadFixture() {
	for _, b := range w.cfg.Blocks {
		w.blocks[geom.BlockPos{X: b.Pos[0], Y: b.Pos[1], Z: b.Pos[2]}] = b.Block
	}
	for _, c := range w.cfg.Chests {
		p := geom.BlockPos{X: c.Pos[0], Y: c.Pos[1], Z: c.Pos[2]}
		box := w.PlaceChest(p)
		for _, it := range c.Items {
			inventory.Insert(box, it.Item, it.Count)
		}
	}
	for _, m := range w.cfg.Mobs {
		w.SpawnMob(m.Kind, geom.Vec3{X: m.Pos[0], Y: m.Pos[1], Z: m.Pos[2]}, m.Health)
	}
	for _, it := range w.cfg.Items {
		w.DropItem(geom.Vec3{X: it.Pos[0], Y: it.Pos[1], Z: it.Pos[2]}, inventory.Stack{Item: it.Item, Count: it.Count})
	}
}

func (w *World) SetHooks(h Hooks) { w.hooks = h }

func (w *World) Tick() uint64 { return w.tick }

func (w *World) DayTime() int { return w.cfg.StartTime + int(w.tick%uint64(max(w.cfg.DayTicks, 1))) }

func (w *World) Raining() bool {
	every := uint64(w.cfg.RainEveryTicks)
	if every == 0 || w.cfg.RainTicks <= 0 {
		return false
	}
	return w.tick%every >= every-uint64(min(w.cfg.RainTicks, w.cfg.RainEveryTicks))
}

func (w *World) Dimension() string { return w.cfg.Dimension }

func (w *World) Biome(p geom.Vec3) string {
	b := p.Block()
	return biomeAt(w.seed, b.X, b.Z, w.cfg.BiomeCell)
}

func (w *World) SpawnPoint() geom.Vec3 {
	x, z := math.Floor(w.cfg.SpawnX)+0.5, math.Floor(w.cfg.SpawnZ)+0.5
	return geom.Vec3{X: x, Y: w.GroundHeight(x, z), Z: z}
}

func (w *World) Broadcast(m agent.Message) {
	if w.hooks.Broadcast != nil {
		w.hooks.Broadcast(m)
	}
}

func (w *World) SpawnEffect(p geom.Vec3, kind string, count int) {
	if w.hooks.Particles != nil {
		w.hooks.Particles(p, kind, count)
	}
}

// Step advances the world by one tick: navigation, mob movement and mob
// attacks on the agent.
func (w *World) Step() {
	w.tick++
	for _, e := range w.sorted() {
		if !e.Alive {
			continue
		}
		switch e.Kind {
		case agent.KindAgent:
			w.stepNav(e)
		case agent.KindMob:
			w.stepMob(e)
		}
	}
}

func (w *World) insideBorder(p geom.Vec3) bool {
	if w.cfg.Border <= 0 {
		return true
	}
	return math.Abs(p.X) <= w.cfg.Border && math.Abs(p.Z) <= w.cfg.Border
}
