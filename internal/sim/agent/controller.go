// Package agent is the per-tick controller of the single autonomous agent:
// it owns the agent's behavior mode, boundary and inventory, and turns them
// into actions against a World.
package agent

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/boundary"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
	"nuncle.ai/internal/sim/tuning"
)

// Controller is not safe for concurrent use. The host calls every method
// from its loop goroutine.
type Controller struct {
	w    World
	exec Executor
	t    tuning.Tuning
	log  *log.Logger
	rng  *rand.Rand

	ref      EntityRef
	behavior Behavior
	bound    *boundary.Boundary
	inv      *inventory.Slots

	thinking     bool
	thinkTick    int
	announceTick int

	now    uint64
	events []protocol.Event
}

func New(w World, t tuning.Tuning, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		w:        w,
		exec:     Executor{World: w},
		t:        t,
		log:      logger,
		rng:      rand.New(rand.NewSource(t.Seed)),
		behavior: Idle{},
		inv:      newInventory(t),
	}
}

func newInventory(t tuning.Tuning) *inventory.Slots {
	return inventory.NewSlots(t.InventorySize, t.SlotLimit, t.SlotLimits)
}

func (c *Controller) Name() string { return c.t.AgentName }

// self resolves the agent body. It reports false when nothing is spawned or
// the body is gone.
func (c *Controller) self() (Entity, bool) {
	if c.ref == "" {
		return Entity{}, false
	}
	e, ok := c.w.Resolve(c.ref)
	if !ok || !e.Alive {
		return Entity{}, false
	}
	return e, true
}

func (c *Controller) notSpawned() Result {
	return refuse(ErrNotSpawned, c.Name()+" is not spawned")
}

// reset discards every piece of per-body state. The boundary survives.
func (c *Controller) reset() {
	c.ref = ""
	c.behavior = Idle{}
	c.thinking = false
	c.thinkTick = 0
	c.announceTick = 0
}

// switchTo installs b as the active mode and cancels the navigation the
// previous mode had in flight.
func (c *Controller) switchTo(b Behavior) {
	c.w.StopNavigation(c.ref)
	c.behavior = b
}

func (c *Controller) IsAlive() bool {
	_, ok := c.self()
	return ok
}

func (c *Controller) AgentRef() EntityRef {
	if !c.IsAlive() {
		return ""
	}
	return c.ref
}

// Self is the current agent entity, with health as reported by the world.
func (c *Controller) Self() (Entity, bool) { return c.self() }

func (c *Controller) Position() (geom.Vec3, bool) {
	e, ok := c.self()
	return e.Pos, ok
}

func (c *Controller) Behavior() Behavior { return c.behavior }

func (c *Controller) Mode() Mode { return c.behavior.Mode() }

func (c *Controller) Thinking() bool { return c.thinking }

func (c *Controller) Inventory() inventory.Container { return c.inv }

// Boundary returns a copy of the active boundary, or nil.
func (c *Controller) Boundary() *boundary.Boundary {
	if c.bound == nil {
		return nil
	}
	b := *c.bound
	return &b
}

func (c *Controller) BoundaryDescription() string {
	if e, ok := c.self(); ok {
		return boundary.Describe(c.bound, &e.Pos)
	}
	return boundary.Describe(c.bound, nil)
}

// Now is the number of ticks the controller has stepped.
func (c *Controller) Now() uint64 { return c.now }

func (c *Controller) emit(e protocol.Event) {
	e["t"] = c.now
	c.events = append(c.events, e)
}

func (c *Controller) TakeEvents() []protocol.Event {
	ev := c.events
	c.events = nil
	return ev
}

func (c *Controller) logf(format string, args ...any) {
	c.log.Printf("[nuncle] "+format, args...)
}

func (c *Controller) announce(text string) {
	c.w.Broadcast(Message{Kind: MessageAnnounce, From: c.Name(), Text: text})
}

func ipos(v geom.Vec3) [3]int { return [3]int{int(v.X), int(v.Y), int(v.Z)} }

// Spawn places a fresh body at p with an empty inventory.
func (c *Controller) Spawn(p geom.Vec3) Result {
	if e, ok := c.self(); ok {
		return refuse(ErrAlreadySpawned, fmt.Sprintf("%s is already spawned at %s", c.Name(), e.Pos))
	}
	ref, err := c.w.SpawnAgent(c.Name(), p)
	if err != nil {
		return refuse(ErrFailed, fmt.Sprintf("Failed to spawn %s: %v", c.Name(), err))
	}
	c.reset()
	c.ref = ref
	c.inv = newInventory(c.t)

	c.logf("SPAWNED %s", p)
	c.emit(protocol.Event{"type": "SPAWNED", "pos": ipos(p)})
	c.announce(fmt.Sprintf("%s has arrived at %s", c.Name(), p))
	return success(fmt.Sprintf("%s spawned at %s", c.Name(), p))
}

func (c *Controller) SpawnDefault() Result {
	return c.Spawn(c.w.SpawnPoint())
}

func (c *Controller) Despawn() Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	c.w.RemoveAgent(c.ref)
	c.reset()
	c.logf("DESPAWNED")
	c.emit(protocol.Event{"type": "DESPAWNED"})
	return success(c.Name() + " despawned")
}

// Chat broadcasts a line from the agent to every player.
func (c *Controller) Chat(text string) Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return refuse(ErrBadRequest, "Nothing to say")
	}
	c.w.Broadcast(Message{Kind: MessageChat, From: c.Name(), Text: text})
	c.logf("SAID %s", text)
	c.emit(protocol.Event{"type": "SAID", "text": text})
	return success("Said: " + text)
}

func (c *Controller) SetBoundary(x, z, radius float64) Result {
	b, err := boundary.New(x, z, radius, c.t.BoundaryMinRadius)
	if err != nil {
		return refuse(ErrBadRequest, fmt.Sprintf("Invalid boundary: %v", err))
	}
	c.bound = b
	c.logf("BOUNDARY_SET center=(%d,%d) radius=%d", int(x), int(z), int(radius))
	c.emit(protocol.Event{"type": "BOUNDARY_SET", "center": [2]int{int(x), int(z)}, "radius": radius})
	return success(fmt.Sprintf("Boundary set: center (%d, %d) radius %d", int(x), int(z), int(radius)))
}

func (c *Controller) ClearBoundary() Result {
	c.bound = nil
	c.logf("BOUNDARY_CLEARED")
	c.emit(protocol.Event{"type": "BOUNDARY_CLEARED"})
	return success("Boundary cleared")
}

// SetThinking toggles the thinking indicator: a name tag suffix and
// periodic particles above the agent.
func (c *Controller) SetThinking(on bool) Result {
	if !c.IsAlive() {
		return c.notSpawned()
	}
	c.thinking = on
	if on {
		c.thinkTick = 0
		c.w.SetNameTag(c.ref, c.Name()+" ...")
		return success("Thinking started")
	}
	c.w.SetNameTag(c.ref, c.Name())
	return success("Thinking stopped")
}
