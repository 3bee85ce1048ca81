package agent

import (
	"fmt"
	"math"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/boundary"
	"nuncle.ai/internal/sim/geom"
)

type EffectKind string

const (
	EffectTeleport       EffectKind = "TELEPORT"
	EffectStop           EffectKind = "STOP"
	EffectNavigate       EffectKind = "NAVIGATE"
	EffectNavigateEntity EffectKind = "NAVIGATE_ENTITY"
	EffectLook           EffectKind = "LOOK"
	EffectStrike         EffectKind = "STRIKE"
	EffectBroadcast      EffectKind = "BROADCAST"
	EffectParticles      EffectKind = "PARTICLES"
)

// Effect is one world side effect decided by Step.
type Effect struct {
	Kind     EffectKind
	Point    geom.Vec3
	Target   EntityRef
	Speed    float64
	Message  Message
	Particle string
	Count    int
}

// Executor applies effects to a World in order.
type Executor struct {
	World World
}

func (x Executor) Apply(agent EntityRef, effs []Effect) {
	if agent == "" {
		return
	}
	for _, e := range effs {
		switch e.Kind {
		case EffectTeleport:
			x.World.Teleport(agent, e.Point)
		case EffectStop:
			x.World.StopNavigation(agent)
		case EffectNavigate:
			x.World.NavigateTo(agent, e.Point, e.Speed)
		case EffectNavigateEntity:
			x.World.NavigateToEntity(agent, e.Target, e.Speed)
		case EffectLook:
			x.World.LookAt(agent, e.Point)
		case EffectStrike:
			x.World.Strike(agent, e.Target)
		case EffectBroadcast:
			x.World.Broadcast(e.Message)
		case EffectParticles:
			x.World.SpawnEffect(e.Point, e.Particle, e.Count)
		}
	}
}

const (
	thinkingParticle = "happy_villager"
	bodyHeight       = 1.95
)

// Tick runs one simulation step and returns the effects it applied.
func (c *Controller) Tick() []Effect {
	effs := c.Step()
	c.exec.Apply(c.ref, effs)
	return effs
}

// Step decides this tick's effects without touching the world. Controller
// state (mode, timers) is updated as the decisions are made.
func (c *Controller) Step() []Effect {
	c.now++
	self, ok := c.self()
	if !ok {
		if c.ref != "" {
			c.logf("LOST body %s", c.ref)
			c.reset()
		}
		return nil
	}
	pos := self.Pos
	var effs []Effect

	if c.bound != nil && !boundary.Inside(c.bound, pos) {
		to := boundary.Clamp(c.bound, pos)
		effs = append(effs,
			Effect{Kind: EffectTeleport, Point: to},
			Effect{Kind: EffectStop},
		)
		c.behavior = Idle{}
		c.logf("BOUNDARY_ENFORCED teleported back to (%d,%d)", int(to.X), int(to.Z))
		c.emit(protocol.Event{"type": "BOUNDARY_ENFORCED", "from": ipos(pos), "to": ipos(to)})
		pos = to
	}

	c.announceTick++
	if c.announceTick >= c.t.AnnounceIntervalTicks {
		c.announceTick = 0
		effs = append(effs, Effect{Kind: EffectBroadcast, Message: Message{
			Kind: MessageAnnounce,
			From: c.Name(),
			Text: fmt.Sprintf("%s is at %s (%s)", c.Name(), pos, biomeLabel(c.w.Biome(pos))),
		}})
	}

	if c.thinking {
		c.thinkTick++
		if c.thinkTick%c.t.ThinkingEveryTicks == 0 {
			effs = append(effs, Effect{
				Kind:     EffectParticles,
				Point:    pos.Add(geom.Vec3{Y: bodyHeight + 0.5}),
				Particle: thinkingParticle,
				Count:    c.t.ThinkingParticles,
			})
		}
	}

	switch b := c.behavior.(type) {
	case Following:
		effs = c.chase(effs, pos, b.Target, c.t.FollowRange, c.t.FollowSpeed, false)
	case Attacking:
		effs = c.chase(effs, pos, b.Target, c.t.AttackRange, c.t.AttackSpeed, true)
	case Wandering:
		if c.w.NavigationDone(c.ref) {
			b.Cooldown--
			if b.Cooldown <= 0 {
				effs = append(effs, c.wanderStep(pos))
				b.Cooldown = c.wanderCooldown()
			}
			c.behavior = b
		}
	}
	return effs
}

// chase resolves a follow or attack target. A target that is gone or has
// left the boundary drops the agent back to Idle.
func (c *Controller) chase(effs []Effect, pos geom.Vec3, target EntityRef, near, speed float64, strike bool) []Effect {
	e, ok := c.w.Resolve(target)
	reason := ""
	switch {
	case !ok || !e.Alive:
		reason = "gone"
	case !boundary.Inside(c.bound, e.Pos):
		reason = "left_boundary"
	}
	if reason != "" {
		c.emit(protocol.Event{"type": "TARGET_LOST", "mode": string(c.behavior.Mode()), "target": string(target), "reason": reason})
		c.behavior = Idle{}
		return append(effs, Effect{Kind: EffectStop})
	}
	if pos.Dist(e.Pos) > near {
		return append(effs, Effect{Kind: EffectNavigateEntity, Target: target, Speed: speed})
	}
	effs = append(effs, Effect{Kind: EffectLook, Point: e.Pos})
	if strike {
		effs = append(effs, Effect{Kind: EffectStrike, Target: target})
	}
	return effs
}

// wanderStep picks a random destination: inside the boundary when one is
// set (random angle, random radius up to the boundary radius), otherwise a
// ring around the agent.
func (c *Controller) wanderStep(pos geom.Vec3) Effect {
	angle := c.rng.Float64() * 2 * math.Pi
	var x, z float64
	if c.bound != nil {
		d := c.rng.Float64() * c.bound.Radius
		x = c.bound.CenterX + math.Cos(angle)*d
		z = c.bound.CenterZ + math.Sin(angle)*d
	} else {
		d := c.t.Wander.MinDistance + c.rng.Float64()*c.t.Wander.ExtraDistance
		x = pos.X + math.Cos(angle)*d
		z = pos.Z + math.Sin(angle)*d
	}
	p := boundary.Clamp(c.bound, geom.Vec3{X: x, Y: c.w.GroundHeight(x, z), Z: z})
	return Effect{Kind: EffectNavigate, Point: p, Speed: c.t.MoveSpeed}
}

func (c *Controller) wanderCooldown() int {
	n := c.t.Wander.CooldownBase
	if c.t.Wander.CooldownJitter > 0 {
		n += c.rng.Intn(c.t.Wander.CooldownJitter)
	}
	return n
}
