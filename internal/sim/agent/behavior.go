package agent

import "nuncle.ai/internal/sim/geom"

type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeGoingTo   Mode = "going_to"
	ModeFollowing Mode = "following"
	ModeWandering Mode = "wandering"
	ModeAttacking Mode = "attacking"
	ModeStaying   Mode = "staying"
)

// Behavior is the single active mode of the agent. Exactly one variant is
// held at a time; assigning a new one replaces the old.
type Behavior interface {
	Mode() Mode
	isBehavior()
}

type Idle struct{}

type GoingTo struct{ Point geom.Vec3 }

type Following struct{ Target EntityRef }

type Wandering struct{ Cooldown int }

type Attacking struct{ Target EntityRef }

type Staying struct{}

func (Idle) Mode() Mode      { return ModeIdle }
func (GoingTo) Mode() Mode   { return ModeGoingTo }
func (Following) Mode() Mode { return ModeFollowing }
func (Wandering) Mode() Mode { return ModeWandering }
func (Attacking) Mode() Mode { return ModeAttacking }
func (Staying) Mode() Mode   { return ModeStaying }

func (Idle) isBehavior()      {}
func (GoingTo) isBehavior()   {}
func (Following) isBehavior() {}
func (Wandering) isBehavior() {}
func (Attacking) isBehavior() {}
func (Staying) isBehavior()   {}
