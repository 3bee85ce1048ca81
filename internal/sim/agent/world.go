package agent

import (
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
)

// EntityRef is an opaque handle to a world entity. It may stop resolving at
// any time; callers look it up through World.Resolve on every use.
type EntityRef string

type EntityKind string

const (
	KindAgent  EntityKind = "agent"
	KindPlayer EntityKind = "player"
	KindMob    EntityKind = "mob"
	KindItem   EntityKind = "item"
)

// Entity is a point-in-time view of a world entity.
type Entity struct {
	Ref       EntityRef
	Kind      EntityKind
	Type      string // entity type path ("zombie", "player", "item")
	Name      string
	Pos       geom.Vec3
	Alive     bool
	Living    bool
	Health    float64
	MaxHealth float64
	Stack     inventory.Stack // set for KindItem
}

// Block is the state of one block cell.
type Block struct {
	Name        string
	Air         bool
	Replaceable bool
}

type MessageKind string

const (
	MessageChat     MessageKind = "CHAT"
	MessageAnnounce MessageKind = "ANNOUNCE"
	MessageJoin     MessageKind = "JOIN"
	MessageLeave    MessageKind = "LEAVE"
)

// Message is a line shown to every player.
type Message struct {
	Kind MessageKind `json:"kind"`
	From string      `json:"from"`
	Text string      `json:"text"`
}

// World is the capability surface the controller drives. Navigation is
// opaque: the world decides how the agent gets to a point.
type World interface {
	SpawnAgent(name string, at geom.Vec3) (EntityRef, error)
	RemoveAgent(ref EntityRef)
	Resolve(ref EntityRef) (Entity, bool)
	FindEntities(center geom.Vec3, radius float64, match func(Entity) bool) []Entity
	PlayerByName(name string) (Entity, bool)
	SpawnPoint() geom.Vec3
	Biome(p geom.Vec3) string

	NavigateTo(agent EntityRef, p geom.Vec3, speed float64) bool
	NavigateToEntity(agent, target EntityRef, speed float64) bool
	NavigationDone(agent EntityRef) bool
	StopNavigation(agent EntityRef)
	LookAt(agent EntityRef, p geom.Vec3)
	Strike(agent, target EntityRef)
	Teleport(agent EntityRef, p geom.Vec3)

	BlockAt(p geom.BlockPos) Block
	BreakBlock(agent EntityRef, p geom.BlockPos) bool
	SetBlock(p geom.BlockPos, name string)
	IsBlockItem(item string) bool
	GroundHeight(x, z float64) float64
	ContainerAt(p geom.BlockPos) (inventory.Container, bool)

	// ShrinkGroundItem removes n units from a ground item entity,
	// discarding it when it empties.
	ShrinkGroundItem(ref EntityRef, n int)
	DropItem(at geom.Vec3, s inventory.Stack)

	Broadcast(m Message)
	SpawnEffect(p geom.Vec3, kind string, count int)
	SetNameTag(agent EntityRef, tag string)
}
