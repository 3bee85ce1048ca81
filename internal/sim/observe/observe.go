// Package observe builds the read-only JSON snapshots of the agent and its
// surroundings.
package observe

import (
	"encoding/json"
	"math"
	"sort"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/boundary"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
)

const (
	EntityScanRadius = 32
	ItemScanRadius   = 8
	BlockScanRadius  = 8

	maxEntities = 15
	maxItems    = 10
	maxBlocks   = 15
)

var hostileMobs = map[string]bool{
	"zombie": true, "skeleton": true, "creeper": true, "spider": true, "cave_spider": true,
	"enderman": true, "witch": true, "slime": true, "phantom": true, "drowned": true,
	"husk": true, "stray": true, "blaze": true, "ghast": true, "magma_cube": true,
	"wither_skeleton": true, "pillager": true, "vindicator": true, "ravager": true,
	"evoker": true, "vex": true, "guardian": true, "elder_guardian": true, "warden": true,
}

var notableBlocks = map[string]bool{
	"diamond_ore": true, "deepslate_diamond_ore": true,
	"iron_ore": true, "deepslate_iron_ore": true,
	"gold_ore": true, "deepslate_gold_ore": true,
	"emerald_ore": true, "deepslate_emerald_ore": true,
	"coal_ore": true, "deepslate_coal_ore": true,
	"copper_ore": true, "deepslate_copper_ore": true,
	"crafting_table": true, "furnace": true, "blast_furnace": true, "smoker": true,
	"anvil": true, "enchanting_table": true, "brewing_stand": true,
	"chest": true, "barrel": true, "ender_chest": true,
}

func IsHostile(entityType string) bool { return hostileMobs[entityType] }

func IsNotable(block string) bool { return notableBlocks[inventory.DisplayName(block)] }

// Env is the world state the reporter reads.
type Env interface {
	DayTime() int
	Raining() bool
	Dimension() string
	Biome(p geom.Vec3) string
	Players() []agent.Entity
	FindEntities(center geom.Vec3, radius float64, match func(agent.Entity) bool) []agent.Entity
	BlockAt(p geom.BlockPos) agent.Block
}

// Source is the agent side of a snapshot; *agent.Controller satisfies it.
type Source interface {
	Self() (agent.Entity, bool)
	Inventory() inventory.Container
	Mode() agent.Mode
	Thinking() bool
	Boundary() *boundary.Boundary
	BoundaryDescription() string
}

type Reporter struct {
	env Env
	src Source
}

func New(env Env, src Source) *Reporter {
	return &Reporter{env: env, src: src}
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func position(v geom.Vec3) Position { return Position{X: int(v.X), Y: int(v.Y), Z: int(v.Z)} }

func round1(f float64) float64 { return math.Round(f*10) / 10 }

// Status is {"alive":false} when no agent is spawned.
type Status struct {
	Alive bool `json:"alive"`
	*AgentStatus
}

type AgentStatus struct {
	Position  Position `json:"position"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
	Dimension string   `json:"dimension"`
	Mode      string   `json:"mode"`
	Thinking  bool     `json:"thinking"`
}

func (r *Reporter) Status() Status {
	self, ok := r.src.Self()
	if !ok {
		return Status{}
	}
	return Status{Alive: true, AgentStatus: &AgentStatus{
		Position:  position(self.Pos),
		Health:    round1(self.Health),
		MaxHealth: round1(self.MaxHealth),
		Dimension: inventory.DisplayName(r.env.Dimension()),
		Mode:      string(r.src.Mode()),
		Thinking:  r.src.Thinking(),
	}}
}

type Item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type SlotItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Slot  int    `json:"slot"`
}

type NearbyPlayer struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

type NearbyEntity struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
	Hostile  bool   `json:"hostile"`
}

type GroundItem struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Distance int    `json:"distance"`
}

type NotableBlock struct {
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Distance int    `json:"distance"`
}

type SelfView struct {
	Position  Position `json:"position"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
	Mode      string   `json:"mode"`
}

type Observation struct {
	Alive bool `json:"alive"`
	*Scene
}

type Scene struct {
	Self           SelfView       `json:"self"`
	Inventory      []Item         `json:"inventory"`
	Time           string         `json:"time"`
	Weather        string         `json:"weather"`
	Biome          string         `json:"biome"`
	NearbyPlayers  []NearbyPlayer `json:"nearbyPlayers"`
	NearbyEntities []NearbyEntity `json:"nearbyEntities"`
	GroundItems    []GroundItem   `json:"groundItems"`
	NotableBlocks  []NotableBlock `json:"notableBlocks"`
	Boundary       string         `json:"boundary,omitempty"`
}

// TimeLabel names the part of the day for a day time in ticks.
func TimeLabel(dayTime int) string {
	t := dayTime % 24000
	if t < 0 {
		t += 24000
	}
	switch {
	case t < 6000:
		return "Morning"
	case t < 12000:
		return "Day"
	case t < 13000:
		return "Sunset"
	case t < 23000:
		return "Night"
	default:
		return "Dawn"
	}
}

func (r *Reporter) Observe() Observation {
	self, ok := r.src.Self()
	if !ok {
		return Observation{}
	}
	pos := self.Pos
	sc := &Scene{
		Self: SelfView{
			Position:  position(pos),
			Health:    round1(self.Health),
			MaxHealth: round1(self.MaxHealth),
			Mode:      string(r.src.Mode()),
		},
		Inventory:      []Item{},
		Time:           TimeLabel(r.env.DayTime()),
		Weather:        "Clear",
		Biome:          r.env.Biome(pos),
		NearbyPlayers:  []NearbyPlayer{},
		NearbyEntities: []NearbyEntity{},
		GroundItems:    []GroundItem{},
		NotableBlocks:  []NotableBlock{},
	}
	if r.env.Raining() {
		sc.Weather = "Raining"
	}
	if sc.Biome == "" {
		sc.Biome = "unknown"
	}
	for _, s := range inventory.List(r.src.Inventory()) {
		sc.Inventory = append(sc.Inventory, Item{Name: inventory.DisplayName(s.Item), Count: s.Count})
	}

	for _, p := range byDistance(pos, r.env.Players()) {
		d := pos.Dist(p.Pos)
		if d > EntityScanRadius {
			break
		}
		sc.NearbyPlayers = append(sc.NearbyPlayers, NearbyPlayer{Name: p.Name, Distance: int(d)})
	}

	living := r.env.FindEntities(pos, EntityScanRadius, func(e agent.Entity) bool {
		return e.Ref != self.Ref && e.Living && e.Alive && e.Kind != agent.KindPlayer && e.Kind != agent.KindItem
	})
	for _, e := range byDistance(pos, living) {
		if len(sc.NearbyEntities) >= maxEntities {
			break
		}
		sc.NearbyEntities = append(sc.NearbyEntities, NearbyEntity{
			Name:     e.Type,
			Distance: int(pos.Dist(e.Pos)),
			Hostile:  IsHostile(e.Type),
		})
	}

	items := r.env.FindEntities(pos, ItemScanRadius, func(e agent.Entity) bool {
		return e.Kind == agent.KindItem && e.Alive && !e.Stack.Empty()
	})
	for _, e := range byDistance(pos, items) {
		if len(sc.GroundItems) >= maxItems {
			break
		}
		sc.GroundItems = append(sc.GroundItems, GroundItem{
			Name:     inventory.DisplayName(e.Stack.Item),
			Count:    e.Stack.Count,
			Distance: int(pos.Dist(e.Pos)),
		})
	}

	sc.NotableBlocks = r.scanBlocks(pos.Block())

	if r.src.Boundary() != nil {
		sc.Boundary = r.src.BoundaryDescription()
	}
	return Observation{Alive: true, Scene: sc}
}

// scanBlocks walks the cube around center in x, y, z order and keeps the
// first notable blocks found.
func (r *Reporter) scanBlocks(center geom.BlockPos) []NotableBlock {
	out := []NotableBlock{}
	for dx := -BlockScanRadius; dx <= BlockScanRadius; dx++ {
		for dy := -BlockScanRadius; dy <= BlockScanRadius; dy++ {
			for dz := -BlockScanRadius; dz <= BlockScanRadius; dz++ {
				bp := center.Offset(dx, dy, dz)
				b := r.env.BlockAt(bp)
				if b.Air || !IsNotable(b.Name) {
					continue
				}
				out = append(out, NotableBlock{
					Name:     inventory.DisplayName(b.Name),
					X:        bp.X,
					Y:        bp.Y,
					Z:        bp.Z,
					Distance: int(math.Sqrt(float64(dx*dx + dy*dy + dz*dz))),
				})
				if len(out) >= maxBlocks {
					return out
				}
			}
		}
	}
	return out
}

func byDistance(from geom.Vec3, es []agent.Entity) []agent.Entity {
	out := append([]agent.Entity(nil), es...)
	sort.SliceStable(out, func(i, j int) bool {
		return from.Dist(out[i].Pos) < from.Dist(out[j].Pos)
	})
	return out
}

type InventoryReport struct {
	Alive bool `json:"alive"`
	*InventoryContents
}

type InventoryContents struct {
	Inventory []SlotItem `json:"inventory"`
	Slots     int        `json:"slots"`
}

func (r *Reporter) Inventory() InventoryReport {
	if _, ok := r.src.Self(); !ok {
		return InventoryReport{}
	}
	inv := r.src.Inventory()
	c := &InventoryContents{Inventory: []SlotItem{}, Slots: inv.Size()}
	for i := 0; i < inv.Size(); i++ {
		s := inv.Slot(i)
		if s.Empty() {
			continue
		}
		c.Inventory = append(c.Inventory, SlotItem{Name: inventory.DisplayName(s.Item), Count: s.Count, Slot: i})
	}
	return InventoryReport{Alive: true, InventoryContents: c}
}

// JSON renders a snapshot as a single line.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"` + err.Error() + `"}`
	}
	return string(b)
}
