package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every gameplay constant of the agent controller and the
// simulated world it runs in. Zero-valued keys in a YAML file keep their
// Defaults() value.
type Tuning struct {
	AgentName  string `yaml:"agent_name"`
	TickRateHz int    `yaml:"tick_rate_hz"`
	Seed       int64  `yaml:"seed"`

	AnnounceIntervalTicks int `yaml:"announce_interval_ticks"`
	ThinkingEveryTicks    int `yaml:"thinking_every_ticks"`
	ThinkingParticles     int `yaml:"thinking_particles"`

	FollowRange        float64 `yaml:"follow_range"`
	FollowSpeed        float64 `yaml:"follow_speed"`
	AttackRange        float64 `yaml:"attack_range"`
	AttackSpeed        float64 `yaml:"attack_speed"`
	AttackSearchRadius float64 `yaml:"attack_search_radius"`
	MoveSpeed          float64 `yaml:"move_speed"`
	InteractRange      float64 `yaml:"interact_range"`
	PickupRadius       float64 `yaml:"pickup_radius"`
	HearingRadius      float64 `yaml:"hearing_radius"`

	Wander Wander `yaml:"wander"`

	BoundaryMinRadius float64 `yaml:"boundary_min_radius"`

	InventorySize int            `yaml:"inventory_size"`
	SlotLimit     int            `yaml:"slot_limit"`
	SlotLimits    map[string]int `yaml:"slot_limits"`

	World World `yaml:"world"`
}

type Wander struct {
	CooldownBase   int     `yaml:"cooldown_base"`
	CooldownJitter int     `yaml:"cooldown_jitter"`
	MinDistance    float64 `yaml:"min_distance"`
	ExtraDistance  float64 `yaml:"extra_distance"`
}

// World is the fixture and physics of the in-process simulated world.
type World struct {
	GroundY        int     `yaml:"ground_y"`
	Border         float64 `yaml:"border"`
	SpawnX         float64 `yaml:"spawn_x"`
	SpawnZ         float64 `yaml:"spawn_z"`
	DayTicks       int     `yaml:"day_ticks"`
	StartTime      int     `yaml:"start_time"`
	Dimension      string  `yaml:"dimension"`
	BlocksPerTick  float64 `yaml:"blocks_per_tick"`
	AgentMaxHealth float64 `yaml:"agent_max_health"`
	StrikeDamage   float64 `yaml:"strike_damage"`
	MobDamage      float64 `yaml:"mob_damage"`
	MobReach       float64 `yaml:"mob_reach"`
	MobCooldown    int     `yaml:"mob_cooldown_ticks"`
	RainEveryTicks int     `yaml:"rain_every_ticks"`
	RainTicks      int     `yaml:"rain_ticks"`
	BiomeCell      int     `yaml:"biome_cell"`
	ChestSlots     int     `yaml:"chest_slots"`

	Chests []ChestFixture `yaml:"chests"`
	Mobs   []MobFixture   `yaml:"mobs"`
	Items  []ItemFixture  `yaml:"items"`
	Blocks []BlockFixture `yaml:"blocks"`
}

type ChestFixture struct {
	Pos   [3]int       `yaml:"pos"`
	Items []ItemAmount `yaml:"items"`
}

type ItemAmount struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

type MobFixture struct {
	Kind   string     `yaml:"kind"`
	Pos    [3]float64 `yaml:"pos"`
	Health float64    `yaml:"health"`
}

type ItemFixture struct {
	Pos   [3]float64 `yaml:"pos"`
	Item  string     `yaml:"item"`
	Count int        `yaml:"count"`
}

type BlockFixture struct {
	Pos   [3]int `yaml:"pos"`
	Block string `yaml:"block"`
}

func Defaults() Tuning {
	return Tuning{
		AgentName:  "NuncleNelson",
		TickRateHz: 20,
		Seed:       1337,

		AnnounceIntervalTicks: 12000,
		ThinkingEveryTicks:    10,
		ThinkingParticles:     5,

		FollowRange:        3.0,
		FollowSpeed:        1.0,
		AttackRange:        2.5,
		AttackSpeed:        1.2,
		AttackSearchRadius: 16,
		MoveSpeed:          1.0,
		InteractRange:      6.0,
		PickupRadius:       6.0,
		HearingRadius:      32,

		Wander: Wander{
			CooldownBase:   100,
			CooldownJitter: 200,
			MinDistance:    20,
			ExtraDistance:  30,
		},

		BoundaryMinRadius: 1,

		InventorySize: 36,
		SlotLimit:     64,
		SlotLimits: map[string]int{
			"ender_pearl": 16,
			"snowball":    16,
			"egg":         16,
		},

		World: World{
			GroundY:        64,
			Border:         1000,
			DayTicks:       24000,
			StartTime:      1000,
			Dimension:      "minecraft:overworld",
			BlocksPerTick:  0.25,
			AgentMaxHealth: 20,
			StrikeDamage:   4,
			MobDamage:      2,
			MobReach:       1.5,
			MobCooldown:    20,
			RainEveryTicks: 36000,
			RainTicks:      6000,
			BiomeCell:      64,
			ChestSlots:     27,
		},
	}
}

// Load reads a YAML tuning file on top of Defaults().
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.InventorySize <= 0:
		return fmt.Errorf("inventory_size must be > 0")
	case t.SlotLimit <= 0:
		return fmt.Errorf("slot_limit must be > 0")
	case t.BoundaryMinRadius <= 0:
		return fmt.Errorf("boundary_min_radius must be > 0")
	case t.AnnounceIntervalTicks <= 0 || t.ThinkingEveryTicks <= 0:
		return fmt.Errorf("timer intervals must be > 0")
	case t.Wander.CooldownBase < 0 || t.Wander.CooldownJitter < 0:
		return fmt.Errorf("wander cooldowns must be >= 0")
	case t.World.DayTicks <= 0:
		return fmt.Errorf("world.day_ticks must be > 0")
	case t.World.ChestSlots <= 0:
		return fmt.Errorf("world.chest_slots must be > 0")
	}
	return nil
}
