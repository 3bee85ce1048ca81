// Package command parses the text command surface ("nuncle <sub> ..." and
// "nunclewhere") and dispatches it to the agent controller.
package command

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/observe"
)

// OperatorLevel is the permission level "nuncle" requires.
const OperatorLevel = 2

const ErrNoPermission agent.Code = "E_NO_PERMISSION"

// DefaultTransferCount is used by take/put when no count is given.
const DefaultTransferCount = 64

type Sender struct {
	Name  string
	Level int
}

// Console is the sender used by local tooling and the brain.
var Console = Sender{Name: "console", Level: 4}

type Reply struct {
	Code   agent.Code
	Text   string
	Events []protocol.Event
}

func (r Reply) OK() bool { return r.Code == agent.OK }

func fromResult(r agent.Result) Reply { return Reply{Code: r.Code, Text: r.Message} }

// Agent is the controller surface commands drive.
type Agent interface {
	Name() string
	Spawn(p geom.Vec3) agent.Result
	SpawnDefault() agent.Result
	Despawn() agent.Result
	Chat(text string) agent.Result
	GoTo(p geom.Vec3) agent.Result
	Follow(name string) agent.Result
	Wander() agent.Result
	Stay() agent.Result
	LookAt(p geom.Vec3) agent.Result
	Attack(entityType string) agent.Result
	Mine(p geom.BlockPos) agent.Result
	Place(p geom.BlockPos, block string) agent.Result
	Pickup(filter string) agent.Result
	Drop(item string) agent.Result
	Take(p geom.BlockPos, filter string, count int) agent.Result
	Put(p geom.BlockPos, item string, count int) agent.Result
	SetBoundary(x, z, radius float64) agent.Result
	ClearBoundary() agent.Result
	BoundaryDescription() string
	SetThinking(on bool) agent.Result
	Where() agent.Result
}

type Reporter interface {
	Status() observe.Status
	Observe() observe.Observation
	Inventory() observe.InventoryReport
}

type subcommand struct {
	usage []string
	query bool
	run   func(d *Dispatcher, s Sender, a args) (Reply, error)
}

var subcommands = map[string]subcommand{
	"spawn":    {usage: []string{"spawn [x y z]"}, run: runSpawn},
	"despawn":  {usage: []string{"despawn"}, run: runDespawn},
	"status":   {usage: []string{"status"}, query: true, run: runStatus},
	"observe":  {usage: []string{"observe [inventory]"}, query: true, run: runObserve},
	"chat":     {usage: []string{"chat <message>"}, run: runChat},
	"goto":     {usage: []string{"goto <x> <y> <z>"}, run: runGoTo},
	"follow":   {usage: []string{"follow <player>"}, run: runFollow},
	"wander":   {usage: []string{"wander"}, run: runWander},
	"stay":     {usage: []string{"stay"}, run: runStay},
	"look":     {usage: []string{"look <x> <y> <z>"}, run: runLook},
	"attack":   {usage: []string{"attack <entityType>"}, run: runAttack},
	"mine":     {usage: []string{"mine <x> <y> <z>"}, run: runMine},
	"place":    {usage: []string{"place <x> <y> <z> <block>"}, run: runPlace},
	"pickup":   {usage: []string{"pickup [itemFilter]"}, run: runPickup},
	"drop":     {usage: []string{"drop <item>"}, run: runDrop},
	"take":     {usage: []string{"take <x> <y> <z> [itemFilter] [count]"}, run: runTake},
	"put":      {usage: []string{"put <x> <y> <z> <item> [count]"}, run: runPut},
	"boundary": {usage: []string{"boundary set <x> <z> <radius>", "boundary clear", "boundary info"}, run: runBoundary},
	"thinking": {usage: []string{"thinking start|stop"}, run: runThinking},
	"brain":    {usage: []string{"brain on|off"}, run: runBrain},
}

// Usage lists every subcommand, one per line.
func Usage() string {
	names := make([]string, 0, len(subcommands))
	for name := range subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Usage:")
	for _, name := range names {
		for _, u := range subcommands[name].usage {
			b.WriteString("\n  nuncle ")
			b.WriteString(u)
		}
	}
	b.WriteString("\n  nunclewhere")
	return b.String()
}

func usageOf(sub subcommand) string {
	lines := make([]string, len(sub.usage))
	for i, u := range sub.usage {
		lines[i] = "nuncle " + u
	}
	return "Usage: " + strings.Join(lines, " | ")
}

type Dispatcher struct {
	agent Agent
	rep   Reporter
	log   *log.Logger
}

func New(a Agent, rep Reporter, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{agent: a, rep: rep, log: logger}
}

// IsQuery reports whether line only reads state. The host answers queries
// between ticks instead of queueing them.
func IsQuery(line string) bool {
	a := parse(line)
	switch a.word(0) {
	case "nunclewhere":
		return true
	case "nuncle":
		if a.word(1) == "boundary" {
			return a.word(2) == "info"
		}
		sub, ok := subcommands[a.word(1)]
		return ok && sub.query
	}
	return false
}

// Execute runs one command line for s. Malformed input gets usage text and
// never reaches the controller.
func (d *Dispatcher) Execute(s Sender, line string) Reply {
	a := parse(line)
	switch a.word(0) {
	case "":
		return Reply{Code: agent.ErrBadRequest, Text: Usage()}
	case "nunclewhere":
		return fromResult(d.agent.Where())
	case "nuncle":
	default:
		return Reply{Code: agent.ErrBadRequest, Text: "Unknown command: " + a.word(0)}
	}
	if s.Level < OperatorLevel {
		return Reply{Code: ErrNoPermission, Text: "You do not have permission to use this command"}
	}
	sub, ok := subcommands[a.word(1)]
	if !ok {
		return Reply{Code: agent.ErrBadRequest, Text: Usage()}
	}
	r, err := sub.run(d, s, a.shift(2))
	if err != nil {
		return Reply{Code: agent.ErrBadRequest, Text: fmt.Sprintf("%v\n%s", err, usageOf(sub))}
	}
	return r
}
