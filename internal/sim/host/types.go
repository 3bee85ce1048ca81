package host

import (
	"time"

	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/agent"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// Observer sees every tick, quiet ones included, and every command.
type Observer interface {
	ObserveTick(entry TickLogEntry, took time.Duration, alive bool)
	ObserveCommand(cmd RecordedCommand)
}

// TickLogEntry is written for every tick that had input or output. Inputs
// are kept in the order they were applied, so a log can be replayed.
type TickLogEntry struct {
	Tick       uint64           `json:"tick"`
	Inputs     []RecordedInput  `json:"inputs,omitempty"`
	Events     []protocol.Event `json:"events,omitempty"`
	Effects    map[string]int   `json:"effects,omitempty"`
	Broadcasts []agent.Message  `json:"broadcasts,omitempty"`
	Mode       string           `json:"mode"`
	Pos        *[3]int          `json:"pos,omitempty"`
}

func (e TickLogEntry) active() bool {
	return len(e.Inputs)+len(e.Events)+len(e.Effects)+len(e.Broadcasts) > 0
}

// Of returns the inputs of one kind.
func (e TickLogEntry) Of(kind InputKind) []RecordedInput {
	var out []RecordedInput
	for _, in := range e.Inputs {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out
}

type InputKind string

const (
	InputJoin    InputKind = "JOIN"
	InputLeave   InputKind = "LEAVE"
	InputMove    InputKind = "MOVE"
	InputChat    InputKind = "CHAT"
	InputCommand InputKind = "COMMAND"
)

// RecordedInput is one applied directive. Name is the player, or the sender
// for commands; Text is the chat line or command line.
type RecordedInput struct {
	Kind  InputKind   `json:"kind"`
	Name  string      `json:"name"`
	Level int         `json:"level,omitempty"`
	Text  string      `json:"text,omitempty"`
	Pos   *[3]float64 `json:"pos,omitempty"`
	Code  string      `json:"code,omitempty"`
	Reply string      `json:"reply,omitempty"`
	Err   string      `json:"err,omitempty"`
}

// RecordedCommand is what observers see for each command, queries included.
type RecordedCommand struct {
	Tick   uint64 `json:"tick"`
	Sender string `json:"sender"`
	Line   string `json:"line"`
	Query  bool   `json:"query,omitempty"`
	Code   string `json:"code"`
}

// AuditEntry records one command from any sender, queries included.
type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Level  int    `json:"level"`
	Line   string `json:"line"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// Broadcast is a chat line or announcement visible to every player.
type Broadcast struct {
	agent.Message
	Tick uint64 `json:"tick"`
}
