package host

import (
	"fmt"

	"nuncle.ai/internal/command"
	"nuncle.ai/internal/sim/geom"
)

// Directives rebuilds the directives recorded in e, in applied order.
func Directives(e TickLogEntry) []Directive {
	out := make([]Directive, 0, len(e.Inputs))
	for _, in := range e.Inputs {
		var pos *geom.Vec3
		if in.Pos != nil {
			pos = &geom.Vec3{X: in.Pos[0], Y: in.Pos[1], Z: in.Pos[2]}
		}
		switch in.Kind {
		case InputJoin:
			out = append(out, JoinDirective(in.Name, pos))
		case InputLeave:
			out = append(out, LeaveDirective(in.Name))
		case InputMove:
			if pos != nil {
				out = append(out, MoveDirective(in.Name, *pos))
			}
		case InputChat:
			out = append(out, ChatDirective(in.Name, in.Text))
		case InputCommand:
			out = append(out, CommandDirective(command.Sender{Name: in.Name, Level: in.Level}, in.Text))
		}
	}
	return out
}

// ReplayEntry steps quiet ticks up to e.Tick, applies its inputs and checks
// that the outcome matches what was recorded.
func (h *Host) ReplayEntry(e TickLogEntry) error {
	if e.Tick <= h.world.Tick() {
		return fmt.Errorf("tick %d already past (at %d)", e.Tick, h.world.Tick())
	}
	for h.world.Tick()+1 < e.Tick {
		h.StepOnce()
	}
	got := h.StepOnce(Directives(e)...)
	want := e.Of(InputCommand)
	gotCmds := got.Of(InputCommand)
	if len(gotCmds) != len(want) {
		return fmt.Errorf("tick %d: %d commands replayed, %d recorded", e.Tick, len(gotCmds), len(want))
	}
	for i := range want {
		if gotCmds[i].Code != want[i].Code {
			return fmt.Errorf("tick %d: %q returned %s, recorded %s", e.Tick, want[i].Text, gotCmds[i].Code, want[i].Code)
		}
	}
	if got.Mode != e.Mode {
		return fmt.Errorf("tick %d: mode %s, recorded %s", e.Tick, got.Mode, e.Mode)
	}
	if (got.Pos == nil) != (e.Pos == nil) || (got.Pos != nil && *got.Pos != *e.Pos) {
		return fmt.Errorf("tick %d: pos %v, recorded %v", e.Tick, got.Pos, e.Pos)
	}
	return nil
}
