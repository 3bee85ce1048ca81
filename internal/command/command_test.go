package command

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/observe"
	"nuncle.ai/internal/sim/tuning"
	"nuncle.ai/internal/sim/worldsim"
)

type fakeAgent struct {
	calls []string
}

func (f *fakeAgent) rec(format string, args ...any) agent.Result {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return agent.Result{Code: agent.OK, Message: "ok"}
}

func (f *fakeAgent) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeAgent) Name() string                      { return "NuncleNelson" }
func (f *fakeAgent) Spawn(p geom.Vec3) agent.Result    { return f.rec("spawn %v", p) }
func (f *fakeAgent) SpawnDefault() agent.Result        { return f.rec("spawn") }
func (f *fakeAgent) Despawn() agent.Result             { return f.rec("despawn") }
func (f *fakeAgent) Chat(text string) agent.Result     { return f.rec("chat %q", text) }
func (f *fakeAgent) GoTo(p geom.Vec3) agent.Result     { return f.rec("goto %v", p) }
func (f *fakeAgent) Follow(name string) agent.Result   { return f.rec("follow %s", name) }
func (f *fakeAgent) Wander() agent.Result              { return f.rec("wander") }
func (f *fakeAgent) Stay() agent.Result                { return f.rec("stay") }
func (f *fakeAgent) LookAt(p geom.Vec3) agent.Result   { return f.rec("look %v", p) }
func (f *fakeAgent) Attack(typ string) agent.Result    { return f.rec("attack %s", typ) }
func (f *fakeAgent) Mine(p geom.BlockPos) agent.Result { return f.rec("mine %v", p) }
func (f *fakeAgent) Pickup(filter string) agent.Result { return f.rec("pickup %q", filter) }
func (f *fakeAgent) Drop(item string) agent.Result     { return f.rec("drop %q", item) }
func (f *fakeAgent) ClearBoundary() agent.Result       { return f.rec("boundary clear") }
func (f *fakeAgent) BoundaryDescription() string       { return "No boundary set" }
func (f *fakeAgent) SetThinking(on bool) agent.Result  { return f.rec("thinking %v", on) }
func (f *fakeAgent) Where() agent.Result               { return f.rec("where") }
func (f *fakeAgent) Place(p geom.BlockPos, b string) agent.Result {
	return f.rec("place %v %s", p, b)
}
func (f *fakeAgent) Take(p geom.BlockPos, filter string, n int) agent.Result {
	return f.rec("take %v %q %d", p, filter, n)
}
func (f *fakeAgent) Put(p geom.BlockPos, item string, n int) agent.Result {
	return f.rec("put %v %q %d", p, item, n)
}
func (f *fakeAgent) SetBoundary(x, z, r float64) agent.Result {
	return f.rec("boundary set %g %g %g", x, z, r)
}

type fakeReporter struct{}

func (fakeReporter) Status() observe.Status             { return observe.Status{} }
func (fakeReporter) Observe() observe.Observation       { return observe.Observation{} }
func (fakeReporter) Inventory() observe.InventoryReport { return observe.InventoryReport{} }

func newFake() (*Dispatcher, *fakeAgent) {
	f := &fakeAgent{}
	return New(f, fakeReporter{}, log.New(io.Discard, "", 0)), f
}

var op = Sender{Name: "alice", Level: OperatorLevel}

func TestDispatchParsesArguments(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"nuncle spawn", "spawn"},
		{"/nuncle spawn 1 64 -2.5", "spawn 1 64 -2"},
		{"nuncle goto 10 64 10", "goto 10 64 10"},
		{"nuncle follow bob", "follow bob"},
		{"nuncle attack minecraft:zombie", "attack minecraft:zombie"},
		{"nuncle mine 3 63 -4", "mine 3 63 -4"},
		{"nuncle place 3 64 -4 oak_planks", "place 3 64 -4 oak_planks"},
		{"nuncle pickup", `pickup ""`},
		{"nuncle pickup oak log", `pickup "oak log"`},
		{"nuncle drop  cobblestone ", `drop "cobblestone"`},
		{"nuncle take 1 64 1", `take 1 64 1 "" 64`},
		{"nuncle take 1 64 1 coal", `take 1 64 1 "coal" 64`},
		{"nuncle take 1 64 1 coal 40", `take 1 64 1 "coal" 40`},
		{"nuncle put 1 64 1 oak_log", `put 1 64 1 "oak_log" 64`},
		{"nuncle put 1 64 1 oak_log 5", `put 1 64 1 "oak_log" 5`},
		{"nuncle boundary set 0 0 25", "boundary set 0 0 25"},
		{"nuncle boundary clear", "boundary clear"},
		{"nuncle thinking start", "thinking true"},
		{"nuncle thinking stop", "thinking false"},
		{"nuncle chat hello   there", `chat "hello   there"`},
		{"nuncle wander", "wander"},
		{"nuncle stay", "stay"},
		{"nunclewhere", "where"},
	}
	for _, tc := range cases {
		d, f := newFake()
		r := d.Execute(op, tc.line)
		if !r.OK() {
			t.Fatalf("%q: reply=%+v", tc.line, r)
		}
		if f.last() != tc.want {
			t.Fatalf("%q: call=%q want %q", tc.line, f.last(), tc.want)
		}
	}
}

func TestDispatchRejectsMalformed(t *testing.T) {
	bad := []string{
		"nuncle goto 1 2",
		"nuncle goto 1 two 3",
		"nuncle goto 1 NaN 3",
		"nuncle mine 1.5 2 3",
		"nuncle take 1 2 3 coal 0",
		"nuncle put 1 2 3",
		"nuncle spawn 1 2",
		"nuncle boundary",
		"nuncle boundary set 1 2",
		"nuncle thinking maybe",
		"nuncle chat",
		"nuncle drop",
		"nuncle observe everything",
		"nuncle craft stick",
		"nuncle",
		"",
	}
	for _, line := range bad {
		d, f := newFake()
		r := d.Execute(op, line)
		if r.Code != agent.ErrBadRequest {
			t.Fatalf("%q: code=%s", line, r.Code)
		}
		if !strings.Contains(r.Text, "Usage") {
			t.Fatalf("%q: no usage in %q", line, r.Text)
		}
		if len(f.calls) != 0 {
			t.Fatalf("%q reached the controller: %v", line, f.calls)
		}
	}
}

func TestPermission(t *testing.T) {
	d, f := newFake()
	guest := Sender{Name: "guest", Level: 0}
	if r := d.Execute(guest, "nuncle stay"); r.Code != ErrNoPermission {
		t.Fatalf("guest nuncle: %+v", r)
	}
	if len(f.calls) != 0 {
		t.Fatalf("calls=%v", f.calls)
	}
	if r := d.Execute(guest, "nunclewhere"); !r.OK() || f.last() != "where" {
		t.Fatalf("guest nunclewhere: %+v calls=%v", r, f.calls)
	}
	if r := d.Execute(guest, "tp @s 0 0 0"); r.Code != agent.ErrBadRequest {
		t.Fatalf("unknown root: %+v", r)
	}
}

func TestBrainToggleEmitsEvent(t *testing.T) {
	d, f := newFake()
	r := d.Execute(op, "nuncle brain on")
	if !r.OK() || r.Text != "Brain toggle: ON - NuncleNelson will spawn and start thinking" {
		t.Fatalf("reply=%+v", r)
	}
	if len(r.Events) != 1 || r.Events[0]["type"] != "BRAIN" || r.Events[0]["on"] != true {
		t.Fatalf("events=%v", r.Events)
	}
	if len(f.calls) != 0 {
		t.Fatalf("brain toggle should not drive the controller: %v", f.calls)
	}
	if r := d.Execute(op, "nuncle brain off"); r.Events[0]["on"] != false {
		t.Fatalf("off events=%v", r.Events)
	}
}

func TestIsQuery(t *testing.T) {
	cases := map[string]bool{
		"nunclewhere":               true,
		"nuncle status":             true,
		"nuncle observe":            true,
		"/nuncle observe inventory": true,
		"nuncle boundary info":      true,
		"nuncle boundary clear":     false,
		"nuncle goto 1 2 3":         false,
		"nuncle":                    false,
		"say hi":                    false,
	}
	for line, want := range cases {
		if got := IsQuery(line); got != want {
			t.Fatalf("IsQuery(%q)=%v want %v", line, got, want)
		}
	}
}

func TestUsageListsEverySubcommand(t *testing.T) {
	u := Usage()
	for name := range subcommands {
		if !strings.Contains(u, "nuncle "+name) {
			t.Fatalf("usage missing %s:\n%s", name, u)
		}
	}
}

func TestDispatchAgainstWorld(t *testing.T) {
	tune := tuning.Defaults()
	w := worldsim.New(tune.World, tune.Seed)
	ctl := agent.New(w, tune, log.New(io.Discard, "", 0))
	d := New(ctl, observe.New(w, ctl), log.New(io.Discard, "", 0))

	if r := d.Execute(op, "nuncle status"); r.Text != `{"alive":false}` {
		t.Fatalf("status before spawn: %+v", r)
	}
	if r := d.Execute(op, "nuncle spawn 0.5 64 0.5"); !r.OK() {
		t.Fatalf("spawn: %+v", r)
	}
	if r := d.Execute(op, "nuncle status"); !strings.Contains(r.Text, `"alive":true`) || !strings.Contains(r.Text, `"mode":"idle"`) {
		t.Fatalf("status: %+v", r)
	}
	if r := d.Execute(op, "nuncle follow nobody"); r.Code != agent.ErrTargetNotFound {
		t.Fatalf("follow: %+v", r)
	}
	if r := d.Execute(op, "nuncle boundary info"); r.Text != "No boundary set" {
		t.Fatalf("boundary info: %+v", r)
	}
}
