// Package host owns the simulated world and the agent controller and runs
// them on a single goroutine. Everything else talks to it through channels.
package host

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"nuncle.ai/internal/command"
	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/observe"
	"nuncle.ai/internal/sim/tuning"
	"nuncle.ai/internal/sim/worldsim"
)

var ErrStopped = errors.New("host stopped")

type Options struct {
	Logger    *log.Logger
	TickLog   []TickLogger
	AuditLog  []AuditLogger
	Observers []Observer
}

type Host struct {
	t    tuning.Tuning
	log  *log.Logger
	opts Options

	world *worldsim.World
	ctl   *agent.Controller
	cmd   *command.Dispatcher

	inbox   chan Directive
	queries chan Directive
	stop    chan struct{}
	stopped sync.Once

	tick atomic.Uint64

	// per-tick scratch, only touched on the loop goroutine
	cur *TickLogEntry

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func(Broadcast)
}

func New(t tuning.Tuning, opts Options) *Host {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	w := worldsim.New(t.World, t.Seed)
	ctl := agent.New(w, t, logger)
	h := &Host{
		t:       t,
		log:     logger,
		opts:    opts,
		world:   w,
		ctl:     ctl,
		cmd:     command.New(ctl, observe.New(w, ctl), logger),
		inbox:   make(chan Directive, 1024),
		queries: make(chan Directive, 64),
		stop:    make(chan struct{}),
		subs:    map[int]func(Broadcast){},
	}
	w.SetHooks(worldsim.Hooks{
		Damage:    ctl.OnDamage,
		Death:     ctl.OnDeath,
		Broadcast: h.onBroadcast,
	})
	return h
}

func (h *Host) AgentName() string { return h.t.AgentName }

func (h *Host) TickRateHz() int { return h.t.TickRateHz }

// Tick is the last completed tick. Safe from any goroutine.
func (h *Host) Tick() uint64 { return h.tick.Load() }

func (h *Host) Stop() { h.stopped.Do(func() { close(h.stop) }) }

// OnBroadcast registers fn for every broadcast and returns a function that
// removes it. fn runs on the loop goroutine and must not block.
func (h *Host) OnBroadcast(fn func(Broadcast)) (cancel func()) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	h.subSeq++
	id := h.subSeq
	h.subs[id] = fn
	return func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		delete(h.subs, id)
	}
}

func (h *Host) onBroadcast(m agent.Message) {
	if h.cur != nil {
		h.cur.Broadcasts = append(h.cur.Broadcasts, m)
	}
	b := Broadcast{Message: m, Tick: h.world.Tick()}
	h.subMu.Lock()
	fns := make([]func(Broadcast), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.subMu.Unlock()
	for _, fn := range fns {
		fn(b)
	}
}

// Run drives the tick loop until ctx is done or Stop is called.
func (h *Host) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(h.t.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []Directive
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case d := <-h.queries:
			h.handleQuery(d)
		case d := <-h.inbox:
			pending = append(pending, d)
		case <-ticker.C:
			h.step(pending)
			pending = pending[:0]
		}
	}
}

// StepOnce applies ds and advances one tick, the same way Run does.
// Intended for tests and tools that drive the host without a ticker.
func (h *Host) StepOnce(ds ...Directive) TickLogEntry {
	return h.step(ds)
}

func (h *Host) step(ds []Directive) TickLogEntry {
	start := time.Now()
	entry := TickLogEntry{Tick: h.world.Tick() + 1}
	h.cur = &entry

	for _, d := range ds {
		h.apply(&entry, d)
	}
	h.world.Step()
	effs := h.ctl.Tick()
	entry.Events = append(entry.Events, h.ctl.TakeEvents()...)
	for _, e := range effs {
		if entry.Effects == nil {
			entry.Effects = map[string]int{}
		}
		entry.Effects[string(e.Kind)]++
	}
	entry.Mode = string(h.ctl.Mode())
	if p, ok := h.ctl.Position(); ok {
		ip := [3]int{int(p.X), int(p.Y), int(p.Z)}
		entry.Pos = &ip
	}
	h.cur = nil
	h.tick.Store(entry.Tick)

	if entry.active() {
		for _, l := range h.opts.TickLog {
			if err := l.WriteTick(entry); err != nil {
				h.log.Printf("tick log: %v", err)
			}
		}
	}
	took := time.Since(start)
	alive := h.ctl.IsAlive()
	for _, o := range h.opts.Observers {
		o.ObserveTick(entry, took, alive)
	}
	return entry
}

// online renders the player count suffix of join and leave lines.
func (h *Host) online() string {
	n := len(h.world.Players())
	if n == 1 {
		return " (1 player online)"
	}
	return fmt.Sprintf(" (%d players online)", n)
}

func vec(p geom.Vec3) *[3]float64 { return &[3]float64{p.X, p.Y, p.Z} }

func (h *Host) apply(entry *TickLogEntry, d Directive) {
	switch d.kind {
	case dirCommand:
		r := h.cmd.Execute(d.sender, d.line)
		entry.Events = append(entry.Events, r.Events...)
		// Controller events from the command land in the same entry.
		entry.Events = append(entry.Events, h.ctl.TakeEvents()...)
		h.record(entry.Tick, d, r, false)
		entry.Inputs = append(entry.Inputs, RecordedInput{
			Kind:  InputCommand,
			Name:  d.sender.Name,
			Level: d.sender.Level,
			Text:  d.line,
			Code:  string(r.Code),
			Reply: r.Text,
		})
		d.respond(reply{r: r, tick: entry.Tick})
	case dirJoin:
		at := h.world.SpawnPoint()
		if d.pos != nil {
			at = *d.pos
		}
		ref, err := h.world.Join(d.name, at)
		in := RecordedInput{Kind: InputJoin, Name: d.name, Pos: vec(at)}
		if err != nil {
			in.Err = err.Error()
			h.log.Printf("join %s: %v", d.name, err)
		} else {
			h.log.Printf("join %s at %s", d.name, at)
			h.world.Broadcast(agent.Message{Kind: agent.MessageJoin, From: d.name, Text: d.name + " joined the game" + h.online()})
		}
		entry.Inputs = append(entry.Inputs, in)
		d.respond(reply{ref: ref, tick: entry.Tick, err: err})
	case dirLeave:
		_, known := h.world.PlayerByName(d.name)
		h.world.Leave(d.name)
		entry.Inputs = append(entry.Inputs, RecordedInput{Kind: InputLeave, Name: d.name})
		h.log.Printf("leave %s", d.name)
		if known {
			h.world.Broadcast(agent.Message{Kind: agent.MessageLeave, From: d.name, Text: d.name + " left the game" + h.online()})
		}
	case dirMove:
		if err := h.world.MovePlayer(d.name, *d.pos); err != nil {
			h.log.Printf("move %s: %v", d.name, err)
			return
		}
		entry.Inputs = append(entry.Inputs, RecordedInput{Kind: InputMove, Name: d.name, Pos: vec(*d.pos)})
	case dirChat:
		p, ok := h.world.PlayerByName(d.name)
		if !ok {
			h.log.Printf("chat from unknown player %s", d.name)
			return
		}
		entry.Inputs = append(entry.Inputs, RecordedInput{Kind: InputChat, Name: d.name, Text: d.line})
		h.world.Broadcast(agent.Message{Kind: agent.MessageChat, From: d.name, Text: d.line})
		h.ctl.OnChat(d.name, p.Pos, d.line)
		entry.Events = append(entry.Events, h.ctl.TakeEvents()...)
	}
}

func (h *Host) handleQuery(d Directive) {
	r := h.cmd.Execute(d.sender, d.line)
	h.record(h.world.Tick(), d, r, true)
	d.respond(reply{r: r, tick: h.world.Tick()})
}

func (h *Host) record(tick uint64, d Directive, r command.Reply, query bool) {
	if !r.OK() {
		h.log.Printf("cmd sender=%s line=%q code=%s", d.sender.Name, d.line, r.Code)
	}
	audit := AuditEntry{Tick: tick, Actor: d.sender.Name, Level: d.sender.Level, Line: d.line, Code: string(r.Code)}
	if !r.OK() {
		audit.Reason = r.Text
	}
	for _, l := range h.opts.AuditLog {
		if err := l.WriteAudit(audit); err != nil {
			h.log.Printf("audit log: %v", err)
		}
	}
	rec := RecordedCommand{Tick: tick, Sender: d.sender.Name, Line: d.line, Query: query, Code: string(r.Code)}
	for _, o := range h.opts.Observers {
		o.ObserveCommand(rec)
	}
}
