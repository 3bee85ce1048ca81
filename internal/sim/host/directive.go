package host

import (
	"context"

	"nuncle.ai/internal/command"
	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
)

type directiveKind int

const (
	dirCommand directiveKind = iota
	dirJoin
	dirLeave
	dirMove
	dirChat
)

// Directive is one queued input, applied at the next tick boundary.
type Directive struct {
	kind   directiveKind
	sender command.Sender
	line   string
	name   string
	pos    *geom.Vec3
	resp   chan reply
}

type reply struct {
	r    command.Reply
	ref  agent.EntityRef
	tick uint64
	err  error
}

func (d Directive) respond(r reply) {
	if d.resp == nil {
		return
	}
	select {
	case d.resp <- r:
	default:
	}
}

func CommandDirective(s command.Sender, line string) Directive {
	return Directive{kind: dirCommand, sender: s, line: line}
}

// JoinDirective adds a player. A nil pos means the world spawn point.
func JoinDirective(name string, pos *geom.Vec3) Directive {
	return Directive{kind: dirJoin, name: name, pos: pos}
}

func LeaveDirective(name string) Directive { return Directive{kind: dirLeave, name: name} }

func MoveDirective(name string, to geom.Vec3) Directive {
	return Directive{kind: dirMove, name: name, pos: &to}
}

func ChatDirective(from, text string) Directive {
	return Directive{kind: dirChat, name: from, line: text}
}

// Result is a command reply plus the tick it was applied at.
type Result struct {
	command.Reply
	Tick uint64
}

func (h *Host) submit(ctx context.Context, ch chan Directive, d Directive) error {
	select {
	case ch <- d:
		return nil
	case <-h.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) await(ctx context.Context, ch chan Directive, d Directive) (reply, error) {
	d.resp = make(chan reply, 1)
	if err := h.submit(ctx, ch, d); err != nil {
		return reply{}, err
	}
	select {
	case r := <-d.resp:
		return r, nil
	case <-h.stop:
		return reply{}, ErrStopped
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

// Exec runs a command line as s and waits for the reply. Read-only
// commands are answered right away; everything else is applied at the next
// tick boundary.
func (h *Host) Exec(ctx context.Context, s command.Sender, line string) (Result, error) {
	ch := h.inbox
	if command.IsQuery(line) {
		ch = h.queries
	}
	r, err := h.await(ctx, ch, CommandDirective(s, line))
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: r.r, Tick: r.tick}, nil
}

// Join adds a player and waits until the world has placed it.
func (h *Host) Join(ctx context.Context, name string, pos *geom.Vec3) (agent.EntityRef, error) {
	r, err := h.await(ctx, h.inbox, JoinDirective(name, pos))
	if err != nil {
		return "", err
	}
	return r.ref, r.err
}

func (h *Host) Leave(ctx context.Context, name string) error {
	return h.submit(ctx, h.inbox, LeaveDirective(name))
}

func (h *Host) Move(ctx context.Context, name string, to geom.Vec3) error {
	return h.submit(ctx, h.inbox, MoveDirective(name, to))
}

func (h *Host) Chat(ctx context.Context, from, text string) error {
	return h.submit(ctx, h.inbox, ChatDirective(from, text))
}
