package worldsim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
)

var (
	ErrNoName       = errors.New("entity name required")
	ErrPlayerExists = errors.New("player already joined")
	ErrNoPlayer     = errors.New("player not found")
)

func (w *World) add(e agent.Entity, prefix string) *entity {
	w.seq++
	e.Ref = agent.EntityRef(fmt.Sprintf("%s-%d", prefix, w.seq))
	e.Alive = true
	ent := &entity{Entity: e, seq: w.seq}
	w.entities[e.Ref] = ent
	return ent
}

// sorted returns live entities in creation order.
func (w *World) sorted() []*entity {
	out := make([]*entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (w *World) remove(ref agent.EntityRef) {
	delete(w.entities, ref)
	delete(w.nav, ref)
}

func (w *World) SpawnAgent(name string, at geom.Vec3) (agent.EntityRef, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrNoName
	}
	if !w.insideBorder(at) {
		return "", fmt.Errorf("spawn %s: outside world border", at)
	}
	e := w.add(agent.Entity{
		Kind:      agent.KindAgent,
		Type:      "villager",
		Name:      name,
		Pos:       at,
		Living:    true,
		Health:    w.cfg.AgentMaxHealth,
		MaxHealth: w.cfg.AgentMaxHealth,
	}, "agent")
	e.tag = name
	return e.Ref, nil
}

func (w *World) RemoveAgent(ref agent.EntityRef) {
	if e, ok := w.entities[ref]; ok && e.Kind == agent.KindAgent {
		w.remove(ref)
	}
}

func (w *World) SpawnMob(kind string, at geom.Vec3, health float64) agent.EntityRef {
	if health <= 0 {
		health = 20
	}
	e := w.add(agent.Entity{
		Kind:      agent.KindMob,
		Type:      kind,
		Name:      kind,
		Pos:       at,
		Living:    true,
		Health:    health,
		MaxHealth: health,
	}, "mob")
	return e.Ref
}

func (w *World) Resolve(ref agent.EntityRef) (agent.Entity, bool) {
	e, ok := w.entities[ref]
	if !ok {
		return agent.Entity{}, false
	}
	return e.Entity, true
}

// NameTag is the label currently shown above an entity.
func (w *World) NameTag(ref agent.EntityRef) string {
	if e, ok := w.entities[ref]; ok {
		return e.tag
	}
	return ""
}

func (w *World) SetNameTag(ref agent.EntityRef, tag string) {
	if e, ok := w.entities[ref]; ok {
		e.tag = tag
	}
}

func (w *World) FindEntities(center geom.Vec3, radius float64, match func(agent.Entity) bool) []agent.Entity {
	var out []agent.Entity
	for _, e := range w.sorted() {
		if e.Pos.Dist(center) > radius {
			continue
		}
		if match != nil && !match(e.Entity) {
			continue
		}
		out = append(out, e.Entity)
	}
	return out
}

// Join adds a player controlled by a connected client.
func (w *World) Join(name string, at geom.Vec3) (agent.EntityRef, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrNoName
	}
	if _, ok := w.players[name]; ok {
		return "", ErrPlayerExists
	}
	e := w.add(agent.Entity{
		Kind:      agent.KindPlayer,
		Type:      "player",
		Name:      name,
		Pos:       at,
		Living:    true,
		Health:    20,
		MaxHealth: 20,
	}, "player")
	w.players[name] = e.Ref
	return e.Ref, nil
}

func (w *World) Leave(name string) {
	ref, ok := w.players[name]
	if !ok {
		return
	}
	delete(w.players, name)
	w.remove(ref)
}

func (w *World) MovePlayer(name string, to geom.Vec3) error {
	ref, ok := w.players[name]
	if !ok {
		return ErrNoPlayer
	}
	if !w.insideBorder(to) {
		return fmt.Errorf("move %s: outside world border", name)
	}
	w.entities[ref].Pos = to
	return nil
}

func (w *World) PlayerByName(name string) (agent.Entity, bool) {
	ref, ok := w.players[name]
	if !ok {
		return agent.Entity{}, false
	}
	return w.Resolve(ref)
}

func (w *World) Players() []agent.Entity {
	var out []agent.Entity
	for _, e := range w.sorted() {
		if e.Kind == agent.KindPlayer {
			out = append(out, e.Entity)
		}
	}
	return out
}

// DropItem puts a stack on the ground as an item entity.
func (w *World) DropItem(at geom.Vec3, s inventory.Stack) {
	if s.Empty() {
		return
	}
	w.add(agent.Entity{Kind: agent.KindItem, Type: "item", Name: inventory.DisplayName(s.Item), Pos: at, Stack: s}, "item")
}

func (w *World) ShrinkGroundItem(ref agent.EntityRef, n int) {
	e, ok := w.entities[ref]
	if !ok || e.Kind != agent.KindItem || n <= 0 {
		return
	}
	e.Stack.Count -= n
	if e.Stack.Count <= 0 {
		w.remove(ref)
	}
}
