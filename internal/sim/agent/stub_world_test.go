package agent

import (
	"fmt"
	"sort"

	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
	"nuncle.ai/internal/sim/tuning"
)

type navReq struct {
	Point  geom.Vec3
	Target EntityRef
	Speed  float64
}

type stubWorld struct {
	entities   map[EntityRef]*Entity
	nextID     int
	spawn      geom.Vec3
	navOK      bool
	navDone    bool
	ground     float64
	blocks     map[geom.BlockPos]Block
	blockItems map[string]bool
	containers map[geom.BlockPos]*inventory.Slots

	navs       []navReq
	stops      int
	teleports  []geom.Vec3
	looks      []geom.Vec3
	strikes    []EntityRef
	broadcasts []Message
	particles  int
	nameTag    string
	dropped    []inventory.Stack
	placed     map[geom.BlockPos]string
}

func newStubWorld() *stubWorld {
	return &stubWorld{
		entities:   map[EntityRef]*Entity{},
		spawn:      geom.Vec3{X: 0.5, Y: 64, Z: 0.5},
		navOK:      true,
		ground:     64,
		blocks:     map[geom.BlockPos]Block{},
		blockItems: map[string]bool{},
		containers: map[geom.BlockPos]*inventory.Slots{},
		placed:     map[geom.BlockPos]string{},
	}
}

// mutations counts every call that changes the stub.
func (w *stubWorld) mutations() int {
	return len(w.navs) + w.stops + len(w.teleports) + len(w.looks) + len(w.strikes) + len(w.broadcasts) + w.particles
}

func (w *stubWorld) add(e Entity) EntityRef {
	w.nextID++
	if e.Ref == "" {
		e.Ref = EntityRef(fmt.Sprintf("e%d", w.nextID))
	}
	e.Alive = true
	w.entities[e.Ref] = &e
	return e.Ref
}

func (w *stubWorld) addPlayer(name string, at geom.Vec3) EntityRef {
	return w.add(Entity{Kind: KindPlayer, Type: "player", Name: name, Pos: at, Living: true, Health: 20, MaxHealth: 20})
}

func (w *stubWorld) addMob(typ string, at geom.Vec3) EntityRef {
	return w.add(Entity{Kind: KindMob, Type: typ, Name: typ, Pos: at, Living: true, Health: 20, MaxHealth: 20})
}

func (w *stubWorld) move(ref EntityRef, to geom.Vec3) { w.entities[ref].Pos = to }

func (w *stubWorld) SpawnAgent(name string, at geom.Vec3) (EntityRef, error) {
	return w.add(Entity{Kind: KindAgent, Type: "villager", Name: name, Pos: at, Living: true, Health: 20, MaxHealth: 20}), nil
}

func (w *stubWorld) RemoveAgent(ref EntityRef) { delete(w.entities, ref) }

func (w *stubWorld) Resolve(ref EntityRef) (Entity, bool) {
	e, ok := w.entities[ref]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

func (w *stubWorld) FindEntities(center geom.Vec3, radius float64, match func(Entity) bool) []Entity {
	refs := make([]string, 0, len(w.entities))
	for ref := range w.entities {
		refs = append(refs, string(ref))
	}
	sort.Strings(refs)
	var out []Entity
	for _, ref := range refs {
		e := *w.entities[EntityRef(ref)]
		if e.Pos.Dist(center) <= radius && (match == nil || match(e)) {
			out = append(out, e)
		}
	}
	return out
}

func (w *stubWorld) PlayerByName(name string) (Entity, bool) {
	for _, e := range w.entities {
		if e.Kind == KindPlayer && e.Name == name {
			return *e, true
		}
	}
	return Entity{}, false
}

func (w *stubWorld) SpawnPoint() geom.Vec3   { return w.spawn }
func (w *stubWorld) Biome(geom.Vec3) string { return "dark_forest" }

func (w *stubWorld) NavigateTo(_ EntityRef, p geom.Vec3, speed float64) bool {
	w.navs = append(w.navs, navReq{Point: p, Speed: speed})
	return w.navOK
}

func (w *stubWorld) NavigateToEntity(_, target EntityRef, speed float64) bool {
	w.navs = append(w.navs, navReq{Target: target, Speed: speed})
	return w.navOK
}

func (w *stubWorld) NavigationDone(EntityRef) bool { return w.navDone }
func (w *stubWorld) StopNavigation(EntityRef)      { w.stops++ }
func (w *stubWorld) LookAt(_ EntityRef, p geom.Vec3) {
	w.looks = append(w.looks, p)
}
func (w *stubWorld) Strike(_, target EntityRef) { w.strikes = append(w.strikes, target) }

func (w *stubWorld) Teleport(agent EntityRef, p geom.Vec3) {
	w.teleports = append(w.teleports, p)
	w.entities[agent].Pos = p
}

func (w *stubWorld) BlockAt(p geom.BlockPos) Block {
	if b, ok := w.blocks[p]; ok {
		return b
	}
	return Block{Name: "minecraft:air", Air: true, Replaceable: true}
}

func (w *stubWorld) BreakBlock(_ EntityRef, p geom.BlockPos) bool {
	if w.BlockAt(p).Air {
		return false
	}
	delete(w.blocks, p)
	return true
}

func (w *stubWorld) SetBlock(p geom.BlockPos, name string) {
	w.placed[p] = name
	w.blocks[p] = Block{Name: name}
}

func (w *stubWorld) IsBlockItem(item string) bool     { return w.blockItems[item] }
func (w *stubWorld) GroundHeight(x, z float64) float64 { return w.ground }

func (w *stubWorld) ContainerAt(p geom.BlockPos) (inventory.Container, bool) {
	c, ok := w.containers[p]
	if !ok {
		return nil, false
	}
	return c, true
}

func (w *stubWorld) ShrinkGroundItem(ref EntityRef, n int) {
	e, ok := w.entities[ref]
	if !ok {
		return
	}
	e.Stack.Count -= n
	if e.Stack.Count <= 0 {
		delete(w.entities, ref)
	}
}

func (w *stubWorld) DropItem(_ geom.Vec3, s inventory.Stack) { w.dropped = append(w.dropped, s) }
func (w *stubWorld) Broadcast(m Message)                     { w.broadcasts = append(w.broadcasts, m) }
func (w *stubWorld) SpawnEffect(geom.Vec3, string, int)      { w.particles++ }
func (w *stubWorld) SetNameTag(_ EntityRef, tag string)      { w.nameTag = tag }

func testTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.Seed = 7
	return t
}

func spawned(t interface{ Fatalf(string, ...any) }, w *stubWorld, tune tuning.Tuning, at geom.Vec3) *Controller {
	c := New(w, tune, discardLogger())
	if res := c.Spawn(at); !res.OK() {
		t.Fatalf("spawn: %+v", res)
	}
	c.TakeEvents()
	w.broadcasts = nil
	return c
}
