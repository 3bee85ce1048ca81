package agent

import (
	"strings"
	"testing"

	"nuncle.ai/internal/sim/boundary"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
)

var _ World = (*stubWorld)(nil)

func hasEvent(c *Controller, typ string) bool {
	for _, e := range c.TakeEvents() {
		if e["type"] == typ {
			return true
		}
	}
	return false
}

func TestOperationsRequireSpawn(t *testing.T) {
	w := newStubWorld()
	c := New(w, testTuning(), discardLogger())
	p := geom.Vec3{X: 1, Y: 64, Z: 1}
	bp := p.Block()
	for name, res := range map[string]Result{
		"despawn":  c.Despawn(),
		"chat":     c.Chat("hi"),
		"goto":     c.GoTo(p),
		"follow":   c.Follow("alice"),
		"wander":   c.Wander(),
		"stay":     c.Stay(),
		"look":     c.LookAt(p),
		"attack":   c.Attack("zombie"),
		"mine":     c.Mine(bp),
		"place":    c.Place(bp, "dirt"),
		"pickup":   c.Pickup(""),
		"drop":     c.Drop("dirt"),
		"take":     c.Take(bp, "", 64),
		"put":      c.Put(bp, "dirt", 64),
		"thinking": c.SetThinking(true),
	} {
		if res.Code != ErrNotSpawned {
			t.Fatalf("%s: code=%s want %s", name, res.Code, ErrNotSpawned)
		}
		if res.Message != "NuncleNelson is not spawned" {
			t.Fatalf("%s: message=%q", name, res.Message)
		}
	}
	if effs := c.Tick(); len(effs) != 0 {
		t.Fatalf("tick without agent produced effects: %+v", effs)
	}
	if w.mutations() != 0 {
		t.Fatalf("world touched while not spawned")
	}
}

func TestSpawnTwiceReportsPosition(t *testing.T) {
	w := newStubWorld()
	c := New(w, testTuning(), discardLogger())
	res := c.SpawnDefault()
	if !res.OK() || res.Message != "NuncleNelson spawned at 0 64 0" {
		t.Fatalf("spawn: %+v", res)
	}
	if len(w.broadcasts) != 1 || !strings.Contains(w.broadcasts[0].Text, "has arrived at 0 64 0") {
		t.Fatalf("arrival announcement: %+v", w.broadcasts)
	}
	res = c.Spawn(geom.Vec3{X: 5, Y: 64, Z: 5})
	if res.Code != ErrAlreadySpawned || res.Message != "NuncleNelson is already spawned at 0 64 0" {
		t.Fatalf("second spawn: %+v", res)
	}
	if !hasEvent(c, "SPAWNED") {
		t.Fatalf("missing SPAWNED event")
	}
}

func TestDespawnClearsState(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addPlayer("alice", geom.Vec3{X: 10, Y: 64})
	c.Follow("alice")
	c.SetThinking(true)
	if res := c.Despawn(); !res.OK() {
		t.Fatalf("despawn: %+v", res)
	}
	if c.IsAlive() || c.AgentRef() != "" || c.Mode() != ModeIdle || c.Thinking() {
		t.Fatalf("state not cleared: alive=%v mode=%s thinking=%v", c.IsAlive(), c.Mode(), c.Thinking())
	}
	if res := c.SpawnDefault(); !res.OK() {
		t.Fatalf("respawn: %+v", res)
	}
}

func TestStayAfterFollowClearsFollowing(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addPlayer("alice", geom.Vec3{X: 10, Y: 64})
	if res := c.Follow("alice"); !res.OK() || res.Message != "Following alice" {
		t.Fatalf("follow: %+v", res)
	}
	if c.Mode() != ModeFollowing {
		t.Fatalf("mode=%s", c.Mode())
	}
	w.stops = 0
	if res := c.Stay(); !res.OK() {
		t.Fatalf("stay: %+v", res)
	}
	if c.Mode() != ModeStaying || w.stops != 1 {
		t.Fatalf("mode=%s stops=%d", c.Mode(), w.stops)
	}
	w.navs = nil
	c.Tick()
	if len(w.navs) != 0 {
		t.Fatalf("staying agent navigated: %+v", w.navs)
	}
}

func TestModeChangesReplacePreviousMode(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	alice := w.addPlayer("alice", geom.Vec3{X: 10, Y: 64})
	zombie := w.addMob("zombie", geom.Vec3{X: 0, Y: 64, Z: 12})

	c.Follow("alice")
	if res := c.Attack("zombie"); !res.OK() {
		t.Fatalf("attack: %+v", res)
	}
	b, ok := c.Behavior().(Attacking)
	if !ok || b.Target != zombie {
		t.Fatalf("behavior=%#v", c.Behavior())
	}
	w.navs = nil
	c.Tick()
	for _, n := range w.navs {
		if n.Target == alice {
			t.Fatalf("still chasing the followed player")
		}
	}
	c.GoTo(geom.Vec3{X: 3, Y: 64, Z: 3})
	if c.Mode() != ModeGoingTo {
		t.Fatalf("mode=%s", c.Mode())
	}
	c.Wander()
	if c.Mode() != ModeWandering {
		t.Fatalf("mode=%s", c.Mode())
	}
}

func TestGoToClampsToBoundary(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.SetBoundary(0, 0, 10)
	res := c.GoTo(geom.Vec3{X: 20, Y: 64, Z: 0})
	if !res.OK() || res.Message != "Moving to 10 64 0 (clamped to boundary)" {
		t.Fatalf("goto: %+v", res)
	}
	if len(w.navs) != 1 || w.navs[0].Point != (geom.Vec3{X: 10, Y: 64, Z: 0}) {
		t.Fatalf("nav=%+v", w.navs)
	}
	if b, ok := c.Behavior().(GoingTo); !ok || b.Point.X != 10 {
		t.Fatalf("behavior=%#v", c.Behavior())
	}
	if !hasEvent(c, "BOUNDARY_CLAMPED") {
		t.Fatalf("missing BOUNDARY_CLAMPED")
	}
}

func TestGoToUnreachableStillGoingTo(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.navOK = false
	res := c.GoTo(geom.Vec3{X: 5, Y: 64, Z: 5})
	if res.Code != ErrUnreachable || res.Message != "Cannot pathfind to 5 64 5" {
		t.Fatalf("goto: %+v", res)
	}
	if c.Mode() != ModeGoingTo {
		t.Fatalf("mode=%s", c.Mode())
	}
}

func TestModeSwitchStopsNavigation(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addPlayer("alice", geom.Vec3{X: 1, Y: 64})
	w.addMob("zombie", geom.Vec3{X: -1, Y: 64})
	w.blocks[geom.BlockPos{X: 20, Y: 63}] = Block{Name: "minecraft:stone"}

	for name, op := range map[string]func() Result{
		"wander": c.Wander,
		"goto": func() Result {
			w.navOK = false
			defer func() { w.navOK = true }()
			return c.GoTo(geom.Vec3{X: 5000, Y: 64})
		},
		"follow": func() Result { return c.Follow("alice") },
		"attack": func() Result { return c.Attack("zombie") },
		"stay":   c.Stay,
		"mine":   func() Result { return c.Mine(geom.BlockPos{X: 20, Y: 63}) },
	} {
		w.stops = 0
		op()
		if w.stops != 1 {
			t.Fatalf("%s: stops=%d want 1", name, w.stops)
		}
	}
}

func TestFollowInRangeOnlyLooks(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addPlayer("alice", geom.Vec3{X: 1, Y: 64})
	w.navDone = false
	c.Wander()
	w.navs, w.stops = nil, 0

	c.Follow("alice")
	effs := c.Tick()
	if w.stops != 1 || len(w.navs) != 0 {
		t.Fatalf("stops=%d navs=%+v", w.stops, w.navs)
	}
	if len(effs) != 1 || effs[0].Kind != EffectLook {
		t.Fatalf("effects=%+v", effs)
	}
}

func TestBoundaryEnforcementScenario(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	if res := c.SetBoundary(0, 0, 10); !res.OK() || res.Message != "Boundary set: center (0, 0) radius 10" {
		t.Fatalf("set boundary: %+v", res)
	}
	c.Wander()
	w.navs, w.stops = nil, 0

	w.move(c.AgentRef(), geom.Vec3{X: 15, Y: 64, Z: 0})
	c.Tick()

	pos, _ := c.Position()
	if pos != (geom.Vec3{X: 10, Y: 64, Z: 0}) {
		t.Fatalf("pos=%+v want (10,64,0)", pos)
	}
	if len(w.teleports) != 1 {
		t.Fatalf("teleports=%d want 1", len(w.teleports))
	}
	if c.Mode() != ModeIdle || w.stops == 0 {
		t.Fatalf("mode=%s stops=%d", c.Mode(), w.stops)
	}
	if len(w.navs) != 0 {
		t.Fatalf("navigation issued after enforcement: %+v", w.navs)
	}
	if !hasEvent(c, "BOUNDARY_ENFORCED") {
		t.Fatalf("missing BOUNDARY_ENFORCED")
	}
}

func TestBoundaryEnforcementHoldsFarFromOrigin(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{X: 3e7, Y: 64, Z: -3e7})
	c.SetBoundary(-36690, 617859, 4146)
	c.Tick()
	if len(w.teleports) != 1 {
		t.Fatalf("teleports=%d want 1", len(w.teleports))
	}
	c.Stay()
	c.Tick()
	if len(w.teleports) != 1 || c.Mode() != ModeStaying {
		t.Fatalf("teleports=%d mode=%s", len(w.teleports), c.Mode())
	}
}

func TestBoundaryEnforcementLandsInside(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.SetBoundary(3.3, -7.1, 6.7)
	for _, p := range []geom.Vec3{{X: 100, Z: 100}, {X: -40.2, Z: 3}, {X: 3.3, Z: 90}, {X: 9.99, Z: -7.1}} {
		p.Y = 64
		w.move(c.AgentRef(), p)
		c.Tick()
		got, _ := c.Position()
		if !boundary.Inside(c.Boundary(), got) {
			t.Fatalf("from %+v landed outside at %+v", p, got)
		}
		if got.Y != 64 {
			t.Fatalf("Y changed: %v", got.Y)
		}
	}
}

func TestWanderWithinBoundaryRadius(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{X: 3, Y: 64, Z: -2})
	c.SetBoundary(3, -2, 5)
	w.navDone = true
	if res := c.Wander(); !res.OK() || res.Message != "Wandering randomly" {
		t.Fatalf("wander: %+v", res)
	}
	if len(w.navs) != 1 {
		t.Fatalf("wander should navigate immediately, navs=%d", len(w.navs))
	}
	for i := 0; i < 5000; i++ {
		c.Tick()
	}
	if len(w.navs) < 10 {
		t.Fatalf("too few wander destinations: %d", len(w.navs))
	}
	b := c.Boundary()
	for _, n := range w.navs {
		if d := b.DistFromCenter(n.Point); d > 5 {
			t.Fatalf("destination %+v is %.3f from center", n.Point, d)
		}
	}
}

func TestWanderWaitsForNavigation(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.Wander()
	w.navs = nil
	for i := 0; i < 1000; i++ {
		c.Tick()
	}
	if len(w.navs) != 0 {
		t.Fatalf("wandered while navigation in flight: %d", len(w.navs))
	}
	w.navDone = true
	c.Tick()
	if len(w.navs) != 1 {
		t.Fatalf("expected one destination once navigation finished, got %d", len(w.navs))
	}
	d := w.navs[0].Point.DistXZ(geom.Vec3{})
	if d < 20 || d > 50 {
		t.Fatalf("unbounded wander distance %.2f out of [20,50]", d)
	}
	b, _ := c.Behavior().(Wandering)
	if b.Cooldown < 100 || b.Cooldown >= 300 {
		t.Fatalf("cooldown=%d", b.Cooldown)
	}
}

func TestFollowTargetDisconnects(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	alice := w.addPlayer("alice", geom.Vec3{X: 10, Y: 64})
	c.Follow("alice")
	delete(w.entities, alice)

	effs := c.Tick()
	if c.Mode() != ModeIdle {
		t.Fatalf("mode=%s want idle", c.Mode())
	}
	for _, e := range effs {
		if e.Kind == EffectNavigate || e.Kind == EffectNavigateEntity {
			t.Fatalf("navigation issued: %+v", e)
		}
	}
	if len(w.navs) != 0 {
		t.Fatalf("navs=%+v", w.navs)
	}
	if !hasEvent(c, "TARGET_LOST") {
		t.Fatalf("missing TARGET_LOST")
	}
}

func TestFollowNavigatesOrLooks(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	alice := w.addPlayer("alice", geom.Vec3{X: 10, Y: 64})
	c.Follow("alice")

	c.Tick()
	if len(w.navs) != 1 || w.navs[0].Target != alice || w.navs[0].Speed != 1.0 {
		t.Fatalf("navs=%+v", w.navs)
	}
	w.move(alice, geom.Vec3{X: 2, Y: 64})
	c.Tick()
	if len(w.navs) != 1 || len(w.looks) != 1 {
		t.Fatalf("close target: navs=%d looks=%d", len(w.navs), len(w.looks))
	}
}

func TestFollowTargetLeavesBoundary(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.SetBoundary(0, 0, 10)
	alice := w.addPlayer("alice", geom.Vec3{X: 5, Y: 64})
	c.Follow("alice")
	w.stops = 0
	w.move(alice, geom.Vec3{X: 30, Y: 64})
	c.Tick()
	if c.Mode() != ModeIdle || w.stops != 1 {
		t.Fatalf("mode=%s stops=%d", c.Mode(), w.stops)
	}
}

func TestFollowUnknownPlayer(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	res := c.Follow("bob")
	if res.Code != ErrTargetNotFound || res.Message != "Player bob not found" {
		t.Fatalf("follow: %+v", res)
	}
	if c.Mode() != ModeIdle {
		t.Fatalf("mode=%s", c.Mode())
	}
}

func TestAttackNotFoundLeavesModeUnchanged(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addMob("zombie", geom.Vec3{X: 40, Y: 64})
	w.addMob("skeleton", geom.Vec3{X: 3, Y: 64})
	c.Stay()
	res := c.Attack("zombie")
	if res.Code != ErrTargetNotFound || res.Message != "No zombie found nearby" {
		t.Fatalf("attack: %+v", res)
	}
	if c.Mode() != ModeStaying {
		t.Fatalf("mode=%s want staying", c.Mode())
	}
}

func TestAttackSkipsTargetsOutsideBoundary(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.SetBoundary(0, 0, 5)
	w.addMob("zombie", geom.Vec3{X: 8, Y: 64})
	res := c.Attack("zombie")
	if res.Code != ErrOutOfBoundary {
		t.Fatalf("attack: %+v", res)
	}
	far := w.addMob("zombie", geom.Vec3{X: 0, Y: 64, Z: 4})
	res = c.Attack("minecraft:zombie")
	if !res.OK() || res.Message != "Attacking zombie (4 blocks away)" {
		t.Fatalf("attack: %+v", res)
	}
	if b := c.Behavior().(Attacking); b.Target != far {
		t.Fatalf("target=%s want %s", b.Target, far)
	}
}

func TestAttackChoosesClosestAndStrikes(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addMob("zombie", geom.Vec3{X: 9, Y: 64})
	near := w.addMob("zombie", geom.Vec3{X: 2, Y: 64})
	c.Attack("zombie")
	c.Tick()
	if len(w.strikes) != 1 || w.strikes[0] != near {
		t.Fatalf("strikes=%+v", w.strikes)
	}
	w.move(near, geom.Vec3{X: 6, Y: 64})
	c.Tick()
	if len(w.navs) != 1 || w.navs[0].Speed != 1.2 {
		t.Fatalf("navs=%+v", w.navs)
	}
	w.entities[near].Alive = false
	c.Tick()
	if c.Mode() != ModeIdle {
		t.Fatalf("mode=%s after target died", c.Mode())
	}
}

func TestTakeFortyIntoSingleSlot(t *testing.T) {
	w := newStubWorld()
	tune := testTuning()
	tune.InventorySize = 1
	c := spawned(t, w, tune, geom.Vec3{Y: 64})
	chestPos := geom.BlockPos{X: 2, Y: 64, Z: 0}
	chest := inventory.NewSlots(27, 64, nil)
	chest.SetSlot(0, inventory.Stack{Item: "X", Count: 40})
	w.containers[chestPos] = chest

	res := c.Take(chestPos, "X", 64)
	if !res.OK() || res.Message != "Took 40 (40x X)" {
		t.Fatalf("take: %+v", res)
	}
	if !chest.Slot(0).Empty() {
		t.Fatalf("chest slot not emptied: %+v", chest.Slot(0))
	}
	if got := inventory.Count(c.Inventory(), "X"); got != 40 {
		t.Fatalf("agent has %d X", got)
	}
}

func TestTakeAndPutEdgeCases(t *testing.T) {
	w := newStubWorld()
	tune := testTuning()
	tune.InventorySize = 1
	c := spawned(t, w, tune, geom.Vec3{Y: 64})
	chestPos := geom.BlockPos{X: 2, Y: 64, Z: 0}
	chest := inventory.NewSlots(2, 64, nil)
	chest.SetSlot(0, inventory.Stack{Item: "minecraft:coal", Count: 64})
	chest.SetSlot(1, inventory.Stack{Item: "minecraft:coal", Count: 10})
	w.containers[chestPos] = chest

	if res := c.Take(chestPos, "diamond", 64); res.Code != ErrContainerEmpty || res.Message != "No diamond in container" {
		t.Fatalf("take missing: %+v", res)
	}
	res := c.Take(chestPos, "", 100)
	if res.Code != ErrInventoryFull || res.Message != "Took 64 (64x coal), inventory full" {
		t.Fatalf("take full: %+v", res)
	}
	if res := c.Take(geom.BlockPos{X: 1, Y: 64, Z: 1}, "", 64); res.Code != ErrTargetNotFound {
		t.Fatalf("no container: %+v", res)
	}
	if res := c.Put(chestPos, "coal", 5); !res.OK() || res.Message != "Put 5 (5x coal)" {
		t.Fatalf("put: %+v", res)
	}
	if res := c.Put(chestPos, "", 5); res.Code != ErrBadRequest {
		t.Fatalf("put without item: %+v", res)
	}
	if got := inventory.Count(chest, "minecraft:coal"); got != 15 {
		t.Fatalf("chest coal=%d want 15", got)
	}
}

func TestContainerAccessChecksBoundaryAndRange(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	far := geom.BlockPos{X: 30, Y: 64, Z: 0}
	w.containers[far] = inventory.NewSlots(27, 64, nil)

	res := c.Take(far, "", 64)
	if res.Code != ErrTooFar || res.Message != "Too far (30 blocks). Moving closer." {
		t.Fatalf("take: %+v", res)
	}
	if len(w.navs) != 1 || w.navs[0].Point != far.Vec() {
		t.Fatalf("approach nav=%+v", w.navs)
	}
	c.SetBoundary(0, 0, 10)
	if res := c.Put(far, "dirt", 1); res.Code != ErrOutOfBoundary || res.Message != "Container is outside boundary" {
		t.Fatalf("put: %+v", res)
	}
}

func TestMine(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	near := geom.BlockPos{X: 1, Y: 63, Z: 0}
	far := geom.BlockPos{X: 20, Y: 63, Z: 0}
	w.blocks[near] = Block{Name: "minecraft:stone"}
	w.blocks[far] = Block{Name: "minecraft:stone"}

	if res := c.Mine(geom.BlockPos{X: 1, Y: 70, Z: 0}); res.Code != ErrTargetNotFound || res.Message != "No block at 1 70 0" {
		t.Fatalf("air: %+v", res)
	}
	res := c.Mine(far)
	if res.Code != ErrTooFar || res.Message != "Too far to mine (20 blocks). Moving closer." {
		t.Fatalf("far: %+v", res)
	}
	if w.navs[0].Point != far.Offset(0, 1, 0).Vec() {
		t.Fatalf("approach=%+v", w.navs[0].Point)
	}
	if res := c.Mine(near); !res.OK() || res.Message != "Mined stone at 1 63 0" {
		t.Fatalf("mine: %+v", res)
	}
	c.SetBoundary(0, 0, 5)
	if res := c.Mine(far); res.Code != ErrOutOfBoundary {
		t.Fatalf("outside: %+v", res)
	}
}

func TestBlockBoundaryUsesCenter(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.SetBoundary(0, 0, 10)
	cornerIn := geom.BlockPos{X: 9, Y: 63, Z: 4}
	centerIn := geom.BlockPos{X: -10, Y: 63, Z: -1}
	w.blocks[cornerIn] = Block{Name: "minecraft:stone"}
	w.blocks[centerIn] = Block{Name: "minecraft:stone"}

	if res := c.Mine(cornerIn); res.Code != ErrOutOfBoundary {
		t.Fatalf("block centered outside: %+v", res)
	}
	if res := c.Mine(centerIn); res.Code != ErrTooFar {
		t.Fatalf("block centered inside: %+v", res)
	}
}

func TestPlaceConsumesOneBlock(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.blockItems["minecraft:oak_planks"] = true
	inventory.Insert(c.Inventory(), "minecraft:stick", 3)
	inventory.Insert(c.Inventory(), "minecraft:oak_planks", 2)
	at := geom.BlockPos{X: 1, Y: 64, Z: 1}

	if res := c.Place(at, "stick"); res.Code != ErrTargetNotFound {
		t.Fatalf("non-block item placed: %+v", res)
	}
	if res := c.Place(at, "planks"); !res.OK() || res.Message != "Placed oak_planks at 1 64 1" {
		t.Fatalf("place: %+v", res)
	}
	if w.placed[at] != "minecraft:oak_planks" {
		t.Fatalf("placed=%+v", w.placed)
	}
	if got := inventory.Count(c.Inventory(), "minecraft:oak_planks"); got != 1 {
		t.Fatalf("planks left=%d", got)
	}
	if res := c.Place(at, "planks"); res.Code != ErrFailed {
		t.Fatalf("occupied: %+v", res)
	}
}

func TestPickupLeavesRemainder(t *testing.T) {
	w := newStubWorld()
	tune := testTuning()
	tune.InventorySize = 1
	c := spawned(t, w, tune, geom.Vec3{Y: 64})
	inventory.Insert(c.Inventory(), "minecraft:dirt", 60)
	item := w.add(Entity{Kind: KindItem, Type: "item", Pos: geom.Vec3{X: 2, Y: 64}, Stack: inventory.Stack{Item: "minecraft:dirt", Count: 10}})

	res := c.Pickup("")
	if res.Code != ErrInventoryFull || res.Message != "Picked up: 4x dirt (inventory full)" {
		t.Fatalf("pickup: %+v", res)
	}
	if e, ok := w.Resolve(item); !ok || e.Stack.Count != 6 {
		t.Fatalf("ground remainder=%+v ok=%v", e, ok)
	}
	if res := c.Pickup("diamond"); res.Code != ErrTargetNotFound || res.Message != "No diamond found nearby" {
		t.Fatalf("filtered pickup: %+v", res)
	}
}

func TestDropWholeStack(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	inventory.Insert(c.Inventory(), "minecraft:cobblestone", 33)
	res := c.Drop("cobble")
	if !res.OK() || res.Message != "Dropped 33x cobblestone" {
		t.Fatalf("drop: %+v", res)
	}
	if len(w.dropped) != 1 || w.dropped[0].Count != 33 {
		t.Fatalf("dropped=%+v", w.dropped)
	}
	if res := c.Drop("cobble"); res.Code != ErrTargetNotFound {
		t.Fatalf("second drop: %+v", res)
	}
}

func TestAnnouncementAndThinkingTimers(t *testing.T) {
	w := newStubWorld()
	tune := testTuning()
	tune.AnnounceIntervalTicks = 25
	c := spawned(t, w, tune, geom.Vec3{Y: 64})
	c.SetThinking(true)
	if w.nameTag != "NuncleNelson ..." {
		t.Fatalf("name tag=%q", w.nameTag)
	}
	for i := 0; i < 50; i++ {
		c.Tick()
	}
	if len(w.broadcasts) != 2 {
		t.Fatalf("announcements=%d want 2", len(w.broadcasts))
	}
	if w.broadcasts[0].Text != "NuncleNelson is at 0 64 0 (dark forest)" {
		t.Fatalf("announcement=%q", w.broadcasts[0].Text)
	}
	if w.particles != 5 {
		t.Fatalf("particle bursts=%d want 5", w.particles)
	}
	c.SetThinking(false)
	if w.nameTag != "NuncleNelson" {
		t.Fatalf("name tag=%q", w.nameTag)
	}
}

func TestStepDoesNotTouchWorld(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	w.addPlayer("alice", geom.Vec3{X: 10, Y: 64})
	c.Follow("alice")
	before := w.mutations()
	effs := c.Step()
	if w.mutations() != before {
		t.Fatalf("Step mutated the world")
	}
	if len(effs) != 1 || effs[0].Kind != EffectNavigateEntity {
		t.Fatalf("effects=%+v", effs)
	}
}

func TestDeathClearsEverything(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{Y: 64})
	c.SetBoundary(0, 0, 20)
	c.Wander()
	c.TakeEvents()
	ref := c.AgentRef()
	c.OnDamage(ref, 3, "mob")
	if c.Mode() != ModeWandering {
		t.Fatalf("damage changed mode to %s", c.Mode())
	}
	delete(w.entities, ref)
	c.OnDeath(ref, "mob")
	if c.IsAlive() || c.Mode() != ModeIdle {
		t.Fatalf("alive=%v mode=%s", c.IsAlive(), c.Mode())
	}
	evs := c.TakeEvents()
	if len(evs) != 2 || evs[0]["type"] != "DAMAGED" || evs[1]["type"] != "DIED" {
		t.Fatalf("events=%+v", evs)
	}
	if c.Boundary() == nil {
		t.Fatalf("boundary should survive death")
	}
	if res := c.SpawnDefault(); !res.OK() {
		t.Fatalf("respawn: %+v", res)
	}
}

func TestChatHook(t *testing.T) {
	w := newStubWorld()
	c := spawned(t, w, testTuning(), geom.Vec3{X: 4, Y: 64, Z: -3})
	if !c.OnChat("alice", geom.Vec3{X: 900, Y: 64}, "!Nuncle where are you") {
		t.Fatalf("expected reply")
	}
	if len(w.broadcasts) != 1 || w.broadcasts[0].Text != "I'm at 4 64 -3 (dark forest)" {
		t.Fatalf("reply=%+v", w.broadcasts)
	}
	c.TakeEvents()
	c.OnChat("bob", geom.Vec3{X: 900, Y: 64}, "hello")
	if hasEvent(c, "HEARD") {
		t.Fatalf("heard a distant player")
	}
	c.OnChat("bob", geom.Vec3{X: 10, Y: 64}, "hello")
	if !hasEvent(c, "HEARD") {
		t.Fatalf("missing HEARD")
	}
}

func TestSetBoundaryValidatesRadius(t *testing.T) {
	w := newStubWorld()
	c := New(w, testTuning(), discardLogger())
	if res := c.SetBoundary(0, 0, 0.5); res.Code != ErrBadRequest {
		t.Fatalf("radius below minimum: %+v", res)
	}
	if c.Boundary() != nil {
		t.Fatalf("boundary set despite error")
	}
	c.SetBoundary(1, 2, 30)
	if got := c.BoundaryDescription(); got != "Boundary: center (1, 2) radius 30" {
		t.Fatalf("describe=%q", got)
	}
	if res := c.ClearBoundary(); res.Message != "Boundary cleared" || c.BoundaryDescription() != "No boundary set" {
		t.Fatalf("clear: %+v", res)
	}
}

func TestWhere(t *testing.T) {
	w := newStubWorld()
	c := New(w, testTuning(), discardLogger())
	if res := c.Where(); res.Code != ErrNotSpawned || res.Message != "NuncleNelson is not currently spawned" {
		t.Fatalf("where before spawn: %+v", res)
	}
	c.Spawn(geom.Vec3{X: 12.7, Y: 64, Z: -3.2})
	if res := c.Where(); !res.OK() || res.Message != "[NuncleNelson] at 12 64 -3 (dark forest)" {
		t.Fatalf("where: %+v", res)
	}
}
