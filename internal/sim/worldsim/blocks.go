package worldsim

import (
	"math"
	"strings"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/inventory"
)

const (
	blockAir     = "minecraft:air"
	blockGrass   = "minecraft:grass_block"
	blockDirt    = "minecraft:dirt"
	blockStone   = "minecraft:stone"
	blockBedrock = "minecraft:bedrock"
	blockChest   = "minecraft:chest"

	// columns above the ground scanned for placed blocks
	heightScan = 32
)

var replaceable = map[string]bool{
	blockAir:                true,
	"minecraft:short_grass": true,
	"minecraft:snow":        true,
}

// drops maps a broken block to the item it leaves behind.
var drops = map[string]string{
	blockGrass:                blockDirt,
	blockStone:                "minecraft:cobblestone",
	"minecraft:coal_ore":      "minecraft:coal",
	"minecraft:diamond_ore":   "minecraft:diamond",
	"minecraft:emerald_ore":   "minecraft:emerald",
	"minecraft:iron_ore":      "minecraft:raw_iron",
	"minecraft:gold_ore":      "minecraft:raw_gold",
	"minecraft:copper_ore":    "minecraft:raw_copper",
	"minecraft:short_grass":   "",
}

var blockSuffixes = []string{
	"_planks", "_log", "_wood", "_ore", "_block", "_bricks", "_slab", "_stairs", "_wool",
	"stone", "dirt", "sand", "gravel", "glass", "chest", "barrel", "torch",
	"crafting_table", "furnace", "smoker", "anvil",
}

// terrain is the generated block below any override: bedrock at 0, stone
// up to the surface, grass on top.
func (w *World) terrain(p geom.BlockPos) string {
	switch {
	case p.Y <= 0:
		return blockBedrock
	case p.Y < w.cfg.GroundY-1:
		return blockStone
	case p.Y == w.cfg.GroundY-1:
		return blockGrass
	default:
		return blockAir
	}
}

func (w *World) blockName(p geom.BlockPos) string {
	if n, ok := w.blocks[p]; ok {
		return n
	}
	return w.terrain(p)
}

func (w *World) BlockAt(p geom.BlockPos) agent.Block {
	n := w.blockName(p)
	return agent.Block{Name: n, Air: n == blockAir, Replaceable: replaceable[n]}
}

func (w *World) SetBlock(p geom.BlockPos, name string) {
	if name == "" {
		name = blockAir
	}
	if name == blockChest {
		w.PlaceChest(p)
		return
	}
	delete(w.chests, p)
	w.blocks[p] = name
}

// BreakBlock turns the block into air and drops its item. Chests spill
// their contents. Bedrock cannot be broken.
func (w *World) BreakBlock(_ agent.EntityRef, p geom.BlockPos) bool {
	n := w.blockName(p)
	if n == blockAir || n == blockBedrock {
		return false
	}
	at := p.Center()
	if box, ok := w.chests[p]; ok {
		for _, s := range inventory.List(box) {
			w.DropItem(at, s)
		}
		delete(w.chests, p)
	}
	w.blocks[p] = blockAir
	item, ok := drops[n]
	if !ok {
		item = n
	}
	if item != "" {
		w.DropItem(at, inventory.Stack{Item: item, Count: 1})
	}
	return true
}

func (w *World) IsBlockItem(item string) bool {
	name := inventory.DisplayName(item)
	for _, s := range blockSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// GroundHeight is the y an entity stands at in the column containing x, z.
func (w *World) GroundHeight(x, z float64) float64 {
	bx, bz := int(math.Floor(x)), int(math.Floor(z))
	for y := w.cfg.GroundY + heightScan; y >= w.cfg.GroundY; y-- {
		if n, ok := w.blocks[geom.BlockPos{X: bx, Y: y, Z: bz}]; ok && !replaceable[n] {
			return float64(y + 1)
		}
	}
	return float64(w.cfg.GroundY)
}

// PlaceChest puts an empty chest at p, or returns the one already there.
func (w *World) PlaceChest(p geom.BlockPos) *inventory.Slots {
	if box, ok := w.chests[p]; ok {
		return box
	}
	box := inventory.NewSlots(w.cfg.ChestSlots, 0, nil)
	w.chests[p] = box
	w.blocks[p] = blockChest
	return box
}

func (w *World) ContainerAt(p geom.BlockPos) (inventory.Container, bool) {
	box, ok := w.chests[p]
	if !ok {
		return nil, false
	}
	return box, true
}
