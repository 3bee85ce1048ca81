// Package geom holds the coordinate types shared by the controller, the
// simulated world and the observation layer.
package geom

import (
	"fmt"
	"math"
)

// Vec3 is a continuous world position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Dist is the Euclidean distance in 3D.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// DistXZ ignores the vertical axis.
func (v Vec3) DistXZ(o Vec3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Block returns the block cell containing v.
func (v Vec3) Block() BlockPos {
	return BlockPos{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

// String renders the truncated integer coordinates ("x y z"), the format
// used in every status line.
func (v Vec3) String() string {
	return fmt.Sprintf("%d %d %d", int(v.X), int(v.Y), int(v.Z))
}

// BlockPos addresses a single block cell.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Center is the middle of the cell.
func (p BlockPos) Center() Vec3 {
	return Vec3{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5, Z: float64(p.Z) + 0.5}
}

// Vec returns the cell's minimum corner.
func (p BlockPos) Vec() Vec3 {
	return Vec3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

func (p BlockPos) Offset(dx, dy, dz int) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p BlockPos) String() string { return fmt.Sprintf("%d %d %d", p.X, p.Y, p.Z) }
