// Package boundary implements the circular operating area the agent is
// confined to. All functions are pure; a nil *Boundary means "no boundary".
package boundary

import (
	"errors"
	"fmt"
	"math"

	"nuncle.ai/internal/sim/geom"
)

// Boundary is a circle on the XZ plane.
type Boundary struct {
	CenterX float64 `json:"center_x" yaml:"center_x"`
	CenterZ float64 `json:"center_z" yaml:"center_z"`
	Radius  float64 `json:"radius" yaml:"radius"`
}

var ErrRadius = errors.New("boundary radius out of range")

// New validates the radius against minRadius.
func New(x, z, radius, minRadius float64) (*Boundary, error) {
	for _, v := range []float64{x, z, radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value", ErrRadius)
		}
	}
	if radius < minRadius || radius <= 0 {
		return nil, fmt.Errorf("%w: %.1f < %.1f", ErrRadius, radius, minRadius)
	}
	return &Boundary{CenterX: x, CenterZ: z, Radius: radius}, nil
}

// DistFromCenter is the horizontal distance from the center to p.
func (b *Boundary) DistFromCenter(p geom.Vec3) float64 {
	dx := p.X - b.CenterX
	dz := p.Z - b.CenterZ
	return math.Sqrt(dx*dx + dz*dz)
}

// Inside reports whether p is within b. Points on the edge are inside.
func Inside(b *Boundary, p geom.Vec3) bool {
	if b == nil {
		return true
	}
	return b.DistFromCenter(p) <= b.Radius
}

// Clamp projects p onto the boundary circle along the ray from the center.
// Y is left untouched.
func Clamp(b *Boundary, p geom.Vec3) geom.Vec3 {
	if b == nil {
		return p
	}
	dx := p.X - b.CenterX
	dz := p.Z - b.CenterZ
	dist := math.Sqrt(dx*dx + dz*dz)
	if dist <= b.Radius {
		return p
	}
	scale := b.Radius / dist
	out := geom.Vec3{X: b.CenterX + dx*scale, Y: p.Y, Z: b.CenterZ + dz*scale}
	// Rounding can leave the projection a hair outside the circle. Walk both
	// coordinates toward the center one float at a time until it is inside.
	for i := 0; i < 64 && b.DistFromCenter(out) > b.Radius; i++ {
		out.X = math.Nextafter(out.X, b.CenterX)
		out.Z = math.Nextafter(out.Z, b.CenterZ)
	}
	return out
}

// Describe renders the boundary for humans. With pos it also reports how far
// pos is from the center and from the edge; a negative edge distance means
// pos is outside.
func Describe(b *Boundary, pos *geom.Vec3) string {
	if b == nil {
		return "No boundary set"
	}
	s := fmt.Sprintf("Boundary: center (%d, %d) radius %d", int(b.CenterX), int(b.CenterZ), int(b.Radius))
	if pos != nil {
		dist := b.DistFromCenter(*pos)
		s += fmt.Sprintf(" | NPC is %d blocks from center (%d from edge)", int(dist), int(b.Radius-dist))
	}
	return s
}
