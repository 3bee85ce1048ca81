package geom

import (
	"math"
	"testing"
)

func TestDistances(t *testing.T) {
	a := Vec3{X: 0, Y: 10, Z: 0}
	b := Vec3{X: 3, Y: 0, Z: 4}
	if got := a.DistXZ(b); got != 5 {
		t.Fatalf("DistXZ=%v want 5", got)
	}
	if got := a.Dist(b); math.Abs(got-math.Sqrt(125)) > 1e-9 {
		t.Fatalf("Dist=%v", got)
	}
}

func TestBlockAndString(t *testing.T) {
	v := Vec3{X: -0.5, Y: 64.9, Z: 3.2}
	if got := v.Block(); got != (BlockPos{X: -1, Y: 64, Z: 3}) {
		t.Fatalf("Block=%+v", got)
	}
	if got := v.String(); got != "0 64 3" {
		t.Fatalf("String=%q", got)
	}
	if got := (BlockPos{X: 1, Y: 2, Z: 3}).Center(); got != (Vec3{X: 1.5, Y: 2.5, Z: 3.5}) {
		t.Fatalf("Center=%+v", got)
	}
}
