package energy

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// BondAngle returns the a-b-c angle, in radians.
func BondAngle(a, b, c r3.Vec) float64 {
	return math.Acos(math.Max(-1, math.Min(1, r3.Cos(r3.Sub(a, b), r3.Sub(c, b)))))
}

// DihedralAngle returns the a-b-c-d dihedral in radians, between -pi and pi,
// with 0 for the cis conformation.
func DihedralAngle(a, b, c, d r3.Vec) float64 {
	b1 := r3.Sub(b, a)
	b2 := r3.Sub(c, b)
	b3 := r3.Sub(d, c)
	n1 := r3.Cross(b1, b2)
	n2 := r3.Cross(b2, b3)
	y := r3.Norm(b2) * r3.Dot(b1, n2)
	x := r3.Dot(n1, n2)
	return math.Atan2(y, x)
}
