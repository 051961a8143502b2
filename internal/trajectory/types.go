package trajectory

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CurvatureScale converts internal curvature (1/m) to the wire unit used
// when exchanging pairs with the oracle model. Wire values are ×100 so the
// numbers stay human readable.
const CurvatureScale = 100.0

// Position is a point in a world or ego-relative Cartesian frame, in meters.
// Planar algorithms read X and Y only; Z is carried through unchanged.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FromVec converts a gonum vector into a Position.
func FromVec(v r3.Vec) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}

// FromSlice builds a Position from the first three values of s.
// Missing components are zero.
func FromSlice(s []float64) Position {
	var p Position
	if len(s) > 0 {
		p.X = s[0]
	}
	if len(s) > 1 {
		p.Y = s[1]
	}
	if len(s) > 2 {
		p.Z = s[2]
	}
	return p
}

// Vec returns p as a gonum vector.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Sub returns p - q.
func (p Position) Sub(q Position) Position {
	return FromVec(r3.Sub(p.Vec(), q.Vec()))
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Position) Norm() float64 {
	return r3.Norm(p.Vec())
}

// PlanarDistance returns the x/y distance between p and q.
func (p Position) PlanarDistance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// SpeedCurvature is the atomic unit exchanged with the oracle model.
// Whether Curvature is in wire (×CurvatureScale) or internal units is
// decided by the caller; the helpers below make the conversion explicit.
type SpeedCurvature struct {
	Speed     float64 `json:"speed"`
	Curvature float64 `json:"curvature"`
}

// Internal returns the pair with curvature converted from wire units to 1/m.
func (sc SpeedCurvature) Internal() SpeedCurvature {
	return SpeedCurvature{Speed: sc.Speed, Curvature: sc.Curvature / CurvatureScale}
}

// Pairs zips speeds and curvatures (internal units) into wire-unit pairs,
// truncated to the shorter input.
func Pairs(speeds, curvatures []float64) []SpeedCurvature {
	n := min(len(speeds), len(curvatures))
	out := make([]SpeedCurvature, n)
	for i := 0; i < n; i++ {
		out[i] = SpeedCurvature{Speed: speeds[i], Curvature: curvatures[i] * CurvatureScale}
	}
	return out
}

// SeriesFromWire splits wire-unit pairs into speeds and internal-unit
// curvatures ready for Integrate.
func SeriesFromWire(pairs []SpeedCurvature) (speeds, curvatures []float64) {
	speeds = make([]float64, len(pairs))
	curvatures = make([]float64, len(pairs))
	for i, p := range pairs {
		speeds[i] = p.Speed
		curvatures[i] = p.Curvature / CurvatureScale
	}
	return speeds, curvatures
}
