package trajectory

import "math"

// degenerateDenominator is the smallest product of segment lengths treated
// as a real turn. Anything below it is a zero-length or colinear triple.
const degenerateDenominator = 1e-12

// EstimateCurvature returns one signed curvature per input position.
//
// Interior values use the three-point (Menger) estimate
//
//	k = 2 * cross(v1, v2) / (|v1| * |v2| * |v1 + v2|)
//
// with v1 = P[i]-P[i-1] and v2 = P[i+1]-P[i]. Positive k is a left turn.
// The first and last positions reuse their nearest interior value.
// Fewer than three positions yield all zeros.
func EstimateCurvature(points []Position) []float64 {
	n := len(points)
	curvatures := make([]float64, n)
	if n < 3 {
		return curvatures
	}

	for i := 1; i < n-1; i++ {
		curvatures[i] = threePointCurvature(points[i-1], points[i], points[i+1])
	}
	curvatures[0] = curvatures[1]
	curvatures[n-1] = curvatures[n-2]
	return curvatures
}

func threePointCurvature(a, b, c Position) float64 {
	v1x, v1y := b.X-a.X, b.Y-a.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y

	cross := v1x*v2y - v1y*v2x
	denom := math.Hypot(v1x, v1y) * math.Hypot(v2x, v2y) * math.Hypot(v1x+v2x, v1y+v2y)
	if denom < degenerateDenominator || cross == 0 {
		return 0
	}

	k := 2 * cross / denom
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0
	}
	return k
}
