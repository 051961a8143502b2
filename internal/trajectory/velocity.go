package trajectory

import "math"

// Velocities returns per-step displacement vectors V[t] = P[t] - P[t-1].
// The first velocity has no backward difference and copies the second,
// keeping the result aligned index-for-index with points.
func Velocities(points []Position) []Position {
	out := make([]Position, len(points))
	if len(points) < 2 {
		return out
	}
	for t := 1; t < len(points); t++ {
		out[t] = points[t].Sub(points[t-1])
	}
	out[0] = out[1]
	return out
}

// Speeds returns the Euclidean norm of each velocity (meters per step).
func Speeds(velocities []Position) []float64 {
	out := make([]float64, len(velocities))
	for i, v := range velocities {
		out[i] = v.Norm()
	}
	return out
}

// Heading returns the planar direction of v in radians.
func Heading(v Position) float64 {
	return math.Atan2(v.Y, v.X)
}
