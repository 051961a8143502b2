package trajectory

import "math"

// Integrate rolls (speed, curvature) pairs forward from start.
//
// For each step the heading advances by curvature*speed and the position
// then moves speed meters along the new heading. The start point is not
// part of the output: out[0] is the position after the first step.
//
// The number of steps is n, clamped to the shorter of curvatures and
// speeds; n <= 0 means "all available". Every output point carries
// start.Z. Negative speeds are integrated as given.
func Integrate(curvatures, speeds []float64, start Position, heading float64, n int) []Position {
	steps := min(len(curvatures), len(speeds))
	if n > 0 && n < steps {
		steps = n
	}

	out := make([]Position, steps)
	theta := heading
	x, y := start.X, start.Y
	for i := 0; i < steps; i++ {
		theta += curvatures[i] * speeds[i]
		x += speeds[i] * math.Cos(theta)
		y += speeds[i] * math.Sin(theta)
		out[i] = Position{X: x, Y: y, Z: start.Z}
	}
	return out
}

// Reconstruct re-integrates an observed trajectory from its own estimated
// curvature and speed, starting at points[0] with the heading of the first
// velocity. It is the sanity check that the (speed, curvature)
// parametrization can represent the observed motion.
func Reconstruct(points []Position) []Position {
	if len(points) == 0 {
		return nil
	}
	velocities := Velocities(points)
	return Integrate(EstimateCurvature(points), Speeds(velocities), points[0], Heading(velocities[0]), len(points))
}
