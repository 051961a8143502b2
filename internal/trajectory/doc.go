// Package trajectory owns the planar geometry of ego-vehicle paths.
//
// Responsibilities: finite-difference velocities, signed three-point
// curvature estimation, forward integration of (speed, curvature) pairs
// back into positions, and displacement-error evaluation of predicted
// paths against ground truth.
//
// Everything in this package is pure and allocation-local: no shared
// state, no I/O, no errors. Degenerate input produces a well-defined
// (possibly zero or empty) result rather than a failure.
//
// Units: positions are meters, curvature is 1/m, speed is meters per
// timestep. The engine operates on indices, not wall-clock time.
package trajectory
