package camera

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinDepth is the smallest camera-frame depth, in meters, that still
// projects. Points at or behind it are reported invalid.
const MinDepth = 1e-6

// Projection is the image-plane location of one world point.
type Projection struct {
	X     float64
	Y     float64
	Depth float64
	Valid bool
}

// Within reports whether a valid projection lands inside a width x height
// image.
func (p Projection) Within(width, height int) bool {
	return p.Valid &&
		p.X >= 0 && p.X < float64(width) &&
		p.Y >= 0 && p.Y < float64(height)
}

// Projector maps world points to pixels through a fixed ego pose and
// camera calibration.
type Projector struct {
	pose  EgoPose
	calib Calibration
	k     *mat.Dense
}

// NewProjector validates the intrinsics and returns a projector.
func NewProjector(pose EgoPose, calib Calibration) (*Projector, error) {
	if err := calib.Intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return &Projector{pose: pose, calib: calib, k: calib.Intrinsics.Matrix()}, nil
}

// Calibration returns the camera calibration used by p.
func (p *Projector) Calibration() Calibration {
	return p.calib
}

// CameraFrame transforms a world point into the camera frame.
func (p *Projector) CameraFrame(world r3.Vec) r3.Vec {
	ego := inverseTransform(world, p.pose.Translation, p.pose.Rotation)
	return inverseTransform(ego, p.calib.Translation, p.calib.Rotation)
}

// Project returns the pixel location of world. It never fails; points at
// or behind MinDepth come back with Valid false.
func (p *Projector) Project(world r3.Vec) Projection {
	cam := p.CameraFrame(world)
	if cam.Z <= MinDepth {
		return Projection{Depth: cam.Z}
	}

	x, y := cam.X/cam.Z, cam.Y/cam.Z
	if p.calib.Distortion != nil {
		x, y = p.calib.Distortion.Transform(x, y)
	}

	var px mat.VecDense
	px.MulVec(p.k, mat.NewVecDense(3, []float64{x, y, 1}))
	return Projection{X: px.AtVec(0), Y: px.AtVec(1), Depth: cam.Z, Valid: true}
}

// ProjectAll projects each point in order.
func (p *Projector) ProjectAll(world []r3.Vec) []Projection {
	out := make([]Projection, len(world))
	for i, w := range world {
		out[i] = p.Project(w)
	}
	return out
}
