package camera

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// EgoPose places the ego vehicle in the world: a point in the ego frame
// maps to the world as R*p + Translation.
type EgoPose struct {
	Translation r3.Vec
	Rotation    quat.Number
}

// Calibration places a camera on the ego vehicle (camera to ego) and
// describes its optics. Distortion may be nil.
type Calibration struct {
	Translation r3.Vec
	Rotation    quat.Number
	Intrinsics  Intrinsics
	Distortion  Distorter
}

// Quaternion builds a rotation from (w, x, y, z) order, the order used by
// the calibration tables.
func Quaternion(wxyz []float64) quat.Number {
	if len(wxyz) != 4 {
		return quat.Number{Real: 1}
	}
	return quat.Number{Real: wxyz[0], Imag: wxyz[1], Jmag: wxyz[2], Kmag: wxyz[3]}
}

// Vec builds a vector from the first three values of xyz.
func Vec(xyz []float64) r3.Vec {
	var v r3.Vec
	if len(xyz) > 0 {
		v.X = xyz[0]
	}
	if len(xyz) > 1 {
		v.Y = xyz[1]
	}
	if len(xyz) > 2 {
		v.Z = xyz[2]
	}
	return v
}

// unit normalizes q. A zero quaternion is treated as the identity.
func unit(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// inverseTransform maps p from the parent frame into the child frame
// described by (t, q): R^T (p - t).
func inverseTransform(p, t r3.Vec, q quat.Number) r3.Vec {
	inv := r3.Rotation(quat.Conj(unit(q)))
	return inv.Rotate(r3.Sub(p, t))
}
