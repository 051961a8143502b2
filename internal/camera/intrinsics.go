// Package camera projects 3D world points into the pixel plane of a
// calibrated pinhole camera mounted on the ego vehicle.
package camera

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidIntrinsics is returned when intrinsic parameters cannot form a
// usable camera matrix.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsics")

// Intrinsics holds the pinhole parameters and sensor size in pixels.
type Intrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// IntrinsicsFromMatrix reads fx, fy, ppx, ppy from a row-major 3x3 camera
// matrix as stored in calibration tables.
func IntrinsicsFromMatrix(k [][]float64, width, height int) (Intrinsics, error) {
	if len(k) != 3 {
		return Intrinsics{}, fmt.Errorf("%w: camera matrix has %d rows", ErrInvalidIntrinsics, len(k))
	}
	for i, row := range k {
		if len(row) != 3 {
			return Intrinsics{}, fmt.Errorf("%w: camera matrix row %d has %d columns", ErrInvalidIntrinsics, i, len(row))
		}
	}
	in := Intrinsics{
		Width:  width,
		Height: height,
		Fx:     k[0][0],
		Fy:     k[1][1],
		Ppx:    k[0][2],
		Ppy:    k[1][2],
	}
	return in, in.CheckValid()
}

// CheckValid reports whether the focal lengths are usable. A zero size is
// allowed: projection does not need it, only bounds checks do.
func (in Intrinsics) CheckValid() error {
	if in.Fx <= 0 {
		return fmt.Errorf("%w: focal length fx = %v", ErrInvalidIntrinsics, in.Fx)
	}
	if in.Fy <= 0 {
		return fmt.Errorf("%w: focal length fy = %v", ErrInvalidIntrinsics, in.Fy)
	}
	if in.Width < 0 || in.Height < 0 {
		return fmt.Errorf("%w: size (%d, %d)", ErrInvalidIntrinsics, in.Width, in.Height)
	}
	return nil
}

// Matrix returns the 3x3 camera matrix K.
func (in Intrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.Fx, 0, in.Ppx,
		0, in.Fy, in.Ppy,
		0, 0, 1,
	})
}
