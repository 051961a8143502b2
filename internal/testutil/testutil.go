// Package testutil provides shared test helpers and geometric fixtures.
//
// Fixtures return plain gonum vectors so that packages under test can use
// them from internal tests without import cycles.
package testutil

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// LinePoints returns n points starting at the origin and advancing step
// meters per index along heading (radians).
func LinePoints(n int, step, heading float64) []r3.Vec {
	out := make([]r3.Vec, n)
	for i := range out {
		d := float64(i) * step
		out[i] = r3.Vec{X: d * math.Cos(heading), Y: d * math.Sin(heading)}
	}
	return out
}

// ArcPoints returns n points on a circle of the given radius, starting at
// the origin heading along +X and spaced by arc length step. Positive
// radius turns left, negative turns right.
func ArcPoints(n int, radius, step float64) []r3.Vec {
	out := make([]r3.Vec, n)
	dphi := step / radius
	for i := range out {
		phi := float64(i) * dphi
		out[i] = r3.Vec{X: radius * math.Sin(phi), Y: radius * (1 - math.Cos(phi))}
	}
	return out
}

// FrontCameraRotation is the nuScenes CAM_FRONT extrinsic rotation
// (camera to ego): optical axis along ego +X, image right along ego -Y.
func FrontCameraRotation() quat.Number {
	return quat.Number{Real: 0.5, Imag: -0.5, Jmag: 0.5, Kmag: -0.5}
}

// FrontCameraTranslation is the CAM_FRONT mounting point in the ego frame.
func FrontCameraTranslation() r3.Vec {
	return r3.Vec{X: 1.5, Y: 0, Z: 1.5}
}

// FrontCameraIntrinsics returns fx, fy, ppx, ppy for a 1600x900 sensor.
func FrontCameraIntrinsics() (fx, fy, ppx, ppy float64) {
	return 1266, 1266, 816, 491
}

// SolidImage returns a w x h RGBA image filled with c.
func SolidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
