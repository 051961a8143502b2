// Package overlay draws projected trajectories onto camera frames.
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory.report/internal/camera"
	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// Projector maps a world point to the image plane.
type Projector interface {
	Project(world r3.Vec) camera.Projection
}

// Options control how a trajectory is rendered.
type Options struct {
	Enabled      bool
	Color        color.Color
	LineWidth    float64
	MarkerRadius float64
}

// DefaultOptions draws a red polyline three pixels wide.
func DefaultOptions() Options {
	return Options{
		Enabled:      true,
		Color:        color.RGBA{R: 255, A: 255},
		LineWidth:    3,
		MarkerRadius: 4,
	}
}

// Draw projects points into img and strokes every pair of consecutive
// points that are both visible. A visible point with no visible neighbour
// is drawn as a filled circle. Points behind the camera or outside the
// image are skipped.
//
// It returns true when at least one point is visible. With Enabled false
// the image is left untouched but the return value is unchanged.
func Draw(img *image.RGBA, points []trajectory.Position, proj Projector, opts Options) bool {
	if img == nil || len(points) == 0 {
		return false
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	projected := make([]camera.Projection, len(points))
	visible := make([]bool, len(points))
	drawable := false
	for i, p := range points {
		projected[i] = proj.Project(p.Vec())
		visible[i] = projected[i].Within(w, h)
		drawable = drawable || visible[i]
	}
	if !drawable || !opts.Enabled {
		return drawable
	}

	dc := gg.NewContextForRGBA(img)
	dc.SetColor(opts.Color)
	dc.SetLineWidth(opts.LineWidth)
	dc.SetLineCap(gg.LineCapRound)

	for i := 0; i+1 < len(points); i++ {
		if !visible[i] || !visible[i+1] {
			continue
		}
		a, b := projected[i], projected[i+1]
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}

	for i := range points {
		if !visible[i] {
			continue
		}
		if (i > 0 && visible[i-1]) || (i+1 < len(points) && visible[i+1]) {
			continue
		}
		dc.DrawCircle(projected[i].X, projected[i].Y, opts.MarkerRadius)
		dc.Fill()
	}
	return true
}

// ToRGBA returns img as an *image.RGBA with origin (0, 0), copying when
// the concrete type or bounds differ.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
