package overlay

import (
	"image"

	"github.com/banshee-data/trajectory.report/internal/camera"
)

// Annotator decorates a frame before the trajectory is drawn, for example
// with 3D detection boxes from an external detector.
type Annotator interface {
	Annotate(img *image.RGBA, calib camera.Calibration) error
}

// NopAnnotator leaves frames untouched.
type NopAnnotator struct{}

// Annotate does nothing.
func (NopAnnotator) Annotate(*image.RGBA, camera.Calibration) error { return nil }
