// Package monitor renders run diagnostics: top-down trajectory plots and
// HTML charts of the per-frame displacement errors.
package monitor

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

var (
	truthColor      = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	velocityColor   = color.RGBA{R: 30, G: 70, B: 220, A: 255}
	reconColor      = color.RGBA{R: 20, G: 160, B: 60, A: 255}
	predictionColor = color.RGBA{R: 30, G: 70, B: 220, A: 255}
)

// TrajectoryPlotter writes top-down (x, y) trajectory plots as JPEG files.
type TrajectoryPlotter struct {
	fs     fsutil.FileSystem
	Width  vg.Length
	Height vg.Length
	// ArrowScale multiplies velocities before they are drawn.
	ArrowScale float64
}

// NewTrajectoryPlotter returns a plotter writing through fs.
func NewTrajectoryPlotter(fs fsutil.FileSystem) *TrajectoryPlotter {
	return &TrajectoryPlotter{
		fs:         fs,
		Width:      8 * vg.Inch,
		Height:     8 * vg.Inch,
		ArrowScale: 1,
	}
}

// PlotReconstruction draws the ground truth path, its per-step velocity
// arrows and the path rebuilt from speed and curvature.
func (tp *TrajectoryPlotter) PlotReconstruction(path, title string, truth, velocities, recon []trajectory.Position) error {
	p := newTopDownPlot(title)

	if err := addPath(p, "ground truth", truth, truthColor); err != nil {
		return err
	}
	if n := min(len(truth), len(velocities)); n > 0 {
		a := &arrows{LineStyle: draw.LineStyle{Color: velocityColor, Width: vg.Points(1)}, Head: vg.Points(4)}
		for i := 0; i < n; i++ {
			from := plotter.XY{X: truth[i].X, Y: truth[i].Y}
			a.from = append(a.from, from)
			a.to = append(a.to, plotter.XY{
				X: from.X + velocities[i].X*tp.ArrowScale,
				Y: from.Y + velocities[i].Y*tp.ArrowScale,
			})
		}
		p.Add(a)
		p.Legend.Add("velocity", a)
	}
	if err := addPath(p, "reconstruction", recon, reconColor); err != nil {
		return err
	}
	return tp.save(p, path)
}

// PlotPrediction draws the future ground truth against a predicted path
// and puts the overall ADE in the title. A NaN ade is left out.
func (tp *TrajectoryPlotter) PlotPrediction(path, title string, truth, pred []trajectory.Position, ade float64) error {
	if !math.IsNaN(ade) {
		title = fmt.Sprintf("%s (ADE %.2f m)", title, ade)
	}
	p := newTopDownPlot(title)
	if err := addPath(p, "ground truth", truth, truthColor); err != nil {
		return err
	}
	if err := addPath(p, "prediction", pred, predictionColor); err != nil {
		return err
	}
	return tp.save(p, path)
}

func (tp *TrajectoryPlotter) save(p *plot.Plot, path string) error {
	wt, err := p.WriterTo(tp.Width, tp.Height, "jpg")
	if err != nil {
		return fmt.Errorf("render plot %s: %w", path, err)
	}
	f, err := tp.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create plot %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write plot %s: %w", path, err)
	}
	return f.Close()
}

func newTopDownPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

// addPath adds a line with point markers. Empty paths are skipped.
func addPath(p *plot.Plot, name string, pts []trajectory.Position, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("%s line: %w", name, err)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	points.Color = c
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(2)
	p.Add(line, points)
	p.Legend.Add(name, line, points)
	return nil
}

// arrows draws one arrow per from/to pair.
type arrows struct {
	draw.LineStyle
	Head vg.Length

	from, to plotter.XYs
}

// Plot implements plot.Plotter.
func (a *arrows) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i := range a.from {
		x0, y0 := trX(a.from[i].X), trY(a.from[i].Y)
		x1, y1 := trX(a.to[i].X), trY(a.to[i].Y)
		if x0 == x1 && y0 == y1 {
			continue
		}
		c.StrokeLine2(a.LineStyle, x0, y0, x1, y1)

		angle := math.Atan2(float64(y1-y0), float64(x1-x0))
		for _, side := range []float64{1, -1} {
			ha := angle + math.Pi - side*math.Pi/6
			hx := x1 + vg.Length(float64(a.Head)*math.Cos(ha))
			hy := y1 + vg.Length(float64(a.Head)*math.Sin(ha))
			c.StrokeLine2(a.LineStyle, x1, y1, hx, hy)
		}
	}
}

// DataRange implements plot.DataRanger.
func (a *arrows) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, xys := range []plotter.XYs{a.from, a.to} {
		for _, pt := range xys {
			xmin, xmax = math.Min(xmin, pt.X), math.Max(xmax, pt.X)
			ymin, ymax = math.Min(ymin, pt.Y), math.Max(ymax, pt.Y)
		}
	}
	return xmin, xmax, ymin, ymax
}

// Thumbnail implements plot.Thumbnailer for the legend entry.
func (a *arrows) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(a.LineStyle, c.Min.X, y, c.Max.X, y)
}
