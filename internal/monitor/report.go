package monitor

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// FrameADE is one point of the per-frame error chart.
type FrameADE struct {
	Frame  int
	Errors trajectory.HorizonErrors
}

// WriteADEReport renders an HTML page with the per-frame ADE curves of a
// scene and a bar chart of its horizon averages.
func WriteADEReport(w io.Writer, scene string, frames []FrameADE, summary trajectory.SceneSummary) error {
	xs := make([]int, len(frames))
	one := make([]opts.LineData, len(frames))
	two := make([]opts.LineData, len(frames))
	three := make([]opts.LineData, len(frames))
	overall := make([]opts.LineData, len(frames))
	for i, f := range frames {
		xs[i] = f.Frame
		one[i] = lineValue(f.Errors.ADE1s)
		two[i] = lineValue(f.Errors.ADE2s)
		three[i] = lineValue(f.Errors.ADE3s)
		overall[i] = lineValue(f.Errors.Overall)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: scene + " ADE", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Average displacement error", Subtitle: fmt.Sprintf("scene=%s frames=%d", scene, len(frames))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ADE (m)", NameLocation: "middle", NameGap: 35}),
	)
	line.SetXAxis(xs).
		AddSeries("1s", one).
		AddSeries("2s", two).
		AddSeries("3s", three).
		AddSeries("overall", overall)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Scene averages", Subtitle: fmt.Sprintf("avg=%.3f m", summary.Average)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"1s", "2s", "3s", "avg"}).
		AddSeries("ADE", []opts.BarData{
			{Value: summary.ADE1s},
			{Value: summary.ADE2s},
			{Value: summary.ADE3s},
			{Value: summary.Average},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.PageTitle = scene + " ADE"
	page.AddCharts(line, bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render ADE report: %w", err)
	}
	return nil
}

// lineValue maps NaN to the ECharts gap marker; NaN cannot be encoded as
// JSON.
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}
