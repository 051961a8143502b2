package trajectory

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Horizon is an evaluation window measured in future steps.
type Horizon struct {
	Name  string
	Steps int
}

// DefaultHorizons are the 1s/2s/3s windows at the nuScenes 2 Hz keyframe
// rate.
var DefaultHorizons = []Horizon{
	{Name: "ade_1s", Steps: 2},
	{Name: "ade_2s", Steps: 4},
	{Name: "ade_3s", Steps: 6},
}

// HorizonErrors holds the displacement errors of one prediction.
type HorizonErrors struct {
	ADE1s   float64 `json:"ade_1s"`
	ADE2s   float64 `json:"ade_2s"`
	ADE3s   float64 `json:"ade_3s"`
	Overall float64 `json:"overall_ade"`
}

// ADE returns the mean planar distance between pred[k] and truth[k] over
// the first steps indices shared by both. A non-positive steps means the
// full overlap. Returns NaN when there is nothing to compare.
func ADE(pred, truth []Position, steps int) float64 {
	n := min(len(pred), len(truth))
	if steps > 0 && steps < n {
		n = steps
	}
	if n == 0 {
		return math.NaN()
	}

	distances := make([]float64, n)
	for k := 0; k < n; k++ {
		distances[k] = pred[k].PlanarDistance(truth[k])
	}
	return stat.Mean(distances, nil)
}

// EvaluateHorizons computes the per-horizon and overall ADE of pred.
func EvaluateHorizons(pred, truth []Position) HorizonErrors {
	return HorizonErrors{
		ADE1s:   ADE(pred, truth, DefaultHorizons[0].Steps),
		ADE2s:   ADE(pred, truth, DefaultHorizons[1].Steps),
		ADE3s:   ADE(pred, truth, DefaultHorizons[2].Steps),
		Overall: ADE(pred, truth, 0),
	}
}

// SceneSummary aggregates per-frame horizon errors.
type SceneSummary struct {
	ADE1s   float64 `json:"avg_ade_1s"`
	ADE2s   float64 `json:"avg_ade_2s"`
	ADE3s   float64 `json:"avg_ade_3s"`
	Average float64 `json:"avg_ade"`
	Frames  int     `json:"frames"`
}

// Summarize averages frame errors per horizon, skipping NaN entries.
// Average is the mean of the three horizon means. Zero frames produce a
// zero summary.
func Summarize(frames []HorizonErrors) SceneSummary {
	if len(frames) == 0 {
		return SceneSummary{}
	}
	var one, two, three []float64
	for _, f := range frames {
		one = appendFinite(one, f.ADE1s)
		two = appendFinite(two, f.ADE2s)
		three = appendFinite(three, f.ADE3s)
	}
	s := SceneSummary{
		ADE1s:  meanOrZero(one),
		ADE2s:  meanOrZero(two),
		ADE3s:  meanOrZero(three),
		Frames: len(frames),
	}
	s.Average = (s.ADE1s + s.ADE2s + s.ADE3s) / 3
	return s
}

func appendFinite(dst []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dst
	}
	return append(dst, v)
}

func meanOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
