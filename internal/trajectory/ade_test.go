package trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestADE(t *testing.T) {
	t.Parallel()

	truth := make([]Position, 10)
	pred := make([]Position, 10)
	for i := range truth {
		truth[i] = Position{X: float64(i)}
		pred[i] = Position{X: float64(i) + 3, Y: 4, Z: 100}
	}

	t.Run("constant offset", func(t *testing.T) {
		t.Parallel()
		errs := EvaluateHorizons(pred, truth)
		assert.InDelta(t, 5, errs.ADE1s, 1e-12)
		assert.InDelta(t, 5, errs.ADE2s, 1e-12)
		assert.InDelta(t, 5, errs.ADE3s, 1e-12)
		assert.InDelta(t, 5, errs.Overall, 1e-12)
	})

	t.Run("horizon window uses leading steps", func(t *testing.T) {
		t.Parallel()
		grow := make([]Position, 10)
		for i := range grow {
			grow[i] = Position{X: float64(i), Y: float64(i)}
		}
		// errors 0,1,2,...,9
		errs := EvaluateHorizons(grow, truth)
		assert.InDelta(t, 0.5, errs.ADE1s, 1e-12)
		assert.InDelta(t, 1.5, errs.ADE2s, 1e-12)
		assert.InDelta(t, 2.5, errs.ADE3s, 1e-12)
		assert.InDelta(t, 4.5, errs.Overall, 1e-12)
	})

	t.Run("short prediction uses the overlap", func(t *testing.T) {
		t.Parallel()
		errs := EvaluateHorizons(pred[:3], truth)
		assert.InDelta(t, 5, errs.ADE3s, 1e-12)
		assert.InDelta(t, 5, errs.Overall, 1e-12)
	})

	t.Run("no overlap is NaN", func(t *testing.T) {
		t.Parallel()
		assert.True(t, math.IsNaN(ADE(nil, truth, 2)))
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("zero frames", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, SceneSummary{}, Summarize(nil))
	})

	t.Run("averages skip NaN", func(t *testing.T) {
		t.Parallel()
		s := Summarize([]HorizonErrors{
			{ADE1s: 1, ADE2s: 2, ADE3s: 3, Overall: 4},
			{ADE1s: 3, ADE2s: math.NaN(), ADE3s: 5, Overall: 6},
		})
		assert.Equal(t, 2, s.Frames)
		assert.InDelta(t, 2, s.ADE1s, 1e-12)
		assert.InDelta(t, 2, s.ADE2s, 1e-12)
		assert.InDelta(t, 4, s.ADE3s, 1e-12)
		assert.InDelta(t, 8.0/3, s.Average, 1e-12)
	})
}
