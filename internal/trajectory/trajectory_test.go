package trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory.report/internal/testutil"
)

func positions(vs []r3.Vec) []Position {
	out := make([]Position, len(vs))
	for i, v := range vs {
		out[i] = FromVec(v)
	}
	return out
}

func TestEstimateCurvature(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		points []Position
		want   []float64
	}{
		{
			name:   "empty",
			points: nil,
			want:   []float64{},
		},
		{
			name:   "two points",
			points: []Position{{X: 0}, {X: 1}},
			want:   []float64{0, 0},
		},
		{
			name:   "left turn is positive",
			points: []Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			want:   []float64{math.Sqrt2, math.Sqrt2, math.Sqrt2},
		},
		{
			name:   "right turn is negative",
			points: []Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: -1}},
			want:   []float64{-math.Sqrt2, -math.Sqrt2, -math.Sqrt2},
		},
		{
			name:   "colinear",
			points: []Position{{X: 0}, {X: 1}, {X: 2}, {X: 3}},
			want:   []float64{0, 0, 0, 0},
		},
		{
			name:   "repeated point",
			points: []Position{{X: 0}, {X: 0}, {X: 1, Y: 1}},
			want:   []float64{0, 0, 0},
		},
		{
			name:   "z is ignored",
			points: []Position{{X: 0, Z: 5}, {X: 1, Z: -3}, {X: 1, Y: 1, Z: 9}},
			want:   []float64{math.Sqrt2, math.Sqrt2, math.Sqrt2},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := EstimateCurvature(tc.points)
			require.Len(t, got, len(tc.want))
			assert.InDeltaSlice(t, tc.want, got, 1e-12)
		})
	}
}

func TestEstimateCurvature_Arc(t *testing.T) {
	t.Parallel()

	t.Run("left arc recovers inverse radius", func(t *testing.T) {
		t.Parallel()
		k := EstimateCurvature(positions(testutil.ArcPoints(15, 50, 1)))
		for i, v := range k {
			assert.InDelta(t, 1.0/50, v, 1e-9, "index %d", i)
		}
	})

	t.Run("right arc is negative", func(t *testing.T) {
		t.Parallel()
		k := EstimateCurvature(positions(testutil.ArcPoints(15, -20, 1)))
		for i, v := range k {
			assert.InDelta(t, -1.0/20, v, 1e-9, "index %d", i)
		}
	})

	t.Run("boundaries copy interior neighbours", func(t *testing.T) {
		t.Parallel()
		pts := []Position{{X: 0}, {X: 1}, {X: 2, Y: 1}, {X: 2, Y: 3}, {X: 1, Y: 4}}
		k := EstimateCurvature(pts)
		require.Len(t, k, 5)
		assert.Equal(t, k[1], k[0])
		assert.Equal(t, k[3], k[4])
	})
}

func TestVelocitiesAndSpeeds(t *testing.T) {
	t.Parallel()

	t.Run("first velocity copies second", func(t *testing.T) {
		t.Parallel()
		v := Velocities([]Position{{X: 0}, {X: 3, Y: 4}, {X: 6, Y: 8, Z: 1}})
		require.Len(t, v, 3)
		assert.Equal(t, Position{X: 3, Y: 4}, v[0])
		assert.Equal(t, v[1], v[0])
		assert.Equal(t, Position{X: 3, Y: 4, Z: 1}, v[2])

		s := Speeds(v)
		assert.InDeltaSlice(t, []float64{5, 5, math.Sqrt(26)}, s, 1e-12)
	})

	t.Run("single point has zero velocity", func(t *testing.T) {
		t.Parallel()
		v := Velocities([]Position{{X: 7, Y: 7}})
		assert.Equal(t, []Position{{}}, v)
	})

	t.Run("heading", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, math.Pi/2, Heading(Position{Y: 2}), 1e-12)
		assert.InDelta(t, math.Pi, Heading(Position{X: -1}), 1e-12)
	})
}

func TestIntegrate(t *testing.T) {
	t.Parallel()

	t.Run("length is bounded by the shorter input", func(t *testing.T) {
		t.Parallel()
		k := []float64{0.1, 0.1}
		s := []float64{1, 1, 1}
		assert.Len(t, Integrate(k, s, Position{}, 0, 0), 2)
		assert.Len(t, Integrate(k, s, Position{}, 0, -4), 2)
		assert.Len(t, Integrate(k, s, Position{}, 0, 1), 1)
		assert.Len(t, Integrate(k, s, Position{}, 0, 5), 2)
	})

	t.Run("empty input gives empty output", func(t *testing.T) {
		t.Parallel()
		out := Integrate(nil, []float64{1}, Position{}, 0, 3)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("heading is applied before the step", func(t *testing.T) {
		t.Parallel()
		out := Integrate([]float64{0}, []float64{1}, Position{X: 2, Y: 3, Z: 4}, math.Pi/2, 0)
		require.Len(t, out, 1)
		assert.InDelta(t, 2, out[0].X, 1e-12)
		assert.InDelta(t, 4, out[0].Y, 1e-12)
		assert.Equal(t, 4.0, out[0].Z)
	})

	t.Run("straight line advances by speed per step", func(t *testing.T) {
		t.Parallel()
		const v = 2.5
		k := make([]float64, 8)
		s := make([]float64, 8)
		for i := range s {
			s[i] = v
		}
		start := Position{X: 1, Y: -1, Z: 0.5}
		out := Integrate(k, s, start, math.Pi/4, 0)
		for i, p := range out {
			assert.InDelta(t, float64(i+1)*v, p.PlanarDistance(start), 1e-9, "step %d", i)
			assert.Equal(t, start.Z, p.Z)
		}
	})

	t.Run("constant curvature closes the circle", func(t *testing.T) {
		t.Parallel()
		const steps = 20
		k := make([]float64, steps)
		s := make([]float64, steps)
		for i := range k {
			k[i] = 0.1
			s[i] = math.Pi
		}
		out := Integrate(k, s, Position{}, 0, 0)
		require.Len(t, out, steps)
		assert.InDelta(t, 0, out[steps-1].X, 1e-9)
		assert.InDelta(t, 0, out[steps-1].Y, 1e-9)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		k := []float64{0.01, -0.02, 0.03}
		s := []float64{1, 2, 3}
		assert.Equal(t, Integrate(k, s, Position{X: 1}, 0.3, 0), Integrate(k, s, Position{X: 1}, 0.3, 0))
	})
}

func TestReconstruct(t *testing.T) {
	t.Parallel()

	t.Run("straight line is exact", func(t *testing.T) {
		t.Parallel()
		pts := positions(testutil.LinePoints(10, 2, 0.4))
		out := Reconstruct(pts)
		require.Len(t, out, len(pts))
		for i := 0; i < len(pts)-1; i++ {
			assert.InDelta(t, 0, out[i].PlanarDistance(pts[i+1]), 1e-9, "step %d", i)
		}
	})

	t.Run("gentle arc stays close", func(t *testing.T) {
		t.Parallel()
		pts := positions(testutil.ArcPoints(20, 50, 1))
		out := Reconstruct(pts)
		require.Len(t, out, len(pts))

		maxErr := 0.0
		for i := 0; i < len(pts)-1; i++ {
			maxErr = math.Max(maxErr, out[i].PlanarDistance(pts[i+1]))
		}
		assert.Less(t, maxErr, 0.5)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Reconstruct(nil))
	})
}

func TestWirePairs(t *testing.T) {
	t.Parallel()

	pairs := Pairs([]float64{5, 6, 7}, []float64{0.01, -0.02})
	require.Len(t, pairs, 2)
	assert.InDelta(t, 1.0, pairs[0].Curvature, 1e-12)
	assert.InDelta(t, -2.0, pairs[1].Curvature, 1e-12)

	speeds, curvatures := SeriesFromWire(pairs)
	assert.Equal(t, []float64{5, 6}, speeds)
	assert.InDeltaSlice(t, []float64{0.01, -0.02}, curvatures, 1e-12)
}

func TestFromSlice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Position{X: 1, Y: 2, Z: 3}, FromSlice([]float64{1, 2, 3, 4}))
	assert.Equal(t, Position{X: 1}, FromSlice([]float64{1}))
}
