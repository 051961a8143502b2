package oracle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// scriptedOracle answers requests in order and records them.
type scriptedOracle struct {
	mu       sync.Mutex
	answers  []string
	failAt   int
	requests []Request
}

func (s *scriptedOracle) Complete(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	n := len(s.requests)
	if n == s.failAt {
		return "", errors.New("upstream unavailable")
	}
	if n > len(s.answers) {
		return "", ErrEmptyResponse
	}
	return s.answers[n-1], nil
}

func TestGenerateMotion(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{answers: []string{
		"A straight two-lane road with a green light.",
		"Image 1 (Front view): a white van ahead.",
		"Keep lane and follow the van.",
		"Future speeds and curvatures: [4.0, 0.0], [4.2, 0.5]",
	}}
	images := [][]byte{{1}, {2}, {3}, {4}, {5}, {6}}

	m, err := GenerateMotion(context.Background(), o, MotionRequest{
		Model:      "test-model",
		Images:     images,
		Speeds:     []float64{4.1, 4.0},
		Curvatures: []float64{0.001, -0.002},
		PrevIntent: "Turn right at the junction.",
		Horizon:    10,
	})
	require.NoError(t, err)

	assert.Equal(t, "A straight two-lane road with a green light.", m.Scene)
	assert.Equal(t, "Image 1 (Front view): a white van ahead.", m.Objects)
	assert.Equal(t, "Keep lane and follow the van.", m.Intent)
	assert.Equal(t, []trajectory.SpeedCurvature{{Speed: 4.0, Curvature: 0}, {Speed: 4.2, Curvature: 0.5}}, m.Prediction)

	require.Len(t, o.requests, 4)
	for _, r := range o.requests {
		assert.Equal(t, "test-model", r.Model)
		assert.Len(t, r.Images, 6)
	}
	assert.Contains(t, o.requests[2].Prompt, "Turn right at the junction.")

	motion := o.requests[3]
	assert.Contains(t, motion.System, "next 10 timesteps")
	assert.Contains(t, motion.Prompt, "[4.1,0.1], [4.0,-0.2]")
	assert.Contains(t, motion.Prompt, "Keep lane and follow the van.")
	assert.True(t, strings.HasSuffix(motion.Prompt, AnswerLabel))
}

func TestGenerateMotion_UnparseableAnswer(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{answers: []string{"scene", "objects", "intent", "I am unable to predict this."}}
	m, err := GenerateMotion(context.Background(), o, MotionRequest{Horizon: 10})
	require.NoError(t, err)
	assert.NotNil(t, m.Prediction)
	assert.Empty(t, m.Prediction)
	assert.Equal(t, "I am unable to predict this.", m.Raw)
}

func TestGenerateMotion_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		failAt int
		want   string
	}{
		{name: "scene", failAt: 1, want: "scene description"},
		{name: "objects", failAt: 2, want: "object description"},
		{name: "intent", failAt: 3, want: "intent description"},
		{name: "motion", failAt: 4, want: "motion"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := &scriptedOracle{answers: []string{"a", "b", "c", "[1, 2]"}, failAt: tc.failAt}
			_, err := GenerateMotion(context.Background(), o, MotionRequest{Horizon: 10})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Len(t, o.requests, tc.failAt)
		})
	}
}

func TestIntentPrompt(t *testing.T) {
	t.Parallel()

	assert.NotContains(t, IntentPrompt(""), "previous")
	assert.NotContains(t, IntentPrompt("   "), "stated intention")
	assert.Contains(t, IntentPrompt("stop"), "stated intention was: stop")
	assert.Contains(t, ScenePrompt(), "Image 6: Back-right view")
	assert.Contains(t, ObjectsPrompt(), "road users")
}
