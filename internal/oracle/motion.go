package oracle

import (
	"context"
	"fmt"

	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// MotionRequest is the input of one prediction step.
type MotionRequest struct {
	Model string
	// Images are the six synchronized JPEG views in camera order.
	Images [][]byte
	// Speeds and Curvatures are the observed history, curvature in 1/m.
	Speeds     []float64
	Curvatures []float64
	// PrevIntent is the intent returned for the previous frame, if any.
	PrevIntent string
	Horizon    int
}

// Motion is the model's answer for one prediction step.
type Motion struct {
	Raw        string
	Prediction []trajectory.SpeedCurvature
	Scene      string
	Objects    string
	Intent     string
}

// GenerateMotion asks the model to describe the scene, the critical
// objects and its intent, then feeds those descriptions and the observed
// history into the motion prompt. Prediction holds the parsed pairs in
// wire units; it is empty when the answer contains none.
func GenerateMotion(ctx context.Context, o Oracle, req MotionRequest) (Motion, error) {
	describe := func(what, prompt string) (string, error) {
		text, err := o.Complete(ctx, Request{Model: req.Model, System: DefaultSystem, Prompt: prompt, Images: req.Images})
		if err != nil {
			return "", fmt.Errorf("%s description: %w", what, err)
		}
		return text, nil
	}

	var m Motion
	var err error
	if m.Scene, err = describe("scene", ScenePrompt()); err != nil {
		return Motion{}, err
	}
	if m.Objects, err = describe("object", ObjectsPrompt()); err != nil {
		return Motion{}, err
	}
	if m.Intent, err = describe("intent", IntentPrompt(req.PrevIntent)); err != nil {
		return Motion{}, err
	}

	history := FormatPairs(req.Speeds, req.Curvatures)
	logf("observed speed and curvature: %s", history)

	m.Raw, err = o.Complete(ctx, Request{
		Model:  req.Model,
		System: MotionSystem(req.Horizon),
		Prompt: MotionPrompt(m.Scene, m.Objects, m.Intent, history, req.Horizon),
		Images: req.Images,
	})
	if err != nil {
		return Motion{}, fmt.Errorf("motion: %w", err)
	}
	m.Prediction = ParsePairs(m.Raw)
	return m, nil
}
