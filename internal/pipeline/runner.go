// Package pipeline runs the prediction loop over a scene: it slides an
// observation window along the ego trajectory, asks the oracle for future
// speed and curvature, rebuilds the predicted path and scores it against
// the ground truth.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/banshee-data/trajectory.report/internal/camera"
	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/dataset"
	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/monitor"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/oracle"
	"github.com/banshee-data/trajectory.report/internal/overlay"
	"github.com/banshee-data/trajectory.report/internal/trajectory"
	"github.com/banshee-data/trajectory.report/internal/video"
)

var logf = monitoring.Component("pipeline")

const (
	interimFile = "interim_results.jsonl"
	resultsFile = "ade_results.jsonl"
	jpegQuality = 90
)

// ImageSource returns the bytes of a dataset image.
type ImageSource interface {
	ReadImage(rel string) ([]byte, error)
}

// Encoder turns overlay frames into a video at stem + extension.
type Encoder interface {
	Encode(ctx context.Context, frames []image.Image, stem string) (bool, error)
}

// Store persists evaluation results.
type Store interface {
	RecordFrame(db.FrameEvaluation) error
	RecordScene(db.SceneResult) error
}

// Runner processes scenes into one run directory. Oracle, Images and FS
// are required; Encoder and Store may be nil.
type Runner struct {
	Config    *config.RunConfig
	Oracle    oracle.Oracle
	Images    ImageSource
	FS        fsutil.FileSystem
	OutputDir string
	Annotator overlay.Annotator
	Encoder   Encoder
	Store     Store
	RunID     string

	plotter *monitor.TrajectoryPlotter
}

// NewRunner returns a runner with the default annotator, an ffmpeg
// encoder at the configured frame rate and no store.
func NewRunner(cfg *config.RunConfig, o oracle.Oracle, images ImageSource, fs fsutil.FileSystem, outputDir string) *Runner {
	if cfg == nil {
		cfg = &config.RunConfig{}
	}
	return &Runner{
		Config:    cfg,
		Oracle:    o,
		Images:    images,
		FS:        fs,
		OutputDir: outputDir,
		Annotator: overlay.NopAnnotator{},
		Encoder:   video.NewEncoder(cfg.GetVideoFPS()),
		plotter:   monitor.NewTrajectoryPlotter(fs),
	}
}

// FrameResult is the outcome of one prediction window.
type FrameResult struct {
	Index int
	// Prediction is the integrated future path in world coordinates.
	Prediction []trajectory.Position
	// Speeds and Curvatures are the predicted controls, curvature in 1/m.
	Speeds     []float64
	Curvatures []float64
	Errors     trajectory.HorizonErrors
	// Fallback is set when the oracle answer held no pairs.
	Fallback bool
	// Visible is set when the prediction projected into the front image.
	Visible bool
	Motion  oracle.Motion
}

// SceneResult summarizes a processed scene.
type SceneResult struct {
	Name    string
	Token   string
	Skipped bool
	Frames  []FrameResult
	Summary trajectory.SceneSummary
	// ReconstructionADE compares the whole-scene reconstruction with the
	// ground truth.
	ReconstructionADE float64
	Video             bool
}

type interimRecord struct {
	Name            string  `json:"name"`
	Token           string  `json:"token"`
	FramesProcessed int     `json:"frames_processed"`
	ADE1s           float64 `json:"ade1s"`
	ADE2s           float64 `json:"ade2s"`
	ADE3s           float64 `json:"ade3s"`
}

type resultRecord struct {
	Name   string  `json:"name"`
	Token  string  `json:"token"`
	ADE1s  float64 `json:"ade1s"`
	ADE2s  float64 `json:"ade2s"`
	ADE3s  float64 `json:"ade3s"`
	AvgADE float64 `json:"avgade"`
}

// RunScene predicts and scores every window of scene. Scenes shorter than
// obs_len+fut_len are skipped. An oracle failure skips its frame; a
// cancelled context stops the scene with the context error.
func (r *Runner) RunScene(ctx context.Context, scene *dataset.Scene) (*SceneResult, error) {
	cfg := r.Config
	obs, fut := cfg.GetObsLen(), cfg.GetFutLen()
	n := len(scene.Frames)
	res := &SceneResult{Name: scene.Name, Token: scene.Token, ReconstructionADE: math.NaN()}

	logf("scene %s has %d frames", scene.Name, n)
	if n < obs+fut {
		logf("scene %s has less than %d frames, skipping", scene.Name, obs+fut)
		res.Skipped = true
		return res, nil
	}

	out := artifacts{fs: r.FS, dir: r.OutputDir}
	plot := cfg.GetPlot()

	truth := scene.Trajectory()
	velocities := trajectory.Velocities(truth)
	speeds := trajectory.Speeds(velocities)
	curvatures := trajectory.EstimateCurvature(truth)

	recon := trajectory.Reconstruct(truth)
	res.ReconstructionADE = trajectory.ADE(recon, truth[1:], 0)
	if plot {
		p, err := out.path(sceneFile(scene.Name, "_interpolation.jpg"))
		if err != nil {
			return nil, err
		}
		if err := r.plotter.PlotReconstruction(p, scene.Name, truth, velocities, append([]trajectory.Position{truth[0]}, recon...)); err != nil {
			return nil, err
		}
	}

	windows := n - obs - fut
	if limit := cfg.GetMaxFrames(); limit > 0 && windows > limit {
		windows = limit
	}

	var (
		prevIntent string
		errs       []trajectory.HorizonErrors
		chart      []monitor.FrameADE
		sequence   []image.Image
	)
	for i := 0; i < windows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logf("scene %s frame %d/%d", scene.Name, i+1, windows)

		fr, img, views, err := r.runFrame(ctx, scene, i, prevIntent, truth, velocities, speeds, curvatures)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var oerr *oracleError
			if errors.As(err, &oerr) {
				logf("scene %s frame %d skipped: %v", scene.Name, i, err)
				continue
			}
			return nil, err
		}
		prevIntent = fr.Motion.Intent
		res.Frames = append(res.Frames, fr)
		errs = append(errs, fr.Errors)
		chart = append(chart, monitor.FrameADE{Frame: i, Errors: fr.Errors})

		if plot {
			sequence = append(sequence, img)
			if err := r.writeFrameArtifacts(out, scene.Name, i, fr, img, views, truth[i+obs:i+obs+fut]); err != nil {
				return nil, err
			}
		}

		if r.Store != nil {
			if err := r.Store.RecordFrame(db.FrameEvaluation{
				RunID:      r.RunID,
				Scene:      scene.Name,
				FrameIndex: i,
				Errors:     fr.Errors,
				Fallback:   fr.Fallback,
				Intent:     fr.Motion.Intent,
				Raw:        fr.Motion.Raw,
			}); err != nil {
				return nil, err
			}
		}

		if every := cfg.GetInterimEvery(); i > 0 && i%every == 0 {
			s := trajectory.Summarize(errs)
			if err := out.appendJSONL(interimFile, interimRecord{
				Name: scene.Name, Token: scene.Token, FramesProcessed: i + 1,
				ADE1s: s.ADE1s, ADE2s: s.ADE2s, ADE3s: s.ADE3s,
			}); err != nil {
				return nil, err
			}
			logf("saved interim results after %d frames", i+1)
		}
	}

	res.Summary = trajectory.Summarize(errs)
	if err := out.appendJSONL(resultsFile, resultRecord{
		Name: scene.Name, Token: scene.Token,
		ADE1s: res.Summary.ADE1s, ADE2s: res.Summary.ADE2s, ADE3s: res.Summary.ADE3s,
		AvgADE: res.Summary.Average,
	}); err != nil {
		return nil, err
	}
	if r.Store != nil {
		if err := r.Store.RecordScene(db.SceneResult{RunID: r.RunID, Scene: scene.Name, Token: scene.Token, Summary: res.Summary}); err != nil {
			return nil, err
		}
	}
	logf("scene %s ade1s=%.3f ade2s=%.3f ade3s=%.3f avg=%.3f",
		scene.Name, res.Summary.ADE1s, res.Summary.ADE2s, res.Summary.ADE3s, res.Summary.Average)

	if plot {
		var buf bytes.Buffer
		if err := monitor.WriteADEReport(&buf, scene.Name, chart, res.Summary); err != nil {
			return nil, err
		}
		if err := out.writeFile(sceneFile(scene.Name, "_ade.html"), buf.Bytes()); err != nil {
			return nil, err
		}
		if r.Encoder != nil {
			stem, err := out.path(sceneFile(scene.Name, ""))
			if err != nil {
				return nil, err
			}
			ok, err := r.Encoder.Encode(ctx, sequence, stem)
			switch {
			case errors.Is(err, video.ErrEncoderUnavailable):
				logf("%v; no video for %s", err, scene.Name)
			case err != nil:
				return nil, err
			}
			res.Video = ok
		}
	}
	return res, nil
}

// oracleError marks a per-frame oracle failure.
type oracleError struct{ err error }

func (e *oracleError) Error() string { return e.err.Error() }
func (e *oracleError) Unwrap() error { return e.err }

func (r *Runner) runFrame(ctx context.Context, scene *dataset.Scene, i int, prevIntent string,
	truth, velocities []trajectory.Position, speeds, curvatures []float64) (FrameResult, *image.RGBA, [][]byte, error) {
	cfg := r.Config
	obs, fut := cfg.GetObsLen(), cfg.GetFutLen()
	last := i + obs - 1
	frame := scene.Frames[last]

	paths := frame.ImagePaths()
	views := make([][]byte, len(paths))
	for k, p := range paths {
		data, err := r.Images.ReadImage(p)
		if err != nil {
			return FrameResult{}, nil, nil, fmt.Errorf("frame %d: %w", i, err)
		}
		views[k] = data
	}

	motion, err := oracle.GenerateMotion(ctx, r.Oracle, oracle.MotionRequest{
		Model:      cfg.GetModel(),
		Images:     views,
		Speeds:     speeds[i : i+obs],
		Curvatures: curvatures[i : i+obs],
		PrevIntent: prevIntent,
		Horizon:    fut,
	})
	if err != nil {
		return FrameResult{}, nil, nil, &oracleError{err: err}
	}

	fr := FrameResult{Index: i, Motion: motion}
	pairs := motion.Prediction
	if len(pairs) == 0 {
		logf("no pairs in answer %q, using fallback", motion.Raw)
		fr.Fallback = true
		pairs = make([]trajectory.SpeedCurvature, fut)
		for k := range pairs {
			pairs[k] = trajectory.SpeedCurvature{Speed: cfg.GetFallbackSpeed(), Curvature: cfg.GetFallbackCurvature()}
		}
	}
	if len(pairs) > fut {
		pairs = pairs[:fut]
	}
	fr.Speeds, fr.Curvatures = trajectory.SeriesFromWire(pairs)
	fr.Prediction = trajectory.Integrate(fr.Curvatures, fr.Speeds, truth[last], trajectory.Heading(velocities[last]), len(pairs))
	fr.Errors = trajectory.EvaluateHorizons(fr.Prediction, truth[i+obs:i+obs+fut])

	decoded, err := jpeg.Decode(bytes.NewReader(views[0]))
	if err != nil {
		return FrameResult{}, nil, nil, fmt.Errorf("frame %d: decode front image: %w", i, err)
	}
	img := overlay.ToRGBA(decoded)
	if r.Annotator != nil {
		if err := r.Annotator.Annotate(img, frame.Calibration); err != nil {
			logf("frame %d annotate: %v", i, err)
		}
	}
	proj, err := camera.NewProjector(frame.EgoPose, frame.Calibration)
	if err != nil {
		return FrameResult{}, nil, nil, fmt.Errorf("frame %d: %w", i, err)
	}
	opts := overlay.DefaultOptions()
	opts.Enabled = cfg.GetPlot()
	opts.LineWidth = cfg.GetLineWidth()
	opts.MarkerRadius = cfg.GetMarkerRadius()
	fr.Visible = overlay.Draw(img, fr.Prediction, proj, opts)

	return fr, img, views, nil
}

func (r *Runner) writeFrameArtifacts(out artifacts, name string, i int, fr FrameResult, img image.Image, views [][]byte, future []trajectory.Position) error {
	if err := out.writeJPEG(frameName(name, i, "front_cam.jpg"), img, jpegQuality); err != nil {
		return err
	}
	for k, suffix := range viewSuffixes {
		if err := out.writeFile(frameName(name, i, suffix+".jpg"), views[k]); err != nil {
			return err
		}
	}

	plotPath, err := out.path(frameName(name, i, "traj.jpg"))
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Scene: %s, Frame: %d", name, i)
	if err := r.plotter.PlotPrediction(plotPath, title, future, fr.Prediction, fr.Errors.Overall); err != nil {
		return err
	}

	if m := positionsMatrix(fr.Prediction); m != nil {
		if err := out.writeNPY(frameName(name, i, "pred_traj.npy"), m); err != nil {
			return err
		}
	}
	if err := out.writeNPY(frameName(name, i, "pred_curvatures.npy"), fr.Curvatures); err != nil {
		return err
	}
	if err := out.writeNPY(frameName(name, i, "pred_speeds.npy"), fr.Speeds); err != nil {
		return err
	}

	log := frameLog(fr.Motion.Scene, fr.Motion.Objects, fr.Motion.Intent, fr.Errors.Overall)
	return out.writeFile(frameName(name, i, "logs.txt"), []byte(log))
}
