package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// Run describes one invocation of the prediction pipeline.
type Run struct {
	RunID     string
	Model     string
	OutputDir string
	ObsLen    int
	FutLen    int
	Started   time.Time
}

// FrameEvaluation is the ADE outcome of one prediction window.
type FrameEvaluation struct {
	RunID      string
	Scene      string
	FrameIndex int
	Errors     trajectory.HorizonErrors
	// Fallback is set when the oracle answer had no pairs.
	Fallback bool
	Intent   string
	Raw      string
}

// SceneResult is the aggregated ADE of a scene within a run.
type SceneResult struct {
	RunID   string
	Scene   string
	Token   string
	Summary trajectory.SceneSummary
}

// StartRun inserts a run row with a fresh id and returns it.
func (db *DB) StartRun(r Run) (Run, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Started.IsZero() {
		r.Started = time.Now()
	}
	_, err := db.Exec(
		`INSERT INTO runs (run_id, model, output_dir, obs_len, fut_len, started_unix) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Model, r.OutputDir, r.ObsLen, r.FutLen, float64(r.Started.UnixNano())/1e9,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// GetRun loads a run by id.
func (db *DB) GetRun(runID string) (Run, error) {
	var (
		r       Run
		started float64
	)
	err := db.QueryRow(
		`SELECT run_id, model, output_dir, obs_len, fut_len, started_unix FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &r.Model, &r.OutputDir, &r.ObsLen, &r.FutLen, &started)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	sec := int64(started)
	r.Started = time.Unix(sec, int64((started-float64(sec))*1e9))
	return r, nil
}

// RecordFrame upserts one frame evaluation. NaN errors are stored as NULL.
func (db *DB) RecordFrame(e FrameEvaluation) error {
	_, err := db.Exec(`
		INSERT INTO frame_evaluations
			(run_id, scene_name, frame_index, ade_1s, ade_2s, ade_3s, ade_overall, fallback, intent, raw_answer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, scene_name, frame_index) DO UPDATE SET
			ade_1s = excluded.ade_1s,
			ade_2s = excluded.ade_2s,
			ade_3s = excluded.ade_3s,
			ade_overall = excluded.ade_overall,
			fallback = excluded.fallback,
			intent = excluded.intent,
			raw_answer = excluded.raw_answer`,
		e.RunID, e.Scene, e.FrameIndex,
		nullable(e.Errors.ADE1s), nullable(e.Errors.ADE2s), nullable(e.Errors.ADE3s), nullable(e.Errors.Overall),
		e.Fallback, e.Intent, e.Raw,
	)
	if err != nil {
		return fmt.Errorf("record frame %s/%d: %w", e.Scene, e.FrameIndex, err)
	}
	return nil
}

// RecordScene upserts the summary of a scene.
func (db *DB) RecordScene(r SceneResult) error {
	_, err := db.Exec(`
		INSERT INTO scene_results (run_id, scene_name, scene_token, frames, ade_1s, ade_2s, ade_3s, avg_ade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, scene_name) DO UPDATE SET
			scene_token = excluded.scene_token,
			frames = excluded.frames,
			ade_1s = excluded.ade_1s,
			ade_2s = excluded.ade_2s,
			ade_3s = excluded.ade_3s,
			avg_ade = excluded.avg_ade`,
		r.RunID, r.Scene, r.Token, r.Summary.Frames,
		nullable(r.Summary.ADE1s), nullable(r.Summary.ADE2s), nullable(r.Summary.ADE3s), nullable(r.Summary.Average),
	)
	if err != nil {
		return fmt.Errorf("record scene %s: %w", r.Scene, err)
	}
	return nil
}

// SceneResults returns the scene summaries of a run ordered by scene name.
func (db *DB) SceneResults(runID string) ([]SceneResult, error) {
	rows, err := db.Query(`
		SELECT run_id, scene_name, scene_token, frames, ade_1s, ade_2s, ade_3s, avg_ade
		FROM scene_results WHERE run_id = ? ORDER BY scene_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query scene results: %w", err)
	}
	defer rows.Close()

	var out []SceneResult
	for rows.Next() {
		var r SceneResult
		var one, two, three, avg sql.NullFloat64
		if err := rows.Scan(&r.RunID, &r.Scene, &r.Token, &r.Summary.Frames, &one, &two, &three, &avg); err != nil {
			return nil, err
		}
		r.Summary.ADE1s = fromNullable(one)
		r.Summary.ADE2s = fromNullable(two)
		r.Summary.ADE3s = fromNullable(three)
		r.Summary.Average = fromNullable(avg)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FrameEvaluations returns the evaluations of one scene in frame order.
func (db *DB) FrameEvaluations(runID, scene string) ([]FrameEvaluation, error) {
	rows, err := db.Query(`
		SELECT run_id, scene_name, frame_index, ade_1s, ade_2s, ade_3s, ade_overall, fallback, intent, raw_answer
		FROM frame_evaluations WHERE run_id = ? AND scene_name = ? ORDER BY frame_index`, runID, scene)
	if err != nil {
		return nil, fmt.Errorf("query frame evaluations: %w", err)
	}
	defer rows.Close()

	var out []FrameEvaluation
	for rows.Next() {
		var e FrameEvaluation
		var one, two, three, overall sql.NullFloat64
		if err := rows.Scan(&e.RunID, &e.Scene, &e.FrameIndex, &one, &two, &three, &overall, &e.Fallback, &e.Intent, &e.Raw); err != nil {
			return nil, err
		}
		e.Errors = trajectory.HorizonErrors{
			ADE1s:   fromNullable(one),
			ADE2s:   fromNullable(two),
			ADE3s:   fromNullable(three),
			Overall: fromNullable(overall),
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
