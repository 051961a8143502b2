// Package dataset reads driving scenes from a nuScenes-style directory of
// JSON tables: ego poses, camera calibrations and key-frame image paths
// for every sample of a scene.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/trajectory.report/internal/camera"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/security"
	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

var logf = monitoring.Component("dataset")

// ErrSceneNotFound is returned by LoadScene for an unknown scene name.
var ErrSceneNotFound = errors.New("scene not found")

// Camera channels in the order the oracle expects the six views.
const (
	CamFront      = "CAM_FRONT"
	CamFrontLeft  = "CAM_FRONT_LEFT"
	CamFrontRight = "CAM_FRONT_RIGHT"
	CamBack       = "CAM_BACK"
	CamBackLeft   = "CAM_BACK_LEFT"
	CamBackRight  = "CAM_BACK_RIGHT"
)

// CameraChannels lists the six surround cameras in prompt order.
var CameraChannels = []string{CamFront, CamFrontLeft, CamFrontRight, CamBack, CamBackLeft, CamBackRight}

type sceneRecord struct {
	Token           string `json:"token"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	FirstSample     string `json:"first_sample_token"`
	LastSample      string `json:"last_sample_token"`
	NumberOfSamples int    `json:"nbr_samples"`
}

type sampleRecord struct {
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
	Prev      string `json:"prev"`
	Next      string `json:"next"`
	Scene     string `json:"scene_token"`
}

type sampleDataRecord struct {
	Token            string `json:"token"`
	Sample           string `json:"sample_token"`
	EgoPose          string `json:"ego_pose_token"`
	CalibratedSensor string `json:"calibrated_sensor_token"`
	Timestamp        int64  `json:"timestamp"`
	IsKeyFrame       bool   `json:"is_key_frame"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Filename         string `json:"filename"`
	channel          string
	calibration      *calibratedSensorRecord
}

type egoPoseRecord struct {
	Token       string    `json:"token"`
	Timestamp   int64     `json:"timestamp"`
	Rotation    []float64 `json:"rotation"`
	Translation []float64 `json:"translation"`
}

type calibratedSensorRecord struct {
	Token       string      `json:"token"`
	Sensor      string      `json:"sensor_token"`
	Rotation    []float64   `json:"rotation"`
	Translation []float64   `json:"translation"`
	Intrinsic   [][]float64 `json:"camera_intrinsic"`
}

type sensorRecord struct {
	Token    string `json:"token"`
	Channel  string `json:"channel"`
	Modality string `json:"modality"`
}

// SceneInfo summarizes one scene without loading its frames.
type SceneInfo struct {
	Name        string
	Token       string
	Description string
	Samples     int
}

// Dataset is an indexed, read-only view of one dataset version.
type Dataset struct {
	fs       fsutil.FileSystem
	dataroot string
	version  string

	scenes     []sceneRecord
	sceneIndex map[string]int
	samples    map[string]sampleRecord
	egoPoses   map[string]egoPoseRecord
	// keyFrames maps sample token -> channel -> key-frame sample data.
	keyFrames map[string]map[string]sampleDataRecord
}

// Open reads and indexes the tables under dataroot/version.
func Open(fsys fsutil.FileSystem, dataroot, version string) (*Dataset, error) {
	d := &Dataset{
		fs:         fsys,
		dataroot:   dataroot,
		version:    version,
		sceneIndex: make(map[string]int),
		samples:    make(map[string]sampleRecord),
		egoPoses:   make(map[string]egoPoseRecord),
		keyFrames:  make(map[string]map[string]sampleDataRecord),
	}

	var (
		samples    []sampleRecord
		sampleData []sampleDataRecord
		poses      []egoPoseRecord
		calibs     []calibratedSensorRecord
		sensors    []sensorRecord
	)
	tables := []struct {
		name string
		dst  interface{}
	}{
		{"scene", &d.scenes},
		{"sample", &samples},
		{"sample_data", &sampleData},
		{"ego_pose", &poses},
		{"calibrated_sensor", &calibs},
		{"sensor", &sensors},
	}
	for _, t := range tables {
		if err := d.loadTable(t.name, t.dst); err != nil {
			return nil, err
		}
	}

	for i, s := range d.scenes {
		d.sceneIndex[s.Name] = i
	}
	for _, s := range samples {
		d.samples[s.Token] = s
	}
	for _, p := range poses {
		d.egoPoses[p.Token] = p
	}

	channels := make(map[string]string, len(sensors))
	for _, s := range sensors {
		channels[s.Token] = s.Channel
	}
	calibByToken := make(map[string]*calibratedSensorRecord, len(calibs))
	for i := range calibs {
		calibByToken[calibs[i].Token] = &calibs[i]
	}

	for _, sd := range sampleData {
		if !sd.IsKeyFrame {
			continue
		}
		cs, ok := calibByToken[sd.CalibratedSensor]
		if !ok {
			continue
		}
		sd.channel = channels[cs.Sensor]
		sd.calibration = cs
		byChannel, ok := d.keyFrames[sd.Sample]
		if !ok {
			byChannel = make(map[string]sampleDataRecord)
			d.keyFrames[sd.Sample] = byChannel
		}
		byChannel[sd.channel] = sd
	}

	logf("%s loaded %d scenes, %d samples", version, len(d.scenes), len(d.samples))
	return d, nil
}

func (d *Dataset) loadTable(name string, dst interface{}) error {
	path := filepath.Join(d.dataroot, d.version, name+".json")
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s table: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s table: %w", name, err)
	}
	return nil
}

// Scenes lists every scene in table order.
func (d *Dataset) Scenes() []SceneInfo {
	out := make([]SceneInfo, len(d.scenes))
	for i, s := range d.scenes {
		out[i] = SceneInfo{Name: s.Name, Token: s.Token, Description: s.Description, Samples: s.NumberOfSamples}
	}
	return out
}

// LoadScene walks the scene's samples from first to last and collects the
// six camera views, the front camera's ego pose and its calibration.
func (d *Dataset) LoadScene(name string) (*Scene, error) {
	idx, ok := d.sceneIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, name)
	}
	rec := d.scenes[idx]
	scene := &Scene{Name: rec.Name, Token: rec.Token, Description: rec.Description}

	token := rec.FirstSample
	for steps := 0; token != ""; steps++ {
		if steps > len(d.samples) {
			return nil, fmt.Errorf("scene %s: sample chain does not terminate", name)
		}
		sample, ok := d.samples[token]
		if !ok {
			return nil, fmt.Errorf("scene %s: unknown sample %s", name, token)
		}
		frame, err := d.frame(sample)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", name, err)
		}
		scene.Frames = append(scene.Frames, frame)

		if token == rec.LastSample {
			break
		}
		token = sample.Next
	}
	return scene, nil
}

func (d *Dataset) frame(sample sampleRecord) (Frame, error) {
	byChannel := d.keyFrames[sample.Token]
	f := Frame{SampleToken: sample.Token, Timestamp: sample.Timestamp, Images: make(map[string]string, len(CameraChannels))}
	for _, ch := range CameraChannels {
		sd, ok := byChannel[ch]
		if !ok {
			return Frame{}, fmt.Errorf("sample %s has no %s key frame", sample.Token, ch)
		}
		f.Images[ch] = sd.Filename
	}

	front := byChannel[CamFront]
	pose, ok := d.egoPoses[front.EgoPose]
	if !ok {
		return Frame{}, fmt.Errorf("sample %s: unknown ego pose %s", sample.Token, front.EgoPose)
	}
	f.EgoPose = camera.EgoPose{
		Translation: camera.Vec(pose.Translation),
		Rotation:    camera.Quaternion(pose.Rotation),
	}

	cs := front.calibration
	intrinsics, err := camera.IntrinsicsFromMatrix(cs.Intrinsic, front.Width, front.Height)
	if err != nil {
		return Frame{}, fmt.Errorf("sample %s calibration %s: %w", sample.Token, cs.Token, err)
	}
	f.Calibration = camera.Calibration{
		Translation: camera.Vec(cs.Translation),
		Rotation:    camera.Quaternion(cs.Rotation),
		Intrinsics:  intrinsics,
	}
	return f, nil
}

// ReadImage returns the bytes of an image referenced by a frame. The path
// is relative to the dataroot and may not escape it.
func (d *Dataset) ReadImage(rel string) ([]byte, error) {
	path, err := security.JoinWithin(d.dataroot, rel)
	if err != nil {
		return nil, err
	}
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", rel, err)
	}
	return data, nil
}

// Frame is one key-frame sample.
type Frame struct {
	SampleToken string
	Timestamp   int64
	// Images maps camera channel to the image path relative to the dataroot.
	Images      map[string]string
	EgoPose     camera.EgoPose
	Calibration camera.Calibration
}

// ImagePaths returns the six view paths in CameraChannels order.
func (f Frame) ImagePaths() []string {
	out := make([]string, len(CameraChannels))
	for i, ch := range CameraChannels {
		out[i] = f.Images[ch]
	}
	return out
}

// Scene is an ordered run of frames.
type Scene struct {
	Name        string
	Token       string
	Description string
	Frames      []Frame
}

// Trajectory returns the ego positions of every frame in the world frame.
func (s *Scene) Trajectory() []trajectory.Position {
	out := make([]trajectory.Position, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = trajectory.FromVec(f.EgoPose.Translation)
	}
	return out
}
