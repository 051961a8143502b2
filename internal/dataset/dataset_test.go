package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
)

const (
	testRoot    = "/data/nuscenes"
	testVersion = "v1.0-mini"
)

func writeTable(t *testing.T, fs *fsutil.MemoryFileSystem, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile(filepath.Join(testRoot, testVersion, name+".json"), data, 0644))
}

// buildFixture writes a two-scene dataset: scene-0001 has three samples
// with all six cameras, scene-0002 has one sample missing CAM_BACK.
func buildFixture(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fs := fsutil.NewMemoryFileSystem()

	var (
		sensors []sensorRecord
		calibs  []calibratedSensorRecord
		samples []sampleRecord
		data    []sampleDataRecord
		poses   []egoPoseRecord
	)
	k := [][]float64{{1266, 0, 816}, {0, 1266, 491}, {0, 0, 1}}
	for i, ch := range CameraChannels {
		sensors = append(sensors, sensorRecord{Token: "sensor-" + ch, Channel: ch, Modality: "camera"})
		calibs = append(calibs, calibratedSensorRecord{
			Token:       "calib-" + ch,
			Sensor:      "sensor-" + ch,
			Rotation:    []float64{0.5, -0.5, 0.5, -0.5},
			Translation: []float64{1.5, float64(i), 1.5},
			Intrinsic:   k,
		})
	}
	sensors = append(sensors, sensorRecord{Token: "sensor-LIDAR_TOP", Channel: "LIDAR_TOP", Modality: "lidar"})

	addSample := func(scene, token, prev, next string, ts int64, x float64, channels []string) {
		samples = append(samples, sampleRecord{Token: token, Timestamp: ts, Prev: prev, Next: next, Scene: scene})
		pose := "pose-" + token
		poses = append(poses, egoPoseRecord{Token: pose, Timestamp: ts, Rotation: []float64{1, 0, 0, 0}, Translation: []float64{x, 2 * x, 0}})
		for _, ch := range channels {
			data = append(data, sampleDataRecord{
				Token:            fmt.Sprintf("sd-%s-%s", token, ch),
				Sample:           token,
				EgoPose:          pose,
				CalibratedSensor: "calib-" + ch,
				Timestamp:        ts,
				IsKeyFrame:       true,
				Width:            1600,
				Height:           900,
				Filename:         fmt.Sprintf("samples/%s/%s.jpg", ch, token),
			})
		}
		// Sweeps between key frames are ignored.
		data = append(data, sampleDataRecord{
			Token:            "sweep-" + token,
			Sample:           token,
			EgoPose:          pose,
			CalibratedSensor: "calib-" + CamFront,
			Timestamp:        ts + 50,
			Filename:         "sweeps/CAM_FRONT/" + token + ".jpg",
		})
	}
	addSample("scene-a", "s1", "", "s2", 100, 0, CameraChannels)
	addSample("scene-a", "s2", "s1", "s3", 200, 1, CameraChannels)
	addSample("scene-a", "s3", "s2", "", 300, 2, CameraChannels)
	addSample("scene-b", "t1", "", "", 400, 5, []string{CamFront, CamFrontLeft, CamFrontRight, CamBackLeft, CamBackRight})

	writeTable(t, fs, "scene", []sceneRecord{
		{Token: "scene-a", Name: "scene-0001", Description: "Straight road, light traffic", FirstSample: "s1", LastSample: "s3", NumberOfSamples: 3},
		{Token: "scene-b", Name: "scene-0002", Description: "Night", FirstSample: "t1", LastSample: "t1", NumberOfSamples: 1},
	})
	writeTable(t, fs, "sample", samples)
	writeTable(t, fs, "sample_data", data)
	writeTable(t, fs, "ego_pose", poses)
	writeTable(t, fs, "calibrated_sensor", calibs)
	writeTable(t, fs, "sensor", sensors)

	require.NoError(t, fs.WriteFile(filepath.Join(testRoot, "samples/CAM_FRONT/s1.jpg"), []byte{0xff, 0xd8}, 0644))
	return fs
}

func TestOpen_Scenes(t *testing.T) {
	t.Parallel()

	d, err := Open(buildFixture(t), testRoot, testVersion)
	require.NoError(t, err)

	scenes := d.Scenes()
	require.Len(t, scenes, 2)
	assert.Equal(t, SceneInfo{Name: "scene-0001", Token: "scene-a", Description: "Straight road, light traffic", Samples: 3}, scenes[0])
	assert.Equal(t, "scene-0002", scenes[1].Name)
}

func TestOpen_MissingTable(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	writeTable(t, fs, "scene", []sceneRecord{})
	_, err := Open(fs, testRoot, testVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read sample table")
}

func TestOpen_BadJSON(t *testing.T) {
	t.Parallel()

	fs := buildFixture(t)
	require.NoError(t, fs.WriteFile(filepath.Join(testRoot, testVersion, "ego_pose.json"), []byte("{"), 0644))
	_, err := Open(fs, testRoot, testVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse ego_pose table")
}

func TestLoadScene(t *testing.T) {
	t.Parallel()

	d, err := Open(buildFixture(t), testRoot, testVersion)
	require.NoError(t, err)

	scene, err := d.LoadScene("scene-0001")
	require.NoError(t, err)
	assert.Equal(t, "scene-0001", scene.Name)
	assert.Equal(t, "scene-a", scene.Token)
	require.Len(t, scene.Frames, 3)

	for i, f := range scene.Frames {
		assert.Equal(t, fmt.Sprintf("s%d", i+1), f.SampleToken)
		assert.Equal(t, int64(100*(i+1)), f.Timestamp)
		assert.Len(t, f.Images, 6)
	}

	first := scene.Frames[0]
	assert.Equal(t, []string{
		"samples/CAM_FRONT/s1.jpg",
		"samples/CAM_FRONT_LEFT/s1.jpg",
		"samples/CAM_FRONT_RIGHT/s1.jpg",
		"samples/CAM_BACK/s1.jpg",
		"samples/CAM_BACK_LEFT/s1.jpg",
		"samples/CAM_BACK_RIGHT/s1.jpg",
	}, first.ImagePaths())

	// Calibration comes from the front camera.
	cal := first.Calibration
	assert.Equal(t, 1.5, cal.Translation.X)
	assert.Equal(t, 0.0, cal.Translation.Y)
	assert.Equal(t, 0.5, cal.Rotation.Real)
	assert.Equal(t, -0.5, cal.Rotation.Imag)
	assert.Equal(t, 1266.0, cal.Intrinsics.Fx)
	assert.Equal(t, 491.0, cal.Intrinsics.Ppy)
	assert.Equal(t, 1600, cal.Intrinsics.Width)
	assert.Equal(t, 900, cal.Intrinsics.Height)

	assert.Equal(t, 1.0, first.EgoPose.Rotation.Real)

	traj := scene.Trajectory()
	require.Len(t, traj, 3)
	assert.Equal(t, 2.0, traj[2].X)
	assert.Equal(t, 4.0, traj[2].Y)
	assert.Equal(t, 0.0, traj[2].Z)
}

func TestLoadScene_Errors(t *testing.T) {
	t.Parallel()

	d, err := Open(buildFixture(t), testRoot, testVersion)
	require.NoError(t, err)

	_, err = d.LoadScene("scene-9999")
	assert.True(t, errors.Is(err, ErrSceneNotFound))

	_, err = d.LoadScene("scene-0002")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CAM_BACK key frame")
}

func TestLoadScene_CyclicChain(t *testing.T) {
	t.Parallel()

	fs := buildFixture(t)
	samples := []sampleRecord{
		{Token: "s1", Timestamp: 100, Next: "s2", Scene: "scene-a"},
		{Token: "s2", Timestamp: 200, Prev: "s1", Next: "s1", Scene: "scene-a"},
		{Token: "s3", Timestamp: 300, Prev: "s2", Scene: "scene-a"},
		{Token: "t1", Timestamp: 400, Scene: "scene-b"},
	}
	writeTable(t, fs, "sample", samples)

	d, err := Open(fs, testRoot, testVersion)
	require.NoError(t, err)
	_, err = d.LoadScene("scene-0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not terminate")
}

func TestReadImage(t *testing.T) {
	t.Parallel()

	d, err := Open(buildFixture(t), testRoot, testVersion)
	require.NoError(t, err)

	data, err := d.ReadImage("samples/CAM_FRONT/s1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)

	_, err = d.ReadImage("samples/CAM_BACK/s1.jpg")
	assert.Error(t, err)

	for _, bad := range []string{"../etc/passwd", "samples/../../secret.jpg", "/etc/passwd", ""} {
		_, err := d.ReadImage(bad)
		assert.Error(t, err, bad)
	}
}
