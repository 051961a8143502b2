package pipeline

import (
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/security"
	"github.com/banshee-data/trajectory.report/internal/trajectory"
)

// artifacts writes per-run files under one directory.
type artifacts struct {
	fs  fsutil.FileSystem
	dir string
}

// path joins name onto the run directory, refusing names that escape it.
func (a artifacts) path(name string) (string, error) {
	return security.JoinWithin(a.dir, name)
}

func (a artifacts) writeFile(name string, data []byte) error {
	p, err := a.path(name)
	if err != nil {
		return err
	}
	if err := a.fs.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (a artifacts) writeJPEG(name string, img image.Image, quality int) error {
	p, err := a.path(name)
	if err != nil {
		return err
	}
	f, err := a.fs.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}

// writeNPY stores val (a []float64 or a gonum matrix) in NumPy format.
func (a artifacts) writeNPY(name string, val interface{}) error {
	p, err := a.path(name)
	if err != nil {
		return err
	}
	f, err := a.fs.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := npyio.Write(f, val); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}

// appendJSONL appends v as one JSON line.
func (a artifacts) appendJSONL(name string, v interface{}) error {
	p, err := a.path(name)
	if err != nil {
		return err
	}
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := a.fs.AppendFile(p, append(line, '\n'), 0644); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

// positionsMatrix lays positions out as an N x 3 matrix.
func positionsMatrix(pts []trajectory.Position) *mat.Dense {
	if len(pts) == 0 {
		return nil
	}
	data := make([]float64, 0, 3*len(pts))
	for _, p := range pts {
		data = append(data, p.X, p.Y, p.Z)
	}
	return mat.NewDense(len(pts), 3, data)
}

// frameLog renders the per-frame description file.
func frameLog(scene, objects, intent string, ade float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene Description: %s\n", scene)
	fmt.Fprintf(&b, "Object Description: %s\n", objects)
	fmt.Fprintf(&b, "Intent Description: %s\n", intent)
	fmt.Fprintf(&b, "Average Displacement Error: %v\n", ade)
	return b.String()
}

// viewSuffixes name the raw views in camera channel order.
var viewSuffixes = []string{"front", "front_left", "front_right", "back", "back_left", "back_right"}

// sceneFile names a per-scene artifact. Scene names come from the dataset
// and may hold separators, so they are sanitized first.
func sceneFile(scene, suffix string) string {
	return security.SanitizeFilename(scene) + suffix
}

func frameName(scene string, i int, suffix string) string {
	return sceneFile(scene, fmt.Sprintf("_%d_%s", i, suffix))
}
