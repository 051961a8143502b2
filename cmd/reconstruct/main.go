// Command reconstruct checks the curvature and speed estimates by
// re-integrating each scene's ground-truth path and reporting the error.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/banshee-data/trajectory.report/internal/dataset"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/monitor"
	"github.com/banshee-data/trajectory.report/internal/trajectory"
	"github.com/banshee-data/trajectory.report/internal/version"
)

var (
	dataroot    = flag.String("dataroot", "data/nuscenes", "Dataset root directory")
	dataVersion = flag.String("version", "v1.0-mini", "Dataset version subdirectory")
	sceneName   = flag.String("scene", "", "Process only this scene")
	plotDir     = flag.String("plot-dir", "", "Write interpolation plots here (disabled when empty)")
	versionInfo = flag.Bool("version-info", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *versionInfo {
		fmt.Println(version.String("reconstruct"))
		return
	}

	fs := fsutil.OSFileSystem{}
	ds, err := dataset.Open(fs, *dataroot, *dataVersion)
	if err != nil {
		log.Fatalf("Failed to open dataset: %v", err)
	}

	var plotter *monitor.TrajectoryPlotter
	if *plotDir != "" {
		if err := fs.MkdirAll(*plotDir, 0755); err != nil {
			log.Fatalf("Failed to create plot directory: %v", err)
		}
		plotter = monitor.NewTrajectoryPlotter(fs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tFRAMES\tRECON ADE (m)")
	for _, info := range ds.Scenes() {
		if *sceneName != "" && info.Name != *sceneName {
			continue
		}
		scene, err := ds.LoadScene(info.Name)
		if err != nil {
			log.Printf("Skipping scene %s: %v", info.Name, err)
			continue
		}
		truth := scene.Trajectory()
		if len(truth) < 2 {
			continue
		}
		recon := trajectory.Reconstruct(truth)
		fmt.Fprintf(w, "%s\t%d\t%.4f\n", scene.Name, len(truth), trajectory.ADE(recon, truth[1:], 0))

		if plotter != nil {
			path := filepath.Join(*plotDir, scene.Name+"_interpolation.jpg")
			full := append([]trajectory.Position{truth[0]}, recon...)
			if err := plotter.PlotReconstruction(path, scene.Name, truth, trajectory.Velocities(truth), full); err != nil {
				log.Fatalf("Failed to plot %s: %v", scene.Name, err)
			}
		}
	}
	w.Flush()
}
