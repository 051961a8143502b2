// Command predict runs the vision-language trajectory prediction pipeline
// over a nuScenes-style dataset and writes per-run artifacts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/dataset"
	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/httputil"
	"github.com/banshee-data/trajectory.report/internal/monitor"
	"github.com/banshee-data/trajectory.report/internal/oracle"
	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/security"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
	"github.com/banshee-data/trajectory.report/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to a run config JSON file")
	dataroot    = flag.String("dataroot", "data/nuscenes", "Dataset root directory")
	dataVersion = flag.String("version", "v1.0-mini", "Dataset version subdirectory")
	model       = flag.String("model", "", "Override the model name")
	sceneName   = flag.String("scene", "", "Process only this scene")
	maxFrames   = flag.Int("max-frames", 0, "Override the per-scene frame cap (0 means unlimited)")
	plot        = flag.Bool("plot", true, "Write plots, overlays and videos")
	outBase     = flag.String("out", "Qwen_results", "Base directory for run output")
	dbPath      = flag.String("db", "", "SQLite database for run results (disabled when empty)")
	versionInfo = flag.Bool("version-info", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *versionInfo {
		fmt.Println(version.String("predict"))
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	apiKey := os.Getenv(cfg.GetAPIKeyEnv())
	if apiKey == "" {
		log.Fatalf("%s is not set", cfg.GetAPIKeyEnv())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := fsutil.OSFileSystem{}
	ds, err := dataset.Open(fs, *dataroot, *dataVersion)
	if err != nil {
		log.Fatalf("Failed to open dataset: %v", err)
	}

	outputDir, err := monitor.MakeRunOutputDir(fs, *outBase, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	log.Printf("Writing results to %s", outputDir)

	client := httputil.NewStandardClient(cfg.GetRequestTimeout())
	o := oracle.NewHTTPOracle(oracle.Config{
		BaseURL:     cfg.GetBaseURL(),
		APIKey:      apiKey,
		MaxAttempts: cfg.GetMaxAttempts(),
	}, client, timeutil.RealClock{})

	runner := pipeline.NewRunner(cfg, o, ds, fs, outputDir)

	if *dbPath != "" {
		store, runID, err := openStore(*dbPath, outputDir, cfg)
		if err != nil {
			log.Fatalf("Failed to open results database: %v", err)
		}
		defer store.Close()
		runner.Store = store
		runner.RunID = runID
		log.Printf("Recording run %s in %s", runID, *dbPath)
	}

	processed := 0
	for _, info := range ds.Scenes() {
		if !cfg.WantsScene(info.Name) {
			continue
		}
		scene, err := ds.LoadScene(info.Name)
		if err != nil {
			log.Printf("Skipping scene %s: %v", info.Name, err)
			continue
		}
		res, err := runner.RunScene(ctx, scene)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Printf("Interrupted during scene %s", info.Name)
				break
			}
			log.Fatalf("Scene %s failed: %v", info.Name, err)
		}
		if res.Skipped {
			continue
		}
		processed++
		log.Printf("Scene %s: frames=%d ade1s=%.4f ade2s=%.4f ade3s=%.4f avg=%.4f",
			res.Name, len(res.Frames), res.Summary.ADE1s, res.Summary.ADE2s, res.Summary.ADE3s, res.Summary.Average)
	}
	log.Printf("Processed %d scenes", processed)
}

// loadConfig reads -config and applies overrides for the flags that were
// set explicitly. A missing default config file falls back to the
// built-in defaults; a missing explicit one is an error.
func loadConfig() (*config.RunConfig, error) {
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg := config.DefaultRunConfig()
	if _, err := os.Stat(*configPath); err == nil || explicit["config"] {
		loaded, err := config.LoadRunConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model = model
		case "scene":
			if *sceneName != "" {
				cfg.Scenes = []string{*sceneName}
			}
		case "max-frames":
			cfg.MaxFrames = maxFrames
		case "plot":
			cfg.Plot = plot
		}
	})
	return cfg, cfg.Validate()
}

func openStore(path, outputDir string, cfg *config.RunConfig) (*db.DB, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	if err := security.ValidateOutputPath(path, cwd, filepath.Dir(outputDir)); err != nil {
		return nil, "", err
	}
	store, err := db.Open(path)
	if err != nil {
		return nil, "", err
	}
	run, err := store.StartRun(db.Run{
		Model:     cfg.GetModel(),
		OutputDir: outputDir,
		ObsLen:    cfg.GetObsLen(),
		FutLen:    cfg.GetFutLen(),
	})
	if err != nil {
		store.Close()
		return nil, "", err
	}
	return store, run.RunID, nil
}
