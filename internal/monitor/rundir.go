package monitor

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
)

// MakeRunOutputDir creates base/<YYYYmmdd-HHMMSS> stamped with the clock's
// current time and returns its path.
func MakeRunOutputDir(fs fsutil.FileSystem, base string, clock timeutil.Clock) (string, error) {
	dir := filepath.Join(base, clock.Now().Format(timeutil.RunStampLayout))
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return dir, nil
}
