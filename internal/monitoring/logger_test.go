package monitoring

import (
	"fmt"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)

	Logf("frame %d", 3)
	if len(*lines) != 1 || (*lines)[0] != "frame 3" {
		t.Fatalf("custom logger got %q", *lines)
	}

	SetLogger(nil)
	Logf("muted")
	if len(*lines) != 1 {
		t.Errorf("no-op logger should not reach the previous logger, got %q", *lines)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
}

func TestComponent(t *testing.T) {
	logf := Component("pipeline")
	lines := capture(t)

	logf("scene %s has %d frames", "scene-0061", 39)
	want := "pipeline: scene scene-0061 has 39 frames"
	if len(*lines) != 1 || (*lines)[0] != want {
		t.Errorf("Component logger got %q, want %q", *lines, want)
	}

	SetLogger(nil)
	logf("dropped")
	if len(*lines) != 1 {
		t.Errorf("Component logger should follow SetLogger, got %q", *lines)
	}
}
