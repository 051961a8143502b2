// Package video assembles overlay frames into an H.264 clip by piping
// JPEG frames through ffmpeg.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/banshee-data/trajectory.report/internal/monitoring"
)

var logf = monitoring.Component("video")

// ErrEncoderUnavailable is returned when no ffmpeg binary can be found.
var ErrEncoderUnavailable = errors.New("video encoder unavailable")

// errReaderDone unblocks the frame writer once ffmpeg has exited.
var errReaderDone = errors.New("encoder input closed")

// DefaultFPS matches the 2 Hz key-frame rate of the dataset.
const DefaultFPS = 2

// Encoder writes frame sequences to <stem>.mp4.
type Encoder struct {
	FPS     float64
	Quality int

	lookPath func(file string) (string, error)
	run      func(stream *ffmpeg.Stream) error
}

// NewEncoder returns an encoder at fps frames per second. Non-positive fps
// falls back to DefaultFPS.
func NewEncoder(fps float64) *Encoder {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Encoder{
		FPS:      fps,
		Quality:  90,
		lookPath: exec.LookPath,
		run:      func(s *ffmpeg.Stream) error { return s.Run() },
	}
}

// Encode writes frames to stem + ".mp4", replacing any existing file.
// An empty sequence writes nothing and returns (false, nil). All frames
// must share the dimensions of the first one.
func (e *Encoder) Encode(ctx context.Context, frames []image.Image, stem string) (bool, error) {
	if len(frames) == 0 {
		return false, nil
	}
	size := frames[0].Bounds().Size()
	for i, f := range frames[1:] {
		if got := f.Bounds().Size(); got != size {
			return false, fmt.Errorf("frame %d is %v, want %v", i+1, got, size)
		}
	}
	if _, err := e.lookPath("ffmpeg"); err != nil {
		return false, fmt.Errorf("%w: %v", ErrEncoderUnavailable, err)
	}

	output := stem + ".mp4"
	pr, pw := io.Pipe()
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- e.writeFrames(pw, frames)
	}()

	var stderr bytes.Buffer
	stream := e.stream(output)
	stream.Context = ctx
	stream = stream.WithInput(pr).WithErrorOutput(&stderr)

	runErr := e.run(stream)
	pr.CloseWithError(errReaderDone)
	werr := <-writeErr

	if runErr != nil {
		return false, fmt.Errorf("ffmpeg %s: %w: %s", output, runErr, bytes.TrimSpace(stderr.Bytes()))
	}
	if werr != nil && !errors.Is(werr, errReaderDone) {
		return false, fmt.Errorf("write frames to %s: %w", output, werr)
	}
	logf("wrote %d frames to %s", len(frames), output)
	return true, nil
}

func (e *Encoder) stream(output string) *ffmpeg.Stream {
	return ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "image2pipe",
		"vcodec":    "mjpeg",
		"framerate": e.FPS,
	}).Output(output, ffmpeg.KwArgs{
		"vcodec":  "libx264",
		"pix_fmt": "yuv420p",
		"vf":      "pad=ceil(iw/2)*2:ceil(ih/2)*2",
	}).OverWriteOutput()
}

func (e *Encoder) writeFrames(pw *io.PipeWriter, frames []image.Image) error {
	opts := &jpeg.Options{Quality: e.Quality}
	for i, f := range frames {
		if err := jpeg.Encode(pw, f, opts); err != nil {
			err = fmt.Errorf("frame %d: %w", i, err)
			pw.CloseWithError(err)
			return err
		}
	}
	return pw.Close()
}
