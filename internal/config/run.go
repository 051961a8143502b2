package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/run.defaults.json"

// RunConfig configures a prediction run. Every field is optional: nil
// fields fall back to the defaults returned by the Get* accessors, so
// partial configs are safe.
type RunConfig struct {
	// Windowing
	ObsLen       *int `json:"obs_len,omitempty"`
	FutLen       *int `json:"fut_len,omitempty"`
	MaxFrames    *int `json:"max_frames,omitempty"` // 0 means unlimited
	InterimEvery *int `json:"interim_every,omitempty"`

	// Oracle
	Model          *string `json:"model,omitempty"`
	BaseURL        *string `json:"base_url,omitempty"`
	APIKeyEnv      *string `json:"api_key_env,omitempty"`
	RequestTimeout *string `json:"request_timeout,omitempty"` // duration string like "60s"
	MaxAttempts    *int    `json:"max_attempts,omitempty"`

	// Fallback prediction used when the answer has no pairs
	FallbackSpeed     *float64 `json:"fallback_speed,omitempty"`
	FallbackCurvature *float64 `json:"fallback_curvature,omitempty"` // wire units

	// Artifacts
	Plot         *bool    `json:"plot,omitempty"`
	VideoFPS     *float64 `json:"video_fps,omitempty"`
	LineWidth    *float64 `json:"line_width,omitempty"`
	MarkerRadius *float64 `json:"marker_radius,omitempty"`

	// Scenes restricts the run to these scene names; empty means all.
	Scenes []string `json:"scenes,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultRunConfig returns a RunConfig with every field populated.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		ObsLen:            ptrInt(10),
		FutLen:            ptrInt(10),
		MaxFrames:         ptrInt(20),
		InterimEvery:      ptrInt(10),
		Model:             ptrString("qwen2.5-vl-7b-instruct"),
		BaseURL:           ptrString("https://dashscope.aliyuncs.com/compatible-mode/v1"),
		APIKeyEnv:         ptrString("QIANWEN_API_KEY"),
		RequestTimeout:    ptrString("60s"),
		MaxAttempts:       ptrInt(3),
		FallbackSpeed:     ptrFloat64(5.0),
		FallbackCurvature: ptrFloat64(0.0),
		Plot:              ptrBool(true),
		VideoFPS:          ptrFloat64(2),
		LineWidth:         ptrFloat64(3),
		MarkerRadius:      ptrFloat64(4),
	}
}

// LoadRunConfig loads a RunConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	if c.ObsLen != nil && *c.ObsLen < 2 {
		return fmt.Errorf("obs_len must be at least 2, got %d", *c.ObsLen)
	}
	if c.FutLen != nil && *c.FutLen < 1 {
		return fmt.Errorf("fut_len must be positive, got %d", *c.FutLen)
	}
	if c.MaxFrames != nil && *c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be non-negative, got %d", *c.MaxFrames)
	}
	if c.InterimEvery != nil && *c.InterimEvery < 1 {
		return fmt.Errorf("interim_every must be positive, got %d", *c.InterimEvery)
	}
	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive, got %d", *c.MaxAttempts)
	}
	if c.RequestTimeout != nil && *c.RequestTimeout != "" {
		if _, err := time.ParseDuration(*c.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout '%s': %w", *c.RequestTimeout, err)
		}
	}
	if c.VideoFPS != nil && *c.VideoFPS <= 0 {
		return fmt.Errorf("video_fps must be positive, got %f", *c.VideoFPS)
	}
	if c.LineWidth != nil && *c.LineWidth <= 0 {
		return fmt.Errorf("line_width must be positive, got %f", *c.LineWidth)
	}
	if c.MarkerRadius != nil && *c.MarkerRadius < 0 {
		return fmt.Errorf("marker_radius must be non-negative, got %f", *c.MarkerRadius)
	}
	return nil
}

// GetObsLen returns the observed window length or the default.
func (c *RunConfig) GetObsLen() int {
	if c.ObsLen == nil {
		return 10
	}
	return *c.ObsLen
}

// GetFutLen returns the predicted window length or the default.
func (c *RunConfig) GetFutLen() int {
	if c.FutLen == nil {
		return 10
	}
	return *c.FutLen
}

// GetMaxFrames returns the per-scene frame cap or the default.
func (c *RunConfig) GetMaxFrames() int {
	if c.MaxFrames == nil {
		return 20
	}
	return *c.MaxFrames
}

// GetInterimEvery returns the interim-results period or the default.
func (c *RunConfig) GetInterimEvery() int {
	if c.InterimEvery == nil {
		return 10
	}
	return *c.InterimEvery
}

// GetModel returns the model name or the default.
func (c *RunConfig) GetModel() string {
	if c.Model == nil || *c.Model == "" {
		return "qwen2.5-vl-7b-instruct"
	}
	return *c.Model
}

// GetBaseURL returns the chat completions base URL or the default.
func (c *RunConfig) GetBaseURL() string {
	if c.BaseURL == nil || *c.BaseURL == "" {
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	return *c.BaseURL
}

// GetAPIKeyEnv returns the name of the environment variable holding the
// API key, or the default.
func (c *RunConfig) GetAPIKeyEnv() string {
	if c.APIKeyEnv == nil || *c.APIKeyEnv == "" {
		return "QIANWEN_API_KEY"
	}
	return *c.APIKeyEnv
}

// GetRequestTimeout parses and returns the RequestTimeout as a time.Duration.
func (c *RunConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == nil || *c.RequestTimeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(*c.RequestTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetMaxAttempts returns the oracle attempt limit or the default.
func (c *RunConfig) GetMaxAttempts() int {
	if c.MaxAttempts == nil {
		return 3
	}
	return *c.MaxAttempts
}

// GetFallbackSpeed returns the fallback speed or the default.
func (c *RunConfig) GetFallbackSpeed() float64 {
	if c.FallbackSpeed == nil {
		return 5.0
	}
	return *c.FallbackSpeed
}

// GetFallbackCurvature returns the fallback wire curvature or the default.
func (c *RunConfig) GetFallbackCurvature() float64 {
	if c.FallbackCurvature == nil {
		return 0.0
	}
	return *c.FallbackCurvature
}

// GetPlot returns whether artifacts are written.
func (c *RunConfig) GetPlot() bool {
	if c.Plot == nil {
		return true
	}
	return *c.Plot
}

// GetVideoFPS returns the video frame rate or the default.
func (c *RunConfig) GetVideoFPS() float64 {
	if c.VideoFPS == nil {
		return 2
	}
	return *c.VideoFPS
}

// GetLineWidth returns the overlay line width or the default.
func (c *RunConfig) GetLineWidth() float64 {
	if c.LineWidth == nil {
		return 3
	}
	return *c.LineWidth
}

// GetMarkerRadius returns the overlay marker radius or the default.
func (c *RunConfig) GetMarkerRadius() float64 {
	if c.MarkerRadius == nil {
		return 4
	}
	return *c.MarkerRadius
}

// WantsScene reports whether name is selected by Scenes.
func (c *RunConfig) WantsScene(name string) bool {
	if len(c.Scenes) == 0 {
		return true
	}
	for _, s := range c.Scenes {
		if s == name {
			return true
		}
	}
	return false
}
