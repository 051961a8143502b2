// Package oracle talks to a vision-language model that predicts future
// (speed, curvature) pairs from camera images and the observed history,
// and parses its free-text answers.
package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/banshee-data/trajectory.report/internal/httputil"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
)

var logf = monitoring.Component("oracle")

// ErrEmptyResponse is returned when the model answers without any content.
var ErrEmptyResponse = errors.New("oracle returned an empty response")

// Request is one chat completion: a system message plus a user turn made
// of JPEG images followed by text.
type Request struct {
	Model  string
	System string
	Prompt string
	Images [][]byte
}

// Oracle completes a request with the model's text answer.
type Oracle interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures an HTTPOracle.
type Config struct {
	BaseURL     string
	APIKey      string
	MaxAttempts int
	Backoff     time.Duration
}

// HTTPOracle calls an OpenAI-compatible chat completions endpoint.
type HTTPOracle struct {
	cfg    Config
	client httputil.HTTPClient
	clock  timeutil.Clock
}

// NewHTTPOracle returns an oracle posting to cfg.BaseURL + "/chat/completions".
// Transport failures, 429 and 5xx responses are retried up to
// cfg.MaxAttempts times with exponential backoff starting at cfg.Backoff.
func NewHTTPOracle(cfg Config, client httputil.HTTPClient, clock timeutil.Clock) *HTTPOracle {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPOracle{cfg: cfg, client: client, clock: clock}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func buildChatRequest(req Request) chatRequest {
	user := make([]contentPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		user = append(user, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)},
		})
	}
	user = append(user, contentPart{Type: "text", Text: req.Prompt})

	system := req.System
	if system == "" {
		system = DefaultSystem
	}
	return chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: []contentPart{{Type: "text", Text: system}}},
			{Role: "user", Content: user},
		},
	}
}

// Complete sends req and returns the first choice's content.
func (o *HTTPOracle) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(buildChatRequest(req))
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	backoff := o.cfg.Backoff
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			logf("attempt %d/%d after %v: %v", attempt, o.cfg.MaxAttempts, backoff, lastErr)
			if err := timeutil.Sleep(ctx, o.clock, backoff); err != nil {
				return "", err
			}
			backoff *= 2
		}

		text, retry, err := o.send(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (o *HTTPOracle) send(ctx context.Context, payload []byte) (text string, retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("chat completion: %w", err)
	}

	var out chatResponse
	if err := httputil.DecodeJSON(resp, &out); err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			return "", se.Retryable(), fmt.Errorf("chat completion: %w", err)
		}
		return "", false, fmt.Errorf("chat completion: %w", err)
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", false, ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, false, nil
}
