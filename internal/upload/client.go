// Package upload submits finished takes to the preservation backend.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/wav"
)

const (
	// Path is the upload endpoint relative to the API base URL
	Path = "/api/v1/preservation/upload"

	// FileName is the multipart filename the backend expects
	FileName = "recording.wav"

	// DefaultTargetLanguage is used when no translation target is given
	DefaultTargetLanguage = "English"

	DefaultTimeout = 60 * time.Second
)

// ErrNoRecording is returned when there is nothing to upload, including a
// take that stopped before any audio arrived
var ErrNoRecording = errors.New("no recording to upload")

// Metadata describes a contribution
type Metadata struct {
	Language       string `validate:"required"`
	Dialect        string
	TargetLanguage string
	Consent        bool `validate:"required"`
}

// Receipt is the backend's acknowledgement of a stored clip
type Receipt struct {
	AssetID string `json:"assetId"`
}

// APIError carries a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		return fmt.Sprintf("upload rejected: http %d", e.StatusCode)
	}
	return fmt.Sprintf("upload rejected: http %d: %s", e.StatusCode, truncate(msg, 200))
}

// Config configures the upload client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

var validate = validator.New()

// Validate checks metadata before anything is sent. An empty target
// language is filled with DefaultTargetLanguage.
func Validate(meta *Metadata) error {
	if meta.TargetLanguage == "" {
		meta.TargetLanguage = DefaultTargetLanguage
	}
	if err := validate.Struct(meta); err != nil {
		return fmt.Errorf("invalid contribution metadata: %w", err)
	}
	return nil
}

// Client posts WAV artifacts and their metadata as multipart forms
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a client for the backend at cfg.BaseURL
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger.Named("upload"),
	}
}

// Submit uploads one take. Nothing is sent when the artifact is missing or
// the metadata is incomplete. Failures are not retried.
func (c *Client) Submit(ctx context.Context, artifact *wav.Artifact, meta Metadata) (*Receipt, error) {
	if artifact == nil || artifact.Samples == 0 || len(artifact.Data) <= wav.HeaderSize {
		return nil, ErrNoRecording
	}
	if err := Validate(&meta); err != nil {
		return nil, err
	}

	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = wav.MIMEType
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", FileName, mimeType, bytes.NewReader(artifact.Data)).
		SetMultipartFormData(map[string]string{
			"language":       meta.Language,
			"targetLanguage": meta.TargetLanguage,
			"dialect":        meta.Dialect,
			"consent":        strconv.FormatBool(meta.Consent),
		}).
		Post(Path)
	if err != nil {
		c.logger.Warn("upload request failed", zap.Error(err))
		return nil, fmt.Errorf("upload request: %w", err)
	}

	if !resp.IsSuccess() {
		c.logger.Warn("upload rejected",
			zap.Int("status", resp.StatusCode()),
			zap.Duration("latency", time.Since(start)))
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var receipt Receipt
	if err := json.Unmarshal(resp.Body(), &receipt); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	c.logger.Info("clip uploaded",
		zap.String("asset_id", receipt.AssetID),
		zap.String("language", meta.Language),
		zap.Int("bytes", len(artifact.Data)),
		zap.Duration("latency", time.Since(start)))
	return &receipt, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
