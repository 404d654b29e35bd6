package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/session"
	"github.com/emmett/voxkeep/internal/upload"
	"github.com/emmett/voxkeep/internal/wav"
)

type RecordArgs struct {
	Language       string `json:"language,omitempty" jsonschema:"Language spoken in the clip"`
	Dialect        string `json:"dialect,omitempty" jsonschema:"Regional dialect, if any"`
	TargetLanguage string `json:"target_language,omitempty" jsonschema:"Language to translate into (default: English)"`
	Consent        bool   `json:"consent,omitempty" jsonschema:"The speaker agrees to the clip being preserved and shared"`
	Seconds        int    `json:"seconds,omitempty" jsonschema:"Recording length in seconds, 1 to 30 (default: 30)"`
	SavePath       string `json:"save_path,omitempty" jsonschema:"Write the WAV file to this path"`
	Submit         bool   `json:"submit,omitempty" jsonschema:"Upload the clip once recorded"`
	IncludeAudio   bool   `json:"include_audio,omitempty" jsonschema:"Return the WAV file base64-encoded"`
}

type SubmitArgs struct {
	Language       string `json:"language,omitempty" jsonschema:"Language spoken in the clip"`
	Dialect        string `json:"dialect,omitempty" jsonschema:"Regional dialect, if any"`
	TargetLanguage string `json:"target_language,omitempty" jsonschema:"Language to translate into (default: English)"`
	Consent        bool   `json:"consent,omitempty" jsonschema:"The speaker agrees to the clip being preserved and shared"`
	Path           string `json:"path" jsonschema:"Path of a mono 16-bit PCM WAV file"`
}

type ListDevicesArgs struct{}

// ClipResult describes a recorded or submitted clip
type ClipResult struct {
	TakeID          string  `json:"take_id,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Samples         int     `json:"samples"`
	SampleRate      uint32  `json:"sample_rate"`
	Bytes           int     `json:"bytes"`
	RMS             float64 `json:"rms"`
	Peak            float64 `json:"peak"`
	Silent          bool    `json:"silent"`
	SavedPath       string  `json:"saved_path,omitempty"`
	AssetID         string  `json:"asset_id,omitempty"`
	Audio           string  `json:"audio,omitempty"`
}

type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type DeviceList struct {
	Devices []Device `json:"devices"`
}

// metadata merges call arguments over the configured defaults
func (s *Server) metadata(language, dialect, target string, consent bool) upload.Metadata {
	meta := s.config.Defaults
	if language != "" {
		meta.Language = language
	}
	if dialect != "" {
		meta.Dialect = dialect
	}
	if target != "" {
		meta.TargetLanguage = target
	}
	if consent {
		meta.Consent = true
	}
	return meta
}

func (s *Server) handleRecordClip(ctx context.Context, req *sdk.CallToolRequest, args RecordArgs) (*sdk.CallToolResult, ClipResult, error) {
	seconds := args.Seconds
	if seconds == 0 {
		seconds = s.config.MaxSeconds
	}
	if seconds < 1 || seconds > s.config.MaxSeconds {
		return nil, ClipResult{}, fmt.Errorf("seconds must be between 1 and %d", s.config.MaxSeconds)
	}

	meta := s.metadata(args.Language, args.Dialect, args.TargetLanguage, args.Consent)
	if args.Submit {
		// refuse before recording rather than after
		if err := upload.Validate(&meta); err != nil {
			return nil, ClipResult{}, err
		}
	}

	if !s.recordMu.TryLock() {
		return nil, ClipResult{}, fmt.Errorf("a recording is already in progress")
	}
	defer s.recordMu.Unlock()

	opts := append([]session.Option{
		session.WithLogger(s.logger),
		session.WithMaxSeconds(seconds),
	}, s.sessionOpts...)
	sess := session.New(s.source, opts...)

	if err := sess.Start(ctx); err != nil {
		return nil, ClipResult{}, fmt.Errorf("failed to start recording: %w", err)
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		_ = sess.Stop()
		return nil, ClipResult{}, fmt.Errorf("recording cancelled: %w", ctx.Err())
	}

	artifact, _ := sess.Artifact()
	result := s.describe(artifact)
	result.TakeID = sess.ID()

	if args.SavePath != "" {
		if err := artifact.WriteFile(args.SavePath); err != nil {
			return nil, ClipResult{}, err
		}
		result.SavedPath = args.SavePath
	}

	if args.Submit {
		receipt, err := s.uploader.Submit(ctx, artifact, meta)
		if err != nil {
			return nil, ClipResult{}, fmt.Errorf("upload failed: %w", err)
		}
		result.AssetID = receipt.AssetID
	}

	if args.IncludeAudio {
		result.Audio = base64.StdEncoding.EncodeToString(artifact.Data)
	}

	s.logger.Info("clip recorded",
		zap.String("take_id", result.TakeID),
		zap.Float64("seconds", result.DurationSeconds),
		zap.String("asset_id", result.AssetID))
	return nil, result, nil
}

func (s *Server) handleSubmitClip(ctx context.Context, req *sdk.CallToolRequest, args SubmitArgs) (*sdk.CallToolResult, ClipResult, error) {
	artifact, err := wav.ReadFile(args.Path)
	if err != nil {
		return nil, ClipResult{}, err
	}

	receipt, err := s.uploader.Submit(ctx, artifact, s.metadata(args.Language, args.Dialect, args.TargetLanguage, args.Consent))
	if err != nil {
		return nil, ClipResult{}, fmt.Errorf("upload failed: %w", err)
	}

	result := s.describe(artifact)
	result.AssetID = receipt.AssetID
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: fmt.Sprintf("Upload successful! ID: %s", receipt.AssetID)},
		},
	}, result, nil
}

func (s *Server) handleListDevices(ctx context.Context, req *sdk.CallToolRequest, args ListDevicesArgs) (*sdk.CallToolResult, DeviceList, error) {
	devices, err := s.listDevices()
	if err != nil {
		return nil, DeviceList{}, fmt.Errorf("failed to list devices: %w", err)
	}

	list := DeviceList{Devices: make([]Device, 0, len(devices))}
	for _, d := range devices {
		list.Devices = append(list.Devices, Device{ID: d.ID, Name: d.Name, IsDefault: d.IsDefault})
	}
	return nil, list, nil
}

func (s *Server) describe(artifact *wav.Artifact) ClipResult {
	level := audio.PCM16Level(artifact.PCM())
	return ClipResult{
		DurationSeconds: artifact.Duration().Seconds(),
		Samples:         artifact.Samples,
		SampleRate:      artifact.SampleRate,
		Bytes:           len(artifact.Data),
		RMS:             level.RMS,
		Peak:            level.Peak,
		Silent:          level.RMS < s.config.SilenceThreshold,
	}
}
