// Package mcp exposes recording and submission as Model Context Protocol tools.
package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/session"
	"github.com/emmett/voxkeep/internal/upload"
	"github.com/emmett/voxkeep/internal/wav"
)

// Uploader submits a take to the preservation backend
type Uploader interface {
	Submit(ctx context.Context, artifact *wav.Artifact, meta upload.Metadata) (*upload.Receipt, error)
}

type Config struct {
	ServerName    string
	ServerVersion string
	// MaxSeconds caps record_clip requests, never above session.MaxSeconds
	MaxSeconds       int
	SilenceThreshold float64
	// Defaults applied to submissions that omit a field
	Defaults upload.Metadata
}

// Option customizes a Server
type Option func(*Server)

// WithSessionOptions passes extra options to every recording session
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// WithDeviceLister replaces the system device enumeration
func WithDeviceLister(list func() ([]audio.DeviceInfo, error)) Option {
	return func(s *Server) { s.listDevices = list }
}

type Server struct {
	config      Config
	mcpServer   *sdk.Server
	source      audio.Source
	uploader    Uploader
	logger      *zap.Logger
	listDevices func() ([]audio.DeviceInfo, error)
	sessionOpts []session.Option

	// one microphone, one take at a time
	recordMu sync.Mutex
}

func NewServer(cfg Config, source audio.Source, uploader Uploader, logger *zap.Logger, opts ...Option) *Server {
	if cfg.MaxSeconds <= 0 || cfg.MaxSeconds > session.MaxSeconds {
		cfg.MaxSeconds = session.MaxSeconds
	}
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = audio.DefaultSilenceThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:      cfg,
		source:      source,
		uploader:    uploader,
		logger:      logger.Named("mcp"),
		listDevices: audio.ListDevices,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()
	return s
}

// Start serves MCP over stdin/stdout until ctx is done or the client leaves
func (s *Server) Start(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over t
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "record_clip",
		Description: "Record a voice clip from the microphone (at most 30 seconds), optionally save it and submit it for preservation",
	}, s.handleRecordClip)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "submit_clip",
		Description: "Submit an existing mono 16-bit WAV file with its language metadata",
	}, s.handleSubmitClip)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "list_devices",
		Description: "List available audio capture devices",
	}, s.handleListDevices)
}
