package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/config"
	"github.com/emmett/voxkeep/internal/server/mcp"
	"github.com/emmett/voxkeep/internal/upload"
)

// ServerName is the MCP implementation name and client config key
const ServerName = "voxkeep"

// MCPHandler handles MCP server operations
type MCPHandler struct {
	config    *config.Config
	version   string
	gitCommit string
	logger    *zap.Logger
	stderr    io.Writer
}

// NewMCPHandler creates a new MCP handler
func NewMCPHandler(cfg *config.Config, version, gitCommit string, logger *zap.Logger) *MCPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCPHandler{
		config:    cfg,
		version:   version,
		gitCommit: gitCommit,
		logger:    logger,
		stderr:    os.Stderr,
	}
}

// MCPServerConfig is one entry of an MCP client's "mcpServers" map
type MCPServerConfig struct {
	Type    string   `json:"type,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// ClientConfig returns the snippet an MCP client needs to launch execPath
func (h *MCPHandler) ClientConfig(execPath string) map[string]map[string]MCPServerConfig {
	var args []string
	if h.config.Contribution.Language != "" {
		args = append(args, "-language", h.config.Contribution.Language)
	}
	if h.config.Audio.Device != "" {
		args = append(args, "-device", h.config.Audio.Device)
	}
	if args == nil {
		args = []string{}
	}
	return map[string]map[string]MCPServerConfig{
		"mcpServers": {
			ServerName: {Type: "stdio", Command: execPath, Args: args},
		},
	}
}

// NewServer builds the MCP server from the loaded configuration
func (h *MCPHandler) NewServer() *mcp.Server {
	source := audio.NewSource(audio.CaptureConfig{
		SampleRate:  h.config.Audio.SampleRate,
		ChunkFrames: h.config.Audio.ChunkFrames,
		DeviceID:    h.config.Audio.Device,
	})
	uploader := upload.NewClient(upload.Config{
		BaseURL: h.config.API.BaseURL,
		Timeout: time.Duration(h.config.API.TimeoutSeconds) * time.Second,
	}, h.logger)

	return mcp.NewServer(mcp.Config{
		ServerName:       ServerName,
		ServerVersion:    h.version,
		MaxSeconds:       h.config.Recording.MaxSeconds,
		SilenceThreshold: h.config.Recording.SilenceThreshold,
		Defaults: upload.Metadata{
			Language:       h.config.Contribution.Language,
			Dialect:        h.config.Contribution.Dialect,
			TargetLanguage: h.config.Contribution.TargetLanguage,
		},
	}, source, uploader, h.logger)
}

// Run serves MCP on stdin/stdout until ctx is done or the client
// disconnects. Everything human-readable goes to stderr.
func (h *MCPHandler) Run(ctx context.Context) error {
	fmt.Fprintf(h.stderr, "Starting MCP server...\n")
	fmt.Fprintf(h.stderr, "Protocol: Model Context Protocol (stdio transport)\n")
	fmt.Fprintf(h.stderr, "Version: %s (commit: %s)\n", h.version, h.gitCommit)
	fmt.Fprintf(h.stderr, "Backend: %s\n\n", h.config.API.BaseURL)

	execPath, err := os.Executable()
	if err != nil {
		execPath = "./build/voxkeep-mcp"
	}
	if configJSON, err := json.MarshalIndent(h.ClientConfig(execPath), "", "  "); err == nil {
		fmt.Fprintf(h.stderr, "MCP Client Configuration:\n%s\n\n", configJSON)
	}

	server := h.NewServer()
	fmt.Fprintf(h.stderr, "MCP server ready. Listening on stdin/stdout...\n")

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintf(h.stderr, "\nMCP server stopped.\n")
	return nil
}
