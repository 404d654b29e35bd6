package audio

import (
	"context"
	"fmt"
)

// DefaultChunkFrames is the number of samples delivered per chunk
const DefaultChunkFrames = 4096

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// SampleRate is the requested number of samples per second (Hz).
	// 0 lets the device pick its native rate; the realized rate is
	// reported by Stream.SampleRate.
	SampleRate uint32

	// ChunkFrames is the number of mono samples per delivered chunk
	ChunkFrames uint32

	// DeviceID is the audio device identifier ("capture-N") or a name
	// fragment. Empty string = use default device
	DeviceID string
}

// DefaultConfig returns the capture configuration used for contributions
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:  48000,
		ChunkFrames: DefaultChunkFrames,
		DeviceID:    "",
	}
}

// ChunkFunc receives one chunk of mono float32 samples.
// Chunks are delivered one at a time, in capture order.
type ChunkFunc func(chunk []float32)

// Stream is a live capture handle returned by Source.Open
type Stream interface {
	// SampleRate returns the sample rate the device actually runs at
	SampleRate() uint32

	// Close stops the device and releases every resource acquired by Open.
	// No ChunkFunc call happens after Close returns.
	Close() error
}

// Source is the capability to acquire a microphone
type Source interface {
	// Open requests microphone access and starts delivering chunks to
	// onChunk. Acquisition failures are returned as *CaptureAccessError.
	Open(ctx context.Context, onChunk ChunkFunc) (Stream, error)
}

// CaptureAccessError reports that the microphone could not be acquired
// (permission denied, device missing or busy).
type CaptureAccessError struct {
	Op  string
	Err error
}

func (e *CaptureAccessError) Error() string {
	return fmt.Sprintf("capture access: %s: %v", e.Op, e.Err)
}

func (e *CaptureAccessError) Unwrap() error {
	return e.Err
}

// NewSource creates the default microphone source for the given configuration
func NewSource(config CaptureConfig) Source {
	return NewMalgoSource(config)
}
