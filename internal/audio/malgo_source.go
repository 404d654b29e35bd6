package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoSource implements Source using malgo (miniaudio)
type MalgoSource struct {
	config CaptureConfig
}

// NewMalgoSource creates a new malgo-based microphone source
func NewMalgoSource(config CaptureConfig) *MalgoSource {
	if config.ChunkFrames == 0 {
		config.ChunkFrames = DefaultChunkFrames
	}
	return &MalgoSource{config: config}
}

// malgoStream is a running capture device
type malgoStream struct {
	device       *malgo.Device
	malgoContext *malgo.AllocatedContext
	onChunk      ChunkFunc
	chunkFrames  int
	sampleRate   uint32

	mu      sync.Mutex
	pending []float32
	closing bool
	closed  bool
	done    chan struct{}
}

// Open initializes the capture device and starts delivering chunks
func (m *MalgoSource) Open(ctx context.Context, onChunk ChunkFunc) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureAccessError{Op: "open", Err: err}
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &CaptureAccessError{Op: "init context", Err: err}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = m.config.SampleRate
	deviceConfig.PeriodSizeInFrames = m.config.ChunkFrames

	if m.config.DeviceID != "" {
		infos, err := malgoCtx.Devices(malgo.Capture)
		if err != nil {
			freeContext(malgoCtx)
			return nil, &CaptureAccessError{Op: "enumerate devices", Err: err}
		}
		idx, err := matchDevice(infos, m.config.DeviceID)
		if err != nil {
			freeContext(malgoCtx)
			return nil, &CaptureAccessError{Op: "select device", Err: err}
		}
		deviceConfig.Capture.DeviceID = infos[idx].ID.Pointer()
	}

	s := &malgoStream{
		malgoContext: malgoCtx,
		onChunk:      onChunk,
		chunkFrames:  int(m.config.ChunkFrames),
		pending:      make([]float32, 0, m.config.ChunkFrames),
		done:         make(chan struct{}),
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, framecount uint32) {
			s.push(pInputSamples)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		freeContext(malgoCtx)
		return nil, &CaptureAccessError{Op: "init device", Err: err}
	}
	s.device = device
	s.sampleRate = device.SampleRate()

	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(malgoCtx)
		return nil, &CaptureAccessError{Op: "start device", Err: err}
	}

	// Release the device if the caller's context goes away first
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

// push converts little-endian float32 frames and re-blocks them into
// fixed-size chunks
func (s *malgoStream) push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for i := 0; i+4 <= len(data); i += 4 {
		s.pending = append(s.pending, math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
		if len(s.pending) == s.chunkFrames {
			s.onChunk(s.pending)
			s.pending = make([]float32, 0, s.chunkFrames)
		}
	}
}

// SampleRate returns the realized device sample rate
func (s *malgoStream) SampleRate() uint32 {
	return s.sampleRate
}

// Close stops the device, delivers the trailing partial chunk and frees
// the malgo context. Safe to call more than once.
func (s *malgoStream) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	// Device.Stop blocks until the data callback has returned
	stopErr := s.device.Stop()

	s.mu.Lock()
	s.closed = true
	if len(s.pending) > 0 {
		s.onChunk(s.pending)
		s.pending = nil
	}
	s.mu.Unlock()

	close(s.done)
	s.device.Uninit()
	freeContext(s.malgoContext)

	if stopErr != nil {
		return fmt.Errorf("failed to stop device: %w", stopErr)
	}
	return nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}
