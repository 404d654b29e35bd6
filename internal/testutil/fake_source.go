// Package testutil provides deterministic stand-ins for the microphone and
// the wall clock.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/emmett/voxkeep/internal/audio"
)

// ErrPermissionDenied simulates a user refusing microphone access
var ErrPermissionDenied = errors.New("permission denied")

// FakeSource is an audio.Source whose streams are fed by the test
type FakeSource struct {
	mu      sync.Mutex
	rate    uint32
	openErr error
	opens   int
	streams []*FakeStream
}

// NewFakeSource creates a source whose streams report rate
func NewFakeSource(rate uint32) *FakeSource {
	return &FakeSource{rate: rate}
}

// FailWith makes every following Open fail with err (nil clears it)
func (f *FakeSource) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
}

// Open implements audio.Source
func (f *FakeSource) Open(ctx context.Context, onChunk audio.ChunkFunc) (audio.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opens++
	if f.openErr != nil {
		return nil, &audio.CaptureAccessError{Op: "open", Err: f.openErr}
	}
	if err := ctx.Err(); err != nil {
		return nil, &audio.CaptureAccessError{Op: "open", Err: err}
	}

	s := &FakeStream{rate: f.rate, onChunk: onChunk}
	f.streams = append(f.streams, s)
	return s, nil
}

// Opens returns how many times Open was called
func (f *FakeSource) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Last returns the most recently opened stream, or nil
func (f *FakeSource) Last() *FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

// FakeStream is an audio.Stream driven by Feed
type FakeStream struct {
	mu      sync.Mutex
	rate    uint32
	onChunk audio.ChunkFunc
	closes  int
}

// Feed delivers chunk to the session as the device callback would.
// It returns false once the stream has been closed.
func (s *FakeStream) Feed(chunk []float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes > 0 {
		return false
	}
	s.onChunk(chunk)
	return true
}

// SampleRate implements audio.Stream
func (s *FakeStream) SampleRate() uint32 {
	return s.rate
}

// Close implements audio.Stream
func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Closed reports whether Close has been called
func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// Closes returns how many times Close was called
func (s *FakeStream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Chunk returns n samples of value v
func Chunk(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
