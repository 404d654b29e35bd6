// Package session implements the bounded-duration recording state machine
// that drives microphone capture and produces one WAV artifact per take.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/wav"
)

// MaxSeconds is the hard recording ceiling
const MaxSeconds = 30

// State is the lifecycle position of a Session
type State int

const (
	Idle State = iota
	Recording
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StopReason tells observers why a take ended
type StopReason string

const (
	StopManual  StopReason = "manual"
	StopCeiling StopReason = "ceiling"
)

// ErrInvalidTransition is returned when an operation is not allowed in
// the current state
var ErrInvalidTransition = errors.New("invalid session transition")

// Option configures a Session
type Option func(*Session)

// WithClock replaces the wall clock used for the one-second tick
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithMaxSeconds lowers the recording ceiling. Values outside
// 1..MaxSeconds are ignored.
func WithMaxSeconds(n int) Option {
	return func(s *Session) {
		if n > 0 && n <= MaxSeconds {
			s.maxSeconds = n
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnTick registers a callback run after every elapsed second
func WithOnTick(fn func(elapsed int)) Option {
	return func(s *Session) { s.onTick = fn }
}

// WithOnStop registers a callback run once per take when it stops
func WithOnStop(fn func(reason StopReason, artifact *wav.Artifact)) Option {
	return func(s *Session) { s.onStop = fn }
}

// Session owns the capture stream, the sample buffer and the tick for
// one take at a time: Idle → Recording → Stopped → (Reset) → Idle.
// Callbacks run outside the session lock and may call back into it.
type Session struct {
	source     audio.Source
	clock      Clock
	logger     *zap.Logger
	maxSeconds int
	onTick     func(int)
	onStop     func(StopReason, *wav.Artifact)
	buffer     *audio.SampleBuffer

	mu         sync.Mutex
	state      State
	id         string
	elapsed    int
	stream     audio.Stream
	sampleRate uint32
	ticker     Ticker
	quit       chan struct{} // closed when the current take stops ticking
	done       chan struct{} // closed when the current take reaches Stopped
	artifact   *wav.Artifact
}

// New creates an idle session reading from source
func New(source audio.Source, opts ...Option) *Session {
	s := &Session{
		source:     source,
		clock:      SystemClock{},
		logger:     zap.NewNop(),
		maxSeconds: MaxSeconds,
		buffer:     audio.NewSampleBuffer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start acquires the microphone and begins a new take.
// A capture failure leaves the session Idle and is returned as
// *audio.CaptureAccessError.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, s.state)
	}

	s.buffer.Clear()
	stream, err := s.source.Open(ctx, s.buffer.Append)
	if err != nil {
		s.logger.Warn("microphone unavailable", zap.Error(err))
		return err
	}

	s.id = uuid.NewString()
	s.elapsed = 0
	s.stream = stream
	s.sampleRate = stream.SampleRate()
	s.ticker = s.clock.NewTicker(time.Second)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	s.state = Recording

	go s.tickLoop(s.ticker, s.quit)

	s.logger.Info("recording started",
		zap.String("take_id", s.id),
		zap.Uint32("sample_rate", s.sampleRate),
		zap.Int("max_seconds", s.maxSeconds))
	return nil
}

// Stop ends the current take and encodes it.
// Stopping an already stopped take is a no-op, so a user stop racing the
// ceiling is harmless.
func (s *Session) Stop() error {
	s.mu.Lock()
	switch s.state {
	case Stopped:
		s.mu.Unlock()
		return nil
	case Idle:
		s.mu.Unlock()
		return fmt.Errorf("%w: stop while %s", ErrInvalidTransition, Idle)
	}
	notify := s.stopLocked(StopManual)
	s.mu.Unlock()

	notify()
	return nil
}

// Reset discards the finished take and returns to Idle
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Stopped {
		return fmt.Errorf("%w: reset while %s", ErrInvalidTransition, s.state)
	}

	s.artifact = nil
	s.elapsed = 0
	s.id = ""
	s.buffer.Clear()
	s.state = Idle
	return nil
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the whole seconds recorded in the current take
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// MaxSeconds returns the ceiling in effect for this session
func (s *Session) MaxSeconds() int {
	return s.maxSeconds
}

// ID returns the identifier of the current take, empty when Idle
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Artifact returns the encoded take. It only exists once Stopped.
func (s *Session) Artifact() (*wav.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Stopped || s.artifact == nil {
		return nil, false
	}
	return s.artifact, true
}

// Done returns a channel closed when the current take stops.
// It is nil while Idle.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		return nil
	}
	return s.done
}

func (s *Session) tickLoop(t Ticker, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-t.C():
			if !s.tick(quit) {
				return
			}
		}
	}
}

// tick advances elapsed time for the take identified by quit and enforces
// the ceiling. It returns false once that take has stopped.
func (s *Session) tick(quit chan struct{}) bool {
	s.mu.Lock()
	select {
	case <-quit:
		s.mu.Unlock()
		return false
	default:
	}

	s.elapsed++
	elapsed := s.elapsed
	var notify func()
	if elapsed >= s.maxSeconds {
		notify = s.stopLocked(StopCeiling)
	}
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(elapsed)
	}
	if notify != nil {
		notify()
		return false
	}
	return true
}

// stopLocked releases the stream, encodes the buffer and moves to Stopped.
// The caller must hold s.mu and run the returned notifier after unlocking.
func (s *Session) stopLocked(reason StopReason) func() {
	if err := s.stream.Close(); err != nil {
		s.logger.Warn("failed to release microphone", zap.String("take_id", s.id), zap.Error(err))
	}
	s.ticker.Stop()
	close(s.quit)

	samples := s.buffer.Flatten()
	artifact := wav.Encode(samples, s.sampleRate)

	s.artifact = &artifact
	s.stream = nil
	s.ticker = nil
	s.state = Stopped
	close(s.done)

	s.logger.Info("recording stopped",
		zap.String("take_id", s.id),
		zap.String("reason", string(reason)),
		zap.Int("elapsed", s.elapsed),
		zap.Int("samples", artifact.Samples),
		zap.Int("bytes", len(artifact.Data)))

	onStop := s.onStop
	return func() {
		if onStop != nil {
			onStop(reason, &artifact)
		}
	}
}
