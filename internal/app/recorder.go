package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/output"
	"github.com/emmett/voxkeep/internal/session"
	"github.com/emmett/voxkeep/internal/upload"
	"github.com/emmett/voxkeep/internal/wav"
)

// Uploader submits a finished take
type Uploader interface {
	Submit(ctx context.Context, artifact *wav.Artifact, meta upload.Metadata) (*upload.Receipt, error)
}

// RecorderConfig holds per-run recorder settings
type RecorderConfig struct {
	Metadata         upload.Metadata
	MaxSeconds       int
	SilenceThreshold float64
	SaveDir          string
	NoUpload         bool
}

// Recorder drives one session at a time and hands each finished take to
// disk and the backend
type Recorder struct {
	config    RecorderConfig
	session   *session.Session
	uploader  Uploader
	console   *output.ConsoleOutput
	formatter output.Formatter
	logger    *zap.Logger
}

// NewRecorder wires a session on source to the uploader and outputs.
// Extra session options (e.g. a test clock) are applied last.
func NewRecorder(config RecorderConfig, source audio.Source, uploader Uploader, console *output.ConsoleOutput, formatter output.Formatter, logger *zap.Logger, opts ...session.Option) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SilenceThreshold <= 0 {
		config.SilenceThreshold = audio.DefaultSilenceThreshold
	}

	r := &Recorder{
		config:    config,
		uploader:  uploader,
		console:   console,
		formatter: formatter,
		logger:    logger,
	}

	maxSeconds := config.MaxSeconds
	base := []session.Option{
		session.WithLogger(logger),
		session.WithMaxSeconds(maxSeconds),
		session.WithOnTick(func(elapsed int) {
			console.Progress(elapsed, r.session.MaxSeconds())
		}),
		session.WithOnStop(func(reason session.StopReason, a *wav.Artifact) {
			console.Finalize()
			if reason == session.StopCeiling {
				console.Info(fmt.Sprintf("Recording limit of %ds reached", r.session.MaxSeconds()))
			}
		}),
	}
	r.session = session.New(source, append(base, opts...)...)
	return r
}

// Session exposes the underlying state machine
func (r *Recorder) Session() *session.Session {
	return r.session
}

// Begin starts a take. Microphone failures are reported on the console
// and returned.
func (r *Recorder) Begin(ctx context.Context) error {
	if err := r.session.Start(ctx); err != nil {
		var accessErr *audio.CaptureAccessError
		if errors.As(err, &accessErr) {
			r.console.Error("Microphone access denied or unavailable: " + accessErr.Error())
		} else {
			r.console.Error(err.Error())
		}
		return err
	}
	_ = r.formatter.WriteEvent("recording", fmt.Sprintf("take %s started", r.session.ID()))
	r.console.Progress(0, r.session.MaxSeconds())
	return nil
}

// Complete processes a stopped take: level check, optional save, upload,
// report. The session is reset afterwards so a retake can begin.
func (r *Recorder) Complete(ctx context.Context) (output.Submission, error) {
	artifact, ok := r.session.Artifact()
	if !ok {
		return output.Submission{}, upload.ErrNoRecording
	}
	defer func() { _ = r.session.Reset() }()

	reason := session.StopManual
	if r.session.Elapsed() >= r.session.MaxSeconds() {
		reason = session.StopCeiling
	}

	meta := r.config.Metadata
	if meta.TargetLanguage == "" {
		meta.TargetLanguage = upload.DefaultTargetLanguage
	}
	sub := output.Submission{
		TakeID:          r.session.ID(),
		Language:        meta.Language,
		Dialect:         meta.Dialect,
		TargetLanguage:  meta.TargetLanguage,
		DurationSeconds: artifact.Duration().Seconds(),
		Bytes:           len(artifact.Data),
		SampleRate:      artifact.SampleRate,
		StopReason:      string(reason),
		Timestamp:       time.Now(),
	}

	level := audio.PCM16Level(artifact.PCM())
	r.console.WriteLevel(level.RMS, level.Peak)
	if level.RMS < r.config.SilenceThreshold {
		r.console.Warn("The take is nearly silent. Check the microphone before submitting.")
	}

	var firstErr error
	if r.config.SaveDir != "" {
		path, err := r.save(artifact, sub.TakeID)
		if err != nil {
			r.console.Error(err.Error())
			firstErr = err
		} else {
			sub.SavedPath = path
		}
	}

	if !r.config.NoUpload {
		r.console.Status("Uploading...")
		receipt, err := r.uploader.Submit(ctx, artifact, meta)
		r.console.Clear()
		if err != nil {
			sub.Error = err.Error()
			r.console.Error("Upload failed: " + err.Error())
			if firstErr == nil {
				firstErr = err
			}
		} else {
			sub.AssetID = receipt.AssetID
			sub.Uploaded = true
			r.console.Info("Upload successful! ID: " + receipt.AssetID)
		}
	}

	if err := r.formatter.WriteSubmission(sub); err != nil {
		r.logger.Warn("failed to write submission", zap.Error(err))
	}
	return sub, firstErr
}

func (r *Recorder) save(artifact *wav.Artifact, takeID string) (string, error) {
	if err := os.MkdirAll(r.config.SaveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}
	path := filepath.Join(r.config.SaveDir, "take-"+takeID+".wav")
	if err := artifact.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// RecordOnce records a single take that ends at the ceiling, or early
// when ctx is cancelled, and completes it
func (r *Recorder) RecordOnce(ctx context.Context) (output.Submission, error) {
	if err := r.Begin(ctx); err != nil {
		return output.Submission{}, err
	}

	select {
	case <-r.session.Done():
	case <-ctx.Done():
		_ = r.session.Stop()
	}
	// A cancelled run still keeps what was recorded
	return r.Complete(context.WithoutCancel(ctx))
}

// Run toggles recording on every press: idle starts a take, recording
// stops it. Takes stopped by the ceiling complete without a press.
// Run returns when presses is closed or ctx is done.
func (r *Recorder) Run(ctx context.Context, presses <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			r.abandon()
			return nil

		case _, ok := <-presses:
			if !ok {
				r.abandon()
				return nil
			}
			switch r.session.State() {
			case session.Idle:
				_ = r.Begin(ctx)
			case session.Recording:
				_ = r.session.Stop()
				r.completeLogged(ctx)
			case session.Stopped:
				r.completeLogged(ctx)
			}

		case <-r.session.Done():
			r.completeLogged(ctx)
		}
	}
}

func (r *Recorder) completeLogged(ctx context.Context) {
	if _, err := r.Complete(ctx); err != nil {
		r.logger.Debug("take completed with error", zap.Error(err))
	}
	r.console.Info("Ready for the next take.")
}

// abandon releases the microphone of an unfinished take without uploading
func (r *Recorder) abandon() {
	if r.session.State() == session.Recording {
		_ = r.session.Stop()
		r.console.Info("Recording discarded.")
	}
	if r.session.State() == session.Stopped {
		_ = r.session.Reset()
	}
}

// LinePresses turns each line read from in (e.g. Enter on stdin) into a
// press. The channel closes at EOF.
func LinePresses(in io.Reader) <-chan struct{} {
	presses := make(chan struct{})
	go func() {
		defer close(presses)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			presses <- struct{}{}
		}
	}()
	return presses
}
