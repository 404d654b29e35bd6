package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleOutput writes human-facing recorder status to a terminal
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	errWriter     io.Writer
	showTimestamp bool
	now           func() time.Time
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// ShowTimestamp prefixes each line with a timestamp
	ShowTimestamp bool

	// Writer is the output destination (default: os.Stdout)
	Writer io.Writer

	// ErrWriter receives errors (default: os.Stderr)
	ErrWriter io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}
	errWriter := config.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	return &ConsoleOutput{
		writer:        writer,
		errWriter:     errWriter,
		showTimestamp: config.ShowTimestamp,
		now:           time.Now,
	}
}

// DefaultConsoleOutput creates a console output with default settings
func DefaultConsoleOutput() *ConsoleOutput {
	return NewConsoleOutput(ConsoleConfig{ShowTimestamp: true})
}

// FormatClock renders whole seconds as mm:ss
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Progress redraws the recording timer line, e.g. "00:07 / 00:30"
func (c *ConsoleOutput) Progress(elapsed, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	const width = 30
	filled := 0
	if max > 0 {
		filled = elapsed * width / max
	}
	if filled > width {
		filled = width
	}

	fmt.Fprintf(c.writer, "\r● REC [%-*s] %s / %s", width, strings.Repeat("=", filled), FormatClock(elapsed), FormatClock(max))
}

// WriteLevel shows the loudness of a finished take
func (c *ConsoleOutput) WriteLevel(rms, peak float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	barLength := int(peak * 50)
	if barLength > 50 {
		barLength = 50
	}
	fmt.Fprintf(c.writer, "Level: [%-50s] peak %.1f%% rms %.1f%%\n", strings.Repeat("=", barLength), peak*100, rms*100)
}

// Finalize ends an in-place status line
func (c *ConsoleOutput) Finalize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.writer)
}

// Clear clears the current line
func (c *ConsoleOutput) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "\r%80s\r", " ")
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "%s[INFO] %s\n", c.stamp(), msg)
}

// Warn writes a warning, e.g. a silent take
func (c *ConsoleOutput) Warn(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "%s[WARN] %s\n", c.stamp(), msg)
}

// Error writes an error message to the error writer
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.errWriter, "%s[ERROR] %s\n", c.stamp(), msg)
}

// Status writes a status message that the next one overwrites
func (c *ConsoleOutput) Status(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "\r[*] %s", msg)
}

func (c *ConsoleOutput) stamp() string {
	if !c.showTimestamp {
		return ""
	}
	return fmt.Sprintf("[%s] ", c.now().Format("15:04:05"))
}
