package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Submission is the outcome of one take
type Submission struct {
	TakeID          string    `json:"take_id"`
	AssetID         string    `json:"asset_id,omitempty"`
	Language        string    `json:"language,omitempty"`
	Dialect         string    `json:"dialect,omitempty"`
	TargetLanguage  string    `json:"target_language,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	Bytes           int       `json:"bytes"`
	SampleRate      uint32    `json:"sample_rate"`
	StopReason      string    `json:"stop_reason,omitempty"`
	SavedPath       string    `json:"saved_path,omitempty"`
	Uploaded        bool      `json:"uploaded"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Event represents a recorder event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Formatter is the interface for result formatters
type Formatter interface {
	// WriteSubmission writes the outcome of a take
	WriteSubmission(s Submission) error

	// WriteEvent writes a recorder event (started, stopped, ...)
	WriteEvent(eventType, message string) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// NewFormatter returns the formatter for "json" or "text"
func NewFormatter(format string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONFormatter(w), nil
	case "text", "":
		return NewPlainTextFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// JSONFormatter writes one JSON object per record
type JSONFormatter struct {
	encoder     *json.Encoder
	submissions []Submission
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{encoder: json.NewEncoder(writer)}
}

// WriteSubmission writes a submission in JSON format
func (j *JSONFormatter) WriteSubmission(s Submission) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	j.submissions = append(j.submissions, s)
	return j.encoder.Encode(s)
}

// WriteEvent writes a recorder event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	return j.encoder.Encode(Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Flush is a no-op, the encoder writes immediately
func (j *JSONFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// Submissions returns everything written so far
func (j *JSONFormatter) Submissions() []Submission {
	return j.submissions
}

// PlainTextFormatter outputs one readable line per record
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{writer: writer}
}

// WriteSubmission writes a submission in plain text
func (p *PlainTextFormatter) WriteSubmission(s Submission) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] take %s: %.1fs, %d bytes @ %d Hz", s.Timestamp.Format("15:04:05"), s.TakeID, s.DurationSeconds, s.Bytes, s.SampleRate)
	if s.SavedPath != "" {
		fmt.Fprintf(&b, ", saved to %s", s.SavedPath)
	}
	switch {
	case s.Error != "":
		fmt.Fprintf(&b, ", upload failed: %s", s.Error)
	case s.Uploaded:
		fmt.Fprintf(&b, ", upload successful! ID: %s", s.AssetID)
	}
	b.WriteString("\n")

	_, err := io.WriteString(p.writer, b.String())
	return err
}

// WriteEvent writes a recorder event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	timestamp := time.Now().Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] [%s] %s\n", timestamp, eventType, message)
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}
