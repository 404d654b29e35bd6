// Package wav encodes captured float samples into mono 16-bit PCM WAV files.
package wav

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"
)

const (
	HeaderSize     = 44          // RIFF + fmt + data chunk headers
	MIMEType       = "audio/wav" // MIME type of every Artifact
	BytesPerSample = 2           // LINEAR16 → 2 bytes per sample
	BitsPerSample  = 16          // LINEAR16 → 16 bits per sample
	PCMFormat      = 1           // WAV PCM format tag
	Channels       = 1           // mono
)

// Artifact is one finished recording, ready to play or upload
type Artifact struct {
	Data       []byte
	MIMEType   string
	SampleRate uint32
	Samples    int
}

// Duration returns the playback length of the artifact
func (a *Artifact) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(a.Samples) * time.Second / time.Duration(a.SampleRate)
}

// PCM returns the sample payload that follows the header
func (a *Artifact) PCM() []byte {
	if len(a.Data) < HeaderSize {
		return nil
	}
	return a.Data[HeaderSize:]
}

// WriteTo writes the complete WAV file to w
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.Data)
	return int64(n), err
}

// SampleToPCM16 clamps s to [-1, 1] and scales it to a signed 16-bit value.
// Negative values scale by 32768 and positive values by 32767 so both
// extremes stay representable.
func SampleToPCM16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return int16(math.Round(v * 32768))
	}
	return int16(math.Round(v * 32767))
}

// Encode builds a mono 16-bit PCM WAV file from samples.
// It has no hidden state: identical input yields identical bytes.
func Encode(samples []float32, sampleRate uint32) Artifact {
	dataBytes := len(samples) * BytesPerSample

	var buf bytes.Buffer
	buf.Grow(HeaderSize + dataBytes)
	writeHeader(&buf, dataBytes, sampleRate)

	pcm := make([]byte, dataBytes)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(SampleToPCM16(s)))
	}
	buf.Write(pcm)

	return Artifact{
		Data:       buf.Bytes(),
		MIMEType:   MIMEType,
		SampleRate: sampleRate,
		Samples:    len(samples),
	}
}

func writeHeader(buf *bytes.Buffer, dataBytes int, sampleRate uint32) {
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataBytes))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(PCMFormat))
	binary.Write(buf, binary.LittleEndian, uint16(Channels))
	binary.Write(buf, binary.LittleEndian, sampleRate)
	binary.Write(buf, binary.LittleEndian, sampleRate*Channels*BytesPerSample)
	binary.Write(buf, binary.LittleEndian, uint16(Channels*BytesPerSample))
	binary.Write(buf, binary.LittleEndian, uint16(BitsPerSample))

	// data chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataBytes))
}
