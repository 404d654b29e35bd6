package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	gowav "github.com/go-audio/wav"
)

var (
	// ErrUnsupportedFormat is returned for WAV files that are not mono 16-bit PCM
	ErrUnsupportedFormat = errors.New("unsupported wav format")

	// ErrEmpty is returned for WAV files without a single sample
	ErrEmpty = errors.New("wav file has no samples")
)

// Parse validates a mono 16-bit PCM WAV file and returns it as an
// Artifact. Data is rebuilt in the canonical 44-byte header layout, so
// extra chunks (LIST, fact, ...) are dropped.
func Parse(data []byte) (*Artifact, error) {
	dec := gowav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != PCMFormat || dec.NumChans != Channels || dec.BitDepth != BitsPerSample {
		return nil, fmt.Errorf("%w: format %d, %d channel(s), %d bits",
			ErrUnsupportedFormat, dec.WavAudioFormat, dec.NumChans, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}

	if len(buf.Data) == 0 {
		return nil, ErrEmpty
	}

	dataBytes := len(buf.Data) * BytesPerSample
	var out bytes.Buffer
	out.Grow(HeaderSize + dataBytes)
	writeHeader(&out, dataBytes, dec.SampleRate)
	pcm := make([]byte, dataBytes)
	for i, v := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v)))
	}
	out.Write(pcm)

	return &Artifact{
		Data:       out.Bytes(),
		MIMEType:   MIMEType,
		SampleRate: dec.SampleRate,
		Samples:    len(buf.Data),
	}, nil
}

// ReadFile loads and validates a WAV file from disk
func ReadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav file: %w", err)
	}
	return Parse(data)
}

// WriteFile saves the artifact to path
func (a *Artifact) WriteFile(path string) error {
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return fmt.Errorf("failed to write wav file: %w", err)
	}
	return nil
}
