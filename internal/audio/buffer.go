package audio

import "sync"

// SampleBuffer accumulates mono float32 chunks for one recording take.
// It is append-only until Clear. Appends from the capture callback are
// serialized against Flatten and Clear.
type SampleBuffer struct {
	mu      sync.Mutex
	chunks  [][]float32
	samples int
}

// NewSampleBuffer creates an empty sample buffer
func NewSampleBuffer() *SampleBuffer {
	return &SampleBuffer{}
}

// Append adds a chunk to the end of the buffer.
// The buffer takes ownership of chunk; callers must not modify it afterwards.
func (b *SampleBuffer) Append(chunk []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(b.chunks, chunk)
	b.samples += len(chunk)
}

// Flatten returns all chunks concatenated in arrival order
func (b *SampleBuffer) Flatten() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float32, 0, b.samples)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

// Clear releases all chunks
func (b *SampleBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = nil
	b.samples = 0
}

// Len returns the total number of samples held
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.samples
}

// Chunks returns the number of chunks appended since the last Clear
func (b *SampleBuffer) Chunks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}
