package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start+i) / 100000
	}
	return out
}

func TestFlattenPreservesArrivalOrder(t *testing.T) {
	b := NewSampleBuffer()
	b.Append(ramp(0, 3))
	b.Append(ramp(3, 5))
	b.Append(ramp(8, 2))

	got := b.Flatten()
	require.Len(t, got, 10)
	assert.Equal(t, ramp(0, 10), got)
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, 3, b.Chunks())
}

func TestFlattenEmpty(t *testing.T) {
	b := NewSampleBuffer()
	got := b.Flatten()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFlattenDoesNotConsume(t *testing.T) {
	b := NewSampleBuffer()
	b.Append(ramp(0, 4))
	first := b.Flatten()
	second := b.Flatten()
	assert.Equal(t, first, second)

	first[0] = 42
	assert.NotEqual(t, float32(42), b.Flatten()[0], "flatten must return a fresh slice")
}

func TestClearReleasesChunks(t *testing.T) {
	b := NewSampleBuffer()
	b.Append(ramp(0, 4096))
	b.Append(ramp(0, 4096))
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Chunks())
	assert.Empty(t, b.Flatten())

	b.Append(ramp(7, 2))
	assert.Equal(t, ramp(7, 2), b.Flatten())
}

func TestConcurrentAppendKeepsTotal(t *testing.T) {
	b := NewSampleBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Append(make([]float32, 16))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*50*16, b.Len())
	assert.Len(t, b.Flatten(), 8*50*16)
}
