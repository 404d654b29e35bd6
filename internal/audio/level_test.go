package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasureSilence(t *testing.T) {
	l := Measure(make([]float32, 512))
	assert.Equal(t, 0.0, l.RMS)
	assert.Equal(t, 0.0, l.Peak)
	assert.True(t, IsSilent(make([]float32, 512), DefaultSilenceThreshold))
}

func TestMeasureEmpty(t *testing.T) {
	assert.Equal(t, Level{}, Measure(nil))
	assert.True(t, IsSilent(nil, DefaultSilenceThreshold))
}

func TestMeasureSquareWave(t *testing.T) {
	samples := make([]float32, 100)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.5
		} else {
			samples[i] = -0.5
		}
	}
	l := Measure(samples)
	assert.InDelta(t, 0.5, l.RMS, 1e-9)
	assert.InDelta(t, 0.5, l.Peak, 1e-9)
	assert.False(t, IsSilent(samples, DefaultSilenceThreshold))
}

func TestMeasureClampsAndSkipsNaN(t *testing.T) {
	l := Measure([]float32{3, float32(math.NaN())})
	assert.Equal(t, 1.0, l.Peak)
	assert.Equal(t, 1.0, l.RMS)
}

func TestPCM16Level(t *testing.T) {
	// 0x4000 = 16384 → 0.5, 0xC000 = -16384 → -0.5
	data := []byte{0x00, 0x40, 0x00, 0xC0}
	l := PCM16Level(data)
	assert.InDelta(t, 0.5, l.RMS, 1e-9)
	assert.InDelta(t, 0.5, l.Peak, 1e-9)
}

func TestFindDevice(t *testing.T) {
	devices := []DeviceInfo{
		{ID: "capture-0", Name: "Built-in Microphone", IsDefault: true},
		{ID: "capture-1", Name: "USB Audio CODEC"},
	}

	idx, err := FindDevice(devices, "capture-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = FindDevice(devices, "Built-in Microphone")
	assert.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = FindDevice(devices, "usb")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = FindDevice(devices, "bluetooth")
	assert.Error(t, err)

	_, err = FindDevice(nil, "anything")
	assert.Error(t, err)

	def, err := DefaultDevice(devices)
	assert.NoError(t, err)
	assert.Equal(t, "capture-0", def.ID)

	_, err = DefaultDevice(nil)
	assert.Error(t, err)
}
