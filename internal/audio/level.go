package audio

import "math"

// DefaultSilenceThreshold is the RMS level below which a take is
// considered silent
const DefaultSilenceThreshold = 0.01

// Level summarizes the loudness of a block of samples
type Level struct {
	RMS  float64 // Root mean square, 0.0 to 1.0
	Peak float64 // Largest absolute sample, clamped to 1.0
}

// Measure computes the RMS and peak level of samples
func Measure(samples []float32) Level {
	if len(samples) == 0 {
		return Level{}
	}

	var sum, peak float64
	for _, s := range samples {
		v := float64(s)
		if math.IsNaN(v) {
			continue
		}
		sum += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	return Level{
		RMS:  math.Min(math.Sqrt(sum/float64(len(samples))), 1),
		Peak: math.Min(peak, 1),
	}
}

// IsSilent reports whether the RMS level of samples stays below threshold
func IsSilent(samples []float32, threshold float64) bool {
	return Measure(samples).RMS < threshold
}

// PCM16Level measures little-endian 16-bit PCM, as stored in a WAV payload
func PCM16Level(data []byte) Level {
	count := len(data) / 2
	samples := make([]float32, count)
	for i := 0; i < count; i++ {
		v := int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
		samples[i] = float32(v) / 32768.0
	}
	return Measure(samples)
}
