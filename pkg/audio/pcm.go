package audio

// PCM16ToFloat32 converts little-endian 16-bit PCM bytes to normalized
// float samples in [-1, 1].
func PCM16ToFloat32(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(data[2*i]) | int16(data[2*i+1])<<8
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// Float32ToPCM16 converts normalized float samples to little-endian
// 16-bit PCM bytes, clipping out-of-range values.
func Float32ToPCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1.0 {
			f = 1.0
		} else if f < -1.0 {
			f = -1.0
		}
		s := int16(f * 32767.0)
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return data
}
