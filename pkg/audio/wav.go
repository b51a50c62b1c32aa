package audio

import (
	"fmt"
)

// 16-bit mono PCM is the only WAV shape exchanged with the model
// services, so the codec here stays deliberately small.

const wavHeaderSize = 44

// EncodeWAV wraps normalized mono float samples into a 16-bit PCM WAV file.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	pcm := Float32ToPCM16(samples)

	const (
		numChannels   = 1
		bitsPerSample = 16
	)

	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	wavSize := wavHeaderSize + len(pcm)

	header := make([]byte, wavHeaderSize)

	copy(header[0:4], "RIFF")
	writeUint32LE(header[4:8], uint32(wavSize-8))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	writeUint32LE(header[16:20], 16) // PCM format chunk size
	writeUint16LE(header[20:22], 1)  // PCM format
	writeUint16LE(header[22:24], uint16(numChannels))
	writeUint32LE(header[24:28], uint32(sampleRate))
	writeUint32LE(header[28:32], uint32(byteRate))
	writeUint16LE(header[32:34], uint16(blockAlign))
	writeUint16LE(header[34:36], uint16(bitsPerSample))

	copy(header[36:40], "data")
	writeUint32LE(header[40:44], uint32(len(pcm)))

	out := make([]byte, 0, wavSize)
	out = append(out, header...)
	out = append(out, pcm...)
	return out
}

// DecodeWAV extracts normalized mono float samples and the sample rate
// from a 16-bit PCM WAV file. Multi-channel files are averaged to mono.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < wavHeaderSize {
		return nil, 0, fmt.Errorf("wav file too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	format := readUint16LE(data[20:22])
	if format != 1 {
		return nil, 0, fmt.Errorf("unsupported wav format %d, want PCM", format)
	}
	channels := int(readUint16LE(data[22:24]))
	sampleRate := int(readUint32LE(data[24:28]))
	bitsPerSample := readUint16LE(data[34:36])
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d, want 16", bitsPerSample)
	}
	if channels < 1 {
		return nil, 0, fmt.Errorf("invalid channel count %d", channels)
	}

	// Find the data sub-chunk; some encoders insert extra chunks before it.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(readUint32LE(data[off+4 : off+8]))
		if id == "data" {
			body := data[off+8:]
			if size < len(body) {
				body = body[:size]
			}
			samples := PCM16ToFloat32(body)
			if channels > 1 {
				frame := Frame{Samples: samples, SampleRate: sampleRate, Channels: channels}
				samples = frame.Mono()
			}
			return samples, sampleRate, nil
		}
		off += 8 + size
	}

	return nil, 0, fmt.Errorf("wav data chunk not found")
}

func writeUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func writeUint16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func readUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func readUint16LE(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
